package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Product is the canonical catalog listing. Price and stock never live on the
// product itself; they resolve through a (variant, size) pair.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name        string           `gorm:"column:name;not null"`
	Description *string          `gorm:"column:description"`
	Brand       string           `gorm:"column:brand;not null"`
	Category    string           `gorm:"column:category;not null"`
	IsFeatured  bool             `gorm:"column:is_featured;not null;default:false"`
	MainImage   *string          `gorm:"column:main_image"`
	Tags        pq.StringArray   `gorm:"column:tags;type:text[]"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductVariant is a color-scoped grouping of a product.
type ProductVariant struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID     `gorm:"column:product_id;type:uuid;not null;index"`
	Color     string        `gorm:"column:color;not null"`
	Image     *string       `gorm:"column:image"`
	Position  int           `gorm:"column:position;not null;default:0"`
	Sizes     []VariantSize `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VariantSize carries price and stock for one size of one variant.
type VariantSize struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	VariantID  uuid.UUID `gorm:"column:variant_id;type:uuid;not null;index"`
	Size       string    `gorm:"column:size;not null"`
	PriceCents int       `gorm:"column:price_cents;not null"`
	Stock      int       `gorm:"column:stock;not null;default:0"`
	Position   int       `gorm:"column:position;not null;default:0"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *VariantSize) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
