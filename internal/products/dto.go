package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
)

// Offer resolves a purchasable (product, color, size) triple to its price and
// stock. The cart layer consumes this instead of touching catalog rows.
type Offer struct {
	ProductID      uuid.UUID
	Title          string
	Color          string
	Size           string
	UnitPriceCents int
	Stock          int
}

// ProductInput is the create/update payload for a catalog listing.
type ProductInput struct {
	Name        string         `json:"name" validate:"required,min=2,max=200"`
	Description *string        `json:"description,omitempty" validate:"omitempty,max=5000"`
	Brand       string         `json:"brand" validate:"required,min=1,max=120"`
	Category    string         `json:"category" validate:"required,min=1,max=120"`
	IsFeatured  bool           `json:"isFeatured"`
	MainImage   *string        `json:"mainImage,omitempty" validate:"omitempty,url"`
	Tags        []string       `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=60"`
	Variants    []VariantInput `json:"variants" validate:"required,min=1,dive"`
}

// VariantInput is one color grouping within a product payload.
type VariantInput struct {
	Color string      `json:"color" validate:"required,min=1,max=60"`
	Image *string     `json:"image,omitempty" validate:"omitempty,url"`
	Sizes []SizeInput `json:"sizes" validate:"required,min=1,dive"`
}

// SizeInput is one size row within a variant payload.
type SizeInput struct {
	Size       string `json:"size" validate:"required,min=1,max=20"`
	PriceCents int    `json:"priceCents" validate:"required,gt=0"`
	Stock      int    `json:"stock" validate:"gte=0"`
}

// ProductDTO is the API representation of a catalog listing.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description *string      `json:"description,omitempty"`
	Brand       string       `json:"brand"`
	Category    string       `json:"category"`
	IsFeatured  bool         `json:"isFeatured"`
	MainImage   *string      `json:"mainImage,omitempty"`
	Tags        []string     `json:"tags"`
	Variants    []VariantDTO `json:"variants"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// VariantDTO is the API representation of a color grouping.
type VariantDTO struct {
	ID    uuid.UUID `json:"id"`
	Color string    `json:"color"`
	Image *string   `json:"image,omitempty"`
	Sizes []SizeDTO `json:"sizes"`
}

// SizeDTO carries price, stock and the low-stock signal for one size.
type SizeDTO struct {
	ID         uuid.UUID `json:"id"`
	Size       string    `json:"size"`
	PriceCents int       `json:"priceCents"`
	Price      string    `json:"price"`
	Stock      int       `json:"stock"`
	LowStock   bool      `json:"lowStock"`
}

// FormatPrice renders integer cents as a major-unit decimal string.
func FormatPrice(cents int) string {
	return decimal.NewFromInt(int64(cents)).Shift(-2).StringFixed(2)
}

func toDTO(p *models.Product, lowStockThreshold int) *ProductDTO {
	dto := &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Brand:       p.Brand,
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
		MainImage:   p.MainImage,
		Tags:        []string(p.Tags),
		Variants:    make([]VariantDTO, 0, len(p.Variants)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	for _, variant := range p.Variants {
		v := VariantDTO{
			ID:    variant.ID,
			Color: variant.Color,
			Image: variant.Image,
			Sizes: make([]SizeDTO, 0, len(variant.Sizes)),
		}
		for _, size := range variant.Sizes {
			v.Sizes = append(v.Sizes, SizeDTO{
				ID:         size.ID,
				Size:       size.Size,
				PriceCents: size.PriceCents,
				Price:      FormatPrice(size.PriceCents),
				Stock:      size.Stock,
				LowStock:   size.Stock < lowStockThreshold,
			})
		}
		dto.Variants = append(dto.Variants, v)
	}
	return dto
}
