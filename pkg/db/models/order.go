package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
)

// Order is the persisted record of a confirmed purchase. Rows are created
// exclusively by the payment notify webhook, keyed by the business OrderID.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	OrderID        string               `gorm:"column:order_id;not null;uniqueIndex"`
	Name           string               `gorm:"column:name;not null"`
	Email          string               `gorm:"column:email;not null"`
	PhoneNo        string               `gorm:"column:phone_no;not null"`
	Address        string               `gorm:"column:address;not null"`
	SubtotalCents  int                  `gorm:"column:subtotal_cents;not null"`
	TaxCents       int                  `gorm:"column:tax_cents;not null"`
	TotalCents     int                  `gorm:"column:total_cents;not null"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;not null;default:'Processing'"`
	Items          []OrderItem          `gorm:"foreignKey:OrderRef;references:ID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrderItem snapshots one purchased line at the price paid.
type OrderItem struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderRef      uuid.UUID `gorm:"column:order_ref;type:uuid;not null;index"`
	ProductID     uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Title         string    `gorm:"column:title;not null"`
	PriceCents    int       `gorm:"column:price_cents;not null"`
	Quantity      int       `gorm:"column:quantity;not null"`
	SubTotalCents int       `gorm:"column:sub_total_cents;not null"`
	Size          string    `gorm:"column:size;not null"`
	Color         string    `gorm:"column:color;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
