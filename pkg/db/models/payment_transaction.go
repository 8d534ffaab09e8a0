package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
)

// PaymentItemSnapshot is the serialized cart line carried through the gateway
// round-trip and copied onto the order when payment confirms.
type PaymentItemSnapshot struct {
	ProductID     uuid.UUID `json:"productID"`
	Title         string    `json:"title"`
	PriceCents    int       `json:"price"`
	Quantity      int       `json:"quantity"`
	SubTotalCents int       `json:"subTotal"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
}

// PaymentTransaction records every payment initiation so that an abandoned or
// failed redirect leaves an auditable row instead of nothing.
type PaymentTransaction struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderRef      string                `gorm:"column:order_ref;not null;uniqueIndex"`
	Status        enums.PaymentStatus   `gorm:"column:status;not null;default:'pending'"`
	Name          string                `gorm:"column:name;not null"`
	Email         string                `gorm:"column:email;not null"`
	PhoneNo       string                `gorm:"column:phone_no;not null"`
	Address       string                `gorm:"column:address;not null"`
	SubtotalCents int                   `gorm:"column:subtotal_cents;not null"`
	TaxCents      int                   `gorm:"column:tax_cents;not null"`
	TotalCents    int                   `gorm:"column:total_cents;not null"`
	Items         []PaymentItemSnapshot `gorm:"column:items;type:jsonb;serializer:json"`
	Signature     string                `gorm:"column:signature;not null"`
	PaidAt        *time.Time            `gorm:"column:paid_at"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentTransaction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
