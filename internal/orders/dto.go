package orders

import (
	"time"

	"github.com/google/uuid"

	product "github.com/stylehaven-za/stylehaven-backend/internal/products"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	"github.com/stylehaven-za/stylehaven-backend/pkg/enums"
)

// OrderDTO is the API representation of a placed order.
type OrderDTO struct {
	OrderID        string               `json:"orderId"`
	Name           string               `json:"name"`
	Email          string               `json:"email"`
	PhoneNo        string               `json:"phoneNo"`
	Address        string               `json:"address"`
	SubtotalCents  int                  `json:"subtotalCents"`
	TaxCents       int                  `json:"taxCents"`
	TotalCents     int                  `json:"totalCents"`
	Total          string               `json:"total"`
	DeliveryStatus enums.DeliveryStatus `json:"deliveryStatus"`
	Items          []OrderItemDTO       `json:"items"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// OrderItemDTO is one purchased line within an order.
type OrderItemDTO struct {
	ProductID     uuid.UUID `json:"productId"`
	Title         string    `json:"title"`
	PriceCents    int       `json:"priceCents"`
	Quantity      int       `json:"quantity"`
	SubTotalCents int       `json:"subTotalCents"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
}

func toOrderDTO(order *models.Order) *OrderDTO {
	dto := &OrderDTO{
		OrderID:        order.OrderID,
		Name:           order.Name,
		Email:          order.Email,
		PhoneNo:        order.PhoneNo,
		Address:        order.Address,
		SubtotalCents:  order.SubtotalCents,
		TaxCents:       order.TaxCents,
		TotalCents:     order.TotalCents,
		Total:          product.FormatPrice(order.TotalCents),
		DeliveryStatus: order.DeliveryStatus,
		Items:          make([]OrderItemDTO, 0, len(order.Items)),
		CreatedAt:      order.CreatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, OrderItemDTO{
			ProductID:     item.ProductID,
			Title:         item.Title,
			PriceCents:    item.PriceCents,
			Quantity:      item.Quantity,
			SubTotalCents: item.SubTotalCents,
			Size:          item.Size,
			Color:         item.Color,
		})
	}
	return dto
}
