package wishlist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	product "github.com/stylehaven-za/stylehaven-backend/internal/products"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type productLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error)
}

// ItemDTO is the API representation of a saved wishlist entry.
type ItemDTO struct {
	ProductID  uuid.UUID `json:"productId"`
	Title      string    `json:"title"`
	Brand      string    `json:"brand"`
	MainImage  *string   `json:"mainImage,omitempty"`
	PriceCents int       `json:"priceCents"`
	Price      string    `json:"price"`
	SavedAt    time.Time `json:"savedAt"`
}

// Service exposes wishlist operations keyed by the client cart token.
type Service interface {
	Add(ctx context.Context, token string, productID uuid.UUID) (*ItemDTO, error)
	List(ctx context.Context, token string) ([]ItemDTO, error)
	Remove(ctx context.Context, token string, productID uuid.UUID) error
}

type service struct {
	repo    Repository
	catalog productLoader
}

// NewService builds a wishlist service backed by the provided stack.
func NewService(repo Repository, catalog productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repository required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, catalog: catalog}, nil
}

// Add snapshots the product onto the wishlist. Re-adding the same product
// refreshes the snapshot instead of failing.
func (s *service) Add(ctx context.Context, token string, productID uuid.UUID) (*ItemDTO, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	listing, err := s.catalog.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	item := &models.WishlistItem{
		Token:      token,
		ProductID:  listing.ID,
		Title:      listing.Name,
		Brand:      listing.Brand,
		MainImage:  listing.MainImage,
		PriceCents: representativePrice(listing),
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save wishlist item")
	}
	return toItemDTO(item), nil
}

func (s *service) List(ctx context.Context, token string) ([]ItemDTO, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := make([]ItemDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toItemDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) Remove(ctx context.Context, token string, productID uuid.UUID) error {
	if err := validateToken(token); err != nil {
		return err
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	affected, err := s.repo.Delete(ctx, token, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist item not found")
	}
	return nil
}

// representativePrice takes the first size of the first variant, matching the
// card price the storefront shows.
func representativePrice(listing *product.ProductDTO) int {
	for _, variant := range listing.Variants {
		for _, size := range variant.Sizes {
			return size.PriceCents
		}
	}
	return 0
}

func validateToken(token string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token is required")
	}
	if _, err := uuid.Parse(token); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart token must be a UUID")
	}
	return nil
}

func toItemDTO(item *models.WishlistItem) *ItemDTO {
	return &ItemDTO{
		ProductID:  item.ProductID,
		Title:      item.Title,
		Brand:      item.Brand,
		MainImage:  item.MainImage,
		PriceCents: item.PriceCents,
		Price:      product.FormatPrice(item.PriceCents),
		SavedAt:    item.CreatedAt,
	}
}
