package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes catalog operations.
type Service interface {
	List(ctx context.Context, limit int) ([]ProductDTO, error)
	ListFeatured(ctx context.Context, limit int) ([]ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Create(ctx context.Context, input ProductInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error)
	ResolveOffer(ctx context.Context, productID uuid.UUID, color, size string) (*Offer, error)
}

type service struct {
	repo              Repository
	tx                txRunner
	lowStockThreshold int
}

// NewService builds a catalog service backed by the provided stack.
func NewService(repo Repository, tx txRunner, lowStockThreshold int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if lowStockThreshold < 0 {
		return nil, fmt.Errorf("low stock threshold must be non-negative")
	}
	return &service{repo: repo, tx: tx, lowStockThreshold: lowStockThreshold}, nil
}

func (s *service) List(ctx context.Context, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return s.toDTOs(rows), nil
}

func (s *service) ListFeatured(ctx context.Context, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	return s.toDTOs(rows), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return toDTO(row, s.lowStockThreshold), nil
}

func (s *service) Create(ctx context.Context, input ProductInput) (*ProductDTO, error) {
	if err := validateVariantShape(input); err != nil {
		return nil, err
	}

	row := buildModel(uuid.Nil, input)
	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.repo.WithTx(tx).Create(ctx, row)
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return toDTO(created, s.lowStockThreshold), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := validateVariantShape(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	replacement := buildModel(existing.ID, input)
	replacement.CreatedAt = existing.CreatedAt

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.DeleteVariants(ctx, existing.ID); txErr != nil {
			return txErr
		}
		_, txErr := repo.Save(ctx, replacement)
		return txErr
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}

	reloaded, err := s.repo.FindByID(ctx, existing.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload product")
	}
	return toDTO(reloaded, s.lowStockThreshold), nil
}

// ResolveOffer looks up price and stock for a (product, color, size) triple.
// Color and size matching is exact and case-sensitive.
func (s *service) ResolveOffer(ctx context.Context, productID uuid.UUID, color, size string) (*Offer, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	for _, variant := range row.Variants {
		if variant.Color != color {
			continue
		}
		for _, sz := range variant.Sizes {
			if sz.Size != size {
				continue
			}
			return &Offer{
				ProductID:      row.ID,
				Title:          row.Name,
				Color:          variant.Color,
				Size:           sz.Size,
				UnitPriceCents: sz.PriceCents,
				Stock:          sz.Stock,
			}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant size not found")
}

func (s *service) toDTOs(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i], s.lowStockThreshold))
	}
	return out
}

// validateVariantShape rejects duplicate colors and duplicate sizes inside a
// color. The struct-tag validation upstream covers presence and ranges.
func validateVariantShape(input ProductInput) error {
	colors := map[string]struct{}{}
	for _, variant := range input.Variants {
		if _, dup := colors[variant.Color]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate variant color %q", variant.Color))
		}
		colors[variant.Color] = struct{}{}

		sizes := map[string]struct{}{}
		for _, sz := range variant.Sizes {
			if _, dup := sizes[sz.Size]; dup {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate size %q in color %q", sz.Size, variant.Color))
			}
			sizes[sz.Size] = struct{}{}
		}
	}
	return nil
}

func buildModel(id uuid.UUID, input ProductInput) *models.Product {
	row := &models.Product{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Brand:       input.Brand,
		Category:    input.Category,
		IsFeatured:  input.IsFeatured,
		MainImage:   input.MainImage,
		Tags:        input.Tags,
	}
	for vi, variant := range input.Variants {
		v := models.ProductVariant{
			Color:    variant.Color,
			Image:    variant.Image,
			Position: vi,
		}
		for si, sz := range variant.Sizes {
			v.Sizes = append(v.Sizes, models.VariantSize{
				Size:       sz.Size,
				PriceCents: sz.PriceCents,
				Stock:      sz.Stock,
				Position:   si,
			})
		}
		row.Variants = append(row.Variants, v)
	}
	return row
}
