package product

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type stubProductRepo struct {
	byID map[uuid.UUID]*models.Product

	created         *models.Product
	deletedVariants []uuid.UUID
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{byID: map[uuid.UUID]*models.Product{}}
}

func (s *stubProductRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.created = product
	s.byID[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) Save(ctx context.Context, product *models.Product) (*models.Product, error) {
	s.byID[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if product, ok := s.byID[id]; ok {
		return product, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(ctx context.Context, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, product := range s.byID {
		out = append(out, *product)
	}
	return out, nil
}

func (s *stubProductRepo) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	var out []models.Product
	for _, product := range s.byID {
		if product.IsFeatured {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (s *stubProductRepo) DeleteVariants(ctx context.Context, productID uuid.UUID) error {
	s.deletedVariants = append(s.deletedVariants, productID)
	return nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newProductService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, stubTx{}, 10)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func shirtInput() ProductInput {
	return ProductInput{
		Name:     "Linen Shirt",
		Brand:    "Cape Thread Co",
		Category: "shirts",
		Variants: []VariantInput{{
			Color: "Navy",
			Sizes: []SizeInput{
				{Size: "M", PriceCents: 45900, Stock: 12},
				{Size: "L", PriceCents: 45900, Stock: 3},
			},
		}},
	}
}

func TestCreateAssignsPositions(t *testing.T) {
	repo := newStubProductRepo()
	svc := newProductService(t, repo)

	input := shirtInput()
	input.Variants = append(input.Variants, VariantInput{
		Color: "Olive",
		Sizes: []SizeInput{{Size: "M", PriceCents: 47900, Stock: 5}},
	})

	if _, err := svc.Create(context.Background(), input); err != nil {
		t.Fatalf("create: %v", err)
	}

	created := repo.created
	if created.Variants[0].Position != 0 || created.Variants[1].Position != 1 {
		t.Fatalf("variant positions not assigned in declaration order")
	}
	if created.Variants[0].Sizes[1].Position != 1 {
		t.Fatalf("size positions not assigned in declaration order")
	}
}

func TestCreateRejectsDuplicateColor(t *testing.T) {
	svc := newProductService(t, newStubProductRepo())

	input := shirtInput()
	input.Variants = append(input.Variants, input.Variants[0])

	_, err := svc.Create(context.Background(), input)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetByIDFlagsLowStock(t *testing.T) {
	repo := newStubProductRepo()
	svc := newProductService(t, repo)

	created, err := svc.Create(context.Background(), shirtInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	dto, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	sizes := dto.Variants[0].Sizes
	if sizes[0].LowStock {
		t.Fatalf("stock 12 flagged low with threshold 10")
	}
	if !sizes[1].LowStock {
		t.Fatalf("stock 3 not flagged low with threshold 10")
	}
	if sizes[0].Price != "459.00" {
		t.Fatalf("unexpected formatted price %s", sizes[0].Price)
	}
}

func TestGetByIDUnknownProduct(t *testing.T) {
	svc := newProductService(t, newStubProductRepo())

	_, err := svc.GetByID(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateReplacesVariantTree(t *testing.T) {
	repo := newStubProductRepo()
	svc := newProductService(t, repo)

	created, err := svc.Create(context.Background(), shirtInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	input := shirtInput()
	input.Name = "Linen Shirt v2"
	input.Variants[0].Sizes = []SizeInput{{Size: "S", PriceCents: 39900, Stock: 8}}

	updated, err := svc.Update(context.Background(), created.ID, input)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(repo.deletedVariants) != 1 || repo.deletedVariants[0] != created.ID {
		t.Fatalf("old variant tree not removed")
	}
	if updated.Name != "Linen Shirt v2" {
		t.Fatalf("name not updated: %s", updated.Name)
	}
	if len(updated.Variants[0].Sizes) != 1 || updated.Variants[0].Sizes[0].Size != "S" {
		t.Fatalf("variant tree not replaced: %+v", updated.Variants)
	}
}

func TestResolveOffer(t *testing.T) {
	repo := newStubProductRepo()
	svc := newProductService(t, repo)

	created, err := svc.Create(context.Background(), shirtInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	offer, err := svc.ResolveOffer(context.Background(), created.ID, "Navy", "L")
	if err != nil {
		t.Fatalf("resolve offer: %v", err)
	}
	if offer.UnitPriceCents != 45900 || offer.Stock != 3 {
		t.Fatalf("wrong offer: %+v", offer)
	}

	cases := []struct {
		name  string
		color string
		size  string
	}{
		{"unknown color", "Red", "M"},
		{"unknown size", "Navy", "XS"},
		{"case sensitive color", "navy", "M"},
		{"case sensitive size", "Navy", "m"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ResolveOffer(context.Background(), created.ID, tc.color, tc.size)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
				t.Fatalf("expected not found, got %v", err)
			}
		})
	}
}
