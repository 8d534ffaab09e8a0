package wishlist

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/stylehaven-za/stylehaven-backend/internal/products"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type stubWishlistRepo struct {
	items map[string]*models.WishlistItem // key token|productID
}

func newStubWishlistRepo() *stubWishlistRepo {
	return &stubWishlistRepo{items: map[string]*models.WishlistItem{}}
}

func key(token string, productID uuid.UUID) string {
	return token + "|" + productID.String()
}

func (s *stubWishlistRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubWishlistRepo) Upsert(ctx context.Context, item *models.WishlistItem) error {
	s.items[key(item.Token, item.ProductID)] = item
	return nil
}

func (s *stubWishlistRepo) ListByToken(ctx context.Context, token string) ([]models.WishlistItem, error) {
	var out []models.WishlistItem
	for _, item := range s.items {
		if item.Token == token {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubWishlistRepo) Delete(ctx context.Context, token string, productID uuid.UUID) (int64, error) {
	if _, ok := s.items[key(token, productID)]; !ok {
		return 0, nil
	}
	delete(s.items, key(token, productID))
	return 1, nil
}

type stubProducts struct {
	listing *product.ProductDTO
	err     error
}

func (s *stubProducts) GetByID(ctx context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.listing, nil
}

func listing(id uuid.UUID) *product.ProductDTO {
	return &product.ProductDTO{
		ID:    id,
		Name:  "Linen Shirt",
		Brand: "Cape Thread Co",
		Variants: []product.VariantDTO{{
			Color: "Navy",
			Sizes: []product.SizeDTO{{Size: "M", PriceCents: 45900, Stock: 12}},
		}},
	}
}

func newWishlist(t *testing.T, repo Repository, catalog productLoader) Service {
	t.Helper()
	svc, err := NewService(repo, catalog)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestAddSnapshotsProduct(t *testing.T) {
	productID := uuid.New()
	repo := newStubWishlistRepo()
	svc := newWishlist(t, repo, &stubProducts{listing: listing(productID)})
	token := uuid.NewString()

	item, err := svc.Add(context.Background(), token, productID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Title != "Linen Shirt" || item.Brand != "Cape Thread Co" {
		t.Fatalf("snapshot fields wrong: %+v", item)
	}
	if item.PriceCents != 45900 || item.Price != "459.00" {
		t.Fatalf("snapshot price wrong: %+v", item)
	}
}

func TestAddIsIdempotent(t *testing.T) {
	productID := uuid.New()
	repo := newStubWishlistRepo()
	svc := newWishlist(t, repo, &stubProducts{listing: listing(productID)})
	token := uuid.NewString()

	if _, err := svc.Add(context.Background(), token, productID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if _, err := svc.Add(context.Background(), token, productID); err != nil {
		t.Fatalf("repeat add: %v", err)
	}

	items, err := svc.List(context.Background(), token)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after repeated add, got %d", len(items))
	}
}

func TestAddUnknownProduct(t *testing.T) {
	repo := newStubWishlistRepo()
	svc := newWishlist(t, repo, &stubProducts{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")})

	_, err := svc.Add(context.Background(), uuid.NewString(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListsAreScopedByToken(t *testing.T) {
	productID := uuid.New()
	repo := newStubWishlistRepo()
	svc := newWishlist(t, repo, &stubProducts{listing: listing(productID)})

	tokenA := uuid.NewString()
	tokenB := uuid.NewString()
	if _, err := svc.Add(context.Background(), tokenA, productID); err != nil {
		t.Fatalf("add: %v", err)
	}

	items, err := svc.List(context.Background(), tokenB)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("token B sees token A's wishlist")
	}
}

func TestRemove(t *testing.T) {
	productID := uuid.New()
	repo := newStubWishlistRepo()
	svc := newWishlist(t, repo, &stubProducts{listing: listing(productID)})
	token := uuid.NewString()

	if _, err := svc.Add(context.Background(), token, productID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.Remove(context.Background(), token, productID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	err := svc.Remove(context.Background(), token, productID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found on second remove, got %v", err)
	}
}
