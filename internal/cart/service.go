package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	product "github.com/stylehaven-za/stylehaven-backend/internal/products"
	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
	pkgerrors "github.com/stylehaven-za/stylehaven-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type offerResolver interface {
	ResolveOffer(ctx context.Context, productID uuid.UUID, color, size string) (*product.Offer, error)
}

// AddItemInput identifies the (product, color, size) selection to add.
type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Color     string    `json:"color" validate:"required,min=1,max=60"`
	Size      string    `json:"size" validate:"required,min=1,max=20"`
	Quantity  int       `json:"quantity" validate:"required,gte=1"`
}

// LineDTO is the API representation of one cart line.
type LineDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"productId"`
	Title          string    `json:"title"`
	Color          string    `json:"color"`
	Size           string    `json:"size"`
	UnitPriceCents int       `json:"unitPriceCents"`
	UnitPrice      string    `json:"unitPrice"`
	Quantity       int       `json:"quantity"`
	LineTotalCents int       `json:"lineTotalCents"`
}

// CartDTO is the API representation of a cart.
type CartDTO struct {
	Token         string    `json:"token"`
	Lines         []LineDTO `json:"lines"`
	SubtotalCents int       `json:"subtotalCents"`
	ItemCount     int       `json:"itemCount"`
}

// AddResult pairs the refreshed cart with what the merge did.
type AddResult struct {
	Cart    *CartDTO `json:"cart"`
	Outcome Outcome  `json:"outcome"`
}

// Service exposes the server-authoritative cart operations. Every mutation is
// written through before the call returns.
type Service interface {
	Get(ctx context.Context, token string) (*CartDTO, error)
	AddItem(ctx context.Context, token string, input AddItemInput) (*AddResult, error)
	UpdateQuantity(ctx context.Context, token string, lineID uuid.UUID, quantity int) (*CartDTO, error)
	RemoveItem(ctx context.Context, token string, lineID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, token string) error
}

type service struct {
	repo        Repository
	tx          txRunner
	catalog     offerResolver
	maxDistinct int
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, catalog offerResolver, maxDistinct int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("offer resolver required")
	}
	if maxDistinct < 1 {
		return nil, fmt.Errorf("max distinct lines must be at least 1")
	}
	return &service{repo: repo, tx: tx, catalog: catalog, maxDistinct: maxDistinct}, nil
}

func (s *service) Get(ctx context.Context, token string) (*CartDTO, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	cart, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCart(token), nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return toCartDTO(cart), nil
}

func (s *service) AddItem(ctx context.Context, token string, input AddItemInput) (*AddResult, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	offer, err := s.catalog.ResolveOffer(ctx, input.ProductID, input.Color, input.Size)
	if err != nil {
		return nil, err
	}
	if offer.Stock < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "size is out of stock")
	}

	incoming := models.CartLine{
		ProductID:      offer.ProductID,
		Title:          offer.Title,
		Color:          offer.Color,
		Size:           offer.Size,
		UnitPriceCents: offer.UnitPriceCents,
		Quantity:       ClampQuantity(input.Quantity, offer.Stock),
	}

	var outcome Outcome
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, txErr := repo.FindOrCreateByToken(ctx, token)
		if txErr != nil {
			return txErr
		}

		merged, result := Merge(cart.Lines, incoming, s.maxDistinct)
		outcome = result

		switch result {
		case OutcomeRejectedLimitReached:
			return pkgerrors.New(pkgerrors.CodeConflict,
				fmt.Sprintf("cart holds the maximum of %d distinct items", s.maxDistinct))
		case OutcomeMerged:
			for i := range merged {
				if sameIdentity(merged[i], incoming) {
					return repo.UpdateLineQuantity(ctx, merged[i].ID, ClampQuantity(merged[i].Quantity, offer.Stock))
				}
			}
			return fmt.Errorf("merged line missing from result")
		default:
			line := merged[len(merged)-1]
			line.CartID = cart.ID
			_, txErr = repo.CreateLine(ctx, &line)
			return txErr
		}
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	cart, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return &AddResult{Cart: toCartDTO(cart), Outcome: outcome}, nil
}

func (s *service) UpdateQuantity(ctx context.Context, token string, lineID uuid.UUID, quantity int) (*CartDTO, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}

	cart, line, err := s.loadLine(ctx, token, lineID)
	if err != nil {
		return nil, err
	}

	offer, err := s.catalog.ResolveOffer(ctx, line.ProductID, line.Color, line.Size)
	if err != nil {
		return nil, err
	}

	clamped := ClampQuantity(quantity, offer.Stock)
	if clamped != line.Quantity {
		if err := s.repo.UpdateLineQuantity(ctx, line.ID, clamped); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart quantity")
		}
	}

	reloaded, err := s.repo.FindByToken(ctx, cart.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return toCartDTO(reloaded), nil
}

func (s *service) RemoveItem(ctx context.Context, token string, lineID uuid.UUID) (*CartDTO, error) {
	if err := validateToken(token); err != nil {
		return nil, err
	}

	cart, line, err := s.loadLine(ctx, token, lineID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.DeleteLine(ctx, cart.ID, line.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}

	reloaded, err := s.repo.FindByToken(ctx, cart.Token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload cart")
	}
	return toCartDTO(reloaded), nil
}

func (s *service) Clear(ctx context.Context, token string) error {
	if err := validateToken(token); err != nil {
		return err
	}

	cart, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) loadLine(ctx context.Context, token string, lineID uuid.UUID) (*models.Cart, *models.CartLine, error) {
	if lineID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "line id is required")
	}

	cart, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	line, err := s.repo.FindLine(ctx, cart.ID, lineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}
	return cart, line, nil
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

func emptyCart(token string) *CartDTO {
	return &CartDTO{Token: token, Lines: []LineDTO{}}
}

func toCartDTO(cart *models.Cart) *CartDTO {
	dto := &CartDTO{Token: cart.Token, Lines: make([]LineDTO, 0, len(cart.Lines))}
	for _, line := range cart.Lines {
		lineTotal := line.UnitPriceCents * line.Quantity
		dto.Lines = append(dto.Lines, LineDTO{
			ID:             line.ID,
			ProductID:      line.ProductID,
			Title:          line.Title,
			Color:          line.Color,
			Size:           line.Size,
			UnitPriceCents: line.UnitPriceCents,
			UnitPrice:      product.FormatPrice(line.UnitPriceCents),
			Quantity:       line.Quantity,
			LineTotalCents: lineTotal,
		})
		dto.SubtotalCents += lineTotal
		dto.ItemCount += line.Quantity
	}
	return dto
}
