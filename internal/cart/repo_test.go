package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stylehaven-za/stylehaven-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Cart{}, &models.CartLine{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestFindOrCreateByTokenIsStable(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	token := uuid.NewString()

	first, err := repo.FindOrCreateByToken(ctx, token)
	if err != nil {
		t.Fatalf("first find-or-create: %v", err)
	}
	second, err := repo.FindOrCreateByToken(ctx, token)
	if err != nil {
		t.Fatalf("second find-or-create: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same token produced two carts")
	}
}

func TestReloadPreservesInsertionOrder(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	token := uuid.NewString()

	cart, err := repo.FindOrCreateByToken(ctx, token)
	if err != nil {
		t.Fatalf("find-or-create: %v", err)
	}

	titles := []string{"Linen Shirt", "Chino Trousers", "Wool Beanie"}
	for i, title := range titles {
		_, err := repo.CreateLine(ctx, &models.CartLine{
			CartID:         cart.ID,
			ProductID:      uuid.New(),
			Title:          title,
			Color:          "Navy",
			Size:           "M",
			UnitPriceCents: 1000 * (i + 1),
			Quantity:       1,
			Position:       i,
		})
		if err != nil {
			t.Fatalf("create line %d: %v", i, err)
		}
	}

	for attempt := 0; attempt < 3; attempt++ {
		reloaded, err := repo.FindByToken(ctx, token)
		if err != nil {
			t.Fatalf("reload %d: %v", attempt, err)
		}
		if len(reloaded.Lines) != len(titles) {
			t.Fatalf("expected %d lines, got %d", len(titles), len(reloaded.Lines))
		}
		for i, line := range reloaded.Lines {
			if line.Title != titles[i] {
				t.Fatalf("reload %d: position %d holds %q, want %q", attempt, i, line.Title, titles[i])
			}
		}
	}
}

func TestDeleteLineIsScopedToCart(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()

	mine, err := repo.FindOrCreateByToken(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	other, err := repo.FindOrCreateByToken(ctx, uuid.NewString())
	if err != nil {
		t.Fatalf("create other cart: %v", err)
	}

	line, err := repo.CreateLine(ctx, &models.CartLine{
		CartID:         other.ID,
		ProductID:      uuid.New(),
		Title:          "Linen Shirt",
		Color:          "Navy",
		Size:           "M",
		UnitPriceCents: 45900,
		Quantity:       1,
	})
	if err != nil {
		t.Fatalf("create line: %v", err)
	}

	// Deleting through the wrong cart must be a no-op.
	if err := repo.DeleteLine(ctx, mine.ID, line.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindLine(ctx, other.ID, line.ID); err != nil {
		t.Fatalf("line vanished through foreign cart delete: %v", err)
	}
}

func TestClearLinesLeavesCartRow(t *testing.T) {
	repo := NewRepository(openTestDB(t))
	ctx := context.Background()
	token := uuid.NewString()

	cart, err := repo.FindOrCreateByToken(ctx, token)
	if err != nil {
		t.Fatalf("create cart: %v", err)
	}
	if _, err := repo.CreateLine(ctx, &models.CartLine{
		CartID:         cart.ID,
		ProductID:      uuid.New(),
		Title:          "Linen Shirt",
		Color:          "Navy",
		Size:           "M",
		UnitPriceCents: 45900,
		Quantity:       2,
	}); err != nil {
		t.Fatalf("create line: %v", err)
	}

	if err := repo.ClearLines(ctx, cart.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}

	reloaded, err := repo.FindByToken(ctx, token)
	if err != nil {
		t.Fatalf("cart row disappeared after clear: %v", err)
	}
	if len(reloaded.Lines) != 0 {
		t.Fatalf("lines survived clear")
	}
}
