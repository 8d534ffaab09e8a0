package pagination

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNormalizeLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLimit},
		{-5, DefaultLimit},
		{1, 1},
		{MaxLimit, MaxLimit},
		{MaxLimit + 1, MaxLimit},
		{10_000, MaxLimit},
	}

	for _, tc := range cases {
		if got := NormalizeLimit(tc.in); got != tc.want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLimitWithBuffer(t *testing.T) {
	if got := LimitWithBuffer(10); got != 11 {
		t.Fatalf("LimitWithBuffer(10) = %d", got)
	}
	if got := LimitWithBuffer(0); got != DefaultLimit+1 {
		t.Fatalf("LimitWithBuffer(0) = %d", got)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	original := Cursor{
		CreatedAt: time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(original)
	parsed, err := ParseCursor(encoded)
	if err != nil {
		t.Fatalf("ParseCursor returned error: %v", err)
	}
	if parsed == nil {
		t.Fatal("ParseCursor returned nil for valid cursor")
	}
	if !parsed.CreatedAt.Equal(original.CreatedAt) {
		t.Fatalf("timestamp mismatch: %s vs %s", parsed.CreatedAt, original.CreatedAt)
	}
	if parsed.ID != original.ID {
		t.Fatalf("id mismatch: %s vs %s", parsed.ID, original.ID)
	}
}

func TestParseCursorEmpty(t *testing.T) {
	parsed, err := ParseCursor("   ")
	if err != nil {
		t.Fatalf("empty cursor should not error: %v", err)
	}
	if parsed != nil {
		t.Fatal("empty cursor should yield nil")
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"not-base64!!", "bm8tcGlwZQ==", "MjAyNi0wMy0xNFQwOToyNjo1M1p8bm90LWEtdXVpZA=="} {
		if _, err := ParseCursor(bad); err == nil {
			t.Fatalf("expected ParseCursor(%q) to fail", bad)
		}
	}
}
