package store

import (
	"context"
	"testing"
	"time"

	"github.com/ecoscan/backend/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func testProduct(barcode, name string) *domain.Product {
	return &domain.Product{
		Barcode:     barcode,
		Name:        name,
		Brand:       "Test Brand",
		Category:    "Test Category",
		Ingredients: []string{"water", "oats"},
		Nutriments:  domain.Nutriments{Calories: floatPtr(42)},
		Allergens:   []string{"en:gluten"},
	}
}

func TestMemoryStore_UpsertOneAndGet(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)
	ctx := context.Background()

	stored, err := s.UpsertOne(ctx, testProduct("123", "Oat Milk"))
	if err != nil {
		t.Fatalf("UpsertOne() error = %v", err)
	}
	if stored.ID == "" {
		t.Error("UpsertOne() did not assign a store id")
	}
	if stored.FetchedAt.IsZero() {
		t.Error("UpsertOne() did not stamp fetched_at")
	}

	got, err := s.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Oat Milk" {
		t.Errorf("Get() name = %s, want Oat Milk", got.Name)
	}
	if got.ID != stored.ID {
		t.Errorf("Get() id = %s, want %s", got.ID, stored.ID)
	}
}

func TestMemoryStore_Get_Absent(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)

	_, err := s.Get(context.Background(), "missing")
	if err != domain.ErrNotInStore {
		t.Errorf("Get() error = %v, want ErrNotInStore", err)
	}
}

func TestMemoryStore_UpsertPreservesID(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)
	ctx := context.Background()

	first, err := s.UpsertOne(ctx, testProduct("123", "Oat Milk"))
	if err != nil {
		t.Fatalf("UpsertOne() error = %v", err)
	}

	// Re-fetch fully replaces the fields but keeps the assigned id
	replacement := testProduct("123", "Oat Drink")
	replacement.Ingredients = []string{"water"}
	second, err := s.UpsertOne(ctx, replacement)
	if err != nil {
		t.Fatalf("UpsertOne() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("id changed across upserts: %s -> %s", first.ID, second.ID)
	}
	if second.Name != "Oat Drink" {
		t.Errorf("name = %s, want Oat Drink", second.Name)
	}
	if len(second.Ingredients) != 1 {
		t.Errorf("ingredients = %v, want full replacement", second.Ingredients)
	}
	if s.Size() != 1 {
		t.Errorf("Size() = %d, want 1 live document per barcode", s.Size())
	}
}

func TestMemoryStore_UpsertMany(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)
	ctx := context.Background()

	err := s.UpsertMany(ctx, []*domain.Product{
		testProduct("1", "Milk"),
		testProduct("2", "Bread"),
		testProduct("3", "Butter"),
	})
	if err != nil {
		t.Fatalf("UpsertMany() error = %v", err)
	}

	for _, barcode := range []string{"1", "2", "3"} {
		got, err := s.Get(ctx, barcode)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", barcode, err)
		}
		if got.ID == "" {
			t.Errorf("Get(%s) missing store id", barcode)
		}
	}
}

func TestMemoryStore_ReapsExpiredDocuments(t *testing.T) {
	s := NewMemoryStore(20*time.Millisecond, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := s.UpsertOne(ctx, testProduct("123", "Oat Milk")); err != nil {
		t.Fatalf("UpsertOne() error = %v", err)
	}

	// Wait past the retention window plus a reap cycle
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := s.Get(ctx, "123"); err == domain.ErrNotInStore {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("expired document was never reaped")
}

func TestMemoryStore_GetDoesNotAliasStoredSlices(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)
	ctx := context.Background()

	if _, err := s.UpsertOne(ctx, testProduct("123", "Oat Milk")); err != nil {
		t.Fatalf("UpsertOne() error = %v", err)
	}

	got, err := s.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	got.Ingredients[0] = "mutated"

	again, err := s.Get(ctx, "123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.Ingredients[0] != "water" {
		t.Errorf("stored document was mutated through a returned copy")
	}
}

func TestMemoryStore_Search(t *testing.T) {
	s := NewMemoryStore(24*time.Hour, time.Minute)
	ctx := context.Background()

	err := s.UpsertMany(ctx, []*domain.Product{
		testProduct("1", "Oat Milk"),
		testProduct("2", "Almond Milk"),
		testProduct("3", "Dark Chocolate"),
	})
	if err != nil {
		t.Fatalf("UpsertMany() error = %v", err)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{name: "case-insensitive substring", query: "milk", want: 2},
		{name: "exact word", query: "Chocolate", want: 1},
		{name: "no match", query: "cheese", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(results) != tt.want {
				t.Errorf("Search(%q) = %d results, want %d", tt.query, len(results), tt.want)
			}
		})
	}
}
