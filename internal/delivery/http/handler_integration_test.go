package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecoscan/backend/config"
	"github.com/ecoscan/backend/internal/domain"
	"github.com/ecoscan/backend/internal/infrastructure/store"
	"github.com/ecoscan/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// mapFetcher resolves from a fixed map; unknown barcodes are not found.
type mapFetcher struct {
	products map[string]*domain.Product
}

func (f *mapFetcher) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	p, ok := f.products[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	c := *p
	return &c, nil
}

type testEnv struct {
	router *gin.Engine
	store  *store.MemoryStore
}

// setupTestEnv wires a router against an in-memory store and a map-backed
// fetcher.
func setupTestEnv(products map[string]*domain.Product) *testEnv {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:        "8080",
			Environment: "test",
		},
		Store: config.StoreConfig{Type: "memory", TTL: 24 * time.Hour},
		Batch: config.BatchConfig{MaxConcurrentFetches: 5},
	}

	st := store.NewMemoryStore(cfg.Store.TTL, time.Minute)
	fetcher := &mapFetcher{products: products}

	handler := NewHandler(
		usecase.NewProductService(st, fetcher),
		usecase.NewBatchResolver(st, fetcher, cfg.Batch.MaxConcurrentFetches),
	)

	return &testEnv{
		router: SetupRouter(cfg, handler),
		store:  st,
	}
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	env := setupTestEnv(nil)

	w := doJSON(env.router, "GET", "/health", "")

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", response["status"])
	}
	if response["service"] != "ecoscan-backend" {
		t.Errorf("service = %v, want ecoscan-backend", response["service"])
	}
}

func TestCreateOrUpdateProductEndpoint(t *testing.T) {
	env := setupTestEnv(map[string]*domain.Product{
		"123": {Barcode: "123", Name: "Oat Milk"},
	})

	t.Run("fetches and persists a known barcode", func(t *testing.T) {
		w := doJSON(env.router, "POST", "/api/v1/products", `{"barcode":"123"}`)

		if w.Code != http.StatusCreated {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusCreated, w.Body.String())
		}

		var p domain.Product
		if err := json.Unmarshal(w.Body.Bytes(), &p); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if p.Name != "Oat Milk" {
			t.Errorf("name = %s, want Oat Milk", p.Name)
		}
		if p.ID == "" {
			t.Error("response is missing the store-assigned id")
		}
	})

	t.Run("unknown barcode yields 404", func(t *testing.T) {
		w := doJSON(env.router, "POST", "/api/v1/products", `{"barcode":"999"}`)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("missing barcode yields 400", func(t *testing.T) {
		w := doJSON(env.router, "POST", "/api/v1/products", `{}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestBatchEndpoint(t *testing.T) {
	env := setupTestEnv(map[string]*domain.Product{
		"fetch-1": {Barcode: "fetch-1", Name: "Fetched"},
	})

	if _, err := env.store.UpsertOne(context.Background(), &domain.Product{Barcode: "cached-1", Name: "Cached"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	w := doJSON(env.router, "POST", "/api/v1/products/batch",
		`{"barcodes":["cached-1","fetch-1","missing-1"]}`)

	// Individual item failures never fail the endpoint
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var response struct {
		Metadata struct {
			Requested int `json:"requested"`
			Fetched   int `json:"fetched"`
			Cached    int `json:"cached"`
		} `json:"metadata"`
		Results []map[string]interface{} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Metadata.Requested != 3 {
		t.Errorf("requested = %d, want 3", response.Metadata.Requested)
	}
	if response.Metadata.Cached != 1 {
		t.Errorf("cached = %d, want 1", response.Metadata.Cached)
	}
	if response.Metadata.Fetched != 1 {
		t.Errorf("fetched = %d, want 1", response.Metadata.Fetched)
	}
	if len(response.Results) != 3 {
		t.Fatalf("results length = %d, want 3", len(response.Results))
	}

	// Output order matches input order
	if response.Results[0]["barcode"] != "cached-1" {
		t.Errorf("results[0] barcode = %v, want cached-1", response.Results[0]["barcode"])
	}
	if response.Results[1]["barcode"] != "fetch-1" {
		t.Errorf("results[1] barcode = %v, want fetch-1", response.Results[1]["barcode"])
	}

	// The failed item serializes as {barcode, error}
	if response.Results[2]["barcode"] != "missing-1" {
		t.Errorf("results[2] barcode = %v, want missing-1", response.Results[2]["barcode"])
	}
	if response.Results[2]["error"] == nil {
		t.Error("results[2] is missing the error descriptor")
	}

	t.Run("missing barcodes list yields 400", func(t *testing.T) {
		w := doJSON(env.router, "POST", "/api/v1/products/batch", `{}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

func TestGetProductEndpoints(t *testing.T) {
	env := setupTestEnv(nil)

	seed := &domain.Product{
		Barcode:   "123",
		Name:      "Oat Milk",
		Allergens: []string{"en:gluten"},
		Eco:       domain.EcoInfo{PackagingRecyclable: true},
	}
	if _, err := env.store.UpsertOne(context.Background(), seed); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	noAllergens := &domain.Product{Barcode: "456", Name: "Water", Allergens: []string{}}
	if _, err := env.store.UpsertOne(context.Background(), noAllergens); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{name: "product found", path: "/api/v1/products/123", want: http.StatusOK},
		{name: "product missing", path: "/api/v1/products/999", want: http.StatusNotFound},
		{name: "nutrients found", path: "/api/v1/products/123/nutrients", want: http.StatusOK},
		{name: "nutrients missing product", path: "/api/v1/products/999/nutrients", want: http.StatusNotFound},
		{name: "allergens found", path: "/api/v1/products/123/allergens", want: http.StatusOK},
		{name: "allergens empty list", path: "/api/v1/products/456/allergens", want: http.StatusNotFound},
		{name: "eco found", path: "/api/v1/products/123/eco", want: http.StatusOK},
		{name: "eco missing product", path: "/api/v1/products/999/eco", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(env.router, "GET", tt.path, "")
			if w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, w.Code, tt.want)
			}
		})
	}
}

func TestSearchEndpoint(t *testing.T) {
	env := setupTestEnv(nil)

	if _, err := env.store.UpsertOne(context.Background(), &domain.Product{Barcode: "1", Name: "Oat Milk"}); err != nil {
		t.Fatalf("seed store: %v", err)
	}

	t.Run("matching query", func(t *testing.T) {
		w := doJSON(env.router, "GET", "/api/v1/search?q=milk", "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var results []domain.Product
		if err := json.Unmarshal(w.Body.Bytes(), &results); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(results) != 1 {
			t.Errorf("results = %d, want 1", len(results))
		}
	})

	t.Run("short query yields 400", func(t *testing.T) {
		w := doJSON(env.router, "GET", "/api/v1/search?q=m", "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}
