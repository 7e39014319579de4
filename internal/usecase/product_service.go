package usecase

import (
	"context"
	"strings"

	"github.com/ecoscan/backend/internal/domain"
)

// ProductService is the single-item resolution path plus the store-backed
// read operations.
type ProductService struct {
	store   domain.ProductStore
	fetcher domain.ProductFetcher
}

// NewProductService creates a product service with its dependencies.
func NewProductService(store domain.ProductStore, fetcher domain.ProductFetcher) *ProductService {
	return &ProductService{
		store:   store,
		fetcher: fetcher,
	}
}

// CreateOrUpdate fetches a barcode live from upstream, persists it
// (replace-by-barcode) and returns the canonical stored record.
func (s *ProductService) CreateOrUpdate(ctx context.Context, barcode string) (*domain.Product, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, domain.ErrInvalidRequest
	}

	p, err := s.fetcher.Resolve(ctx, barcode)
	if err != nil {
		return nil, err
	}

	return s.store.UpsertOne(ctx, p)
}

// Lookup returns the live stored record for a barcode, or ErrNotInStore.
func (s *ProductService) Lookup(ctx context.Context, barcode string) (*domain.Product, error) {
	return s.store.Get(ctx, barcode)
}

// Search returns live records whose name matches q.
func (s *ProductService) Search(ctx context.Context, q string) ([]*domain.Product, error) {
	if len(strings.TrimSpace(q)) < 2 {
		return nil, domain.ErrInvalidRequest
	}
	return s.store.Search(ctx, q)
}
