package store

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecoscan/backend/internal/domain"
)

// MemoryStore is a thread-safe in-memory ProductStore used for tests and
// local development. Documents are keyed by barcode; the store-assigned id is
// a UUID minted on first upsert and preserved across re-upserts. A background
// reaper removes documents whose fetched_at is older than the retention
// window, so staleness is bounded by the reap interval, not exact.
type MemoryStore struct {
	data  map[string]*domain.Product
	ttl   time.Duration
	mutex sync.RWMutex
}

// NewMemoryStore creates a new in-memory store with the given retention
// window. The reaper wakes up every reapInterval.
func NewMemoryStore(ttl, reapInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		data: make(map[string]*domain.Product),
		ttl:  ttl,
	}

	go s.reapExpired(reapInterval)

	return s
}

// Get retrieves the live document for a barcode. Absence is the sole
// staleness signal; Get performs no expiry check of its own.
func (s *MemoryStore) Get(ctx context.Context, barcode string) (*domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, exists := s.data[barcode]
	if !exists {
		return nil, domain.ErrNotInStore
	}

	return cloneProduct(p), nil
}

// UpsertOne replaces the document for p.Barcode and returns the canonical
// stored form, including the store-assigned id and persistence timestamp.
func (s *MemoryStore) UpsertOne(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.upsertLocked(p, time.Now().UTC())
	return cloneProduct(stored), nil
}

// UpsertMany applies the upserts in one pass; each document is written
// independently.
func (s *MemoryStore) UpsertMany(ctx context.Context, products []*domain.Product) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now().UTC()
	for _, p := range products {
		s.upsertLocked(p, now)
	}
	return nil
}

// Search returns live documents whose name contains q, case-insensitively,
// capped at 100 results and sorted by barcode for stable output.
func (s *MemoryStore) Search(ctx context.Context, q string) ([]*domain.Product, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	needle := strings.ToLower(q)
	var results []*domain.Product
	for _, p := range s.data {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			results = append(results, cloneProduct(p))
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Barcode < results[j].Barcode })
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, nil
}

// upsertLocked replaces the stored document wholesale, keeping only the id of
// a previous document for the same barcode. Caller must hold the write lock.
func (s *MemoryStore) upsertLocked(p *domain.Product, now time.Time) *domain.Product {
	stored := cloneProduct(p)
	stored.FetchedAt = now
	stored.ID = uuid.NewString()
	if prev, exists := s.data[p.Barcode]; exists {
		stored.ID = prev.ID
	}
	s.data[p.Barcode] = stored
	return stored
}

// cloneProduct deep-copies a document via a JSON round trip so callers never
// alias the stored slices.
func cloneProduct(p *domain.Product) *domain.Product {
	raw, err := json.Marshal(p)
	if err != nil {
		c := *p
		return &c
	}

	var c domain.Product
	if err := json.Unmarshal(raw, &c); err != nil {
		c = *p
	}
	return &c
}

// reapExpired removes expired documents periodically.
func (s *MemoryStore) reapExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		s.mutex.Lock()
		cutoff := time.Now().UTC().Add(-s.ttl)
		for barcode, p := range s.data {
			if p.FetchedAt.Before(cutoff) {
				delete(s.data, barcode)
			}
		}
		s.mutex.Unlock()
	}
}

// Size returns the current number of live documents (for debugging/tests).
func (s *MemoryStore) Size() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.data)
}
