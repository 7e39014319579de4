package usecase

import (
	"context"
	"errors"
	"log"

	"golang.org/x/sync/semaphore"

	"github.com/ecoscan/backend/internal/domain"
)

// defaultMaxConcurrentFetches bounds the upstream fetch phase of a batch.
const defaultMaxConcurrentFetches = 5

// BatchResolver resolves an ordered list of barcodes: cache-aside lookups,
// concurrency-limited upstream fetches, one consolidated bulk upsert, then
// order-preserving result assembly with aggregate counters.
//
// Every input position yields exactly one output entry in input order,
// duplicates included; one item's failure never affects the others.
type BatchResolver struct {
	store       domain.ProductStore
	fetcher     domain.ProductFetcher
	maxInFlight int64
}

// NewBatchResolver creates a batch resolver. maxConcurrentFetches bounds the
// number of simultaneously in-flight upstream fetches per batch invocation.
func NewBatchResolver(store domain.ProductStore, fetcher domain.ProductFetcher, maxConcurrentFetches int) *BatchResolver {
	if maxConcurrentFetches < 1 {
		maxConcurrentFetches = defaultMaxConcurrentFetches
	}

	return &BatchResolver{
		store:       store,
		fetcher:     fetcher,
		maxInFlight: int64(maxConcurrentFetches),
	}
}

// itemOutcome is the tagged per-item state after the concurrent phase:
// exactly one of cached, fetched (pending persist) or err is set.
type itemOutcome struct {
	barcode string
	cached  *domain.Product
	fetched *domain.Product
	err     error
}

type indexedOutcome struct {
	index   int
	outcome itemOutcome
}

// Resolve runs one batch. All items start concurrently; cache reads are
// unbounded while fetches share a per-invocation semaphore. Outcomes flow
// back to this coordinator over a channel, so no task ever touches a shared
// result container. After all tasks join, newly fetched records are persisted
// in one unordered bulk upsert and re-read for their canonical form.
func (r *BatchResolver) Resolve(ctx context.Context, barcodes []string) (*domain.BatchResponse, error) {
	// The limiter's scope is this invocation, not the process
	sem := semaphore.NewWeighted(r.maxInFlight)

	outcomeCh := make(chan indexedOutcome, len(barcodes))
	for i, barcode := range barcodes {
		go func(i int, barcode string) {
			outcomeCh <- indexedOutcome{index: i, outcome: r.resolveOne(ctx, sem, barcode)}
		}(i, barcode)
	}

	// Each item has a stable slot assigned up front, so completion order
	// cannot reorder the output.
	outcomes := make([]itemOutcome, len(barcodes))
	for range barcodes {
		res := <-outcomeCh
		outcomes[res.index] = res.outcome
	}

	var pending []*domain.Product
	for i := range outcomes {
		if outcomes[i].fetched != nil {
			pending = append(pending, outcomes[i].fetched)
		}
	}

	var persistErr error
	if len(pending) > 0 {
		persistErr = r.store.UpsertMany(ctx, pending)
		if persistErr != nil {
			log.Printf("[batch] bulk upsert of %d records failed: %v", len(pending), persistErr)
		}
	}

	resp := &domain.BatchResponse{
		Metadata: domain.BatchMetadata{Requested: len(barcodes)},
		Results:  make([]domain.BatchItem, len(barcodes)),
	}

	// Single post-persistence pass: materialize results and aggregate the
	// counters sequentially.
	for i, out := range outcomes {
		switch {
		case out.cached != nil:
			resp.Metadata.Cached++
			resp.Results[i] = domain.BatchItem{Product: out.cached}

		case out.fetched != nil:
			if persistErr != nil {
				resp.Results[i] = errorItem(out.barcode, "failed to persist product")
				continue
			}
			canonical, err := r.store.Get(ctx, out.barcode)
			if err != nil {
				log.Printf("[batch] re-read after persist failed for %s: %v", out.barcode, err)
				resp.Results[i] = errorItem(out.barcode, "failed to persist product")
				continue
			}
			resp.Metadata.Fetched++
			resp.Results[i] = domain.BatchItem{Product: canonical}

		default:
			resp.Results[i] = errorItem(out.barcode, itemErrorMessage(out.err))
		}
	}

	return resp, nil
}

// resolveOne runs the per-item pipeline: cache read, then a limiter-gated
// upstream fetch on miss. It returns its outcome instead of writing anywhere
// shared.
func (r *BatchResolver) resolveOne(ctx context.Context, sem *semaphore.Weighted, barcode string) itemOutcome {
	out := itemOutcome{barcode: barcode}

	// Cache reads are not limiter-gated
	p, err := r.store.Get(ctx, barcode)
	if err == nil {
		out.cached = p
		return out
	}
	if !errors.Is(err, domain.ErrNotInStore) {
		// A failing store read degrades to a fetch, not to an item error
		log.Printf("[batch] store read failed for %s, falling back to fetch: %v", barcode, err)
	}

	if err := sem.Acquire(ctx, 1); err != nil {
		out.err = err
		return out
	}
	p, err = r.fetcher.Resolve(ctx, barcode)
	sem.Release(1)

	if err != nil {
		out.err = err
		return out
	}

	out.fetched = p
	return out
}

func errorItem(barcode, msg string) domain.BatchItem {
	return domain.BatchItem{Err: &domain.BatchItemError{Barcode: barcode, Error: msg}}
}

// itemErrorMessage maps a per-item failure to its client-facing descriptor.
// Transport failures are collapsed into the not-found outcome upstream of
// here, so the generic branch covers limiter/context errors only.
func itemErrorMessage(err error) string {
	if errors.Is(err, domain.ErrProductNotFound) {
		return "Not found in OpenFoodFacts"
	}
	return "failed to resolve product"
}
