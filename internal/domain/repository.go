package domain

import "context"

// ProductStore is the document collection keyed by barcode. Stored documents
// expire once FetchedAt is older than the retention window; expiry is
// enforced by a background reaper, so staleness is bounded rather than exact.
// Read paths never check staleness themselves: absence is the sole signal.
type ProductStore interface {
	// Get returns the live document for a barcode, or ErrNotInStore.
	Get(ctx context.Context, barcode string) (*Product, error)

	// UpsertOne replaces the document for p.Barcode (full field replacement,
	// no merge) and returns the canonical stored form, including the
	// store-assigned id.
	UpsertOne(ctx context.Context, p *Product) (*Product, error)

	// UpsertMany consolidates the upserts into one unordered bulk round
	// trip; one document's write failure does not prevent the others from
	// being attempted.
	UpsertMany(ctx context.Context, products []*Product) error

	// Search returns live documents whose name matches q, case-insensitively.
	Search(ctx context.Context, q string) ([]*Product, error)
}

// ProductFetcher resolves a barcode against the upstream product database and
// normalizes the payload into a Product, including best-effort carbon
// enrichment. Transport failures, malformed payloads and explicit upstream
// rejections all collapse to ErrProductNotFound.
type ProductFetcher interface {
	Resolve(ctx context.Context, barcode string) (*Product, error)
}

// CarbonEstimator translates a weight into an estimated carbon mass.
// A nil result means the estimate is unavailable; the call never fails.
type CarbonEstimator interface {
	Estimate(ctx context.Context, weightGrams float64) *float64
}
