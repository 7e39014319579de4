package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ecoscan/backend/internal/domain"
)

// Client resolves barcodes against the OpenFoodFacts product API and
// normalizes payloads into domain records. The rate limiter shields the
// public API from burst load; a single pooled http.Client is held for the
// process lifetime.
//
// Transport failures, non-200 statuses, malformed payloads and an upstream
// "not found" status all collapse to domain.ErrProductNotFound: the caller
// cannot distinguish them, only the logs do.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	estimator   domain.CarbonEstimator
	rateLimiter *rate.Limiter
}

// NewClient creates a new OpenFoodFacts client. The estimator provides the
// best-effort carbon enrichment of resolved records.
func NewClient(baseURL string, timeout time.Duration, rateLimit float64, rateBurst int, estimator domain.CarbonEstimator) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     baseURL,
		estimator:   estimator,
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), rateBurst),
	}
}

// Resolve fetches the product behind a barcode, normalizes it and enriches
// it with a carbon estimate. Enrichment failure is non-fatal; everything
// else non-successful yields ErrProductNotFound.
func (c *Client) Resolve(ctx context.Context, barcode string) (*domain.Product, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	reqURL := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(barcode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "EcoScan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[OFF] request error for barcode %s: %v", barcode, err)
		return nil, domain.ErrProductNotFound
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[OFF] non-200 for barcode %s: status %d", barcode, resp.StatusCode)
		return nil, domain.ErrProductNotFound
	}

	var envelope productEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		log.Printf("[OFF] JSON decode error for barcode %s: %v", barcode, err)
		return nil, domain.ErrProductNotFound
	}

	// The body-level status flag is the found/not-found signal
	if envelope.Status != statusFound {
		return nil, domain.ErrProductNotFound
	}

	product := mapProduct(barcode, &envelope.Product)

	grams := servingWeightGrams(envelope.Product.ServingSize)
	product.Eco.CarbonFootprint = c.estimator.Estimate(ctx, grams)

	return product, nil
}
