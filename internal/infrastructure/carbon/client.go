package carbon

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Client calls the Carbon Interface estimates API. The call is strictly
// best-effort: a single attempt within the timeout, and every failure mode
// (non-201 status, transport error, malformed payload) yields a nil
// estimate. It never returns an error to the caller.
type Client struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
}

// NewClient creates a new Carbon Interface client. An empty API key is
// allowed; the upstream will then reject the call and estimates degrade to
// absent.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

type estimateRequest struct {
	Type       string             `json:"type"`
	Parameters estimateParameters `json:"parameters"`
}

type estimateParameters struct {
	WeightValue float64 `json:"weight_value"`
	WeightUnit  string  `json:"weight_unit"`
}

type estimateResponse struct {
	Data struct {
		Attributes struct {
			CarbonKg *float64 `json:"carbon_kg"`
		} `json:"attributes"`
	} `json:"data"`
}

// Estimate translates a weight in grams into an estimated carbon mass in
// kilograms, or nil when the estimate is unavailable.
func (c *Client) Estimate(ctx context.Context, weightGrams float64) *float64 {
	payload := estimateRequest{
		Type: "estimate",
		Parameters: estimateParameters{
			WeightValue: weightGrams,
			WeightUnit:  "g",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Carbon] failed to encode request: %v", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		log.Printf("[Carbon] failed to create request: %v", err)
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Carbon] request error: %v", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Printf("[Carbon] non-201 response: status %d", resp.StatusCode)
		return nil
	}

	var estimate estimateResponse
	if err := json.NewDecoder(resp.Body).Decode(&estimate); err != nil {
		log.Printf("[Carbon] JSON decode error: %v", err)
		return nil
	}

	return estimate.Data.Attributes.CarbonKg
}
