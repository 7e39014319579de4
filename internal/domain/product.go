package domain

import "time"

// Product is the normalized nutrition-and-sustainability record for one
// barcode. ID is assigned by the store on first persistence and is preserved
// across re-upserts; it is empty on records that have not been persisted yet.
type Product struct {
	ID          string     `json:"id,omitempty"`
	Barcode     string     `json:"barcode"`
	Name        string     `json:"name"`
	Brand       string     `json:"brand"`
	Category    string     `json:"category"`
	Ingredients []string   `json:"ingredients"`
	Nutriments  Nutriments `json:"nutriments"`
	Allergens   []string   `json:"allergens"`
	Eco         EcoInfo    `json:"eco"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// Nutriments holds the extracted per-100g nutrient values. A nil field means
// the upstream payload carried no numeric value for it.
type Nutriments struct {
	Calories *float64 `json:"calories"`
	Fat      *float64 `json:"fat"`
	Sugar    *float64 `json:"sugar"`
	Sodium   *float64 `json:"sodium"`
}

// EcoInfo holds the sustainability fields of a product record.
type EcoInfo struct {
	EcoScore            *int     `json:"eco_score"`
	CarbonFootprint     *float64 `json:"carbon_footprint"`
	PackagingRecyclable bool     `json:"packaging_recyclable"`
}
