package openfoodfacts

import (
	"strconv"
	"strings"

	"github.com/ecoscan/backend/internal/domain"
)

// statusFound is the body-level status value marking a resolved product.
const statusFound = 1

// defaultServingGrams is the estimation weight used whenever the serving
// size field is absent or unparseable.
const defaultServingGrams = 100.0

// nameFallback is used when no name field carries a non-empty value.
const nameFallback = "Unknown Product"

// productEnvelope is the top-level OpenFoodFacts response.
type productEnvelope struct {
	Status  int            `json:"status"`
	Product productPayload `json:"product"`
}

// productPayload is the subset of the heterogeneous OpenFoodFacts product
// object this service consumes.
type productPayload struct {
	ProductName        string                 `json:"product_name"`
	ProductNameEn      string                 `json:"product_name_en"`
	GenericName        string                 `json:"generic_name"`
	GenericNameEn      string                 `json:"generic_name_en"`
	Brands             string                 `json:"brands"`
	Categories         string                 `json:"categories"`
	Nutriments         map[string]interface{} `json:"nutriments"`
	Ingredients        []ingredientPayload    `json:"ingredients"`
	AllergensHierarchy []string               `json:"allergens_hierarchy"`
	Packaging          string                 `json:"packaging"`
	ServingSize        string                 `json:"serving_size"`
	EcoscoreScore      *int                   `json:"ecoscore_score"`
}

type ingredientPayload struct {
	Text string `json:"text"`
}

// recyclableKeywords are matched case-insensitively against the free-text
// packaging description.
var recyclableKeywords = []string{"recyclable", "recycle", "please recycle"}

// mapProduct normalizes an upstream payload into the domain record. The
// carbon footprint is left nil; enrichment happens in the client.
func mapProduct(barcode string, p *productPayload) *domain.Product {
	ingredients := make([]string, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		if ing.Text != "" {
			ingredients = append(ingredients, ing.Text)
		}
	}

	allergens := p.AllergensHierarchy
	if allergens == nil {
		allergens = []string{}
	}

	return &domain.Product{
		Barcode:     barcode,
		Name:        resolveName(p),
		Brand:       p.Brands,
		Category:    p.Categories,
		Ingredients: ingredients,
		Nutriments: domain.Nutriments{
			Calories: numericNutrient(p.Nutriments, "energy-kcal"),
			Fat:      numericNutrient(p.Nutriments, "fat"),
			Sugar:    numericNutrient(p.Nutriments, "sugars"),
			Sodium:   numericNutrient(p.Nutriments, "sodium"),
		},
		Allergens: allergens,
		Eco: domain.EcoInfo{
			EcoScore:            p.EcoscoreScore,
			PackagingRecyclable: packagingRecyclable(p.Packaging),
		},
	}
}

// resolveName walks the name fields in priority order and takes the first
// non-empty trimmed value.
func resolveName(p *productPayload) string {
	candidates := []string{
		p.ProductName,
		p.ProductNameEn,
		p.GenericName,
		p.GenericNameEn,
		p.Brands,
	}
	for _, candidate := range candidates {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return nameFallback
}

// numericNutrient looks up the per-100g-suffixed key first, then the bare
// key, and takes the first numeric value. Non-numeric values (strings etc.)
// are ignored.
func numericNutrient(nutriments map[string]interface{}, key string) *float64 {
	for _, k := range []string{key + "_100g", key} {
		if v, ok := nutriments[k].(float64); ok {
			return &v
		}
	}
	return nil
}

// packagingRecyclable reports whether the free-text packaging description
// mentions any recyclability keyword.
func packagingRecyclable(packaging string) bool {
	text := strings.ToLower(packaging)
	for _, kw := range recyclableKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// servingWeightGrams parses a serving size like "250 g" or "1,5 kg" into an
// estimation weight in grams. Anything that is not exactly an amount
// followed by a unit token falls back to 100g.
func servingWeightGrams(serving string) float64 {
	fields := strings.Fields(strings.ToLower(serving))
	if len(fields) != 2 {
		return defaultServingGrams
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return defaultServingGrams
	}

	if strings.HasPrefix(fields[1], "kg") {
		return amount * 1000
	}
	return amount
}
