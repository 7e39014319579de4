package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ecoscan/backend/internal/domain"
	"github.com/ecoscan/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	products *usecase.ProductService
	batches  *usecase.BatchResolver
}

// NewHandler creates a new HTTP handler
func NewHandler(products *usecase.ProductService, batches *usecase.BatchResolver) *Handler {
	return &Handler{
		products: products,
		batches:  batches,
	}
}

type barcodeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
}

type barcodesRequest struct {
	Barcodes []string `json:"barcodes" binding:"required"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ecoscan-backend",
		"version": "1.0.0",
	})
}

// CreateOrUpdateProduct fetches a barcode live from OpenFoodFacts and
// upserts the resulting record.
func (h *Handler) CreateOrUpdateProduct(c *gin.Context) {
	var req barcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
		return
	}

	product, err := h.products.CreateOrUpdate(c.Request.Context(), req.Barcode)
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found in OpenFoodFacts"})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcode is required"})
	case err != nil:
		log.Printf("create_or_update failed for %s: %v", req.Barcode, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusCreated, product)
	}
}

// BatchLookup resolves an ordered barcode list. Individual item failures are
// reported inside the payload; the endpoint itself always answers 200.
func (h *Handler) BatchLookup(c *gin.Context) {
	var req barcodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "barcodes list is required"})
		return
	}

	resp, err := h.batches.Resolve(c.Request.Context(), req.Barcodes)
	if err != nil {
		log.Printf("batch lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetProduct returns the stored record for a barcode.
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.products.Lookup(c.Request.Context(), c.Param("barcode"))
	switch {
	case errors.Is(err, domain.ErrNotInStore):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case err != nil:
		log.Printf("product lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, product)
	}
}

// GetNutrients returns only the nutriments of a stored record.
func (h *Handler) GetNutrients(c *gin.Context) {
	product, err := h.products.Lookup(c.Request.Context(), c.Param("barcode"))
	switch {
	case errors.Is(err, domain.ErrNotInStore):
		c.JSON(http.StatusNotFound, gin.H{"error": "Nutrition data not found"})
	case err != nil:
		log.Printf("nutrients lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, product.Nutriments)
	}
}

// GetAllergens returns the allergen list of a stored record; an empty list
// reads as absent data.
func (h *Handler) GetAllergens(c *gin.Context) {
	product, err := h.products.Lookup(c.Request.Context(), c.Param("barcode"))
	switch {
	case errors.Is(err, domain.ErrNotInStore):
		c.JSON(http.StatusNotFound, gin.H{"error": "Allergen data not found"})
	case err != nil:
		log.Printf("allergens lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	case len(product.Allergens) == 0:
		c.JSON(http.StatusNotFound, gin.H{"error": "Allergen data not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"allergens": product.Allergens})
	}
}

// GetEco returns the sustainability fields of a stored record.
func (h *Handler) GetEco(c *gin.Context) {
	product, err := h.products.Lookup(c.Request.Context(), c.Param("barcode"))
	switch {
	case errors.Is(err, domain.ErrNotInStore):
		c.JSON(http.StatusNotFound, gin.H{"error": "Eco data not found"})
	case err != nil:
		log.Printf("eco lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		c.JSON(http.StatusOK, product.Eco)
	}
}

// SearchProducts returns stored records whose name matches the q parameter.
func (h *Handler) SearchProducts(c *gin.Context) {
	results, err := h.products.Search(c.Request.Context(), c.Query("q"))
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must be at least 2 characters"})
	case err != nil:
		log.Printf("search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	default:
		if results == nil {
			results = []*domain.Product{}
		}
		c.JSON(http.StatusOK, results)
	}
}
