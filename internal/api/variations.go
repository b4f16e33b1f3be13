package api

import (
	"net/http"

	"storefront-service/internal/models"

	"github.com/gin-gonic/gin"
)

// listVariations handles the variation list query
func (h *Handler) listVariations(c *gin.Context) {
	result, err := h.catalogService.ListVariations(c.Request.Context(), parseListRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// createVariation handles variation creation
func (h *Handler) createVariation(c *gin.Context) {
	var variation models.Variation
	if err := c.ShouldBindJSON(&variation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalogService.CreateVariation(c.Request.Context(), &variation); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"variation": variation})
}

// getVariation handles get variation by ID
func (h *Handler) getVariation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	variation, err := h.catalogService.GetVariation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variation": variation})
}

// updateVariation handles variation updates
func (h *Handler) updateVariation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var variation models.Variation
	if err := c.ShouldBindJSON(&variation); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	variation.ID = id

	if err := h.catalogService.UpdateVariation(c.Request.Context(), &variation); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variation": variation})
}

// deleteVariation handles variation deletion
func (h *Handler) deleteVariation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteVariation(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "variation deleted"})
}

// adjustVariationStock applies a clamped stock delta to a variation
func (h *Handler) adjustVariationStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	stock, err := h.stockClient.AdjustVariationStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variation_id": id, "stock": stock})
}

// getProductVariations lists a product's active variations
func (h *Handler) getProductVariations(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	variations, err := h.variationService.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variations": variations})
}

// resolveVariation finds the first active variation of a product whose
// attribute set contains the requested signature
func (h *Handler) resolveVariation(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Attributes models.AttributeSet `json:"attributes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	variation, err := h.variationService.FindBySignature(c.Request.Context(), productID, req.Attributes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variation": variation})
}

// getVariationStats returns stock and price aggregates grouped by product
func (h *Handler) getVariationStats(c *gin.Context) {
	stats, err := h.variationService.AggregateByProduct(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// getProductVariationStats returns one product's variation aggregates
func (h *Handler) getProductVariationStats(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	stats, err := h.variationService.AggregateForProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
