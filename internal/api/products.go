package api

import (
	"net/http"

	"storefront-service/internal/models"
	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listProducts handles the product list query with search, filters and
// pagination
func (h *Handler) listProducts(c *gin.Context) {
	result, err := h.catalogService.ListProducts(c.Request.Context(), parseListRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// createProduct handles product creation
func (h *Handler) createProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.catalogService.CreateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// getProduct handles get product by ID
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// updateProduct handles product updates
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	product.ID = id

	if err := h.catalogService.UpdateProduct(c.Request.Context(), &product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// deleteProduct handles product deletion, cascading reviews and variations
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// getProductStock returns the mirrored stock level for a product
func (h *Handler) getProductStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	stock, err := h.stockClient.GetMirroredStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "stock": stock})
}

// adjustStockRequest carries an administrative stock correction. The delta
// may be negative; the result floors at zero.
type adjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// adjustProductStock applies a clamped stock delta to a product
func (h *Handler) adjustProductStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req adjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	stock, err := h.stockClient.AdjustProductStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": id, "stock": stock})
}

// getProductsByCategory lists products in a category
func (h *Handler) getProductsByCategory(c *gin.Context) {
	products, err := h.catalogService.GetProductsByCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProductsByBrand lists products of a brand
func (h *Handler) getProductsByBrand(c *gin.Context) {
	products, err := h.catalogService.GetProductsByBrand(c.Request.Context(), c.Param("brand"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getCategoryStats returns per-category product aggregates
func (h *Handler) getCategoryStats(c *gin.Context) {
	stats, err := h.catalogService.GetCategoryStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// upsertReview creates or updates the caller's review of a product. One
// review per user per product; a second submission overwrites the rating
// and comment.
func (h *Handler) upsertReview(c *gin.Context) {
	var req service.UpsertReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	req.UserID = userID(c)
	if req.UserName == "" {
		req.UserName = c.GetHeader("X-User-Name")
	}

	product, err := h.reviewService.UpsertReview(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// getReviews lists a product's reviews
func (h *Handler) getReviews(c *gin.Context) {
	productID, ok := queryID(c, "product_id")
	if !ok {
		return
	}

	reviews, err := h.reviewService.GetReviews(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// deleteReview removes a review and recomputes the product rating
func (h *Handler) deleteReview(c *gin.Context) {
	productID, ok := queryID(c, "product_id")
	if !ok {
		return
	}
	reviewID, ok := queryID(c, "id")
	if !ok {
		return
	}

	product, err := h.reviewService.DeleteReview(c.Request.Context(), productID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}
