package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/query"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	catalogService   *service.CatalogService
	orderService     *service.OrderService
	reviewService    *service.ReviewService
	variationService *service.VariationService
	stockClient      *service.StockClient
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalogService *service.CatalogService,
	orderService *service.OrderService,
	reviewService *service.ReviewService,
	variationService *service.VariationService,
	stockClient *service.StockClient,
) *Handler {
	return &Handler{
		catalogService:   catalogService,
		orderService:     orderService,
		reviewService:    reviewService,
		variationService: variationService,
		stockClient:      stockClient,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.GET("/products/:id", h.getProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)
		v1.GET("/products/:id/stock", h.getProductStock)
		v1.PUT("/products/:id/stock", h.adjustProductStock)
		v1.GET("/products/:id/variations", h.getProductVariations)
		v1.GET("/products/:id/variations/stats", h.getProductVariationStats)
		v1.POST("/products/:id/variations/resolve", h.resolveVariation)

		v1.GET("/catalog/category/:category", h.getProductsByCategory)
		v1.GET("/catalog/brand/:brand", h.getProductsByBrand)

		v1.PUT("/reviews", h.upsertReview)
		v1.GET("/reviews", h.getReviews)
		v1.DELETE("/reviews", h.deleteReview)

		v1.GET("/variations", h.listVariations)
		v1.POST("/variations", h.createVariation)
		v1.GET("/variations/:id", h.getVariation)
		v1.PUT("/variations/:id", h.updateVariation)
		v1.DELETE("/variations/:id", h.deleteVariation)
		v1.PUT("/variations/:id/stock", h.adjustVariationStock)

		v1.GET("/stats/categories", h.getCategoryStats)
		v1.GET("/stats/variations", h.getVariationStats)

		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.getAllOrders)
		v1.GET("/orders/:id", h.getOrder)
		v1.PUT("/orders/:id/status", h.updateOrderStatus)
		v1.DELETE("/orders/:id", h.deleteOrder)
		v1.GET("/myorders", h.getMyOrders)

		v1.POST("/brands", h.createBrand)
		v1.GET("/brands", h.getBrands)
		v1.DELETE("/brands/:id", h.deleteBrand)

		v1.POST("/categories", h.createCategory)
		v1.GET("/categories", h.getCategories)
		v1.DELETE("/categories/:id", h.deleteCategory)

		v1.POST("/attributes", h.createAttribute)
		v1.GET("/attributes", h.getAttributes)
		v1.POST("/attributes/:name/values", h.createAttributeValue)
		v1.GET("/attributes/:name/values", h.getAttributeValues)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// respondError maps a domain error onto the HTTP response
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{
			"code":  appErr.Code,
			"error": appErr.Message,
		})
		return
	}

	util.GetLogger().Error("Request failed: " + err.Error())
	c.JSON(status, gin.H{"error": "internal server error"})
}

// pathID parses the :id path parameter as an int64
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryID parses a query parameter as an int64
func queryID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// userID extracts the caller identity set by the gateway
func userID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}

// parseListRequest extracts keyword, page, limit and the raw filter
// parameters from the URL query. Range operators arrive in bracket form,
// e.g. price[gte]=100; everything else is an equality filter. Unknown
// filter columns are dropped later by the builder's whitelist.
func parseListRequest(c *gin.Context) *service.ListRequest {
	values := c.Request.URL.Query()

	req := &service.ListRequest{
		Keyword: values.Get(query.ParamKeyword),
		Filters: query.Params{},
	}
	req.Page, _ = strconv.Atoi(values.Get(query.ParamPage))
	req.Limit, _ = strconv.Atoi(values.Get(query.ParamLimit))

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		value := vals[0]

		open := strings.IndexByte(key, '[')
		if open > 0 && strings.HasSuffix(key, "]") {
			field := key[:open]
			op := key[open+1 : len(key)-1]
			ops, _ := req.Filters[field].(map[string]string)
			if ops == nil {
				ops = make(map[string]string)
			}
			ops[op] = value
			req.Filters[field] = ops
			continue
		}

		req.Filters[key] = value
	}

	return req
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
