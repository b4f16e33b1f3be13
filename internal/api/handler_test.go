package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/internal/apperr"
	"storefront-service/internal/query"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, target string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c
}

func TestParseListRequest(t *testing.T) {
	c := testContext(t, "/api/v1/products?keyword=shirt&page=2&limit=10&category=apparel")

	req := parseListRequest(c)

	assert.Equal(t, "shirt", req.Keyword)
	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 10, req.Limit)
	assert.Equal(t, "apparel", req.Filters["category"])
}

func TestParseListRequestBracketOperators(t *testing.T) {
	c := testContext(t, "/api/v1/products?price[gte]=100&price[lt]=500&stock[gt]=0")

	req := parseListRequest(c)

	assert.Equal(t, map[string]string{"gte": "100", "lt": "500"}, req.Filters["price"])
	assert.Equal(t, map[string]string{"gt": "0"}, req.Filters["stock"])
}

func TestParseListRequestDefaults(t *testing.T) {
	c := testContext(t, "/api/v1/products")

	req := parseListRequest(c)

	assert.Empty(t, req.Keyword)
	assert.Zero(t, req.Page)
	assert.Zero(t, req.Limit)
	assert.Empty(t, req.Filters["price"])
}

func TestParseListRequestComposesWithBuilder(t *testing.T) {
	c := testContext(t, "/api/v1/products?keyword=shirt&page=2&category=apparel&price[lte]=50")

	req := parseListRequest(c)
	b := query.New("name", "category", "price").
		Search(req.Keyword).
		Filter(req.Filters).
		Paginate(req.Page, 8)

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	// Reserved parameters never leak into the WHERE clause.
	assert.NotContains(t, q.SQL, "keyword =")
	assert.NotContains(t, q.SQL, "page =")
	assert.Contains(t, q.SQL, "category = $1")
	assert.Contains(t, q.SQL, "name ILIKE $2")
	assert.Contains(t, q.SQL, "price <= $3")
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperr.NotFound("product", 42), http.StatusNotFound, "NOT_FOUND"},
		{"validation", apperr.Validation("rating out of range"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"transition", apperr.InvalidTransition("order has already been delivered"), http.StatusBadRequest, "INVALID_STATE_TRANSITION"},
		{"duplicate", apperr.Duplicate("variation", "sku", "TS-RED-M"), http.StatusConflict, "DUPLICATE_KEY"},
	}

	gin.SetMode(gin.TestMode)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(rec)

			respondError(c, tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.code)
		})
	}
}

func TestRespondErrorOpaque(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	respondError(c, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	// Internal details stay out of the response body.
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
