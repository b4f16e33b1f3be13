package service

import (
	"context"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/query"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Columns each collection opens to equality and range filters. Parameters
// naming any other column are ignored.
var (
	productFilterColumns   = []string{"price", "ratings", "stock", "category", "brand"}
	variationFilterColumns = []string{"product_id", "price", "stock", "sku"}
)

// cacheInvalidator drops cached variation aggregates after catalog writes.
type cacheInvalidator interface {
	InvalidateVariationStats(ctx context.Context, productID int64) error
}

// CatalogService owns product and variation CRUD, list queries and the
// catalog vocabulary (brands, categories, attributes).
type CatalogService struct {
	store         *store.Store
	cache         cacheInvalidator
	logger        *zap.Logger
	resultPerPage int
}

// NewCatalogService creates a new catalog service. resultPerPage is the page
// size applied when a list request does not name one. cache may be nil.
func NewCatalogService(store *store.Store, cache cacheInvalidator, resultPerPage int) *CatalogService {
	if resultPerPage <= 0 {
		resultPerPage = 8
	}
	return &CatalogService{
		store:         store,
		cache:         cache,
		logger:        util.GetLogger(),
		resultPerPage: resultPerPage,
	}
}

// ListRequest carries the raw list parameters of a collection endpoint.
// Filters still contains the reserved keys; the builder strips them.
type ListRequest struct {
	Keyword string
	Page    int
	Limit   int
	Filters query.Params
}

// ProductListResult pairs a page of products with the collection totals.
type ProductListResult struct {
	Products      []models.Product `json:"products"`
	Total         int              `json:"products_count"`
	FilteredTotal int              `json:"filtered_products_count"`
	Page          int              `json:"page"`
	ResultPerPage int              `json:"result_per_page"`
}

// VariationListResult pairs a page of variations with the collection totals.
type VariationListResult struct {
	Variations    []models.Variation `json:"variations"`
	Total         int                `json:"variations_count"`
	FilteredTotal int                `json:"filtered_variations_count"`
	Page          int                `json:"page"`
	ResultPerPage int                `json:"result_per_page"`
}

func (s *CatalogService) listBuilder(req *ListRequest, searchColumn string, filterable []string) (*query.Builder, int, int) {
	perPage := req.Limit
	if perPage <= 0 {
		perPage = s.resultPerPage
	}
	page := req.Page
	if page < 1 {
		page = 1
	}
	b := query.New(searchColumn, filterable...).
		Search(req.Keyword).
		Filter(req.Filters).
		Paginate(page, perPage)
	return b, page, perPage
}

// ListProducts runs the search, filter and pagination pipeline over the
// product catalog and returns the page plus the total and filtered counts.
func (s *CatalogService) ListProducts(ctx context.Context, req *ListRequest) (*ProductListResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()
	util.ListQueriesTotal.WithLabelValues("products").Inc()

	b, page, perPage := s.listBuilder(req, "name", productFilterColumns)

	products, err := s.store.ListProducts(ctx, b)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountProducts(ctx)
	if err != nil {
		return nil, err
	}
	filtered, err := s.store.CountFilteredProducts(ctx, b)
	if err != nil {
		return nil, err
	}

	return &ProductListResult{
		Products:      products,
		Total:         total,
		FilteredTotal: filtered,
		Page:          page,
		ResultPerPage: perPage,
	}, nil
}

// CreateProduct validates and stores a new product
func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.store.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

// GetProduct retrieves a product by id
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetProductByID(ctx, id)
}

// UpdateProduct validates and updates a product's mutable fields
func (s *CatalogService) UpdateProduct(ctx context.Context, p *models.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.UpdateProduct(ctx, p)
}

// DeleteProduct removes a product together with its reviews and variations.
// Orders keep their immutable line item snapshots.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, id)
	s.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

// GetProductsByCategory retrieves products in a category
func (s *CatalogService) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	return s.store.GetProductsByCategory(ctx, category)
}

// GetProductsByBrand retrieves products of a brand
func (s *CatalogService) GetProductsByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	return s.store.GetProductsByBrand(ctx, brand)
}

// GetCategoryStats returns per-category product counts and price aggregates
func (s *CatalogService) GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	return s.store.GetCategoryStats(ctx)
}

// ListVariations runs the list pipeline over the variations collection
func (s *CatalogService) ListVariations(ctx context.Context, req *ListRequest) (*VariationListResult, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListVariations")
	defer span.End()
	util.ListQueriesTotal.WithLabelValues("variations").Inc()

	b, page, perPage := s.listBuilder(req, "sku", variationFilterColumns)

	variations, err := s.store.ListVariations(ctx, b)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountVariations(ctx)
	if err != nil {
		return nil, err
	}
	filtered, err := s.store.CountFilteredVariations(ctx, b)
	if err != nil {
		return nil, err
	}

	return &VariationListResult{
		Variations:    variations,
		Total:         total,
		FilteredTotal: filtered,
		Page:          page,
		ResultPerPage: perPage,
	}, nil
}

// CreateVariation validates and stores a new variation
func (s *CatalogService) CreateVariation(ctx context.Context, v *models.Variation) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if _, err := s.store.GetProductByID(ctx, v.ProductID); err != nil {
		return err
	}
	if err := s.store.CreateVariation(ctx, v); err != nil {
		return err
	}
	s.invalidateStats(ctx, v.ProductID)
	s.logger.Info("Variation created",
		zap.Int64("variation_id", v.ID),
		zap.Int64("product_id", v.ProductID),
		zap.String("sku", v.SKU))
	return nil
}

// GetVariation retrieves a variation by id
func (s *CatalogService) GetVariation(ctx context.Context, id int64) (*models.Variation, error) {
	return s.store.GetVariationByID(ctx, id)
}

// UpdateVariation validates and updates a variation
func (s *CatalogService) UpdateVariation(ctx context.Context, v *models.Variation) error {
	if err := v.Validate(); err != nil {
		return err
	}
	if err := s.store.UpdateVariation(ctx, v); err != nil {
		return err
	}
	s.invalidateStats(ctx, v.ProductID)
	return nil
}

// DeleteVariation removes a variation
func (s *CatalogService) DeleteVariation(ctx context.Context, id int64) error {
	v, err := s.store.GetVariationByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteVariation(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, v.ProductID)
	return nil
}

func (s *CatalogService) invalidateStats(ctx context.Context, productID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVariationStats(ctx, productID); err != nil {
		s.logger.Warn("Failed to invalidate variation stats cache",
			zap.Int64("product_id", productID), zap.Error(err))
	}
}

// CreateBrand stores a brand; names are normalized to lowercase
func (s *CatalogService) CreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	if name == "" {
		return nil, apperr.Validation("brand name is required")
	}
	b := &models.Brand{Name: name}
	if err := s.store.CreateBrand(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// GetBrands lists brands with product counts
func (s *CatalogService) GetBrands(ctx context.Context) ([]models.Brand, error) {
	return s.store.GetBrands(ctx)
}

// DeleteBrand removes a brand
func (s *CatalogService) DeleteBrand(ctx context.Context, id int64) error {
	return s.store.DeleteBrand(ctx, id)
}

// CreateCategory stores a category; names are normalized to lowercase
func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, apperr.Validation("category name is required")
	}
	c := &models.Category{Name: name}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategories lists categories with product counts
func (s *CatalogService) GetCategories(ctx context.Context) ([]models.Category, error) {
	return s.store.GetCategories(ctx)
}

// DeleteCategory removes a category
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

// CreateAttribute stores an attribute name
func (s *CatalogService) CreateAttribute(ctx context.Context, name string) (*models.Attribute, error) {
	if name == "" {
		return nil, apperr.Validation("attribute name is required")
	}
	a := &models.Attribute{Name: name}
	if err := s.store.CreateAttribute(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// GetAttributes lists attributes with value counts
func (s *CatalogService) GetAttributes(ctx context.Context) ([]models.Attribute, error) {
	return s.store.GetAttributes(ctx)
}

// CreateAttributeValue stores a value under an attribute
func (s *CatalogService) CreateAttributeValue(ctx context.Context, attribute, value string) (*models.AttributeValue, error) {
	if attribute == "" || value == "" {
		return nil, apperr.Validation("attribute and value are required")
	}
	v := &models.AttributeValue{Attribute: attribute, Value: value}
	if err := s.store.CreateAttributeValue(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// GetAttributeValues lists the values recorded under an attribute
func (s *CatalogService) GetAttributeValues(ctx context.Context, attribute string) ([]models.AttributeValue, error) {
	return s.store.GetAttributeValues(ctx, attribute)
}
