package store

import (
	"context"
	"fmt"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/query"
)

const variationColumns = `id, product_id, attributes, price, stock, sku, images, is_active, created_by, created_at, updated_at`

// CreateVariation inserts a new variation
func (s *Store) CreateVariation(ctx context.Context, v *models.Variation) error {
	q := `
		INSERT INTO variations (product_id, attributes, price, stock, sku, images, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, q,
		v.ProductID, v.Attributes, v.Price, v.Stock, v.SKU, v.Images, v.IsActive, v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("variation", "sku", v.SKU)
	}
	return err
}

// GetVariationByID retrieves a variation by ID
func (s *Store) GetVariationByID(ctx context.Context, id int64) (*models.Variation, error) {
	var v models.Variation
	err := s.db.GetContext(ctx, &v,
		"SELECT "+variationColumns+" FROM variations WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err, "variation", id)
	}
	return &v, nil
}

// ListVariations executes a built list query over the variations collection
func (s *Store) ListVariations(ctx context.Context, b *query.Builder) ([]models.Variation, error) {
	q, err := b.Build("SELECT " + variationColumns + " FROM variations")
	if err != nil {
		return nil, err
	}

	variations := []models.Variation{}
	if err := s.db.SelectContext(ctx, &variations, q.SQL, q.Args...); err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	return variations, nil
}

// CountVariations returns the number of variations
func (s *Store) CountVariations(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT count(*) FROM variations")
	return n, err
}

// CountFilteredVariations returns the number of variations matching the
// built filter conditions, ignoring pagination
func (s *Store) CountFilteredVariations(ctx context.Context, b *query.Builder) (int, error) {
	q, err := b.BuildCount("SELECT count(*) FROM variations")
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.GetContext(ctx, &n, q.SQL, q.Args...)
	return n, err
}

// GetVariationsByProduct retrieves a product's active variations in creation
// order. Inactive variations are excluded here but not in the aggregate view.
func (s *Store) GetVariationsByProduct(ctx context.Context, productID int64) ([]models.Variation, error) {
	variations := []models.Variation{}
	err := s.db.SelectContext(ctx, &variations,
		"SELECT "+variationColumns+" FROM variations WHERE product_id = $1 AND is_active ORDER BY created_at, id",
		productID)
	return variations, err
}

// UpdateVariation updates mutable variation fields
func (s *Store) UpdateVariation(ctx context.Context, v *models.Variation) error {
	q := `
		UPDATE variations
		SET attributes = $1, price = $2, stock = $3, sku = $4, images = $5,
		    is_active = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING updated_at`

	err := s.db.QueryRowxContext(ctx, q,
		v.Attributes, v.Price, v.Stock, v.SKU, v.Images, v.IsActive, v.ID,
	).Scan(&v.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("variation", "sku", v.SKU)
	}
	return translateErr(err, "variation", v.ID)
}

// DeleteVariation removes a variation
func (s *Store) DeleteVariation(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM variations WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("variation", id)
	}
	return nil
}

// AdjustVariationStock atomically applies delta to a variation's stock,
// flooring at zero, same contract as AdjustProductStock.
func (s *Store) AdjustVariationStock(ctx context.Context, id int64, delta int) (stock int, clamped bool, err error) {
	q := `
		WITH prev AS (SELECT stock FROM variations WHERE id = $2)
		UPDATE variations
		SET stock = GREATEST(stock + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING stock, (SELECT stock FROM prev) + $1 < 0`

	err = s.db.QueryRowxContext(ctx, q, delta, id).Scan(&stock, &clamped)
	if err != nil {
		return 0, false, translateErr(err, "variation", id)
	}
	return stock, clamped, nil
}

// GetVariationStats groups variations by product with count, stock sum and
// price spread. All variations count here, active or not; the per-product
// listing is the one that filters on the active flag.
func (s *Store) GetVariationStats(ctx context.Context) ([]models.VariationStats, error) {
	stats := []models.VariationStats{}
	err := s.db.SelectContext(ctx, &stats, `
		SELECT product_id, count(*) AS count, sum(stock) AS total_stock,
		       avg(price) AS avg_price, min(price) AS min_price, max(price) AS max_price
		FROM variations
		GROUP BY product_id
		ORDER BY product_id`)
	return stats, err
}

// GetVariationStatsByProduct is the single-product slice of the aggregate view
func (s *Store) GetVariationStatsByProduct(ctx context.Context, productID int64) (*models.VariationStats, error) {
	var st models.VariationStats
	err := s.db.GetContext(ctx, &st, `
		SELECT product_id, count(*) AS count, sum(stock) AS total_stock,
		       avg(price) AS avg_price, min(price) AS min_price, max(price) AS max_price
		FROM variations
		WHERE product_id = $1
		GROUP BY product_id`, productID)
	if err != nil {
		return nil, translateErr(err, "variation stats", productID)
	}
	return &st, nil
}
