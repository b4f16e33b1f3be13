package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/query"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, price, category, brand, stock, images, ratings, num_of_reviews, created_by, created_at, updated_at`

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	q := `
		INSERT INTO products (name, description, price, category, brand, stock, images, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, ratings, num_of_reviews, created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, q,
		p.Name, p.Description, p.Price, p.Category, p.Brand, p.Stock, p.Images, p.CreatedBy,
	).Scan(&p.ID, &p.Ratings, &p.NumOfReviews, &p.CreatedAt, &p.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("product", "name", p.Name)
	}
	return err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p,
		"SELECT "+productColumns+" FROM products WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err, "product", id)
	}
	return &p, nil
}

// ListProducts executes a built list query and returns matching products
func (s *Store) ListProducts(ctx context.Context, b *query.Builder) ([]models.Product, error) {
	q, err := b.Build("SELECT " + productColumns + " FROM products")
	if err != nil {
		return nil, err
	}

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, q.SQL, q.Args...); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CountProducts returns the number of products in the catalog
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT count(*) FROM products")
	return n, err
}

// CountFilteredProducts returns the number of products matching the built
// filter conditions, ignoring pagination
func (s *Store) CountFilteredProducts(ctx context.Context, b *query.Builder) (int, error) {
	q, err := b.BuildCount("SELECT count(*) FROM products")
	if err != nil {
		return 0, err
	}

	var n int
	err = s.db.GetContext(ctx, &n, q.SQL, q.Args...)
	return n, err
}

// GetProductsByCategory retrieves products by category name
func (s *Store) GetProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE category = $1 ORDER BY created_at DESC", category)
	return products, err
}

// GetProductsByBrand retrieves products by brand name
func (s *Store) GetProductsByBrand(ctx context.Context, brand string) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products,
		"SELECT "+productColumns+" FROM products WHERE brand = $1 ORDER BY created_at DESC", brand)
	return products, err
}

// UpdateProduct updates mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	q := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, brand = $5,
		    stock = $6, images = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING updated_at`

	err := s.db.QueryRowxContext(ctx, q,
		p.Name, p.Description, p.Price, p.Category, p.Brand, p.Stock, p.Images, p.ID,
	).Scan(&p.UpdatedAt)
	return translateErr(err, "product", p.ID)
}

// DeleteProduct removes a product together with its reviews and variations.
// Orders keep their product IDs as historical snapshots.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM reviews WHERE product_id = $1", id); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM variations WHERE product_id = $1", id); err != nil {
		return fmt.Errorf("delete variations: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("product", id)
	}

	return tx.Commit()
}

// AdjustProductStock atomically applies delta to a product's stock, flooring
// at zero. The clamped flag reports whether the floor absorbed a shortfall.
func (s *Store) AdjustProductStock(ctx context.Context, id int64, delta int) (stock int, clamped bool, err error) {
	q := `
		WITH prev AS (SELECT stock FROM products WHERE id = $2)
		UPDATE products
		SET stock = GREATEST(stock + $1, 0), updated_at = NOW()
		WHERE id = $2
		RETURNING stock, (SELECT stock FROM prev) + $1 < 0`

	err = s.db.QueryRowxContext(ctx, q, delta, id).Scan(&stock, &clamped)
	if err != nil {
		return 0, false, translateErr(err, "product", id)
	}
	return stock, clamped, nil
}

// GetCategoryStats groups products by category with count and price spread
func (s *Store) GetCategoryStats(ctx context.Context) ([]models.CategoryStats, error) {
	stats := []models.CategoryStats{}
	err := s.db.SelectContext(ctx, &stats, `
		SELECT category, count(*) AS count,
		       avg(price) AS avg_price, min(price) AS min_price, max(price) AS max_price
		FROM products
		GROUP BY category
		ORDER BY category`)
	return stats, err
}

// GetReviews retrieves all reviews owned by a product, oldest first
func (s *Store) GetReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	if _, err := s.GetProductByID(ctx, productID); err != nil {
		return nil, err
	}
	reviews := []models.Review{}
	err := s.db.SelectContext(ctx, &reviews,
		`SELECT id, product_id, user_id, name, rating, comment, created_at, updated_at
		 FROM reviews WHERE product_id = $1 ORDER BY created_at, id`, productID)
	return reviews, err
}

// UpsertReviewTx writes one review per (product, author) and recomputes the
// product's derived ratings average and review count, all under a row lock on
// the product so concurrent reviewers cannot lose an update. An existing
// review keeps its identity and author-name snapshot; only rating and comment
// are overwritten.
func (s *Store) UpsertReviewTx(ctx context.Context, review *models.Review) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var productID int64
	err = tx.GetContext(ctx, &productID,
		"SELECT id FROM products WHERE id = $1 FOR UPDATE", review.ProductID)
	if err != nil {
		return nil, translateErr(err, "product", review.ProductID)
	}

	var existingID int64
	err = tx.GetContext(ctx, &existingID,
		"SELECT id FROM reviews WHERE product_id = $1 AND user_id = $2",
		review.ProductID, review.UserID)
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			"UPDATE reviews SET rating = $1, comment = $2, updated_at = NOW() WHERE id = $3",
			review.Rating, review.Comment, existingID)
		if err != nil {
			return nil, fmt.Errorf("update review: %w", err)
		}
		review.ID = existingID
	case err == sql.ErrNoRows:
		err = tx.QueryRowxContext(ctx,
			`INSERT INTO reviews (product_id, user_id, name, rating, comment)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, created_at, updated_at`,
			review.ProductID, review.UserID, review.Name, review.Rating, review.Comment,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert review: %w", err)
		}
	default:
		return nil, err
	}

	product, err := recomputeRatingsTx(ctx, tx, review.ProductID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteReviewTx removes a review by its own identity and recomputes the
// owning product's derived fields in the same transaction.
func (s *Store) DeleteReviewTx(ctx context.Context, productID, reviewID int64) (*models.Product, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var pid int64
	err = tx.GetContext(ctx, &pid,
		"SELECT id FROM products WHERE id = $1 FOR UPDATE", productID)
	if err != nil {
		return nil, translateErr(err, "product", productID)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM reviews WHERE id = $1 AND product_id = $2", reviewID, productID)
	if err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, apperr.NotFound("review", reviewID)
	}

	product, err := recomputeRatingsTx(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return product, nil
}

// recomputeRatingsTx refreshes ratings and num_of_reviews from the review
// rows. COALESCE yields exactly zero when no reviews remain.
func recomputeRatingsTx(ctx context.Context, tx *sqlx.Tx, productID int64) (*models.Product, error) {
	var p models.Product
	err := tx.QueryRowxContext(ctx, `
		UPDATE products
		SET ratings        = COALESCE((SELECT avg(rating)::float8 FROM reviews WHERE product_id = $1), 0),
		    num_of_reviews = (SELECT count(*) FROM reviews WHERE product_id = $1),
		    updated_at     = NOW()
		WHERE id = $1
		RETURNING `+productColumns, productID,
	).StructScan(&p)
	if err != nil {
		return nil, fmt.Errorf("recompute ratings: %w", err)
	}
	return &p, nil
}
