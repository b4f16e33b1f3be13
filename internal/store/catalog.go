package store

import (
	"context"
	"strings"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
)

// Reference vocabularies: brands, categories, attributes and their values.
// Names are lowercased on write so catalog lookups match product fields.

// CreateBrand inserts a new brand
func (s *Store) CreateBrand(ctx context.Context, b *models.Brand) error {
	b.Name = strings.ToLower(strings.TrimSpace(b.Name))
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO brands (name, description, logo, website, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		b.Name, b.Description, b.Logo, b.Website, b.CreatedBy,
	).Scan(&b.ID, &b.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("brand", "name", b.Name)
	}
	return err
}

// GetBrands lists brands with the number of products carrying each name
func (s *Store) GetBrands(ctx context.Context) ([]models.Brand, error) {
	brands := []models.Brand{}
	err := s.db.SelectContext(ctx, &brands, `
		SELECT b.id, b.name, b.description, b.logo, b.website, b.created_by, b.created_at,
		       count(p.id) AS product_count
		FROM brands b
		LEFT JOIN products p ON p.brand = b.name
		GROUP BY b.id
		ORDER BY b.name`)
	return brands, err
}

// DeleteBrand removes a brand
func (s *Store) DeleteBrand(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM brands WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("brand", id)
	}
	return nil
}

// CreateCategory inserts a new category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	c.Name = strings.ToLower(strings.TrimSpace(c.Name))
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO categories (name, description, image, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		c.Name, c.Description, c.Image, c.CreatedBy,
	).Scan(&c.ID, &c.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("category", "name", c.Name)
	}
	return err
}

// GetCategories lists categories with the number of products in each
func (s *Store) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, `
		SELECT c.id, c.name, c.description, c.image, c.created_by, c.created_at,
		       count(p.id) AS product_count
		FROM categories c
		LEFT JOIN products p ON p.category = c.name
		GROUP BY c.id
		ORDER BY c.name`)
	return categories, err
}

// DeleteCategory removes a category
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("category", id)
	}
	return nil
}

// CreateAttribute inserts a new attribute definition
func (s *Store) CreateAttribute(ctx context.Context, a *models.Attribute) error {
	a.Name = strings.ToLower(strings.TrimSpace(a.Name))
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO attributes (name, description, type, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.Name, a.Description, a.Type, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("attribute", "name", a.Name)
	}
	return err
}

// GetAttributes lists attributes with the number of values each carries
func (s *Store) GetAttributes(ctx context.Context) ([]models.Attribute, error) {
	attributes := []models.Attribute{}
	err := s.db.SelectContext(ctx, &attributes, `
		SELECT a.id, a.name, a.description, a.type, a.created_by, a.created_at,
		       count(v.id) AS value_count
		FROM attributes a
		LEFT JOIN attribute_values v ON v.attribute = a.name
		GROUP BY a.id
		ORDER BY a.name`)
	return attributes, err
}

// CreateAttributeValue inserts a new allowed value for an attribute
func (s *Store) CreateAttributeValue(ctx context.Context, v *models.AttributeValue) error {
	v.Attribute = strings.ToLower(strings.TrimSpace(v.Attribute))
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO attribute_values (attribute, value, label, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		v.Attribute, v.Value, v.Label, v.CreatedBy,
	).Scan(&v.ID, &v.CreatedAt)
	if isUniqueViolation(err) {
		return apperr.Duplicate("attribute value", "value", v.Value)
	}
	return err
}

// GetAttributeValues lists the allowed values of one attribute
func (s *Store) GetAttributeValues(ctx context.Context, attribute string) ([]models.AttributeValue, error) {
	values := []models.AttributeValue{}
	err := s.db.SelectContext(ctx, &values,
		`SELECT id, attribute, value, label, created_by, created_at
		 FROM attribute_values WHERE attribute = $1 ORDER BY value`,
		strings.ToLower(attribute))
	return values, err
}
