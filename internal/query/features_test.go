package query

import (
	"errors"
	"testing"

	"storefront-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKeyword(t *testing.T) {
	b := New("name").Search("  laptop  ")

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products WHERE name ILIKE $1 ORDER BY created_at DESC, id DESC",
		q.SQL)
	assert.Equal(t, []interface{}{"%laptop%"}, q.Args)
}

func TestSearchEmptyKeywordIsNoop(t *testing.T) {
	q, err := New("name").Search("").Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM products ORDER BY created_at DESC, id DESC", q.SQL)
	assert.Empty(t, q.Args)
}

func TestFilterStripsReservedParams(t *testing.T) {
	b := New("name", "category").Filter(Params{
		"keyword":  "ignored",
		"page":     "3",
		"limit":    "20",
		"category": "electronics",
	})

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products WHERE category = $1 ORDER BY created_at DESC, id DESC",
		q.SQL)
	assert.Equal(t, []interface{}{"electronics"}, q.Args)
}

func TestFilterIgnoresUnknownColumns(t *testing.T) {
	b := New("name", "price").Filter(Params{
		"price":   map[string]string{"gte": "100"},
		"willful": "nonsense",
	})

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products WHERE price >= $1 ORDER BY created_at DESC, id DESC",
		q.SQL)
}

func TestRangeOperators(t *testing.T) {
	b := New("name", "price").Filter(Params{
		"price": map[string]string{"gte": "100", "lt": "500"},
	})

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	// Conditions render in a deterministic order regardless of map iteration.
	assert.Equal(t,
		"SELECT * FROM products WHERE price < $1 AND price >= $2 ORDER BY created_at DESC, id DESC",
		q.SQL)
	assert.Equal(t, []interface{}{500.0, 100.0}, q.Args)
}

func TestMalformedOperandFailsValidation(t *testing.T) {
	b := New("name", "price").Filter(Params{
		"price": map[string]string{"gte": "cheap"},
	})

	_, err := b.Build("SELECT * FROM products")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))
}

func TestUnknownOperatorFailsValidation(t *testing.T) {
	b := New("name", "price").Filter(Params{
		"price": map[string]string{"between": "100"},
	})

	_, err := b.Build("SELECT * FROM products")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))
}

func TestPagination(t *testing.T) {
	q, err := New("name").Paginate(3, 8).Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2",
		q.SQL)
	assert.Equal(t, []interface{}{8, 16}, q.Args)
}

func TestPaginationPageBelowOne(t *testing.T) {
	q, err := New("name").Paginate(0, 8).Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t, []interface{}{8, 0}, q.Args)
}

func TestPaginationBeyondLastPageKeepsOffset(t *testing.T) {
	// A page past the data is legal; the executed query simply returns no
	// rows. The builder must not cap it.
	q, err := New("name").Paginate(999, 8).Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t, []interface{}{8, 998 * 8}, q.Args)
}

func TestStagesCompose(t *testing.T) {
	b := New("name", "price", "category").
		Search("shirt").
		Filter(Params{
			"category": "apparel",
			"price":    map[string]string{"lte": "50"},
		}).
		Paginate(2, 10)

	q, err := b.Build("SELECT * FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT * FROM products WHERE category = $1 AND name ILIKE $2 AND price <= $3"+
			" ORDER BY created_at DESC, id DESC LIMIT $4 OFFSET $5",
		q.SQL)
	assert.Equal(t, []interface{}{"apparel", "%shirt%", 50.0, 10, 10}, q.Args)
}

func TestBuildCountSkipsPagination(t *testing.T) {
	b := New("name", "category").
		Search("shirt").
		Filter(Params{"category": "apparel"}).
		Paginate(5, 8)

	q, err := b.BuildCount("SELECT count(*) FROM products")
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT count(*) FROM products WHERE category = $1 AND name ILIKE $2",
		q.SQL)
	assert.Equal(t, []interface{}{"apparel", "%shirt%"}, q.Args)
}
