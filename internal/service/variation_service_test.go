package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockVariationStore struct {
	mock.Mock
}

func (m *mockVariationStore) GetVariationsByProduct(ctx context.Context, productID int64) ([]models.Variation, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.Variation), args.Error(1)
}

func (m *mockVariationStore) GetVariationStats(ctx context.Context) ([]models.VariationStats, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.VariationStats), args.Error(1)
}

func (m *mockVariationStore) GetVariationStatsByProduct(ctx context.Context, productID int64) (*models.VariationStats, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VariationStats), args.Error(1)
}

type mockStatsCache struct {
	mock.Mock
}

func (m *mockStatsCache) GetJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	args := m.Called(ctx, key, v)
	return args.Bool(0), args.Error(1)
}

func (m *mockStatsCache) CacheJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, v, ttl)
	return args.Error(0)
}

func (m *mockStatsCache) InvalidateVariationStats(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func TestFindBySignatureContainment(t *testing.T) {
	st := new(mockVariationStore)
	svc := NewVariationService(st, nil)

	// The stored signature carries more attributes than the query; the
	// partial signature must still match.
	st.On("GetVariationsByProduct", mock.Anything, int64(1)).
		Return([]models.Variation{
			{ID: 10, ProductID: 1, SKU: "TS-RED-M",
				Attributes: models.AttributeSet{"color": "red", "size": "M"}, IsActive: true},
		}, nil)

	found, err := svc.FindBySignature(context.Background(), 1, models.AttributeSet{"color": "red"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.ID)
}

func TestFindBySignatureOldestWins(t *testing.T) {
	st := new(mockVariationStore)
	svc := NewVariationService(st, nil)

	// The store returns active variations in creation order; with two
	// candidates satisfying containment the first one wins.
	st.On("GetVariationsByProduct", mock.Anything, int64(1)).
		Return([]models.Variation{
			{ID: 10, SKU: "TS-RED-M", Attributes: models.AttributeSet{"color": "red", "size": "M"}},
			{ID: 11, SKU: "TS-RED-L", Attributes: models.AttributeSet{"color": "red", "size": "L"}},
		}, nil)

	found, err := svc.FindBySignature(context.Background(), 1, models.AttributeSet{"color": "red"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), found.ID)
}

func TestFindBySignatureExactMatch(t *testing.T) {
	st := new(mockVariationStore)
	svc := NewVariationService(st, nil)

	st.On("GetVariationsByProduct", mock.Anything, int64(1)).
		Return([]models.Variation{
			{ID: 10, Attributes: models.AttributeSet{"color": "red", "size": "M"}},
			{ID: 11, Attributes: models.AttributeSet{"color": "blue", "size": "M"}},
		}, nil)

	found, err := svc.FindBySignature(context.Background(), 1,
		models.AttributeSet{"color": "blue", "size": "M"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), found.ID)
}

func TestFindBySignatureNoMatch(t *testing.T) {
	st := new(mockVariationStore)
	svc := NewVariationService(st, nil)

	st.On("GetVariationsByProduct", mock.Anything, int64(1)).
		Return([]models.Variation{
			{ID: 10, Attributes: models.AttributeSet{"color": "red"}},
		}, nil)

	_, err := svc.FindBySignature(context.Background(), 1, models.AttributeSet{"color": "green"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestFindBySignatureEmptyQuery(t *testing.T) {
	st := new(mockVariationStore)
	svc := NewVariationService(st, nil)

	_, err := svc.FindBySignature(context.Background(), 1, models.AttributeSet{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))

	st.AssertNotCalled(t, "GetVariationsByProduct", mock.Anything, mock.Anything)
}

func TestAggregateForProductCacheMiss(t *testing.T) {
	st := new(mockVariationStore)
	cache := new(mockStatsCache)
	svc := NewVariationService(st, cache)

	stats := &models.VariationStats{ProductID: 1, Count: 3, TotalStock: 30, AvgPrice: 20}

	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	st.On("GetVariationStatsByProduct", mock.Anything, int64(1)).Return(stats, nil)
	cache.On("CacheJSON", mock.Anything, mock.Anything, stats, statsCacheTTL).Return(nil)

	got, err := svc.AggregateForProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	cache.AssertExpectations(t)
	st.AssertExpectations(t)
}

func TestAggregateForProductCacheHit(t *testing.T) {
	st := new(mockVariationStore)
	cache := new(mockStatsCache)
	svc := NewVariationService(st, cache)

	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*models.VariationStats)
			*out = models.VariationStats{ProductID: 1, Count: 2, TotalStock: 12}
		}).
		Return(true, nil)

	got, err := svc.AggregateForProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)

	st.AssertNotCalled(t, "GetVariationStatsByProduct", mock.Anything, mock.Anything)
}

func TestAggregateForProductCacheErrorFallsThrough(t *testing.T) {
	st := new(mockVariationStore)
	cache := new(mockStatsCache)
	svc := NewVariationService(st, cache)

	stats := &models.VariationStats{ProductID: 1, Count: 1}

	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(false, errors.New("redis down"))
	st.On("GetVariationStatsByProduct", mock.Anything, int64(1)).Return(stats, nil)
	cache.On("CacheJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	got, err := svc.AggregateForProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestInvalidateStatsTolerantOfCacheErrors(t *testing.T) {
	cache := new(mockStatsCache)
	svc := NewVariationService(new(mockVariationStore), cache)

	cache.On("InvalidateVariationStats", mock.Anything, int64(1)).
		Return(errors.New("redis down"))

	// Invalidation failures are logged, never surfaced.
	svc.InvalidateStats(context.Background(), 1)
	cache.AssertExpectations(t)
}
