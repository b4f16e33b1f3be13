package service

import (
	"context"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// variationStore is the slice of the store the resolver needs.
type variationStore interface {
	GetVariationsByProduct(ctx context.Context, productID int64) ([]models.Variation, error)
	GetVariationStats(ctx context.Context) ([]models.VariationStats, error)
	GetVariationStatsByProduct(ctx context.Context, productID int64) (*models.VariationStats, error)
}

// statsCache caches the per-product variation aggregate.
type statsCache interface {
	GetJSON(ctx context.Context, key string, v interface{}) (bool, error)
	CacheJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	InvalidateVariationStats(ctx context.Context, productID int64) error
}

const statsCacheTTL = 30 * time.Second

// VariationService resolves a product's variant from an attribute signature
// and maintains the derived per-product aggregate of its variants.
type VariationService struct {
	store  variationStore
	cache  statsCache
	logger *zap.Logger
}

// NewVariationService creates a new variation service
func NewVariationService(store variationStore, cache statsCache) *VariationService {
	return &VariationService{
		store:  store,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// FindBySignature locates the product's active variation whose attribute
// signature contains every queried pair. Containment, not equality: querying
// {color: red} matches a variation whose full signature is
// {color: red, size: M}. When several variations satisfy containment the
// oldest one wins (creation order).
func (s *VariationService) FindBySignature(ctx context.Context, productID int64, attrs models.AttributeSet) (*models.Variation, error) {
	ctx, span := util.StartSpan(ctx, "VariationService.FindBySignature")
	defer span.End()

	if len(attrs) == 0 {
		util.VariationLookupsTotal.WithLabelValues("invalid").Inc()
		return nil, apperr.Validation("attribute set must not be empty")
	}

	variations, err := s.store.GetVariationsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	for i := range variations {
		if variations[i].Attributes.Contains(attrs) {
			util.VariationLookupsTotal.WithLabelValues("hit").Inc()
			return &variations[i], nil
		}
	}

	util.VariationLookupsTotal.WithLabelValues("miss").Inc()
	return nil, apperr.NotFound("variation", productID)
}

// ListByProduct returns the product's active variations in creation order
func (s *VariationService) ListByProduct(ctx context.Context, productID int64) ([]models.Variation, error) {
	return s.store.GetVariationsByProduct(ctx, productID)
}

// AggregateByProduct returns the derived stats view for every product that
// has variations. The aggregation spans all variations, active or not.
func (s *VariationService) AggregateByProduct(ctx context.Context) ([]models.VariationStats, error) {
	ctx, span := util.StartSpan(ctx, "VariationService.AggregateByProduct")
	defer span.End()

	return s.store.GetVariationStats(ctx)
}

// AggregateForProduct returns one product's stats view, served from the
// Redis cache when warm.
func (s *VariationService) AggregateForProduct(ctx context.Context, productID int64) (*models.VariationStats, error) {
	ctx, span := util.StartSpan(ctx, "VariationService.AggregateForProduct")
	defer span.End()

	key := redisclient.VariationStatsKey(productID)

	var cached models.VariationStats
	if s.cache != nil {
		ok, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("Variation stats cache read failed", zap.Error(err))
		} else if ok {
			util.VariationStatsCacheHits.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		util.VariationStatsCacheHits.WithLabelValues("miss").Inc()
	}

	stats, err := s.store.GetVariationStatsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.CacheJSON(ctx, key, stats, statsCacheTTL); err != nil {
			s.logger.Warn("Variation stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

// InvalidateStats drops the cached aggregate after a variation write
func (s *VariationService) InvalidateStats(ctx context.Context, productID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateVariationStats(ctx, productID); err != nil {
		s.logger.Warn("Variation stats invalidation failed",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}
}
