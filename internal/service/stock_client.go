package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/query"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// StockClient applies inventory adjustments. The database carries the
// authoritative stock via conditional clamped updates; Redis mirrors it for
// cheap reads and is resynchronized whenever the two could drift.
type StockClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockClient creates a new stock client
func NewStockClient(store *store.Store, redis *redisclient.Client) *StockClient {
	return &StockClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// AdjustProductStock applies delta to a product's stock, flooring at zero.
// A clamp is a policy outcome, not an error: it is logged and counted, and
// the caller sees the resulting stock.
func (sc *StockClient) AdjustProductStock(ctx context.Context, productID int64, delta int) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.AdjustProductStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockAdjustLatency.Observe(time.Since(start).Seconds())
	}()

	stock, clamped, err := sc.store.AdjustProductStock(ctx, productID, delta)
	if err != nil {
		return 0, err
	}

	if clamped {
		util.StockClampsTotal.WithLabelValues("product").Inc()
		sc.logger.Warn("Stock decrement clamped at zero",
			zap.Int64("product_id", productID),
			zap.Int("delta", delta))
	}

	sc.mirrorProductStock(productID, stock)
	return stock, nil
}

// AdjustVariationStock applies delta to a variation's stock, flooring at zero
func (sc *StockClient) AdjustVariationStock(ctx context.Context, variationID int64, delta int) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.AdjustVariationStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockAdjustLatency.Observe(time.Since(start).Seconds())
	}()

	stock, clamped, err := sc.store.AdjustVariationStock(ctx, variationID, delta)
	if err != nil {
		return 0, err
	}

	if clamped {
		util.StockClampsTotal.WithLabelValues("variation").Inc()
		sc.logger.Warn("Variation stock decrement clamped at zero",
			zap.Int64("variation_id", variationID),
			zap.Int("delta", delta))
	}

	return stock, nil
}

// ApplyMirrorDelta applies delta to a product's mirrored stock through the
// atomic clamped script, so concurrent consumers never interleave a
// read-modify-write. A cold mirror is reseeded from the database first.
func (sc *StockClient) ApplyMirrorDelta(ctx context.Context, productID int64, delta int) (int, error) {
	if _, err := sc.redis.GetStock(ctx, productID); err != nil {
		if err := sc.MirrorProductStock(ctx, productID); err != nil {
			return 0, err
		}
	}

	stock, clamped, err := sc.redis.AdjustStock(ctx, productID, delta)
	if err != nil {
		return 0, err
	}
	if clamped {
		sc.logger.Warn("Mirror stock decrement clamped at zero",
			zap.Int64("product_id", productID),
			zap.Int("delta", delta))
	}
	return stock, nil
}

// MirrorProductStock overwrites the Redis mirror for one product
func (sc *StockClient) MirrorProductStock(ctx context.Context, productID int64) error {
	product, err := sc.store.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	return sc.redis.SetStock(ctx, productID, product.Stock)
}

// SyncStockToRedis rebuilds the Redis stock mirror from the database
func (sc *StockClient) SyncStockToRedis(ctx context.Context) error {
	sc.logger.Info("Starting stock sync to Redis")

	products, err := sc.store.ListProducts(ctx, allProductsQuery())
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	for _, product := range products {
		if err := sc.redis.SetStock(ctx, product.ID, product.Stock); err != nil {
			sc.logger.Error("Failed to mirror stock",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
		}
	}

	sc.logger.Info("Stock sync completed", zap.Int("count", len(products)))
	return nil
}

// GetMirroredStock reads a product's stock from the Redis mirror, falling
// back to the database when the mirror is cold.
func (sc *StockClient) GetMirroredStock(ctx context.Context, productID int64) (int, error) {
	stock, err := sc.redis.GetStock(ctx, productID)
	if err == nil {
		return stock, nil
	}

	sc.logger.Debug("Stock mirror miss, reading database",
		zap.Int64("product_id", productID))

	product, dbErr := sc.store.GetProductByID(ctx, productID)
	if dbErr != nil {
		return 0, dbErr
	}

	sc.mirrorProductStock(productID, product.Stock)
	return product.Stock, nil
}

func (sc *StockClient) mirrorProductStock(productID int64, stock int) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sc.redis.SetStock(ctx, productID, stock); err != nil {
			sc.logger.Error("Failed to sync stock to Redis",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}()
}

// allProductsQuery is an unfiltered, unpaginated product list query.
func allProductsQuery() *query.Builder {
	return query.New("name")
}
