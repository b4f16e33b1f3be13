package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/adjust_stock.lua
var adjustStockScript string

// Client wraps Redis as a read-side stock mirror and aggregate cache. The
// database stays authoritative; keys here are rebuilt from it at any time.
type Client struct {
	rdb          *redis.Client
	adjustScript *redis.Script
}

// NewClient creates a new Redis client with the stock script loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:          rdb,
		adjustScript: redis.NewScript(adjustStockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func stockKey(productID int64) string {
	return fmt.Sprintf("stock:product:%d", productID)
}

func statsKey(productID int64) string {
	return fmt.Sprintf("stats:variations:%d", productID)
}

// AdjustStock atomically applies delta to the mirrored stock of a product,
// flooring at zero. Returns the resulting stock and whether the floor
// absorbed a shortfall.
func (c *Client) AdjustStock(ctx context.Context, productID int64, delta int) (stock int, clamped bool, err error) {
	result, err := c.adjustScript.Run(ctx, c.rdb, []string{stockKey(productID)}, delta).Result()
	if err != nil {
		return 0, false, fmt.Errorf("adjust stock script failed: %w", err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return 0, false, fmt.Errorf("unexpected script result: %v", result)
	}

	next, _ := values[0].(int64)
	flag, _ := values[1].(int64)
	return int(next), flag == 1, nil
}

// SetStock overwrites the mirrored stock of a product
func (c *Client) SetStock(ctx context.Context, productID int64, stock int) error {
	return c.rdb.Set(ctx, stockKey(productID), stock, 0).Err()
}

// GetStock reads the mirrored stock of a product
func (c *Client) GetStock(ctx context.Context, productID int64) (int, error) {
	stock, err := c.rdb.Get(ctx, stockKey(productID)).Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("stock not mirrored for product %d", productID)
	}
	return stock, err
}

// CacheJSON stores v under key with a TTL
func (c *Client) CacheJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// GetJSON loads key into v, reporting whether the key existed
func (c *Client) GetJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, v)
}

// VariationStatsKey is the cache key for a product's variation aggregate
func VariationStatsKey(productID int64) string {
	return statsKey(productID)
}

// InvalidateVariationStats drops the cached aggregate for a product
func (c *Client) InvalidateVariationStats(ctx context.Context, productID int64) error {
	return c.rdb.Del(ctx, statsKey(productID)).Err()
}
