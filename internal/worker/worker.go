package worker

import (
	"context"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockWorker consumes order events and keeps the Redis stock mirror and the
// cached variation aggregates in step with shipment decrements. It also
// publishes StockDepleted when a shipped product reaches zero stock.
type StockWorker struct {
	consumer   *broker.Consumer
	handler    *broker.EventHandler
	store      *store.Store
	stock      *service.StockClient
	variations *service.VariationService
	publisher  *broker.EventPublisher
	logger     *zap.Logger
}

// NewStockWorker creates a new stock worker
func NewStockWorker(
	consumer *broker.Consumer,
	st *store.Store,
	stock *service.StockClient,
	variations *service.VariationService,
	publisher *broker.EventPublisher,
) *StockWorker {
	w := &StockWorker{
		consumer:   consumer,
		store:      st,
		stock:      stock,
		variations: variations,
		publisher:  publisher,
		logger:     util.GetLogger(),
	}

	handler := broker.NewEventHandler()
	handler.OnOrderShipped(w.handleOrderShipped)
	w.handler = handler

	return w
}

// Start starts the worker
func (w *StockWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting stock worker")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *StockWorker) Stop() error {
	w.logger.Info("Stopping stock worker")
	return w.consumer.Close()
}

// handleOrderShipped applies each line item's decrement to the stock mirror
// through the atomic clamped script. Mirror failures are logged and skipped
// so one unreachable product does not stall the consumer group.
func (w *StockWorker) handleOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error {
	for _, item := range event.Items {
		if _, err := w.stock.ApplyMirrorDelta(ctx, item.ProductID, -item.Quantity); err != nil {
			w.logger.Error("Failed to mirror product stock",
				zap.Int64("product_id", item.ProductID),
				zap.Int64("order_id", event.OrderID),
				zap.Error(err))
			continue
		}

		w.variations.InvalidateStats(ctx, item.ProductID)

		product, err := w.store.GetProductByID(ctx, item.ProductID)
		if err != nil {
			w.logger.Error("Failed to load shipped product",
				zap.Int64("product_id", item.ProductID), zap.Error(err))
			continue
		}
		if product.Stock == 0 {
			w.publishStockDepleted(ctx, product.ID)
		}
	}
	return nil
}

func (w *StockWorker) publishStockDepleted(ctx context.Context, productID int64) {
	event := &models.StockDepletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStockDepleted,
			Timestamp: time.Now(),
		},
		ProductID: productID,
	}
	if err := w.publisher.PublishStockDepleted(ctx, event); err != nil {
		w.logger.Error("Failed to publish StockDepleted event",
			zap.Int64("product_id", productID), zap.Error(err))
		return
	}
	w.logger.Warn("Product stock depleted", zap.Int64("product_id", productID))
}
