package service

import (
	"context"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// orderStore is the slice of the store the fulfillment engine needs.
type orderStore interface {
	CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	GetAllOrders(ctx context.Context) ([]models.Order, float64, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string, deliveredAt *time.Time) error
	ShipOrderTx(ctx context.Context, orderID int64) ([]store.StockAdjustment, error)
	DeleteOrder(ctx context.Context, id int64) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
}

// orderPublisher publishes order domain events.
type orderPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error
	PublishOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error
}

type transitionKey struct {
	from, to string
}

type transitionFunc func(ctx context.Context, order *models.Order) error

// OrderService drives orders through the Processing -> Shipped -> Delivered
// lifecycle. Every legal transition is an explicit table entry carrying its
// side effects, so skipping a state never skips an effect silently: the
// direct Processing -> Delivered jump is listed and deliberately performs no
// stock decrement, matching the administrative override it exists for.
type OrderService struct {
	store       orderStore
	publisher   orderPublisher
	logger      *zap.Logger
	now         func() time.Time
	transitions map[transitionKey]transitionFunc
}

// NewOrderService creates a new order service
func NewOrderService(store orderStore, publisher orderPublisher) *OrderService {
	s := &OrderService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
		now:       time.Now,
	}
	s.transitions = map[transitionKey]transitionFunc{
		{models.OrderStatusProcessing, models.OrderStatusShipped}:   s.ship,
		{models.OrderStatusProcessing, models.OrderStatusDelivered}: s.deliver,
		{models.OrderStatusShipped, models.OrderStatusDelivered}:    s.deliver,
	}
	return s
}

// OrderItemRequest is one line item of a checkout request
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderRequest carries a checkout. The user identity arrives from the
// identity context; prices for tax and shipping are computed upstream.
type CreateOrderRequest struct {
	UserID        string              `json:"-"`
	ShippingInfo  models.ShippingInfo `json:"shipping_info" binding:"required"`
	Items         []OrderItemRequest  `json:"items" binding:"required,min=1"`
	PaymentInfo   models.PaymentInfo  `json:"payment_info" binding:"required"`
	TaxPrice      float64             `json:"tax_price"`
	ShippingPrice float64             `json:"shipping_price"`
}

// CreateOrder places an order at checkout. Line items snapshot the product
// name and price at this moment and are immutable afterwards; the order
// starts in Processing with paidAt stamped from the clock.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		return nil, nil, apperr.Validation("order must contain at least one item")
	}
	if req.TaxPrice < 0 || req.ShippingPrice < 0 {
		return nil, nil, apperr.Validation("prices cannot be negative")
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var itemsPrice float64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, nil, apperr.Validationf("quantity must be at least 1 for product %d", item.ProductID)
		}
		product, err := s.store.GetProductByID(ctx, item.ProductID)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  item.Quantity,
		})
		itemsPrice += product.Price * float64(item.Quantity)
	}

	order := &models.Order{
		UserID:        req.UserID,
		ShippingInfo:  req.ShippingInfo,
		PaymentInfo:   req.PaymentInfo,
		ItemsPrice:    itemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    itemsPrice + req.TaxPrice + req.ShippingPrice,
		OrderStatus:   models.OrderStatusProcessing,
		PaidAt:        s.now(),
	}

	if err := s.store.CreateOrderTx(ctx, order, items); err != nil {
		return nil, nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Float64("total_price", order.TotalPrice))

	event := &models.OrderCreatedEvent{
		BaseEvent:  s.baseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Items:      eventItems(items),
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return order, items, nil
}

// GetOrder retrieves an order with its line items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// GetOrdersByUser retrieves the caller's orders
func (s *OrderService) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.GetOrdersByUser(ctx, userID)
}

// GetAllOrders retrieves every order and the summed revenue
func (s *OrderService) GetAllOrders(ctx context.Context) ([]models.Order, float64, error) {
	return s.store.GetAllOrders(ctx)
}

// DeleteOrder hard-deletes an order (administrative override)
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	return s.store.DeleteOrder(ctx, orderID)
}

// UpdateStatus attempts the transition to target. Delivered is terminal: any
// attempt to move a delivered order is rejected. Transitions absent from the
// table are rejected as well.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, target string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	if !models.IsValidOrderStatus(target) {
		util.OrderTransitionsRejected.WithLabelValues("unknown_status").Inc()
		return nil, apperr.Validationf("unknown order status %q", target)
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.OrderStatus == models.OrderStatusDelivered {
		util.OrderTransitionsRejected.WithLabelValues("already_delivered").Inc()
		return nil, apperr.InvalidTransition("order has already been delivered")
	}

	fn, ok := s.transitions[transitionKey{order.OrderStatus, target}]
	if !ok {
		util.OrderTransitionsRejected.WithLabelValues("no_transition").Inc()
		return nil, apperr.InvalidTransition(
			"cannot transition order from " + order.OrderStatus + " to " + target)
	}

	if err := fn(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ship marks the order shipped and decrements every line item's product
// stock, clamped at zero. The batch and the status write commit together;
// a failure mid-batch leaves nothing decremented.
func (s *OrderService) ship(ctx context.Context, order *models.Order) error {
	adjustments, err := s.store.ShipOrderTx(ctx, order.ID)
	if err != nil {
		return err
	}

	items := make([]models.OrderItemData, 0, len(adjustments))
	for _, adj := range adjustments {
		items = append(items, models.OrderItemData{
			ProductID: adj.ProductID,
			Quantity:  adj.Quantity,
		})
		if adj.Clamped {
			util.StockClampsTotal.WithLabelValues("product").Inc()
			s.logger.Warn("Shipment decrement clamped at zero",
				zap.Int64("order_id", order.ID),
				zap.Int64("product_id", adj.ProductID),
				zap.Int("quantity", adj.Quantity))
		}
	}

	order.OrderStatus = models.OrderStatusShipped
	util.OrdersShippedTotal.Inc()
	s.logger.Info("Order shipped",
		zap.Int64("order_id", order.ID),
		zap.Int("items", len(adjustments)))

	event := &models.OrderShippedEvent{
		BaseEvent: s.baseEvent(models.EventTypeOrderShipped),
		OrderID:   order.ID,
		UserID:    order.UserID,
		Items:     items,
	}
	if err := s.publisher.PublishOrderShipped(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderShipped event", zap.Error(err))
	}

	return nil
}

// deliver stamps the delivery time and writes the terminal status. Reaching
// Delivered straight from Processing performs no stock decrement.
func (s *OrderService) deliver(ctx context.Context, order *models.Order) error {
	deliveredAt := s.now()
	if err := s.store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusDelivered, &deliveredAt); err != nil {
		return err
	}

	order.OrderStatus = models.OrderStatusDelivered
	order.DeliveredAt = &deliveredAt
	util.OrdersDeliveredTotal.Inc()
	s.logger.Info("Order delivered", zap.Int64("order_id", order.ID))

	event := &models.OrderDeliveredEvent{
		BaseEvent:   s.baseEvent(models.EventTypeOrderDelivered),
		OrderID:     order.ID,
		UserID:      order.UserID,
		DeliveredAt: deliveredAt,
	}
	if err := s.publisher.PublishOrderDelivered(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderDelivered event", zap.Error(err))
	}

	return nil
}

func (s *OrderService) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: s.now(),
	}
}

func eventItems(items []models.OrderItem) []models.OrderItemData {
	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return data
}
