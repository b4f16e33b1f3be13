package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	args := m.Called(ctx, order, items)
	return args.Error(0)
}

func (m *mockOrderStore) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *mockOrderStore) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *mockOrderStore) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockOrderStore) GetAllOrders(ctx context.Context) ([]models.Order, float64, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Get(1).(float64), args.Error(2)
}

func (m *mockOrderStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string, deliveredAt *time.Time) error {
	args := m.Called(ctx, orderID, status, deliveredAt)
	return args.Error(0)
}

func (m *mockOrderStore) ShipOrderTx(ctx context.Context, orderID int64) ([]store.StockAdjustment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]store.StockAdjustment), args.Error(1)
}

func (m *mockOrderStore) DeleteOrder(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockOrderStore) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

type mockOrderPublisher struct {
	mock.Mock
}

func (m *mockOrderPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOrderPublisher) PublishOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockOrderPublisher) PublishOrderDelivered(ctx context.Context, event *models.OrderDeliveredEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestOrderService(st *mockOrderStore, pub *mockOrderPublisher) *OrderService {
	svc := NewOrderService(st, pub)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	st := new(mockOrderStore)
	pub := new(mockOrderPublisher)
	svc := newTestOrderService(st, pub)

	st.On("GetProductByID", mock.Anything, int64(1)).
		Return(&models.Product{ID: 1, Name: "Keyboard", Price: 100}, nil)
	st.On("GetProductByID", mock.Anything, int64(2)).
		Return(&models.Product{ID: 2, Name: "Mouse", Price: 50}, nil)
	st.On("CreateOrderTx", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("PublishOrderCreated", mock.Anything, mock.Anything).Return(nil)

	order, items, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		UserID: "u1",
		Items: []OrderItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		TaxPrice:      25,
		ShippingPrice: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, 250.0, order.ItemsPrice)
	assert.Equal(t, 285.0, order.TotalPrice)
	assert.Equal(t, models.OrderStatusProcessing, order.OrderStatus)
	assert.Equal(t, svc.now(), order.PaidAt)

	require.Len(t, items, 2)
	assert.Equal(t, "Keyboard", items[0].Name)
	assert.Equal(t, 100.0, items[0].Price)
	assert.Equal(t, 2, items[0].Quantity)

	st.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc := newTestOrderService(new(mockOrderStore), new(mockOrderPublisher))

	_, _, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))
}

func TestCreateOrderRejectsZeroQuantity(t *testing.T) {
	svc := newTestOrderService(new(mockOrderStore), new(mockOrderPublisher))

	_, _, err := svc.CreateOrder(context.Background(), &CreateOrderRequest{
		UserID: "u1",
		Items:  []OrderItemRequest{{ProductID: 1, Quantity: 0}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))
}

func TestShipDecrementsEveryLineItem(t *testing.T) {
	st := new(mockOrderStore)
	pub := new(mockOrderPublisher)
	svc := newTestOrderService(st, pub)

	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, UserID: "u1", OrderStatus: models.OrderStatusProcessing}, nil)
	st.On("ShipOrderTx", mock.Anything, int64(7)).
		Return([]store.StockAdjustment{
			{ProductID: 1, Quantity: 2, Stock: 8},
			{ProductID: 2, Quantity: 3, Stock: 4},
		}, nil)
	pub.On("PublishOrderShipped", mock.Anything, mock.MatchedBy(func(e *models.OrderShippedEvent) bool {
		return e.OrderID == 7 && len(e.Items) == 2
	})).Return(nil)

	order, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.OrderStatus)

	st.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestShipClampedItemStillShips(t *testing.T) {
	st := new(mockOrderStore)
	pub := new(mockOrderPublisher)
	svc := newTestOrderService(st, pub)

	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, OrderStatus: models.OrderStatusProcessing}, nil)
	st.On("ShipOrderTx", mock.Anything, int64(7)).
		Return([]store.StockAdjustment{
			{ProductID: 1, Quantity: 5, Stock: 0, Clamped: true},
		}, nil)
	pub.On("PublishOrderShipped", mock.Anything, mock.Anything).Return(nil)

	// Over-decrement floors at zero; the transition itself succeeds.
	order, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, order.OrderStatus)
}

func TestShippedToDeliveredStampsTime(t *testing.T) {
	st := new(mockOrderStore)
	pub := new(mockOrderPublisher)
	svc := newTestOrderService(st, pub)

	expected := svc.now()
	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, OrderStatus: models.OrderStatusShipped}, nil)
	st.On("UpdateOrderStatus", mock.Anything, int64(7), models.OrderStatusDelivered, &expected).
		Return(nil)
	pub.On("PublishOrderDelivered", mock.Anything, mock.Anything).Return(nil)

	order, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusDelivered)
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusDelivered, order.OrderStatus)
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, expected, *order.DeliveredAt)

	st.AssertExpectations(t)
}

func TestProcessingToDeliveredSkipsDecrement(t *testing.T) {
	st := new(mockOrderStore)
	pub := new(mockOrderPublisher)
	svc := newTestOrderService(st, pub)

	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, OrderStatus: models.OrderStatusProcessing}, nil)
	st.On("UpdateOrderStatus", mock.Anything, int64(7), models.OrderStatusDelivered, mock.Anything).
		Return(nil)
	pub.On("PublishOrderDelivered", mock.Anything, mock.Anything).Return(nil)

	order, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, order.OrderStatus)

	// The direct jump must not touch stock.
	st.AssertNotCalled(t, "ShipOrderTx", mock.Anything, mock.Anything)
}

func TestDeliveredIsTerminal(t *testing.T) {
	st := new(mockOrderStore)
	svc := newTestOrderService(st, new(mockOrderPublisher))

	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, OrderStatus: models.OrderStatusDelivered}, nil)

	for _, target := range []string{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		_, err := svc.UpdateStatus(context.Background(), 7, target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition))
	}

	st.AssertNotCalled(t, "ShipOrderTx", mock.Anything, mock.Anything)
	st.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUnknownTargetStatusFailsValidation(t *testing.T) {
	st := new(mockOrderStore)
	svc := newTestOrderService(st, new(mockOrderPublisher))

	_, err := svc.UpdateStatus(context.Background(), 7, "Cancelled")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidationFailed))

	st.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
}

func TestBackwardTransitionRejected(t *testing.T) {
	st := new(mockOrderStore)
	svc := newTestOrderService(st, new(mockOrderPublisher))

	st.On("GetOrderByID", mock.Anything, int64(7)).
		Return(&models.Order{ID: 7, OrderStatus: models.OrderStatusShipped}, nil)

	_, err := svc.UpdateStatus(context.Background(), 7, models.OrderStatusProcessing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidStateTransition))
}
