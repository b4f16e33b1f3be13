package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/apperr"
	"storefront-service/internal/models"
)

const orderColumns = `id, user_id, shipping_info, payment_info, items_price, tax_price, shipping_price, total_price, order_status, paid_at, delivered_at, created_at, updated_at`

// CreateOrderTx inserts an order together with its line items in one
// transaction. Line items are immutable after this point.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO orders (user_id, shipping_info, payment_info, items_price, tax_price,
		                    shipping_price, total_price, order_status, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.ShippingInfo, order.PaymentInfo, order.ItemsPrice, order.TaxPrice,
		order.ShippingPrice, order.TotalPrice, order.OrderStatus, order.PaidAt,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Name, items[i].Price, items[i].Quantity,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err, "order", id)
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all line items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	items := []models.OrderItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	return items, err
}

// GetOrdersByUser retrieves a user's orders, newest first
func (s *Store) GetOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetAllOrders retrieves every order with the summed revenue
func (s *Store) GetAllOrders(ctx context.Context) ([]models.Order, float64, error) {
	orders := []models.Order{}
	err := s.db.SelectContext(ctx, &orders,
		"SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
	if err != nil {
		return nil, 0, err
	}

	var total float64
	err = s.db.GetContext(ctx, &total, "SELECT COALESCE(sum(total_price), 0) FROM orders")
	return orders, total, err
}

// UpdateOrderStatus writes the new status as a partial update; only the
// status field and delivery timestamp are touched, the rest of the entity is
// not re-validated.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string, deliveredAt *time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET order_status = $1, delivered_at = COALESCE($2, delivered_at), updated_at = NOW() WHERE id = $3",
		status, deliveredAt, orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order", orderID)
	}
	return nil
}

// StockAdjustment reports one line item's decrement outcome during shipment.
type StockAdjustment struct {
	ProductID int64
	Quantity  int
	Stock     int
	Clamped   bool
}

// ShipOrderTx marks the order shipped and decrements every line item's
// product stock, clamped at zero, all inside a single transaction so a
// failure mid-batch leaves no item decremented. The status flip is
// conditional on the order still being in Processing; it runs first so the
// row lock serializes concurrent shipment attempts and the loser matches
// zero rows instead of decrementing a second time.
func (s *Store) ShipOrderTx(ctx context.Context, orderID int64) ([]StockAdjustment, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET order_status = $1, updated_at = NOW() WHERE id = $2 AND order_status = $3",
		models.OrderStatusShipped, orderID, models.OrderStatusProcessing)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		if err := tx.GetContext(ctx, &status,
			"SELECT order_status FROM orders WHERE id = $1", orderID); err != nil {
			return nil, translateErr(err, "order", orderID)
		}
		return nil, apperr.InvalidTransition(
			"cannot ship order with status " + status)
	}

	items := []models.OrderItem{}
	err = tx.SelectContext(ctx, &items,
		"SELECT id, order_id, product_id, name, price, quantity FROM order_items WHERE order_id = $1 ORDER BY id",
		orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	adjustments := make([]StockAdjustment, 0, len(items))
	for _, item := range items {
		var (
			stock   int
			clamped bool
		)
		err = tx.QueryRowxContext(ctx, `
			WITH prev AS (SELECT stock FROM products WHERE id = $2)
			UPDATE products
			SET stock = GREATEST(stock - $1, 0), updated_at = NOW()
			WHERE id = $2
			RETURNING stock, (SELECT stock FROM prev) - $1 < 0`,
			item.Quantity, item.ProductID,
		).Scan(&stock, &clamped)
		if err == sql.ErrNoRows {
			// The product was deleted after checkout. The snapshot still
			// ships; there is just no stock left to decrement.
			continue
		}
		if err != nil {
			return nil, translateErr(err, "product", item.ProductID)
		}
		adjustments = append(adjustments, StockAdjustment{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Stock:     stock,
			Clamped:   clamped,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return adjustments, nil
}

// DeleteOrder removes an order and its line items (administrative override)
func (s *Store) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM order_items WHERE order_id = $1", id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order", id)
	}

	return tx.Commit()
}
