package store

import (
	"context"
	"database/sql"
	"fmt"

	"pos-service/internal/models"
)

// CreateOrder persists a freshly opened order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, table_id, status, total_amount, paid_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return s.db.GetContext(ctx, &order.CreatedAt, query,
		order.ID, order.UserID, order.TableID, order.Status, order.TotalAmount, order.PaidAmount)
}

// GetOrderByID retrieves an order by ID. Returns nil when absent.
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves a tenant's orders, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// UpdateOrderTotal persists the recomputed total
func (s *Store) UpdateOrderTotal(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET total_amount = $1 WHERE id = $2",
		order.TotalAmount, order.ID)
	return err
}

// UpdateOrderPaidAmount persists the payment accumulator
func (s *Store) UpdateOrderPaidAmount(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET paid_amount = $1 WHERE id = $2",
		order.PaidAmount, order.ID)
	return err
}

// FinalizeOrder persists the terminal status and close timestamp
func (s *Store) FinalizeOrder(ctx context.Context, order *models.Order) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, total_amount = $2, paid_amount = $3, closed_at = $4 WHERE id = $5",
		order.Status, order.TotalAmount, order.PaidAmount, order.ClosedAt, order.ID)
	return err
}

// CreateOrderLine persists a new snapshot line
func (s *Store) CreateOrderLine(ctx context.Context, line *models.OrderLine) error {
	query := `
		INSERT INTO order_items (id, order_id, product_id, product_name, price_snapshot, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	return s.db.GetContext(ctx, &line.CreatedAt, query,
		line.ID, line.OrderID, line.ProductID, line.ProductName, line.PriceSnapshot, line.Quantity)
}

// UpdateOrderLineQuantity updates a line's quantity in place
func (s *Store) UpdateOrderLineQuantity(ctx context.Context, lineID string, quantity int) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE order_items SET quantity = $1 WHERE id = $2", quantity, lineID)
	return err
}

// DeleteOrderLine removes a line
func (s *Store) DeleteOrderLine(ctx context.Context, lineID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM order_items WHERE id = $1", lineID)
	return err
}

// GetOrderLinesByOrderID retrieves an order's lines in insertion order
func (s *Store) GetOrderLinesByOrderID(ctx context.Context, orderID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY created_at, id", orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order lines: %w", err)
	}
	return lines, nil
}
