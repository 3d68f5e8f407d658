package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Queries provides typed access to the order and user tables.
type Queries struct {
	db *sql.DB
}

// ----------------------------------------
// Orders
// ----------------------------------------

// CreateOrder inserts a new order row.
func (q *Queries) CreateOrder(ctx context.Context, o Order) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO orders (id, symbol, side, qty, price, status, reason, fees, executed_qty, executed_price, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.ID, o.Symbol, o.Side, o.Qty, o.Price, o.Status, o.Reason, o.Fees, o.ExecutedQty, o.ExecutedPrice, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// SetOrderStatus updates the status of one order.
func (q *Queries) SetOrderStatus(ctx context.Context, orderID, status string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOrders returns orders oldest first, up to limit (0 = all).
func (q *Queries) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	query := `
		SELECT id, symbol, side, qty, price, status, COALESCE(reason, ''),
		       COALESCE(fees, 0), COALESCE(executed_qty, 0), COALESCE(executed_price, 0), created_at
		FROM orders
		ORDER BY created_at ASC, rowid ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Symbol, &o.Side, &o.Qty, &o.Price, &o.Status, &o.Reason,
			&o.Fees, &o.ExecutedQty, &o.ExecutedPrice, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrderByID fetches one order row.
func (q *Queries) GetOrderByID(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := q.db.QueryRowContext(ctx, `
		SELECT id, symbol, side, qty, price, status, COALESCE(reason, ''),
		       COALESCE(fees, 0), COALESCE(executed_qty, 0), COALESCE(executed_price, 0), created_at
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Symbol, &o.Side, &o.Qty, &o.Price, &o.Status, &o.Reason,
		&o.Fees, &o.ExecutedQty, &o.ExecutedPrice, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

// ----------------------------------------
// Users
// ----------------------------------------

// CreateUser inserts a new user.
func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, u.ID, u.Email, u.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches a user by email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := q.db.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
