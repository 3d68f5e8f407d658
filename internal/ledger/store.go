package ledger

import (
	"context"

	"autotrader/pkg/db"
	"autotrader/pkg/exchanges/common"
)

// SQLStore adapts the sqlite query layer to the ledger's Store interface.
type SQLStore struct {
	q *db.Queries
}

// NewSQLStore wraps a query layer for ledger persistence.
func NewSQLStore(q *db.Queries) *SQLStore {
	return &SQLStore{q: q}
}

func (s *SQLStore) SaveOrder(ctx context.Context, order common.OrderResult) error {
	return s.q.CreateOrder(ctx, toRow(order))
}

func (s *SQLStore) UpdateOrderStatus(ctx context.Context, orderID string, status common.OrderStatus) error {
	return s.q.SetOrderStatus(ctx, orderID, string(status))
}

// LoadOrders reads persisted history, oldest first, for seeding the ledger
// at boot.
func (s *SQLStore) LoadOrders(ctx context.Context) ([]common.OrderResult, error) {
	rows, err := s.q.ListOrders(ctx, 0)
	if err != nil {
		return nil, err
	}
	out := make([]common.OrderResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, fromRow(r))
	}
	return out, nil
}

func toRow(o common.OrderResult) db.Order {
	return db.Order{
		ID:            o.OrderID,
		Symbol:        o.Symbol,
		Side:          string(o.Side),
		Qty:           o.Qty,
		Price:         o.Price,
		Status:        string(o.Status),
		Reason:        o.Reason,
		Fees:          o.Fees,
		ExecutedQty:   o.ExecutedQty,
		ExecutedPrice: o.ExecutedPrice,
		CreatedAt:     o.Timestamp,
	}
}

func fromRow(r db.Order) common.OrderResult {
	return common.OrderResult{
		OrderID:       r.ID,
		Symbol:        r.Symbol,
		Side:          common.Side(r.Side),
		Qty:           r.Qty,
		Price:         r.Price,
		Status:        common.OrderStatus(r.Status),
		Reason:        r.Reason,
		Fees:          r.Fees,
		ExecutedQty:   r.ExecutedQty,
		ExecutedPrice: r.ExecutedPrice,
		Timestamp:     r.CreatedAt,
	}
}
