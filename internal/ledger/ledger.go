// Package ledger keeps the append-only record of executed orders.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"autotrader/pkg/exchanges/common"
)

// ErrDuplicateOrderID reports an append with an order ID already present.
var ErrDuplicateOrderID = errors.New("ledger: duplicate order id")

// Store is optional write-behind persistence for the ledger. The in-memory
// ledger stays the source of truth; store failures are logged, not fatal.
type Store interface {
	SaveOrder(ctx context.Context, order common.OrderResult) error
	UpdateOrderStatus(ctx context.Context, orderID string, status common.OrderStatus) error
}

// Ledger is an insertion-ordered collection of order results. Appends are
// serialized; order IDs are unique within the ledger.
type Ledger struct {
	mu     sync.Mutex
	orders []common.OrderResult
	index  map[string]int
	store  Store
}

// New creates a ledger. store may be nil for a purely in-memory ledger.
func New(store Store) *Ledger {
	return &Ledger{index: make(map[string]int), store: store}
}

// Seed loads previously persisted orders, oldest first. Intended for boot;
// duplicate IDs in the input are skipped.
func (l *Ledger) Seed(orders []common.OrderResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range orders {
		if _, dup := l.index[o.OrderID]; dup {
			continue
		}
		l.index[o.OrderID] = len(l.orders)
		l.orders = append(l.orders, o)
	}
}

// Append records an order. The gateway generates IDs, so a collision means a
// caller bug rather than bad luck.
func (l *Ledger) Append(ctx context.Context, order common.OrderResult) error {
	l.mu.Lock()
	if _, dup := l.index[order.OrderID]; dup {
		l.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateOrderID, order.OrderID)
	}
	l.index[order.OrderID] = len(l.orders)
	l.orders = append(l.orders, order)
	l.mu.Unlock()

	if l.store != nil {
		if err := l.store.SaveOrder(ctx, order); err != nil {
			log.Printf("ledger: persist order %s: %v", order.OrderID, err)
		}
	}
	return nil
}

// FindByID returns the order with the given ID.
func (l *Ledger) FindByID(orderID string) (common.OrderResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.index[orderID]
	if !ok {
		return common.OrderResult{}, false
	}
	return l.orders[i], true
}

// List returns all orders in insertion order.
func (l *Ledger) List() []common.OrderResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]common.OrderResult, len(l.orders))
	copy(out, l.orders)
	return out
}

// Cancel marks an order cancelled and returns true if it was found.
//
// Known quirk kept on purpose: cancelling an order that is already FILLED,
// FAILED or CANCELLED still overwrites its status and reports success. That
// matches the behavior this ledger replaces; stakeholders have been flagged
// and until they confirm a fix we only log the overwrite.
func (l *Ledger) Cancel(ctx context.Context, orderID string) bool {
	l.mu.Lock()
	i, ok := l.index[orderID]
	if !ok {
		l.mu.Unlock()
		return false
	}
	prev := l.orders[i].Status
	l.orders[i].Status = common.StatusCancelled
	l.mu.Unlock()

	if prev != common.StatusPending && prev != common.StatusCancelled {
		log.Printf("ledger: cancel overwrote terminal status %s on order %s", prev, orderID)
	}
	if l.store != nil {
		if err := l.store.UpdateOrderStatus(ctx, orderID, common.StatusCancelled); err != nil {
			log.Printf("ledger: persist cancel %s: %v", orderID, err)
		}
	}
	return true
}

// Len returns the number of recorded orders.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.orders)
}
