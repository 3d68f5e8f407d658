// Package controller orchestrates signal execution: gate, dispatch, record.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"autotrader/internal/events"
	"autotrader/internal/ledger"
	"autotrader/internal/risk"
	"autotrader/internal/signal"
	"autotrader/pkg/exchanges/common"
)

// ErrNotEnabled is returned when a signal arrives while trading is disabled.
var ErrNotEnabled = errors.New("auto trading is not enabled")

// DefaultExecTimeout bounds one gateway call. The venues themselves carry
// HTTP timeouts; this is the upper bound the controller enforces regardless
// of venue.
const DefaultExecTimeout = 15 * time.Second

// Policy controls optional gating ahead of dispatch.
//
// RiskGating defaults to off: the original system computed risk numbers but
// never consulted them before executing, and that behavior is preserved
// unless a deployment opts in.
type Policy struct {
	RiskGating  bool
	MaxRiskPct  float64
	QuoteAsset  string
	ExecTimeout time.Duration
}

// Normalize fills zero values with defaults.
func (p *Policy) Normalize() {
	if p.MaxRiskPct <= 0 {
		p.MaxRiskPct = risk.DefaultMaxRiskPct
	}
	if p.QuoteAsset == "" {
		p.QuoteAsset = "USDT"
	}
	if p.ExecTimeout <= 0 {
		p.ExecTimeout = DefaultExecTimeout
	}
}

// Controller owns the enabled/disabled switch and the order ledger. Ledger
// appends are serialized inside the ledger; independent signals may hit the
// gateway concurrently.
type Controller struct {
	gw     common.Gateway
	ledger *ledger.Ledger
	bus    *events.Bus
	policy Policy

	mu      sync.RWMutex
	enabled bool
}

// New creates a disabled controller. bus may be nil when nothing listens.
func New(gw common.Gateway, l *ledger.Ledger, bus *events.Bus, policy Policy) *Controller {
	policy.Normalize()
	return &Controller{gw: gw, ledger: l, bus: bus, policy: policy}
}

// Enable allows signal execution.
func (c *Controller) Enable() {
	c.mu.Lock()
	c.enabled = true
	c.mu.Unlock()
	c.publish(events.EventTradingEnabled, true)
	log.Printf("auto trading enabled (venue=%s)", c.gw.Name())
}

// Disable stops accepting new signals. In-flight executions finish.
func (c *Controller) Disable() {
	c.mu.Lock()
	c.enabled = false
	c.mu.Unlock()
	c.publish(events.EventTradingEnabled, false)
	log.Printf("auto trading disabled")
}

// Enabled reports the current switch state.
func (c *Controller) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// ExecuteSignal runs one signal through the pipeline and records the
// outcome. Execution failures come back inside the result, not as an error;
// errors are reserved for policy violations (disabled state, malformed
// signal).
func (c *Controller) ExecuteSignal(ctx context.Context, sig signal.Signal) (common.OrderResult, error) {
	if !c.Enabled() {
		return common.OrderResult{}, ErrNotEnabled
	}
	if err := sig.Validate(); err != nil {
		return common.OrderResult{}, err
	}

	// Hold advice produces a cancelled zero-quantity record and never
	// reaches the gateway.
	if sig.Action == signal.ActionHold {
		res := common.OrderResult{
			OrderID:   uuid.NewString(),
			Symbol:    sig.Symbol,
			Side:      common.SideBuy,
			Qty:       0,
			Price:     sig.Price,
			Status:    common.StatusCancelled,
			Reason:    "hold signal",
			Timestamp: time.Now(),
		}
		c.record(ctx, res)
		return res, nil
	}

	if c.policy.RiskGating {
		if rejected, res := c.gate(ctx, sig); rejected {
			c.record(ctx, res)
			return res, nil
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, c.policy.ExecTimeout)
	defer cancel()
	res := c.gw.ExecuteOrder(execCtx, toRequest(sig))

	c.record(ctx, res)
	return res, nil
}

// gate checks the signal against the account per the risk policy. A balance
// fetch failure rejects the trade: gating that cannot see the account has
// nothing safe to approve.
func (c *Controller) gate(ctx context.Context, sig signal.Signal) (rejected bool, res common.OrderResult) {
	res = common.OrderResult{
		OrderID:   uuid.NewString(),
		Symbol:    sig.Symbol,
		Side:      toSide(sig.Action),
		Qty:       sig.Quantity,
		Price:     sig.Price,
		Status:    common.StatusFailed,
		Timestamp: time.Now(),
	}

	balances, err := c.gw.AccountBalance(ctx)
	if err != nil {
		res.Reason = fmt.Sprintf("risk gate: balance unavailable: %v", err)
		return true, res
	}
	balance := balances[c.policy.QuoteAsset]
	if risk.IsValidTrade(sig, balance, c.policy.MaxRiskPct) {
		return false, common.OrderResult{}
	}
	res.Reason = fmt.Sprintf("risk gate: trade exceeds %.1f%% risk or %s %.2f balance",
		c.policy.MaxRiskPct, c.policy.QuoteAsset, balance)
	return true, res
}

// GetOrders returns all recorded orders in insertion order.
func (c *Controller) GetOrders() []common.OrderResult {
	return c.ledger.List()
}

// GetOrderByID returns one recorded order.
func (c *Controller) GetOrderByID(id string) (common.OrderResult, bool) {
	return c.ledger.FindByID(id)
}

// CancelOrder cancels a recorded order by ID.
func (c *Controller) CancelOrder(ctx context.Context, id string) bool {
	ok := c.ledger.Cancel(ctx, id)
	if ok {
		c.publish(events.EventOrderCancelled, id)
	}
	return ok
}

// GetAccountBalance returns the gateway's view of the account.
func (c *Controller) GetAccountBalance(ctx context.Context) (map[string]float64, error) {
	return c.gw.AccountBalance(ctx)
}

func (c *Controller) record(ctx context.Context, res common.OrderResult) {
	if err := c.ledger.Append(ctx, res); err != nil {
		// Gateways generate UUIDs, so this only fires on a caller bug.
		log.Printf("controller: record order %s: %v", res.OrderID, err)
		return
	}
	c.publish(events.EventOrderExecuted, res)
}

func (c *Controller) publish(e events.Event, payload any) {
	if c.bus != nil {
		c.bus.Publish(e, payload)
	}
}

func toRequest(sig signal.Signal) common.OrderRequest {
	return common.OrderRequest{
		Symbol: sig.Symbol,
		Side:   toSide(sig.Action),
		Qty:    sig.Quantity,
		Price:  sig.Price,
	}
}

func toSide(a signal.Action) common.Side {
	if a == signal.ActionSell {
		return common.SideSell
	}
	return common.SideBuy
}
