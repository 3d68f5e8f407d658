// Package demo implements a self-contained simulated venue. It never touches
// the network, which makes it the default gateway for local runs and tests.
package demo

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"autotrader/pkg/exchanges/common"
)

const (
	defaultLatency = 100 * time.Millisecond
	successRate    = 0.9
	slippageFrac   = 0.0005 // fills land within +-0.05% of the signal price
	feeRate        = 0.001  // 10 bps taker fee
)

// Gateway simulates order execution with latency, slippage and a fixed
// failure rate.
type Gateway struct {
	latency time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a demo gateway with default simulation parameters.
func New() *Gateway {
	return &Gateway{
		latency: defaultLatency,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewWithSeed creates a deterministic gateway for tests.
func NewWithSeed(seed int64, latency time.Duration) *Gateway {
	return &Gateway{
		latency: latency,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (g *Gateway) Name() common.Exchange { return common.ExchangeDemo }

// ExecuteOrder simulates a market order fill. Roughly one in ten orders is
// rejected to exercise failure handling downstream.
func (g *Gateway) ExecuteOrder(ctx context.Context, req common.OrderRequest) common.OrderResult {
	res := common.OrderResult{
		OrderID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		Price:     req.Price,
		Timestamp: time.Now(),
	}

	select {
	case <-time.After(g.latency):
	case <-ctx.Done():
		res.Status = common.StatusFailed
		res.Reason = ctx.Err().Error()
		return res
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	noise := g.rng.Float64()
	g.mu.Unlock()

	if roll >= successRate {
		res.Status = common.StatusFailed
		res.Reason = "demo venue rejected order"
		return res
	}

	// Uniform slippage in [-slippageFrac, +slippageFrac].
	slip := (noise*2 - 1) * slippageFrac
	res.Status = common.StatusFilled
	res.ExecutedPrice = req.Price * (1 + slip)
	res.ExecutedQty = req.Qty
	res.Fees = req.Price * req.Qty * feeRate
	return res
}

// AccountBalance returns a fixed illustrative balance.
func (g *Gateway) AccountBalance(ctx context.Context) (map[string]float64, error) {
	return map[string]float64{
		"USDT": 10000,
		"BTC":  0.5,
		"ETH":  5,
	}, nil
}
