// Package signal defines the trading signal consumed by the controller.
// Signals are produced elsewhere (strategy engine, AI advisor, manual entry);
// this core treats the producer as opaque.
package signal

import (
	"errors"
	"fmt"
	"time"
)

// Action is the advised move for a signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

var (
	ErrEmptySymbol   = errors.New("signal: symbol is empty")
	ErrBadAction     = errors.New("signal: unknown action")
	ErrBadQuantity   = errors.New("signal: quantity must be > 0 (0 only for hold)")
	ErrBadConfidence = errors.New("signal: confidence must be within [0,100]")
)

// Signal is an immutable trading instruction.
type Signal struct {
	Symbol     string    `json:"symbol"`
	Action     Action    `json:"action"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Validate checks structural invariants. It does not judge whether the trade
// is sensible; that is the risk layer's concern.
func (s Signal) Validate() error {
	if s.Symbol == "" {
		return ErrEmptySymbol
	}
	switch s.Action {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("%w: %q", ErrBadAction, s.Action)
	}
	if s.Quantity < 0 || (s.Quantity == 0 && s.Action != ActionHold) {
		return ErrBadQuantity
	}
	if s.Confidence < 0 || s.Confidence > 100 {
		return ErrBadConfidence
	}
	return nil
}
