// Package risk provides pure position-sizing and trade-admissibility math.
// Nothing here holds state or touches the network.
package risk

import (
	"errors"
	"math"

	"autotrader/internal/signal"
)

// DefaultMaxRiskPct is the default share of the account balance a single
// trade may put at risk.
const DefaultMaxRiskPct = 2.0

// ErrInvalidRiskParameters reports degenerate inputs, typically an entry
// price equal to the stop loss (zero stop distance).
var ErrInvalidRiskParameters = errors.New("risk: invalid parameters")

// PositionSize returns the quantity that risks riskPct percent of balance
// between entry and stopLoss. A zero stop distance would divide by zero and
// is rejected.
func PositionSize(balance, riskPct, entry, stopLoss float64) (float64, error) {
	dist := math.Abs(entry - stopLoss)
	if dist == 0 {
		return 0, ErrInvalidRiskParameters
	}
	return (balance * riskPct / 100) / dist, nil
}

// RiskReward returns |takeProfit - entry| / |entry - stopLoss|.
func RiskReward(entry, stopLoss, takeProfit float64) (float64, error) {
	dist := math.Abs(entry - stopLoss)
	if dist == 0 {
		return 0, ErrInvalidRiskParameters
	}
	return math.Abs(takeProfit-entry) / dist, nil
}

// IsValidTrade reports whether a signal fits within the account: the amount
// at risk must not exceed maxRiskPct percent of balance, and the notional
// must not exceed the balance itself. Pure predicate; callers decide whether
// to enforce it before dispatch.
func IsValidTrade(sig signal.Signal, balance, maxRiskPct float64) bool {
	riskAmount := math.Abs(sig.Price-sig.StopLoss) * sig.Quantity
	notional := sig.Price * sig.Quantity
	return riskAmount <= balance*maxRiskPct/100 && notional <= balance
}
