package common

import (
	"errors"
	"time"
)

// Exchange identifies a supported trading venue.
type Exchange string

const (
	ExchangeDemo    Exchange = "demo"
	ExchangeBinance Exchange = "binance"
	ExchangeBybit   Exchange = "bybit"
	ExchangeOKX     Exchange = "okx"
)

// ErrUnsupportedExchange is returned by the gateway factory for an unknown
// exchange identifier. It is a configuration defect, not an execution outcome.
var ErrUnsupportedExchange = errors.New("unsupported exchange")

// Credentials holds API access for a venue. Demo ignores all fields.
// Passphrase is only required by OKX.
type Credentials struct {
	Exchange   Exchange
	APIKey     string
	APISecret  string
	Passphrase string
	Testnet    bool
}

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus normalizes venue order states into a small set.
// Filled and Failed are terminal and assigned at creation; the only legal
// transition afterwards is Pending -> Cancelled.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusFilled    OrderStatus = "FILLED"
	StatusCancelled OrderStatus = "CANCELLED"
	StatusFailed    OrderStatus = "FAILED"
)

// OrderRequest captures a market-order intent to be sent to a venue.
type OrderRequest struct {
	Symbol string
	Side   Side
	Qty    float64
	Price  float64 // reference price from the signal; venues execute at market
}

// OrderResult is the terminal record of one execution attempt. Execution
// failures are reported through Status/Reason rather than an error so that a
// batch of signals can keep going when one of them fails.
type OrderResult struct {
	OrderID       string
	Symbol        string
	Side          Side
	Qty           float64
	Price         float64
	Status        OrderStatus
	Reason        string // populated when Status == FAILED
	Fees          float64
	ExecutedQty   float64
	ExecutedPrice float64
	Timestamp     time.Time
}
