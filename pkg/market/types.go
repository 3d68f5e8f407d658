// Package market defines venue-neutral market data types and the error
// taxonomy of the data-fetch layer.
package market

import (
	"fmt"
	"time"
)

// Snapshot is the parsed 24h ticker state for one symbol.
type Snapshot struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"change_percent"`
	Volume        float64   `json:"volume"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	BidPrice      float64   `json:"bid_price"`
	AskPrice      float64   `json:"ask_price"`
	Timestamp     time.Time `json:"timestamp"`
}

// Kline is a single candlestick with the full set of venue fields, ordered
// oldest first when returned in sequence.
type Kline struct {
	OpenTime            int64   `json:"open_time"`
	Open                float64 `json:"open"`
	High                float64 `json:"high"`
	Low                 float64 `json:"low"`
	Close               float64 `json:"close"`
	Volume              float64 `json:"volume"`
	CloseTime           int64   `json:"close_time"`
	QuoteVolume         float64 `json:"quote_volume"`
	NumberOfTrades      int     `json:"number_of_trades"`
	TakerBuyBaseVolume  float64 `json:"taker_buy_base_volume"`
	TakerBuyQuoteVolume float64 `json:"taker_buy_quote_volume"`
}

// Tick is a lightweight streamed price update.
type Tick struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Time   int64   `json:"time"`
}

// NetworkError reports a transport failure while fetching market data.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("market %s: %v", e.Op, e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a malformed payload from an otherwise successful fetch.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("market %s: bad payload: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }
