// Package binance provides the public Binance market data clients (REST and
// websocket). No credentials are required for any endpoint here.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"autotrader/pkg/market"
)

// Client wraps public REST market data endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a market data client; testnet toggles the base URL.
func NewClient(testnet bool) *Client {
	base := "https://api.binance.com"
	if testnet {
		base = "https://testnet.binance.vision"
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ticker24h mirrors the wire payload; every numeric field arrives as a
// string and is parsed explicitly.
type ticker24h struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChange        string `json:"priceChange"`
	PriceChangePercent string `json:"priceChangePercent"`
	Volume             string `json:"volume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
}

// Ticker24h fetches 24h ticker statistics for one symbol.
func (c *Client) Ticker24h(ctx context.Context, symbol string) (market.Snapshot, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := c.get(ctx, "/api/v3/ticker/24hr", params)
	if err != nil {
		return market.Snapshot{}, err
	}

	var raw ticker24h
	if err := json.Unmarshal(body, &raw); err != nil {
		return market.Snapshot{}, &market.ParseError{Op: "ticker/24hr", Err: err}
	}
	if raw.Symbol == "" || raw.LastPrice == "" {
		return market.Snapshot{}, &market.ParseError{Op: "ticker/24hr", Err: fmt.Errorf("missing symbol or lastPrice")}
	}

	snap := market.Snapshot{Symbol: raw.Symbol, Timestamp: time.Now()}
	fields := []struct {
		name string
		src  string
		dst  *float64
	}{
		{"lastPrice", raw.LastPrice, &snap.Price},
		{"priceChange", raw.PriceChange, &snap.Change},
		{"priceChangePercent", raw.PriceChangePercent, &snap.ChangePercent},
		{"volume", raw.Volume, &snap.Volume},
		{"highPrice", raw.HighPrice, &snap.High},
		{"lowPrice", raw.LowPrice, &snap.Low},
		{"bidPrice", raw.BidPrice, &snap.BidPrice},
		{"askPrice", raw.AskPrice, &snap.AskPrice},
	}
	for _, f := range fields {
		if f.src == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.src, 64)
		if err != nil {
			return market.Snapshot{}, &market.ParseError{Op: "ticker/24hr", Err: fmt.Errorf("field %s: %w", f.name, err)}
		}
		*f.dst = v
	}
	return snap, nil
}

// Klines fetches historical candles, oldest first. Binance returns each
// kline as a fixed-position array.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	var raw [][]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &market.ParseError{Op: "klines", Err: err}
	}

	klines := make([]market.Kline, 0, len(raw))
	for i, item := range raw {
		if len(item) < 11 {
			return nil, &market.ParseError{Op: "klines", Err: fmt.Errorf("row %d has %d fields", i, len(item))}
		}
		klines = append(klines, market.Kline{
			OpenTime:            toInt64(item[0]),
			Open:                toFloat(item[1]),
			High:                toFloat(item[2]),
			Low:                 toFloat(item[3]),
			Close:               toFloat(item[4]),
			Volume:              toFloat(item[5]),
			CloseTime:           toInt64(item[6]),
			QuoteVolume:         toFloat(item[7]),
			NumberOfTrades:      int(toInt64(item[8])),
			TakerBuyBaseVolume:  toFloat(item[9]),
			TakerBuyQuoteVolume: toFloat(item[10]),
		})
	}
	return klines, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &market.NetworkError{Op: path, Err: err}
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &market.NetworkError{Op: path, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &market.NetworkError{Op: path, Err: err}
	}
	if res.StatusCode >= 300 {
		return nil, &market.NetworkError{Op: path, Err: fmt.Errorf("status %d: %s", res.StatusCode, string(body))}
	}
	return body, nil
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case int64:
		return t
	case json.Number:
		i, _ := t.Int64()
		return i
	default:
		return 0
	}
}
