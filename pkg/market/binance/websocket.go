package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"autotrader/pkg/market"
)

// StreamClient manages streaming from Binance public websockets.
type StreamClient struct {
	streamURL string
	dialer    *websocket.Dialer
}

// NewStreamClient builds a websocket client; testnet toggles the host.
func NewStreamClient(testnet bool) *StreamClient {
	host := "stream.binance.com:9443"
	if testnet {
		host = "testnet.binance.vision"
	}
	return &StreamClient{
		streamURL: (&url.URL{Scheme: "wss", Host: host, Path: "/ws"}).String(),
		dialer:    websocket.DefaultDialer,
	}
}

// SubscribeTicks subscribes to the trade stream for a symbol and emits one
// Tick per trade. The returned stop function closes the underlying stream;
// the channel is closed when the stream ends for any reason.
func (c *StreamClient) SubscribeTicks(ctx context.Context, symbol string) (<-chan market.Tick, func(), error) {
	// Binance requires lowercase symbols in stream names.
	stream := fmt.Sprintf("%s@trade", strings.ToLower(symbol))
	u := fmt.Sprintf("%s/%s", c.streamURL, stream)

	conn, _, err := c.dialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, nil, &market.NetworkError{Op: "ws dial", Err: err}
	}

	out := make(chan market.Tick, 100)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			// Connection may already be closed; errors are irrelevant here.
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			_ = conn.Close()
		})
	}

	// Only the reader closes out; closing it from stop would race the send
	// below.
	go func() {
		defer close(out)
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			_, msg, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
					strings.Contains(err.Error(), "use of closed network connection") {
					return
				}
				log.Printf("binance ws read error: %v", err)
				return
			}

			tick, err := parseTradeMessage(msg)
			if err != nil {
				log.Printf("binance ws parse error: %v", err)
				continue
			}
			out <- tick
		}
	}()

	return out, stop, nil
}

func parseTradeMessage(msg []byte) (market.Tick, error) {
	var raw struct {
		EventType string `json:"e"`
		EventTime int64  `json:"E"`
		Symbol    string `json:"s"`
		Price     string `json:"p"`
	}
	if err := json.Unmarshal(msg, &raw); err != nil {
		return market.Tick{}, &market.ParseError{Op: "ws trade", Err: err}
	}
	if raw.EventType != "trade" {
		return market.Tick{}, &market.ParseError{Op: "ws trade", Err: fmt.Errorf("unexpected event %q", raw.EventType)}
	}
	price, err := strconv.ParseFloat(raw.Price, 64)
	if err != nil {
		return market.Tick{}, &market.ParseError{Op: "ws trade", Err: fmt.Errorf("price: %w", err)}
	}
	return market.Tick{Symbol: raw.Symbol, Price: price, Time: raw.EventTime}, nil
}
