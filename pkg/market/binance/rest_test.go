package binance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"autotrader/pkg/market"
)

func testClient(handler http.Handler) (*Client, func()) {
	srv := httptest.NewServer(handler)
	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	return c, srv.Close
}

func TestTicker24h(t *testing.T) {
	c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/24hr" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("symbol = %s", got)
		}
		w.Write([]byte(`{
			"symbol": "BTCUSDT",
			"lastPrice": "50123.45",
			"priceChange": "-120.5",
			"priceChangePercent": "-0.24",
			"volume": "12345.6",
			"highPrice": "51000.00",
			"lowPrice": "49500.00",
			"bidPrice": "50123.40",
			"askPrice": "50123.50"
		}`))
	}))
	defer done()

	snap, err := c.Ticker24h(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Symbol != "BTCUSDT" || snap.Price != 50123.45 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Change != -120.5 || snap.ChangePercent != -0.24 {
		t.Fatalf("change fields = %v / %v", snap.Change, snap.ChangePercent)
	}
	if snap.High != 51000 || snap.Low != 49500 || snap.BidPrice != 50123.40 || snap.AskPrice != 50123.50 {
		t.Fatalf("range fields wrong: %+v", snap)
	}
	if snap.Timestamp.IsZero() {
		t.Fatal("timestamp must be set")
	}
}

func TestTicker24hErrors(t *testing.T) {
	t.Run("http error is a network error", func(t *testing.T) {
		c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
		}))
		defer done()

		_, err := c.Ticker24h(context.Background(), "NOPE")
		var ne *market.NetworkError
		if !errors.As(err, &ne) {
			t.Fatalf("err = %T %v, want NetworkError", err, err)
		}
	})

	t.Run("bad numeric field is a parse error", func(t *testing.T) {
		c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"fifty thousand"}`))
		}))
		defer done()

		_, err := c.Ticker24h(context.Background(), "BTCUSDT")
		var pe *market.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %T %v, want ParseError", err, err)
		}
	})

	t.Run("missing lastPrice is a parse error", func(t *testing.T) {
		c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"symbol":"BTCUSDT"}`))
		}))
		defer done()

		_, err := c.Ticker24h(context.Background(), "BTCUSDT")
		var pe *market.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("err = %T %v, want ParseError", err, err)
		}
	})
}

func TestKlines(t *testing.T) {
	c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("interval") != "1h" || q.Get("limit") != "2" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`[
			[1700000000000,"100.0","110.0","95.0","105.0","1200.5",1700003599999,"126000.0",345,"600.0","63000.0","0"],
			[1700003600000,"105.0","112.0","104.0","111.0","900.0",1700007199999,"99900.0",280,"450.0","49950.0","0"]
		]`))
	}))
	defer done()

	klines, err := c.Klines(context.Background(), "BTCUSDT", "1h", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(klines) != 2 {
		t.Fatalf("len = %d, want 2", len(klines))
	}
	k := klines[0]
	if k.OpenTime != 1700000000000 || k.Open != 100 || k.High != 110 || k.Low != 95 || k.Close != 105 {
		t.Fatalf("first kline wrong: %+v", k)
	}
	if k.CloseTime != 1700003599999 || k.QuoteVolume != 126000 || k.NumberOfTrades != 345 {
		t.Fatalf("first kline extras wrong: %+v", k)
	}
	if klines[1].Close != 111 {
		t.Fatalf("second kline close = %v", klines[1].Close)
	}
}

func TestKlinesShortRow(t *testing.T) {
	c, done := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[[1700000000000,"100.0"]]`))
	}))
	defer done()

	_, err := c.Klines(context.Background(), "BTCUSDT", "1h", 1)
	var pe *market.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %T %v, want ParseError", err, err)
	}
}
