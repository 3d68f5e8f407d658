package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"autotrader/internal/controller"
	"autotrader/internal/events"
	"autotrader/internal/ledger"
	"autotrader/internal/marketdata"
	"autotrader/pkg/db"
	"autotrader/pkg/exchanges/demo"
	"autotrader/pkg/market"
)

type fixedSource struct{}

func (fixedSource) Ticker24h(ctx context.Context, symbol string) (market.Snapshot, error) {
	return market.Snapshot{Symbol: symbol, Price: 50000, Timestamp: time.Now()}, nil
}

func (fixedSource) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	out := make([]market.Kline, 30)
	for i := range out {
		out[i] = market.Kline{Close: 100 + float64(i)}
	}
	return out, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(":memory:")
	if err != nil {
		t.Fatalf("db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.ApplyMigrations(database); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	bus := events.NewBus()
	led := ledger.New(ledger.NewSQLStore(database.Queries()))
	// Seeded demo gateway with zero latency keeps tests fast and stable.
	ctrl := controller.New(demo.NewWithSeed(7, 0), led, bus, controller.Policy{})
	cache := marketdata.NewCache(fixedSource{}, time.Hour)

	s := NewServer(ctrl, cache, bus, database.Queries(), SystemMeta{
		Venue:   "demo",
		Symbols: []string{"BTCUSDT"},
		Version: "test",
	}, "test-secret")

	srv := httptest.NewServer(s.Router)
	t.Cleanup(srv.Close)
	return srv, s
}

func doJSON(t *testing.T, method, url, token string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer res.Body.Close()

	out := map[string]any{}
	_ = json.NewDecoder(res.Body).Decode(&out)
	return res, out
}

func register(t *testing.T, base string) string {
	t.Helper()
	res, body := doJSON(t, http.MethodPost, base+"/api/auth/register", "", map[string]string{
		"email":    "trader@example.com",
		"password": "correct-horse",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d: %v", res.StatusCode, body)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("register returned no token")
	}
	return token
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	res, body := doJSON(t, http.MethodGet, srv.URL+"/health", "", nil)
	if res.StatusCode != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health = %d %v", res.StatusCode, body)
	}
}

func TestAuthFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("protected routes require a token", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/status", "", nil)
		if res.StatusCode != http.StatusUnauthorized || body["code"] != "MISSING_TOKEN" {
			t.Fatalf("status = %d %v", res.StatusCode, body)
		}
	})

	token := register(t, srv.URL)

	t.Run("registered token grants access", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/status", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
			"email": "trader@example.com", "password": "correct-horse",
		})
		if res.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	t.Run("weak password rejected", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
			"email": "other@example.com", "password": "short",
		})
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	t.Run("login works with registered credentials", func(t *testing.T) {
		res, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
			"email": "trader@example.com", "password": "correct-horse",
		})
		if res.StatusCode != http.StatusOK || body["token"] == "" {
			t.Fatalf("login = %d %v", res.StatusCode, body)
		}
	})

	t.Run("login rejects a wrong password", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
			"email": "trader@example.com", "password": "wrong-password",
		})
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/status", "not-a-jwt", nil)
		if res.StatusCode != http.StatusUnauthorized || body["code"] != "INVALID_TOKEN" {
			t.Fatalf("status = %d %v", res.StatusCode, body)
		}
	})
}

func TestTradingFlow(t *testing.T) {
	srv, s := newTestServer(t)
	token := register(t, srv.URL)

	sig := map[string]any{
		"symbol":     "BTCUSDT",
		"action":     "buy",
		"price":      50000,
		"quantity":   0.01,
		"confidence": 80,
	}

	t.Run("execute before enable conflicts", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/trading/execute", token, sig)
		if res.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	res, body := doJSON(t, http.MethodPost, srv.URL+"/api/trading/enable", token, nil)
	if res.StatusCode != http.StatusOK || body["enabled"] != true {
		t.Fatalf("enable = %d %v", res.StatusCode, body)
	}
	if !s.Ctrl.Enabled() {
		t.Fatal("controller not enabled")
	}

	var orderID string
	t.Run("execute records an order", func(t *testing.T) {
		res, body := doJSON(t, http.MethodPost, srv.URL+"/api/trading/execute", token, sig)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d %v", res.StatusCode, body)
		}
		orderID, _ = body["orderId"].(string)
		if orderID == "" {
			t.Fatalf("no order id in %v", body)
		}
		status, _ := body["status"].(string)
		if status != "FILLED" && status != "FAILED" {
			t.Fatalf("status = %q", status)
		}
	})

	t.Run("invalid signal is a bad request", func(t *testing.T) {
		bad := map[string]any{"symbol": "", "action": "buy", "quantity": 1}
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/trading/execute", token, bad)
		if res.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})

	t.Run("orders list contains the execution", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", res.StatusCode)
		}
		if count, _ := body["count"].(float64); count != 1 {
			t.Fatalf("count = %v", body["count"])
		}
	})

	t.Run("order fetch by id", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+orderID, token, nil)
		if res.StatusCode != http.StatusOK || body["orderId"] != orderID {
			t.Fatalf("fetch = %d %v", res.StatusCode, body)
		}
		res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/orders/unknown", token, nil)
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("unknown order status = %d", res.StatusCode)
		}
	})

	t.Run("cancel order", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/orders/"+orderID+"/cancel", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("cancel = %d", res.StatusCode)
		}
		_, body := doJSON(t, http.MethodGet, srv.URL+"/api/orders/"+orderID, token, nil)
		if body["status"] != "CANCELLED" {
			t.Fatalf("status after cancel = %v", body["status"])
		}
		res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/orders/unknown/cancel", token, nil)
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("unknown cancel = %d", res.StatusCode)
		}
	})

	t.Run("balance comes from the gateway", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/balance", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", res.StatusCode)
		}
		balances, _ := body["balances"].(map[string]any)
		if balances["USDT"] != 10000.0 {
			t.Fatalf("balances = %v", balances)
		}
	})

	t.Run("disable stops execution", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodPost, srv.URL+"/api/trading/disable", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("disable = %d", res.StatusCode)
		}
		res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/trading/execute", token, sig)
		if res.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d", res.StatusCode)
		}
	})
}

func TestMarketEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	token := register(t, srv.URL)

	t.Run("snapshot misses until fetched", func(t *testing.T) {
		res, _ := doJSON(t, http.MethodGet, srv.URL+"/api/market/BTCUSDT", token, nil)
		if res.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d", res.StatusCode)
		}
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/market/BTCUSDT?fetch=true", token, nil)
		if res.StatusCode != http.StatusOK || body["price"] != 50000.0 {
			t.Fatalf("fetch = %d %v", res.StatusCode, body)
		}
		res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/market/BTCUSDT", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("cached status = %d", res.StatusCode)
		}
	})

	t.Run("klines", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/market/BTCUSDT/klines?limit=30", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", res.StatusCode)
		}
		if count, _ := body["count"].(float64); count != 30 {
			t.Fatalf("count = %v", body["count"])
		}
	})

	t.Run("indicators over kline closes", func(t *testing.T) {
		res, body := doJSON(t, http.MethodGet, srv.URL+"/api/market/BTCUSDT/indicators", token, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", res.StatusCode)
		}
		ind, _ := body["indicators"].(map[string]any)
		if ind == nil {
			t.Fatalf("no indicators in %v", body)
		}
		// Closes rise monotonically, so RSI saturates at 100.
		if rsi, _ := ind["rsi"].(float64); rsi != 100 {
			t.Fatalf("rsi = %v, want 100", ind["rsi"])
		}
	})
}
