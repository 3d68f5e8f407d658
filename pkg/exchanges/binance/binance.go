// Package binance implements the live Binance spot gateway.
package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"autotrader/pkg/exchanges/common"
)

const recvWindowMs = 5000

// Gateway executes market orders against Binance spot.
type Gateway struct {
	creds      common.Credentials
	baseURL    string
	httpClient *http.Client
	timeSync   *common.TimeSync
	weights    *common.WeightTracker
}

// New builds a Binance gateway; the testnet flag switches the base URL.
func New(creds common.Credentials) *Gateway {
	base := "https://api.binance.com"
	if creds.Testnet {
		base = "https://testnet.binance.vision"
	}
	return &Gateway{
		creds:      creds,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		timeSync:   &common.TimeSync{},
		// 1200 weight/min on spot.
		weights: common.NewWeightTracker(1200, time.Minute),
	}
}

func (g *Gateway) Name() common.Exchange { return common.ExchangeBinance }

// ExecuteOrder submits a signed MARKET order. Any transport, auth or venue
// error is folded into a FAILED result; nothing is retried here.
func (g *Gateway) ExecuteOrder(ctx context.Context, req common.OrderRequest) common.OrderResult {
	res := common.OrderResult{
		OrderID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		Price:     req.Price,
		Timestamp: time.Now(),
	}
	if g.creds.APIKey == "" || g.creds.APISecret == "" {
		res.Status = common.StatusFailed
		res.Reason = "binance: API key/secret required"
		return res
	}

	params := url.Values{}
	params.Set("symbol", req.Symbol)
	params.Set("side", string(req.Side))
	params.Set("type", "MARKET")
	params.Set("quantity", formatFloat(req.Qty))
	params.Set("newOrderRespType", "FULL")
	params.Set("newClientOrderId", res.OrderID)

	body, err := g.doSigned(ctx, http.MethodPost, "/api/v3/order", params)
	if err != nil {
		res.Status = common.StatusFailed
		res.Reason = err.Error()
		return res
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("decode order response: %v", err)
		return res
	}

	switch strings.ToUpper(resp.Status) {
	case "FILLED", "PARTIALLY_FILLED":
		res.Status = common.StatusFilled
		res.ExecutedQty = parseFloat(resp.ExecutedQty)
		res.ExecutedPrice = resp.averageFillPrice()
		res.Fees = resp.totalCommission()
	case "NEW":
		// Market orders normally fill immediately; NEW means the venue
		// accepted but has not matched yet.
		res.Status = common.StatusPending
	default:
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("binance order status %s", resp.Status)
	}
	return res
}

// AccountBalance returns free balances for all non-zero assets.
func (g *Gateway) AccountBalance(ctx context.Context) (map[string]float64, error) {
	if g.creds.APIKey == "" || g.creds.APISecret == "" {
		return nil, fmt.Errorf("binance: API key/secret required")
	}
	body, err := g.doSigned(ctx, http.MethodGet, "/api/v3/account", url.Values{})
	if err != nil {
		return nil, err
	}
	var info struct {
		Balances []struct {
			Asset string `json:"asset"`
			Free  string `json:"free"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode account info: %w", err)
	}
	out := make(map[string]float64, len(info.Balances))
	for _, b := range info.Balances {
		if free := parseFloat(b.Free); free > 0 {
			out[b.Asset] = free
		}
	}
	return out, nil
}

// doSigned stamps, signs and performs a request against a signed endpoint.
func (g *Gateway) doSigned(ctx context.Context, method, path string, params url.Values) ([]byte, error) {
	g.syncClock(ctx)
	params.Set("timestamp", strconv.FormatInt(g.timeSync.Now(), 10))
	params.Set("recvWindow", strconv.Itoa(recvWindowMs))
	params.Set("signature", sign(params.Encode(), g.creds.APISecret))

	encoded := params.Encode()
	endpoint := g.baseURL + path

	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet, http.MethodDelete:
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(encoded))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", g.creds.APIKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	g.weights.Observe(res.Header.Get("X-MBX-USED-WEIGHT-1M"))

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("binance auth rejected (status %d): %s", res.StatusCode, string(body))
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("binance %s %s status %d: %s", method, path, res.StatusCode, string(body))
	}
	return body, nil
}

// syncClock refreshes the server time offset when it has gone stale. A failed
// probe is tolerated; the local clock is used until the next attempt.
func (g *Gateway) syncClock(ctx context.Context) {
	if !g.timeSync.Stale(30 * time.Minute) {
		return
	}
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/v3/time", nil)
	if err != nil {
		return
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return
	}
	defer res.Body.Close()
	var body struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil || body.ServerTime == 0 {
		return
	}
	g.timeSync.Update(body.ServerTime, time.Since(start))
}

type orderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	ExecutedQty   string `json:"executedQty"`
	CumQuoteQty   string `json:"cummulativeQuoteQty"`
	Fills         []struct {
		Price      string `json:"price"`
		Qty        string `json:"qty"`
		Commission string `json:"commission"`
	} `json:"fills"`
}

func (r orderResponse) averageFillPrice() float64 {
	executed := parseFloat(r.ExecutedQty)
	if executed > 0 {
		if quote := parseFloat(r.CumQuoteQty); quote > 0 {
			return quote / executed
		}
	}
	if len(r.Fills) > 0 {
		return parseFloat(r.Fills[0].Price)
	}
	return 0
}

func (r orderResponse) totalCommission() float64 {
	total := 0.0
	for _, f := range r.Fills {
		total += parseFloat(f.Commission)
	}
	return total
}

func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
