// Package bybit implements the live Bybit spot gateway (v5 API).
package bybit

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"autotrader/pkg/exchanges/common"
)

const recvWindowMs = "5000"

// Gateway executes market orders against Bybit spot via the v5 unified API.
type Gateway struct {
	creds      common.Credentials
	baseURL    string
	httpClient *http.Client
}

// New builds a Bybit gateway; the testnet flag switches the base URL.
func New(creds common.Credentials) *Gateway {
	base := "https://api.bybit.com"
	if creds.Testnet {
		base = "https://api-testnet.bybit.com"
	}
	return &Gateway{
		creds:      creds,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Gateway) Name() common.Exchange { return common.ExchangeBybit }

// ExecuteOrder submits a market order through /v5/order/create. The create
// ack carries no fill price, so a filled result reports the requested
// quantity and leaves the executed price to reconciliation.
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
		res.Reason = "bybit: API key/secret required"
		return res
	}

	payload := map[string]string{
		"category":    "spot",
		"symbol":      req.Symbol,
		"side":        toBybitSide(req.Side),
		"orderType":   "Market",
		"qty":         strconv.FormatFloat(req.Qty, 'f', -1, 64),
		"orderLinkId": res.OrderID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		res.Status = common.StatusFailed
		res.Reason = err.Error()
		return res
	}

	respBody, err := g.doSigned(ctx, http.MethodPost, "/v5/order/create", "", body)
	if err != nil {
		res.Status = common.StatusFailed
		res.Reason = err.Error()
		return res
	}

	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			OrderID string `json:"orderId"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("decode order response: %v", err)
		return res
	}
	if resp.RetCode != 0 {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("bybit retCode %d: %s", resp.RetCode, resp.RetMsg)
		return res
	}

	res.Status = common.StatusFilled
	res.ExecutedQty = req.Qty
	return res
}

// AccountBalance returns wallet balances from the unified account.
func (g *Gateway) AccountBalance(ctx context.Context) (map[string]float64, error) {
	if g.creds.APIKey == "" || g.creds.APISecret == "" {
		return nil, fmt.Errorf("bybit: API key/secret required")
	}
	query := "accountType=UNIFIED"
	body, err := g.doSigned(ctx, http.MethodGet, "/v5/account/wallet-balance", query, nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		RetCode int    `json:"retCode"`
		RetMsg  string `json:"retMsg"`
		Result  struct {
			List []struct {
				Coin []struct {
					Coin          string `json:"coin"`
					WalletBalance string `json:"walletBalance"`
				} `json:"coin"`
			} `json:"list"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode wallet balance: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("bybit retCode %d: %s", resp.RetCode, resp.RetMsg)
	}
	out := make(map[string]float64)
	for _, acct := range resp.Result.List {
		for _, c := range acct.Coin {
			if bal, err := strconv.ParseFloat(c.WalletBalance, 64); err == nil && bal > 0 {
				out[c.Coin] = bal
			}
		}
	}
	return out, nil
}

// doSigned performs a v5 signed request. The signature covers
// timestamp + apiKey + recvWindow + (query string or JSON body).
func (g *Gateway) doSigned(ctx context.Context, method, path, query string, body []byte) ([]byte, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	signPayload := timestamp + g.creds.APIKey + recvWindowMs
	if method == http.MethodGet {
		signPayload += query
	} else {
		signPayload += string(body)
	}
	mac := hmac.New(sha256.New, []byte(g.creds.APISecret))
	mac.Write([]byte(signPayload))
	signature := hex.EncodeToString(mac.Sum(nil))

	endpoint := g.baseURL + path
	if query != "" {
		endpoint += "?" + query
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-BAPI-API-KEY", g.creds.APIKey)
	req.Header.Set("X-BAPI-TIMESTAMP", timestamp)
	req.Header.Set("X-BAPI-RECV-WINDOW", recvWindowMs)
	req.Header.Set("X-BAPI-SIGN", signature)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("bybit auth rejected (status %d): %s", res.StatusCode, string(respBody))
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("bybit %s %s status %d: %s", method, path, res.StatusCode, string(respBody))
	}
	return respBody, nil
}

func toBybitSide(s common.Side) string {
	if s == common.SideSell {
		return "Sell"
	}
	return "Buy"
}
