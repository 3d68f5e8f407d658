// Package okx implements the live OKX spot gateway (v5 API).
package okx

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"autotrader/pkg/exchanges/common"
)

// Gateway executes market orders against OKX spot. OKX has no separate
// testnet host; the testnet flag routes requests to the demo-trading
// environment via the x-simulated-trading header.
type Gateway struct {
	creds      common.Credentials
	baseURL    string
	httpClient *http.Client
}

// New builds an OKX gateway. OKX additionally requires a passphrase.
func New(creds common.Credentials) *Gateway {
	return &Gateway{
		creds:      creds,
		baseURL:    "https://www.okx.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *Gateway) Name() common.Exchange { return common.ExchangeOKX }

// ExecuteOrder submits a cash market order through /api/v5/trade/order.
func (g *Gateway) ExecuteOrder(ctx context.Context, req common.OrderRequest) common.OrderResult {
	res := common.OrderResult{
		OrderID:   uuid.NewString(),
		Symbol:    req.Symbol,
		Side:      req.Side,
		Qty:       req.Qty,
		Price:     req.Price,
		Timestamp: time.Now(),
	}
	if g.creds.APIKey == "" || g.creds.APISecret == "" || g.creds.Passphrase == "" {
		res.Status = common.StatusFailed
		res.Reason = "okx: API key/secret/passphrase required"
		return res
	}

	payload := map[string]string{
		"instId":  toInstID(req.Symbol),
		"tdMode":  "cash",
		"side":    strings.ToLower(string(req.Side)),
		"ordType": "market",
		"sz":      strconv.FormatFloat(req.Qty, 'f', -1, 64),
		"clOrdId": strings.ReplaceAll(res.OrderID, "-", ""),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		res.Status = common.StatusFailed
		res.Reason = err.Error()
		return res
	}

	respBody, err := g.doSigned(ctx, http.MethodPost, "/api/v5/trade/order", body)
	if err != nil {
		res.Status = common.StatusFailed
		res.Reason = err.Error()
		return res
	}

	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			OrdID string `json:"ordId"`
			SCode string `json:"sCode"`
			SMsg  string `json:"sMsg"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &resp); err != nil {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("decode order response: %v", err)
		return res
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("okx code %s: %s", resp.Code, resp.Msg)
		return res
	}
	if resp.Data[0].SCode != "0" {
		res.Status = common.StatusFailed
		res.Reason = fmt.Sprintf("okx sCode %s: %s", resp.Data[0].SCode, resp.Data[0].SMsg)
		return res
	}

	res.Status = common.StatusFilled
	res.ExecutedQty = req.Qty
	return res
}

// AccountBalance returns available balances across currencies.
func (g *Gateway) AccountBalance(ctx context.Context) (map[string]float64, error) {
	if g.creds.APIKey == "" || g.creds.APISecret == "" || g.creds.Passphrase == "" {
		return nil, fmt.Errorf("okx: API key/secret/passphrase required")
	}
	body, err := g.doSigned(ctx, http.MethodGet, "/api/v5/account/balance", nil)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Code string `json:"code"`
		Msg  string `json:"msg"`
		Data []struct {
			Details []struct {
				Ccy      string `json:"ccy"`
				AvailBal string `json:"availBal"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	if resp.Code != "0" {
		return nil, fmt.Errorf("okx code %s: %s", resp.Code, resp.Msg)
	}
	out := make(map[string]float64)
	for _, acct := range resp.Data {
		for _, d := range acct.Details {
			if bal, err := strconv.ParseFloat(d.AvailBal, 64); err == nil && bal > 0 {
				out[d.Ccy] = bal
			}
		}
	}
	return out, nil
}

// doSigned performs an OKX signed request. The signature covers
// timestamp + method + requestPath + body, base64-encoded.
func (g *Gateway) doSigned(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")

	mac := hmac.New(sha256.New, []byte(g.creds.APISecret))
	mac.Write([]byte(timestamp + method + path + string(body)))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("OK-ACCESS-KEY", g.creds.APIKey)
	req.Header.Set("OK-ACCESS-SIGN", signature)
	req.Header.Set("OK-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("OK-ACCESS-PASSPHRASE", g.creds.Passphrase)
	if g.creds.Testnet {
		req.Header.Set("x-simulated-trading", "1")
	}
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
		return nil, fmt.Errorf("okx auth rejected (status %d): %s", res.StatusCode, string(respBody))
	}
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("okx %s %s status %d: %s", method, path, res.StatusCode, string(respBody))
	}
	return respBody, nil
}

// toInstID converts a concatenated symbol such as BTCUSDT into OKX's
// dash-separated instrument id (BTC-USDT). Symbols already containing a dash
// pass through unchanged.
func toInstID(symbol string) string {
	if strings.Contains(symbol, "-") {
		return symbol
	}
	for _, quote := range []string{"USDT", "USDC", "BTC", "ETH", "USD"} {
		if strings.HasSuffix(symbol, quote) && len(symbol) > len(quote) {
			return strings.TrimSuffix(symbol, quote) + "-" + quote
		}
	}
	return symbol
}
