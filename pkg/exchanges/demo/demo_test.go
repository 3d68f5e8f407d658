package demo

import (
	"context"
	"math"
	"testing"
	"time"

	"autotrader/pkg/exchanges/common"
)

func TestExecuteOrderOutcomes(t *testing.T) {
	g := NewWithSeed(1, 0)
	req := common.OrderRequest{Symbol: "BTCUSDT", Side: common.SideBuy, Qty: 0.5, Price: 50000}

	filled := 0
	failed := 0
	for i := 0; i < 200; i++ {
		res := g.ExecuteOrder(context.Background(), req)

		if res.OrderID == "" {
			t.Fatal("order ID must always be assigned")
		}
		if res.Symbol != req.Symbol || res.Side != req.Side || res.Qty != req.Qty {
			t.Fatalf("request fields not echoed: %+v", res)
		}

		switch res.Status {
		case common.StatusFilled:
			filled++
			if res.ExecutedQty != req.Qty {
				t.Fatalf("executed qty = %v, want %v", res.ExecutedQty, req.Qty)
			}
			wantFees := req.Price * req.Qty * feeRate
			if math.Abs(res.Fees-wantFees) > 1e-9 {
				t.Fatalf("fees = %v, want %v", res.Fees, wantFees)
			}
			// Fill price stays inside the slippage envelope.
			maxSlip := req.Price * slippageFrac
			if math.Abs(res.ExecutedPrice-req.Price) > maxSlip+1e-9 {
				t.Fatalf("executed price %v outside slippage bound %v", res.ExecutedPrice, maxSlip)
			}
		case common.StatusFailed:
			failed++
			if res.Reason == "" {
				t.Fatal("failed order must carry a reason")
			}
		default:
			t.Fatalf("unexpected status %q", res.Status)
		}
	}

	// With a 90% success rate both outcomes should show up in 200 orders.
	if filled == 0 || failed == 0 {
		t.Fatalf("expected both fills and rejections, got %d/%d", filled, failed)
	}
}

func TestExecuteOrderContextCancelled(t *testing.T) {
	g := NewWithSeed(1, 5*time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := g.ExecuteOrder(ctx, common.OrderRequest{Symbol: "BTCUSDT", Side: common.SideBuy, Qty: 1, Price: 100})
	if res.Status != common.StatusFailed {
		t.Fatalf("status = %q, want FAILED on cancelled context", res.Status)
	}
	if res.Reason == "" {
		t.Fatal("cancelled order must carry a reason")
	}
}

func TestAccountBalance(t *testing.T) {
	g := New()
	bal, err := g.AccountBalance(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal["USDT"] != 10000 {
		t.Fatalf("USDT balance = %v, want 10000", bal["USDT"])
	}
	if g.Name() != common.ExchangeDemo {
		t.Fatalf("name = %q, want %q", g.Name(), common.ExchangeDemo)
	}
}
