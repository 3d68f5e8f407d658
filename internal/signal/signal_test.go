package signal

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	valid := Signal{
		Symbol:     "BTCUSDT",
		Action:     ActionBuy,
		Price:      50000,
		Quantity:   0.01,
		Confidence: 80,
		Timestamp:  time.Now(),
	}

	tests := []struct {
		name    string
		mutate  func(*Signal)
		wantErr error
	}{
		{"valid buy", func(s *Signal) {}, nil},
		{"valid sell", func(s *Signal) { s.Action = ActionSell }, nil},
		{"hold with zero quantity", func(s *Signal) { s.Action = ActionHold; s.Quantity = 0 }, nil},
		{"empty symbol", func(s *Signal) { s.Symbol = "" }, ErrEmptySymbol},
		{"unknown action", func(s *Signal) { s.Action = "short" }, ErrBadAction},
		{"zero quantity on buy", func(s *Signal) { s.Quantity = 0 }, ErrBadQuantity},
		{"negative quantity", func(s *Signal) { s.Quantity = -1 }, ErrBadQuantity},
		{"negative quantity on hold", func(s *Signal) { s.Action = ActionHold; s.Quantity = -1 }, ErrBadQuantity},
		{"confidence below range", func(s *Signal) { s.Confidence = -1 }, ErrBadConfidence},
		{"confidence above range", func(s *Signal) { s.Confidence = 101 }, ErrBadConfidence},
		{"confidence boundaries ok", func(s *Signal) { s.Confidence = 100 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := valid
			tt.mutate(&sig)
			err := sig.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
