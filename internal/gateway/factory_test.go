package gateway

import (
	"errors"
	"testing"

	"autotrader/pkg/exchanges/common"
)

func TestNew(t *testing.T) {
	creds := common.Credentials{APIKey: "k", APISecret: "s", Passphrase: "p"}

	for _, ex := range []common.Exchange{
		common.ExchangeDemo,
		common.ExchangeBinance,
		common.ExchangeBybit,
		common.ExchangeOKX,
	} {
		t.Run(string(ex), func(t *testing.T) {
			creds.Exchange = ex
			gw, err := New(creds)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gw.Name() != ex {
				t.Fatalf("name = %q, want %q", gw.Name(), ex)
			}
		})
	}

	t.Run("unknown exchange", func(t *testing.T) {
		creds.Exchange = "kraken"
		if _, err := New(creds); !errors.Is(err, common.ErrUnsupportedExchange) {
			t.Fatalf("err = %v, want ErrUnsupportedExchange", err)
		}
	})
}
