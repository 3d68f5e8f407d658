// Package gateway selects the exchange back-end for the configured venue.
package gateway

import (
	"fmt"

	"autotrader/pkg/exchanges/binance"
	"autotrader/pkg/exchanges/bybit"
	"autotrader/pkg/exchanges/common"
	"autotrader/pkg/exchanges/demo"
	"autotrader/pkg/exchanges/okx"
)

// New creates a Gateway for the credentials' exchange. An unknown exchange
// is a configuration defect and fails immediately rather than at execution.
func New(creds common.Credentials) (common.Gateway, error) {
	switch creds.Exchange {
	case common.ExchangeDemo:
		return demo.New(), nil
	case common.ExchangeBinance:
		return binance.New(creds), nil
	case common.ExchangeBybit:
		return bybit.New(creds), nil
	case common.ExchangeOKX:
		return okx.New(creds), nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnsupportedExchange, creds.Exchange)
	}
}
