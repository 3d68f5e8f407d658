package indicators

// Default periods used when callers have no opinion.
const (
	DefaultRSIPeriod       = 14
	DefaultMACDFast        = 12
	DefaultMACDSlow        = 26
	DefaultMACDSignal      = 9
	DefaultBollingerPeriod = 20
	DefaultBollingerMult   = 2.0
)

// Summary bundles the standard indicator set for one price window.
type Summary struct {
	RSI       float64    `json:"rsi"`
	SMA20     float64    `json:"sma_20"`
	EMA20     float64    `json:"ema_20"`
	MACD      MACDResult `json:"macd"`
	Bollinger Bands      `json:"bollinger"`
}

// Compute evaluates the standard indicator set with default periods.
func Compute(prices []float64) Summary {
	return Summary{
		RSI:       RSI(prices, DefaultRSIPeriod),
		SMA20:     SMA(prices, 20),
		EMA20:     EMA(prices, 20),
		MACD:      MACD(prices, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal),
		Bollinger: BollingerBands(prices, DefaultBollingerPeriod, DefaultBollingerMult),
	}
}
