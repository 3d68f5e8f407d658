// Package indicators provides pure, stateless indicator math over price
// sequences ordered oldest first.
package indicators

// SMA calculates the simple moving average of the last period values.
// With fewer than period values it returns the last value unchanged; that is
// not a valid moving average, but callers rely on the fallback.
func SMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// EMA calculates an exponential moving average seeded with the first value
// and smoothed with 2/(period+1), applied over the whole sequence. The
// insufficient-data fallback matches SMA.
func EMA(prices []float64, period int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if period <= 0 || len(prices) < period {
		return prices[len(prices)-1]
	}
	k := 2.0 / float64(period+1)
	ema := prices[0]
	for _, p := range prices[1:] {
		ema = p*k + ema*(1-k)
	}
	return ema
}
