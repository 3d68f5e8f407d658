package indicators

import "math"

// Bands holds a Bollinger band envelope.
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// BollingerBands computes SMA(period) +- multiplier standard deviations,
// using the population standard deviation over the last period prices. With
// fewer prices the window shrinks to what is available.
func BollingerBands(prices []float64, period int, multiplier float64) Bands {
	middle := SMA(prices, period)
	if len(prices) == 0 {
		return Bands{}
	}

	n := period
	if n <= 0 || n > len(prices) {
		n = len(prices)
	}
	window := prices[len(prices)-n:]

	variance := 0.0
	for _, p := range window {
		d := p - middle
		variance += d * d
	}
	stdDev := math.Sqrt(variance / float64(n))

	return Bands{
		Upper:  middle + multiplier*stdDev,
		Middle: middle,
		Lower:  middle - multiplier*stdDev,
	}
}
