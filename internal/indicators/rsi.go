package indicators

// RSI computes the Relative Strength Index over the last period deltas,
// without Wilder smoothing. With fewer than period+1 prices it returns 50, a
// neutral placeholder rather than a meaningful RSI. An all-gain window
// returns 100.
func RSI(prices []float64, period int) float64 {
	if period <= 0 || len(prices) < period+1 {
		return 50
	}

	gain := 0.0
	loss := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}

	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
