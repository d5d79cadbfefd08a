package indicators

import (
	"ragoalert/internal/models"
)

// RSI computes the relative strength index with Wilder smoothing. The
// result is aligned so the last value corresponds to the last candle.
func RSI(candles []models.Candle, period int) ([]float64, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}
	if len(candles) < period+1 {
		return nil, ErrInsufficientData
	}

	closes := closePrices(candles)
	gains := make([]float64, len(closes)-1)
	losses := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i-1] = change
		} else {
			losses[i-1] = -change
		}
	}

	avgGain := wilderSmooth(gains, period)
	avgLoss := wilderSmooth(losses, period)

	result := make([]float64, len(avgGain))
	for i := range avgGain {
		if avgLoss[i] == 0 {
			result[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		result[i] = 100 - 100/(1+rs)
	}
	return result, nil
}
