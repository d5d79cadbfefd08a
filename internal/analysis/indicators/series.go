package indicators

import (
	"ragoalert/internal/analysis"
	"ragoalert/internal/models"
)

// Params groups the periods used when building indicator snapshots.
type Params struct {
	EMAShort   int
	EMALong    int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
	ADXPeriod  int
	BBPeriod   int
	BBStdDev   float64
	RSIPeriod  int
}

// DefaultParams returns the standard daily-chart periods.
func DefaultParams() Params {
	return Params{
		EMAShort:   7,
		EMALong:    20,
		MACDFast:   12,
		MACDSlow:   26,
		MACDSignal: 9,
		ADXPeriod:  14,
		BBPeriod:   20,
		BBStdDev:   2.0,
		RSIPeriod:  14,
	}
}

// Snapshots computes every indicator family over the candle series and
// merges them into per-day snapshots. Rows where any indicator is still
// warming up are dropped, so the result is fully populated and aligned
// to the tail of the input.
func Snapshots(candles []models.Candle, params Params) ([]analysis.IndicatorSnapshot, error) {
	emaShort, err := EMA(candles, params.EMAShort)
	if err != nil {
		return nil, err
	}
	emaLong, err := EMA(candles, params.EMALong)
	if err != nil {
		return nil, err
	}
	macd, err := MACD(candles, params.MACDFast, params.MACDSlow, params.MACDSignal)
	if err != nil {
		return nil, err
	}
	adx, err := ADX(candles, params.ADXPeriod)
	if err != nil {
		return nil, err
	}
	bb, err := BollingerBands(candles, params.BBPeriod, params.BBStdDev)
	if err != nil {
		return nil, err
	}
	rsi, err := RSI(candles, params.RSIPeriod)
	if err != nil {
		return nil, err
	}

	n := len(emaShort)
	for _, l := range []int{len(emaLong), len(macd.Line), len(adx.ADX), len(bb.Middle), len(rsi)} {
		if l < n {
			n = l
		}
	}
	if n == 0 {
		return nil, ErrInsufficientData
	}

	snapshots := make([]analysis.IndicatorSnapshot, n)
	for i := 0; i < n; i++ {
		c := candles[len(candles)-n+i]
		snapshots[i] = analysis.IndicatorSnapshot{
			Date:       c.Timestamp,
			Close:      c.Close,
			EMAShort:   tail(emaShort, n)[i],
			EMALong:    tail(emaLong, n)[i],
			MACD:       tail(macd.Line, n)[i],
			MACDSignal: tail(macd.Signal, n)[i],
			MACDHist:   tail(macd.Histogram, n)[i],
			ADX:        tail(adx.ADX, n)[i],
			PlusDI:     tail(adx.PlusDI, n)[i],
			MinusDI:    tail(adx.MinusDI, n)[i],
			BBUpper:    tail(bb.Upper, n)[i],
			BBMiddle:   tail(bb.Middle, n)[i],
			BBLower:    tail(bb.Lower, n)[i],
			RSI:        tail(rsi, n)[i],
		}
	}
	return snapshots, nil
}

func tail(values []float64, n int) []float64 {
	return values[len(values)-n:]
}
