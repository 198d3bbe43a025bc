package ta

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// Divergence types.
const (
	DivergenceBullish = "bullish"
	DivergenceBearish = "bearish"
)

// Divergence describes a price/volume-indicator divergence over a trailing
// window. Type is empty when no divergence is present. Strength scales the
// indicator move against the price move and is clamped to [0, 1].
type Divergence struct {
	Type     string
	Strength float64
}

// OBV calculates the cumulative on-balance volume: volume is added when the
// close rises, subtracted when it falls and ignored on an equal close.
func OBV(close, volume []float64) ([]float64, error) {
	if len(close) < 2 {
		return nil, &InsufficientDataError{Indicator: "obv", Required: 2, Actual: len(close)}
	}
	return talib.Obv(close, volume), nil
}

// AccumulationDistribution calculates the Chaikin accumulation/distribution
// line, which weighs volume by where the close sits inside the bar's range.
func AccumulationDistribution(high, low, close, volume []float64) ([]float64, error) {
	if len(close) < 2 {
		return nil, &InsufficientDataError{Indicator: "ad", Required: 2, Actual: len(close)}
	}
	return talib.Ad(high, low, close, volume), nil
}

// RelativeVolume divides each volume sample by its trailing average. Values
// above 1 mean heavier than usual activity. The first period-1 entries are NaN.
func RelativeVolume(volume []float64, period int) ([]float64, error) {
	avg, err := SMA(volume, period)
	if err != nil {
		if ide, ok := err.(*InsufficientDataError); ok {
			return nil, &InsufficientDataError{Indicator: "relative volume", Required: ide.Required, Actual: ide.Actual}
		}
		return nil, err
	}
	out := make([]float64, len(volume))
	for i := range volume {
		if math.IsNaN(avg[i]) || avg[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = volume[i] / avg[i]
	}
	return out, nil
}

// DetectVolumeDivergence compares price and OBV behavior over the trailing
// window. The window is split in half: a bullish divergence is price making
// a lower low while OBV makes a higher low, a bearish divergence is price
// making a higher high while OBV makes a lower high.
func DetectVolumeDivergence(close, volume []float64, window int) (Divergence, error) {
	if window < 4 {
		window = 4
	}
	if len(close) < window {
		return Divergence{}, &InsufficientDataError{Indicator: "volume divergence", Required: window, Actual: len(close)}
	}
	obv, err := OBV(close, volume)
	if err != nil {
		return Divergence{}, err
	}

	mid := len(close) - window/2
	start := len(close) - window

	priceLow1, priceHigh1 := minMax(close[start:mid])
	priceLow2, priceHigh2 := minMax(close[mid:])
	obvLow1, obvHigh1 := minMax(obv[start:mid])
	obvLow2, obvHigh2 := minMax(obv[mid:])

	if priceLow2 < priceLow1 && obvLow2 > obvLow1 {
		priceMove := relativeMove(priceLow1, priceLow2)
		obvMove := relativeMove(obvLow1, obvLow2)
		return Divergence{Type: DivergenceBullish, Strength: divergenceStrength(obvMove, priceMove)}, nil
	}
	if priceHigh2 > priceHigh1 && obvHigh2 < obvHigh1 {
		priceMove := relativeMove(priceHigh1, priceHigh2)
		obvMove := relativeMove(obvHigh1, obvHigh2)
		return Divergence{Type: DivergenceBearish, Strength: divergenceStrength(obvMove, priceMove)}, nil
	}
	return Divergence{}, nil
}

func minMax(values []float64) (min, max float64) {
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}

func relativeMove(from, to float64) float64 {
	if from == 0 {
		return math.Abs(to)
	}
	return math.Abs((to - from) / from)
}

func divergenceStrength(indicatorMove, priceMove float64) float64 {
	if priceMove == 0 {
		return 1
	}
	strength := indicatorMove / priceMove
	if strength > 1 {
		return 1
	}
	return strength
}
