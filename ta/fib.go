package ta

import (
	"math"
)

// Retracement and extension ratios, in ascending order. Level membership
// checks walk these in order, so ties resolve to the smallest ratio.
var (
	fibRetracementRatios = []float64{0.236, 0.382, 0.5, 0.618, 0.786}
	fibExtensionRatios   = []float64{1.618, 2.618, 3.618}
)

// DefaultFibTolerance is the relative tolerance for level membership.
const DefaultFibTolerance = 0.01

// FibLevel is one price level derived from a swing range.
type FibLevel struct {
	Ratio float64
	Price float64
}

// FibLevels holds the retracement and extension grid for a swing range.
type FibLevels struct {
	SwingHigh    float64
	SwingLow     float64
	Retracements []FibLevel
	Extensions   []FibLevel
}

// FibonacciRetracement finds the swing high and low over the trailing
// lookback bars and derives retracement and extension levels from them.
// A lookback <= 0 uses the whole series.
func FibonacciRetracement(high, low []float64, lookback int) (FibLevels, error) {
	if len(high) != len(low) {
		return FibLevels{}, &InsufficientDataError{Indicator: "fibonacci", Required: len(high), Actual: len(low)}
	}
	if lookback <= 0 || lookback > len(high) {
		lookback = len(high)
	}
	if lookback < 2 {
		return FibLevels{}, &InsufficientDataError{Indicator: "fibonacci", Required: 2, Actual: len(high)}
	}
	start := len(high) - lookback
	swingHigh := high[start]
	swingLow := low[start]
	for i := start + 1; i < len(high); i++ {
		if high[i] > swingHigh {
			swingHigh = high[i]
		}
		if low[i] < swingLow {
			swingLow = low[i]
		}
	}

	levels := FibLevels{
		SwingHigh:    swingHigh,
		SwingLow:     swingLow,
		Retracements: make([]FibLevel, 0, len(fibRetracementRatios)),
		Extensions:   make([]FibLevel, 0, len(fibExtensionRatios)),
	}
	span := swingHigh - swingLow
	for _, ratio := range fibRetracementRatios {
		levels.Retracements = append(levels.Retracements, FibLevel{Ratio: ratio, Price: swingHigh - span*ratio})
	}
	for _, ratio := range fibExtensionRatios {
		levels.Extensions = append(levels.Extensions, FibLevel{Ratio: ratio, Price: swingHigh + span*(ratio-1)})
	}
	return levels, nil
}

// MatchLevel reports the first level, in ascending ratio order, whose price
// is within the relative tolerance of the given price. Retracements are
// checked before extensions. A tolerance <= 0 uses DefaultFibTolerance.
func (l FibLevels) MatchLevel(price, tolerance float64) (FibLevel, bool) {
	if tolerance <= 0 {
		tolerance = DefaultFibTolerance
	}
	for _, level := range l.Retracements {
		if matchesLevel(price, level.Price, tolerance) {
			return level, true
		}
	}
	for _, level := range l.Extensions {
		if matchesLevel(price, level.Price, tolerance) {
			return level, true
		}
	}
	return FibLevel{}, false
}

func matchesLevel(price, levelPrice, tolerance float64) bool {
	if levelPrice == 0 {
		return false
	}
	return math.Abs(price-levelPrice)/math.Abs(levelPrice) <= tolerance
}
