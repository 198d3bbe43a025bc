package strata

import (
	"math"

	"github.com/tantralabs/strata/models"
	"github.com/tantralabs/strata/ta"
)

// SeriesBundle carries the per-bar indicator series a strategy can read.
// Every slice is aligned 1:1 with the filtered bar sequence; warm-up entries
// are NaN, and any comparison against NaN is simply never true.
type SeriesBundle struct {
	Timestamp  []int64
	Close      []float64
	Volume     []float64
	RSI        []float64
	MACDLine   []float64
	SignalLine []float64
	Bollinger  ta.BollingerBands

	// Fib holds the ratio of the fibonacci level the close sits on at each
	// bar, computed over the trailing lookback window, or 0 when the close
	// is not on a level. Only custom scripts read it.
	Fib []float64
}

// EvaluateConditions walks the conditions in list order and stops at the
// FIRST condition whose predicate is true, returning its action as a signal.
// This is first-match-wins, not all-conditions-AND: a later condition that
// would also match is never consulted. No match means hold.
func EvaluateConditions(conditions []models.Condition, index int, bundle *SeriesBundle) models.Signal {
	for _, condition := range conditions {
		if conditionMatches(condition, index, bundle) {
			if condition.Action == models.ActionBuy {
				return models.SignalBuy
			}
			return models.SignalSell
		}
	}
	return models.SignalHold
}

// equalTolerance is the fixed absolute tolerance for the equal operator.
const equalTolerance = 1e-3

func conditionMatches(condition models.Condition, index int, bundle *SeriesBundle) bool {
	value := bundle.indicatorValue(condition.Indicator, condition.Operator, index)
	threshold := condition.Value
	switch condition.Operator {
	case models.OperatorGreater:
		return value > threshold
	case models.OperatorLess:
		return value < threshold
	case models.OperatorEqual:
		return math.Abs(value-threshold) < equalTolerance
	case models.OperatorCrossAbove:
		if index == 0 {
			return false
		}
		previous := bundle.indicatorValue(condition.Indicator, condition.Operator, index-1)
		return previous <= threshold && value > threshold
	case models.OperatorCrossBelow:
		if index == 0 {
			return false
		}
		previous := bundle.indicatorValue(condition.Indicator, condition.Operator, index-1)
		return previous >= threshold && value < threshold
	}
	return false
}

// indicatorValue resolves a condition's indicator key at a bar index. The
// macd key is the macd line minus the signal line, so thresholds around zero
// describe line crossings. The bollinger key is the signed percentage
// distance from the band matching the operator's direction: from the upper
// band for greater/cross-above (positive once price breaks above it), from
// the lower band otherwise (negative once price breaks below it). Unknown
// keys resolve to 0 rather than failing.
func (b *SeriesBundle) indicatorValue(indicator, operator string, index int) float64 {
	switch indicator {
	case models.IndicatorRSI:
		return b.RSI[index]
	case models.IndicatorMACD:
		return b.MACDLine[index] - b.SignalLine[index]
	case models.IndicatorBollinger:
		return b.bollingerDistance(operator, index)
	case models.IndicatorPrice:
		return b.Close[index]
	case models.IndicatorVolume:
		return b.Volume[index]
	}
	return 0
}

func (b *SeriesBundle) bollingerDistance(operator string, index int) float64 {
	price := b.Close[index]
	switch operator {
	case models.OperatorGreater, models.OperatorCrossAbove:
		upper := b.Bollinger.Upper[index]
		if upper == 0 || math.IsNaN(upper) {
			return math.NaN()
		}
		return (price - upper) / upper * 100
	default:
		lower := b.Bollinger.Lower[index]
		if lower == 0 || math.IsNaN(lower) {
			return math.NaN()
		}
		return (price - lower) / lower * 100
	}
}
