// Package ta computes technical analysis indicators over bar series using
// github.com/markcheno/go-talib. Every function returns a series aligned
// 1:1 with its input; entries inside an indicator's warm-up window are NaN.
// Inputs shorter than an indicator's minimum length fail with an
// InsufficientDataError instead of returning a partial series.
package ta

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"
)

// InsufficientDataError is returned when a series is shorter than the
// minimum an indicator needs to produce a single defined value.
type InsufficientDataError struct {
	Indicator string
	Required  int
	Actual    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d values, got %d", e.Indicator, e.Required, e.Actual)
}

// MACDResult holds the MACD and signal lines, both aligned to the input.
type MACDResult struct {
	MACDLine   []float64
	SignalLine []float64
}

// BollingerBands holds the three bands, aligned to the input.
type BollingerBands struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// RSI calculates the Wilder relative strength index for a given time period.
// Scales from 0-100 where 70 usually signals an overbought market and 30 an
// oversold market. The first period entries are NaN.
func RSI(close []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("rsi period must be at least 2, got %d", period)
	}
	if len(close) <= period {
		return nil, &InsufficientDataError{Indicator: "rsi", Required: period + 1, Actual: len(close)}
	}
	out := talib.Rsi(close, period)
	maskWarmup(out, period)
	return out, nil
}

// MACD calculates the MACD line (fast EMA - slow EMA) and its signal line
// EMA. Entries are NaN while the exponential averages warm up.
func MACD(close []float64, fast, slow, signal int) (MACDResult, error) {
	if fast >= slow {
		return MACDResult{}, fmt.Errorf("macd fast period %d must be below slow period %d", fast, slow)
	}
	required := slow + signal - 1
	if len(close) < required {
		return MACDResult{}, &InsufficientDataError{Indicator: "macd", Required: required, Actual: len(close)}
	}
	macdLine, signalLine, _ := talib.Macd(close, fast, slow, signal)
	maskWarmup(macdLine, slow-1)
	maskWarmup(signalLine, slow+signal-2)
	return MACDResult{MACDLine: macdLine, SignalLine: signalLine}, nil
}

// BBands calculates Bollinger bands from a simple moving average and the
// population standard deviation over a trailing window. The first period-1
// entries are NaN.
func BBands(close []float64, period int, stdDevMultiplier float64) (BollingerBands, error) {
	if period < 2 {
		return BollingerBands{}, fmt.Errorf("bollinger period must be at least 2, got %d", period)
	}
	if len(close) < period {
		return BollingerBands{}, &InsufficientDataError{Indicator: "bollinger", Required: period, Actual: len(close)}
	}
	upper, middle, lower := talib.BBands(close, period, stdDevMultiplier, stdDevMultiplier, talib.SMA)
	maskWarmup(upper, period-1)
	maskWarmup(middle, period-1)
	maskWarmup(lower, period-1)
	return BollingerBands{Upper: upper, Middle: middle, Lower: lower}, nil
}

// SMA calculates the simple moving average for a given time period. The
// first period-1 entries are NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("sma period must be at least 2, got %d", period)
	}
	if len(values) < period {
		return nil, &InsufficientDataError{Indicator: "sma", Required: period, Actual: len(values)}
	}
	out := talib.Sma(values, period)
	maskWarmup(out, period-1)
	return out, nil
}

// EMA calculates the exponential moving average for a given time period.
func EMA(values []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, fmt.Errorf("ema period must be at least 2, got %d", period)
	}
	if len(values) < period {
		return nil, &InsufficientDataError{Indicator: "ema", Required: period, Actual: len(values)}
	}
	out := talib.Ema(values, period)
	maskWarmup(out, period-1)
	return out, nil
}

func maskWarmup(series []float64, n int) {
	if n > len(series) {
		n = len(series)
	}
	for i := 0; i < n; i++ {
		series[i] = math.NaN()
	}
}
