package models

import (
	"fmt"
	"sort"
)

// Bar is a single OHLCV sample. Timestamp is in unix milliseconds.
type Bar struct {
	Timestamp int64   `csv:"timestamp" db:"timestamp"`
	Open      float64 `csv:"open" db:"open"`
	High      float64 `csv:"high" db:"high"`
	Low       float64 `csv:"low" db:"low"`
	Close     float64 `csv:"close" db:"close"`
	Volume    float64 `csv:"volume" db:"volume"`
}

// SortBars sorts bars in place so that index 0 is the start and index -1 is the end.
func SortBars(bars []*Bar) {
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })
}

// ValidateBars checks that the bar sequence is non-empty and strictly
// ascending by timestamp with no duplicates.
func ValidateBars(bars []*Bar) error {
	if len(bars) == 0 {
		return fmt.Errorf("bar sequence is empty")
	}
	for i := 1; i < len(bars); i++ {
		if bars[i].Timestamp <= bars[i-1].Timestamp {
			return fmt.Errorf("bar timestamps must be strictly ascending, got %v after %v at index %v",
				bars[i].Timestamp, bars[i-1].Timestamp, i)
		}
	}
	return nil
}
