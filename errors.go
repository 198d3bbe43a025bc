package strata

import "fmt"

// InsufficientRangeError is returned when the date-filtered bar count is too
// small to cover the warm-up offset.
type InsufficientRangeError struct {
	Required int
	Actual   int
}

func (e *InsufficientRangeError) Error() string {
	return fmt.Sprintf("filtered bar range has %d bars, need more than %d to cover the warm-up offset", e.Actual, e.Required)
}

// MisalignedSeriesError is returned when correlation inputs differ in length.
type MisalignedSeriesError struct {
	Asset      string
	BaseLength int
	Length     int
}

func (e *MisalignedSeriesError) Error() string {
	return fmt.Sprintf("series for %s has %d bars, base asset has %d; caller must align the series", e.Asset, e.Length, e.BaseLength)
}

// StrategyExecutionError wraps a custom strategy failure. It is logged and
// the offending bar is treated as hold, it never aborts a run.
type StrategyExecutionError struct {
	Cause error
}

func (e *StrategyExecutionError) Error() string {
	return fmt.Sprintf("custom strategy execution failed: %v", e.Cause)
}

func (e *StrategyExecutionError) Unwrap() error {
	return e.Cause
}
