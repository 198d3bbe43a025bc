package models

import "time"

// BacktestConfig holds everything a single backtest run needs beyond the bar
// data itself. Zero values for the indicator periods and the warm-up offset
// are replaced with defaults when the engine is created.
type BacktestConfig struct {
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
	InitialBalance float64       `json:"initial_balance"`
	Strategy       Strategy      `json:"strategy"`
	WarmupBars     int           `json:"warmup_bars"`
	ScriptTimeout  time.Duration `json:"script_timeout"`

	RSIPeriod     int     `json:"rsi_period"`
	MACDFast      int     `json:"macd_fast"`
	MACDSlow      int     `json:"macd_slow"`
	MACDSignal    int     `json:"macd_signal"`
	BBPeriod      int     `json:"bb_period"`
	BBStdDev      float64 `json:"bb_std_dev"`
	FibLookback   int     `json:"fib_lookback"`
	FibTolerance  float64 `json:"fib_tolerance"`
	LogBacktest   bool    `json:"log_backtest"`    // export history to history.csv
	LogCloudStats bool    `json:"log_cloud_stats"` // upsample equity curve to influx
}
