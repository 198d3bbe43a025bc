package models

// The Result struct contains information about a backtest result. It is
// created once per run and never mutated afterwards.
type Result struct {
	RunID            string         // Unique id for this backtest run
	Config           BacktestConfig // Echo of the configuration that produced this result
	InitialBalance   float64        // Starting balance for the backtest
	FinalBalance     float64        // Ending balance, open position marked to last close
	Profit           float64        // FinalBalance - InitialBalance
	ProfitPercentage float64        // Profit relative to the starting balance, in percent
	TotalTrades      int            // Number of closed round trips
	WinRate          float64        // Percentage of closed trades with positive profit
	MaxDrawdown      float64        // Largest peak to trough equity decline, in percent
	SharpeRatio      float64        // Mean per-bar return over its population std dev
	Trades           []Trade        // Closed round trips in chronological order
	OpenPosition     *Position      // Position still open at the last bar, if any
	EquityCurve      []float64      // Portfolio value per simulated bar, index 0 is the initial balance
	History          []History      // Rich per-bar state snapshots
}
