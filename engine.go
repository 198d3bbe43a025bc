// Package strata is a quantitative backtesting and signal-evaluation
// engine. It turns a bar series plus a strategy definition into a simulated
// trade history, an equity curve and summary performance statistics. Each
// run is a pure computation over its inputs: the engine never mutates the
// bar sequence it is given, and every derived series and result is freshly
// allocated, so a host may run many backtests concurrently.
package strata

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/tantralabs/logger"
	"github.com/tantralabs/strata/models"
	"github.com/tantralabs/strata/ta"
)

// Engine defaults.
const (
	DefaultWarmupBars  = 20
	DefaultRSIPeriod   = 14
	DefaultMACDFast    = 12
	DefaultMACDSlow    = 26
	DefaultMACDSignal  = 9
	DefaultBBPeriod    = 20
	DefaultBBStdDev    = 2.0
	DefaultFibLookback = 20
)

// TradingEngine simulates a single-asset, long-only strategy over a bar
// series. The position model is deliberately simple: the full cash balance
// is invested on a buy, the full position is liquidated on a sell, and
// signals that would violate the single-position constraint are ignored.
// Fees, slippage and partial fills are not modeled.
type TradingEngine struct {
	config models.BacktestConfig
	memo   *ta.MemoTable
}

// NewTradingEngine validates the configuration, fills in defaults and
// returns an engine ready to run. Validation fails fast before any
// simulation work: a bad date range or a non-positive starting balance is
// reported with the offending field.
func NewTradingEngine(config models.BacktestConfig) (*TradingEngine, error) {
	if config.InitialBalance <= 0 {
		return nil, fmt.Errorf("initial_balance must be positive, got %v", config.InitialBalance)
	}
	if config.Start.IsZero() || config.End.IsZero() {
		return nil, fmt.Errorf("start and end dates must both be set")
	}
	if config.End.Before(config.Start) {
		return nil, fmt.Errorf("end date %v precedes start date %v", config.End, config.Start)
	}
	if config.WarmupBars == 0 {
		config.WarmupBars = DefaultWarmupBars
	}
	if config.WarmupBars < 0 {
		return nil, fmt.Errorf("warmup_bars must not be negative, got %v", config.WarmupBars)
	}
	if config.ScriptTimeout == 0 {
		config.ScriptTimeout = DefaultScriptTimeout
	}
	if config.RSIPeriod == 0 {
		config.RSIPeriod = DefaultRSIPeriod
	}
	if config.MACDFast == 0 {
		config.MACDFast = DefaultMACDFast
	}
	if config.MACDSlow == 0 {
		config.MACDSlow = DefaultMACDSlow
	}
	if config.MACDSignal == 0 {
		config.MACDSignal = DefaultMACDSignal
	}
	if config.BBPeriod == 0 {
		config.BBPeriod = DefaultBBPeriod
	}
	if config.BBStdDev == 0 {
		config.BBStdDev = DefaultBBStdDev
	}
	if config.FibLookback == 0 {
		config.FibLookback = DefaultFibLookback
	}
	if config.FibTolerance == 0 {
		config.FibTolerance = ta.DefaultFibTolerance
	}
	return &TradingEngine{config: config, memo: ta.NewMemoTable()}, nil
}

// RunTest walks the bar series bar by bar and produces the full backtest
// result. The input bars are read only; running the same engine twice over
// the same bars yields identical trades, curves and statistics.
func (t *TradingEngine) RunTest(bars []*models.Bar) (*models.Result, error) {
	startTime := time.Now()
	if err := models.ValidateBars(bars); err != nil {
		return nil, err
	}

	filtered := filterBarsByTime(bars, t.config.Start, t.config.End)
	if len(filtered) <= t.config.WarmupBars {
		return nil, &InsufficientRangeError{Required: t.config.WarmupBars, Actual: len(filtered)}
	}

	bundle, err := t.buildSeriesBundle(filtered)
	if err != nil {
		return nil, err
	}
	sandbox := NewSandbox(t.config.Strategy, bundle, t.config.ScriptTimeout)

	var (
		cash     = t.config.InitialBalance
		position models.Position
		trades   []models.Trade
		equity   = []float64{t.config.InitialBalance}
		history  []models.History

		peakEquity  = t.config.InitialBalance
		maxDrawdown float64
	)

	for i := t.config.WarmupBars; i < len(filtered); i++ {
		bar := filtered[i]
		signal := sandbox.Signal(i)

		switch {
		case signal == models.SignalBuy && !position.Open():
			position = models.Position{
				Quantity:       cash / bar.Close,
				EntryPrice:     bar.Close,
				EntryTimestamp: bar.Timestamp,
			}
			cash = 0
			trades = append(trades, models.Trade{
				EntryTimestamp: bar.Timestamp,
				EntryPrice:     bar.Close,
				Quantity:       position.Quantity,
			})
		case signal == models.SignalSell && position.Open():
			exitValue := position.Quantity * bar.Close
			entryValue := position.Quantity * position.EntryPrice
			trade := &trades[len(trades)-1]
			trade.ExitTimestamp = bar.Timestamp
			trade.ExitPrice = bar.Close
			trade.Profit = exitValue - entryValue
			trade.ProfitPercentage = (bar.Close/position.EntryPrice - 1) * 100
			cash = exitValue
			position = models.Position{}
		}

		currentEquity := cash + position.Quantity*bar.Close
		equity = append(equity, currentEquity)
		if currentEquity > peakEquity {
			peakEquity = currentEquity
		}
		if drawdown := (peakEquity - currentEquity) / peakEquity; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
		history = append(history, models.History{
			Timestamp: bar.Timestamp,
			Price:     bar.Close,
			Quantity:  position.Quantity,
			Cash:      cash,
			Equity:    currentEquity,
		})
	}

	// An open position at the last bar stays open: its unrealized value is
	// part of the final balance but it never becomes a closing trade.
	finalBalance := equity[len(equity)-1]
	closed := closedTrades(trades)

	result := &models.Result{
		RunID:            uuid.New().String(),
		InitialBalance:   t.config.InitialBalance,
		FinalBalance:     finalBalance,
		Profit:           finalBalance - t.config.InitialBalance,
		ProfitPercentage: (finalBalance/t.config.InitialBalance - 1) * 100,
		TotalTrades:      len(closed),
		WinRate:          winRate(closed),
		MaxDrawdown:      maxDrawdown * 100,
		SharpeRatio:      sharpeRatio(equity),
		Trades:           closed,
		EquityCurve:      equity,
		History:          history,
	}
	if position.Open() {
		openPosition := position
		result.OpenPosition = &openPosition
	}
	if err := copier.Copy(&result.Config, &t.config); err != nil {
		return nil, fmt.Errorf("failed to echo config into result: %v", err)
	}

	if t.config.LogBacktest {
		if err := WriteHistory(history, "history.csv"); err != nil {
			logger.Errorf("Failed to export history: %v\n", err)
		}
	}
	if t.config.LogCloudStats {
		logCloudResult(result)
	}
	logger.Infof("Backtest %v finished in %v: %v bars, %v trades, final balance %.4f\n",
		result.RunID, time.Since(startTime), len(filtered)-t.config.WarmupBars, result.TotalTrades, finalBalance)
	return result, nil
}

// buildSeriesBundle computes every indicator series the evaluator and the
// sandbox can reference, memoized per engine so repeated runs over the same
// bars skip the recomputation.
func (t *TradingEngine) buildSeriesBundle(bars []*models.Bar) (*SeriesBundle, error) {
	ohlcv := models.GetOHLCV(bars)
	cfg := t.config

	rsi, err := t.memo.GetOrCompute("rsi", cfg.RSIPeriod, ohlcv.Close, func() ([]float64, error) {
		return ta.RSI(ohlcv.Close, cfg.RSIPeriod)
	})
	if err != nil {
		return nil, err
	}

	macdKey := fmt.Sprintf("macd:%d:%d:%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	macdLine, err := t.memo.GetOrCompute(macdKey+":line", cfg.MACDSlow, ohlcv.Close, func() ([]float64, error) {
		macd, computeErr := ta.MACD(ohlcv.Close, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		return macd.MACDLine, computeErr
	})
	if err != nil {
		return nil, err
	}
	signalLine, err := t.memo.GetOrCompute(macdKey+":signal", cfg.MACDSlow, ohlcv.Close, func() ([]float64, error) {
		macd, computeErr := ta.MACD(ohlcv.Close, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		return macd.SignalLine, computeErr
	})
	if err != nil {
		return nil, err
	}

	bands, err := ta.BBands(ohlcv.Close, cfg.BBPeriod, cfg.BBStdDev)
	if err != nil {
		return nil, err
	}

	return &SeriesBundle{
		Timestamp:  ohlcv.Timestamp,
		Close:      ohlcv.Close,
		Volume:     ohlcv.Volume,
		RSI:        rsi,
		MACDLine:   macdLine,
		SignalLine: signalLine,
		Bollinger:  bands,
		Fib:        fibRatioSeries(ohlcv, cfg.FibLookback, cfg.FibTolerance),
	}, nil
}

// fibRatioSeries matches each close against the fibonacci grid of its
// trailing lookback window. The entry is the matched level's ratio, 0 when
// the close sits on no level and NaN while the window is too short.
func fibRatioSeries(ohlcv models.OHLCV, lookback int, tolerance float64) []float64 {
	out := make([]float64, len(ohlcv.Close))
	for i := range out {
		levels, err := ta.FibonacciRetracement(ohlcv.High[:i+1], ohlcv.Low[:i+1], lookback)
		if err != nil {
			out[i] = math.NaN()
			continue
		}
		if level, ok := levels.MatchLevel(ohlcv.Close[i], tolerance); ok {
			out[i] = level.Ratio
		}
	}
	return out
}

// filterBarsByTime restricts processing to bars inside [start, end]
// inclusive. The input slice is never modified.
func filterBarsByTime(bars []*models.Bar, start, end time.Time) []*models.Bar {
	startMs := start.UnixNano() / int64(time.Millisecond)
	endMs := end.UnixNano() / int64(time.Millisecond)
	filtered := make([]*models.Bar, 0, len(bars))
	for _, bar := range bars {
		if bar.Timestamp >= startMs && bar.Timestamp <= endMs {
			filtered = append(filtered, bar)
		}
	}
	return filtered
}

func closedTrades(trades []models.Trade) []models.Trade {
	closed := make([]models.Trade, 0, len(trades))
	for _, trade := range trades {
		if trade.ExitTimestamp != 0 {
			closed = append(closed, trade)
		}
	}
	return closed
}
