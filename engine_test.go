package strata

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tantralabs/strata/models"
	"github.com/tantralabs/strata/ta"
)

const testBaseTimestamp = int64(1577836800000) // 2020-01-01 00:00:00 UTC

func makeBars(closes []float64) []*models.Bar {
	bars := make([]*models.Bar, len(closes))
	for i, close := range closes {
		bars[i] = &models.Bar{
			Timestamp: testBaseTimestamp + int64(i)*3600000,
			Open:      close,
			High:      close + 1,
			Low:       close - 1,
			Close:     close,
			Volume:    1000,
		}
	}
	return bars
}

func barTime(index int) time.Time {
	return time.Unix(0, (testBaseTimestamp+int64(index)*3600000)*int64(time.Millisecond)).UTC()
}

func testConfig(strategy models.Strategy) models.BacktestConfig {
	return models.BacktestConfig{
		Start:          barTime(0),
		End:            barTime(1000),
		InitialBalance: 10000,
		Strategy:       strategy,
	}
}

// rsiReversalCloses declines 2 per bar for 30 bars, then rises 2 per bar.
// The decline drives rsi to 0 and the recovery pushes it back above 70, so
// an oversold/overbought rule produces exactly one round trip.
func rsiReversalCloses() []float64 {
	closes := make([]float64, 60)
	for i := range closes {
		if i < 30 {
			closes[i] = 100 - 2*float64(i)
		} else {
			closes[i] = 42 + 2*float64(i-29)
		}
	}
	return closes
}

func rsiReversalStrategy() models.Strategy {
	return models.Strategy{
		Type: models.StrategyPredefined,
		Conditions: []models.Condition{
			{Indicator: models.IndicatorRSI, Operator: models.OperatorLess, Value: 30, Action: models.ActionBuy},
			{Indicator: models.IndicatorRSI, Operator: models.OperatorGreater, Value: 70, Action: models.ActionSell},
		},
	}
}

func TestNewTradingEngineValidation(t *testing.T) {
	valid := testConfig(models.Strategy{Type: models.StrategyPredefined})

	_, err := NewTradingEngine(valid)
	require.NoError(t, err)

	bad := valid
	bad.InitialBalance = 0
	_, err = NewTradingEngine(bad)
	assert.Error(t, err)

	bad = valid
	bad.InitialBalance = -100
	_, err = NewTradingEngine(bad)
	assert.Error(t, err)

	bad = valid
	bad.Start = time.Time{}
	_, err = NewTradingEngine(bad)
	assert.Error(t, err)

	bad = valid
	bad.Start, bad.End = bad.End, bad.Start
	_, err = NewTradingEngine(bad)
	assert.Error(t, err)

	bad = valid
	bad.WarmupBars = -1
	_, err = NewTradingEngine(bad)
	assert.Error(t, err)
}

func TestRunTestInsufficientRange(t *testing.T) {
	engine, err := NewTradingEngine(testConfig(rsiReversalStrategy()))
	require.NoError(t, err)

	_, err = engine.RunTest(makeBars(rsiReversalCloses()[:10]))
	var ire *InsufficientRangeError
	require.True(t, errors.As(err, &ire))
	assert.Equal(t, DefaultWarmupBars, ire.Required)
	assert.Equal(t, 10, ire.Actual)
}

func TestRunTestInsufficientIndicatorData(t *testing.T) {
	config := testConfig(rsiReversalStrategy())
	config.WarmupBars = 5
	engine, err := NewTradingEngine(config)
	require.NoError(t, err)

	// 25 bars clear the warm-up check but macd(12,26,9) needs 34.
	_, err = engine.RunTest(makeBars(rsiReversalCloses()[:25]))
	var ide *ta.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, "macd", ide.Indicator)
}

func TestRunTestUnsortedBarsRejected(t *testing.T) {
	engine, err := NewTradingEngine(testConfig(rsiReversalStrategy()))
	require.NoError(t, err)

	bars := makeBars(rsiReversalCloses())
	bars[3], bars[4] = bars[4], bars[3]
	_, err = engine.RunTest(bars)
	assert.Error(t, err)
}

func TestRunTestOversoldOverboughtRoundTrip(t *testing.T) {
	engine, err := NewTradingEngine(testConfig(rsiReversalStrategy()))
	require.NoError(t, err)

	result, err := engine.RunTest(makeBars(rsiReversalCloses()))
	require.NoError(t, err)

	require.Equal(t, 1, result.TotalTrades)
	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]

	// The first processed bar is already oversold, so the buy is all-in at
	// its close.
	assert.Equal(t, 60.0, trade.EntryPrice)
	assert.InDelta(t, 10000.0/60.0, trade.Quantity, 1e-9)
	assert.Greater(t, trade.ExitPrice, trade.EntryPrice)
	assert.Greater(t, trade.ExitTimestamp, trade.EntryTimestamp)
	assert.InDelta(t, trade.Quantity*(trade.ExitPrice-trade.EntryPrice), trade.Profit, 1e-6)
	assert.InDelta(t, (trade.ExitPrice/trade.EntryPrice-1)*100, trade.ProfitPercentage, 1e-9)

	assert.Equal(t, 100.0, result.WinRate)
	assert.Nil(t, result.OpenPosition)
	assert.InDelta(t, 10000+trade.Profit, result.FinalBalance, 1e-6)
	assert.InDelta(t, result.FinalBalance-result.InitialBalance, result.Profit, 1e-9)
	assert.Greater(t, result.SharpeRatio, 0.0)
}

func TestRunTestEquityCurveShape(t *testing.T) {
	engine, err := NewTradingEngine(testConfig(rsiReversalStrategy()))
	require.NoError(t, err)

	result, err := engine.RunTest(makeBars(rsiReversalCloses()))
	require.NoError(t, err)

	// 60 bars minus 20 warm-up bars plus the initial-balance anchor.
	require.Len(t, result.EquityCurve, 41)
	assert.Equal(t, 10000.0, result.EquityCurve[0])
	require.Len(t, result.History, 40)
	assert.Equal(t, result.EquityCurve[len(result.EquityCurve)-1], result.FinalBalance)
	assert.Equal(t, result.History[len(result.History)-1].Equity, result.FinalBalance)

	// The long position rides the drawdown to the bottom of the decline.
	assert.Greater(t, result.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, result.MaxDrawdown, 100.0)
}

func TestRunTestFlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100
	}
	// Cross rules cannot trigger on a constant series.
	crossOnly := models.Strategy{
		Type: models.StrategyPredefined,
		Conditions: []models.Condition{
			{Indicator: models.IndicatorRSI, Operator: models.OperatorCrossAbove, Value: 70, Action: models.ActionBuy},
			{Indicator: models.IndicatorRSI, Operator: models.OperatorCrossBelow, Value: 30, Action: models.ActionSell},
		},
	}
	engine, err := NewTradingEngine(testConfig(crossOnly))
	require.NoError(t, err)

	result, err := engine.RunTest(makeBars(closes))
	require.NoError(t, err)

	assert.Equal(t, 0, result.TotalTrades)
	assert.Equal(t, 0.0, result.WinRate)
	assert.Equal(t, 0.0, result.SharpeRatio)
	assert.Equal(t, 0.0, result.MaxDrawdown)
	assert.Equal(t, 10000.0, result.FinalBalance)
	assert.Nil(t, result.OpenPosition)
}

func TestRunTestDateFilterInclusive(t *testing.T) {
	config := testConfig(models.Strategy{Type: models.StrategyPredefined})
	config.Start = barTime(5)
	config.End = barTime(74)
	engine, err := NewTradingEngine(config)
	require.NoError(t, err)

	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
	}
	result, err := engine.RunTest(makeBars(closes))
	require.NoError(t, err)

	// Bars 5 through 74 inclusive survive the filter: 70 bars, 50 of them
	// past the warm-up.
	require.Len(t, result.History, 50)
	assert.Equal(t, barTime(25).UnixNano()/int64(time.Millisecond), result.History[0].Timestamp)
	assert.Equal(t, barTime(74).UnixNano()/int64(time.Millisecond), result.History[len(result.History)-1].Timestamp)
}

func TestRunTestOpenPositionSurvives(t *testing.T) {
	alwaysBuy := models.Strategy{
		Type: models.StrategyPredefined,
		Conditions: []models.Condition{
			{Indicator: models.IndicatorPrice, Operator: models.OperatorGreater, Value: 0, Action: models.ActionBuy},
		},
	}
	engine, err := NewTradingEngine(testConfig(alwaysBuy))
	require.NoError(t, err)

	closes := rsiReversalCloses()
	result, err := engine.RunTest(makeBars(closes))
	require.NoError(t, err)

	// The position opens on the first processed bar and never closes.
	assert.Equal(t, 0, result.TotalTrades)
	require.NotNil(t, result.OpenPosition)
	assert.Equal(t, 60.0, result.OpenPosition.EntryPrice)
	assert.InDelta(t, 10000.0/60.0, result.OpenPosition.Quantity, 1e-9)

	// All-in means no idle cash while the position is open.
	for _, row := range result.History {
		assert.Equal(t, 0.0, row.Cash)
	}

	lastClose := closes[len(closes)-1]
	assert.InDelta(t, result.OpenPosition.Quantity*lastClose, result.FinalBalance, 1e-6)
}

func TestRunTestIdempotent(t *testing.T) {
	engine, err := NewTradingEngine(testConfig(rsiReversalStrategy()))
	require.NoError(t, err)
	bars := makeBars(rsiReversalCloses())

	first, err := engine.RunTest(bars)
	require.NoError(t, err)
	second, err := engine.RunTest(bars)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	second.RunID = first.RunID
	assert.Equal(t, first, second)
}

func TestRunTestConfigEcho(t *testing.T) {
	config := testConfig(rsiReversalStrategy())
	engine, err := NewTradingEngine(config)
	require.NoError(t, err)

	result, err := engine.RunTest(makeBars(rsiReversalCloses()))
	require.NoError(t, err)

	assert.Equal(t, config.InitialBalance, result.Config.InitialBalance)
	assert.Equal(t, config.Strategy.Conditions, result.Config.Strategy.Conditions)
	// Defaults filled during validation are echoed, not the zero values.
	assert.Equal(t, DefaultWarmupBars, result.Config.WarmupBars)
	assert.Equal(t, DefaultRSIPeriod, result.Config.RSIPeriod)
	assert.Equal(t, DefaultFibLookback, result.Config.FibLookback)
	assert.Equal(t, ta.DefaultFibTolerance, result.Config.FibTolerance)
}
