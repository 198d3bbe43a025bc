package strata

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/fatih/structs"
	"github.com/gocarina/gocsv"
	client "github.com/influxdata/influxdb1-client/v2"
	"github.com/tantralabs/logger"
	"github.com/tantralabs/strata/models"
	"gonum.org/v1/gonum/stat"
)

// winRate is the percentage of closed trades with positive profit. No
// trades means 0, not a division by zero.
func winRate(trades []models.Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	winners := 0
	for _, trade := range trades {
		if trade.Profit > 0 {
			winners++
		}
	}
	return float64(winners) / float64(len(trades)) * 100
}

// sharpeRatio is the mean per-step equity return over its population
// standard deviation. A flat curve has no deviation and scores 0.
func sharpeRatio(equity []float64) float64 {
	returns := stepReturns(equity)
	if len(returns) == 0 {
		return 0
	}
	mean := stat.Mean(returns, nil)
	std := popStdDev(returns, mean)
	if std == 0 {
		return 0
	}
	sharpe := mean / std
	if math.IsNaN(sharpe) {
		return 0
	}
	return sharpe
}

// stepReturns computes r[i] = (equity[i] - equity[i-1]) / equity[i-1] over
// the whole curve. A zero previous value contributes a zero return rather
// than propagating NaN into the summary.
func stepReturns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		if equity[i-1] == 0 {
			returns[i-1] = 0
			continue
		}
		returns[i-1] = (equity[i] - equity[i-1]) / equity[i-1]
	}
	return returns
}

// popStdDev is the population standard deviation. gonum's stat.StdDev is
// sample-based (n-1), the summary statistics here are defined over the full
// population of observed returns.
func popStdDev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

// WriteHistory exports per-bar state snapshots to a csv file, replacing any
// previous export.
func WriteHistory(history []models.History, fileName string) error {
	os.Remove(fileName)
	file, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, os.ModePerm)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&history, file)
}

// WriteTrades exports the closed trade log to a csv file.
func WriteTrades(trades []models.Trade, fileName string) error {
	os.Remove(fileName)
	file, err := os.OpenFile(fileName, os.O_RDWR|os.O_CREATE, os.ModePerm)
	if err != nil {
		return err
	}
	defer file.Close()
	return gocsv.MarshalFile(&trades, file)
}

type resultSummary struct {
	RunID            string
	InitialBalance   float64
	FinalBalance     float64
	Profit           float64
	ProfitPercentage float64
	TotalTrades      int
	WinRate          float64
	MaxDrawdown      float64
	SharpeRatio      float64
}

// PrintResult logs the scalar portion of a backtest result as key/value
// pairs.
func PrintResult(result *models.Result) {
	summary := resultSummary{
		RunID:            result.RunID,
		InitialBalance:   result.InitialBalance,
		FinalBalance:     ToFixed(result.FinalBalance, 4),
		Profit:           ToFixed(result.Profit, 4),
		ProfitPercentage: ToFixed(result.ProfitPercentage, 4),
		TotalTrades:      result.TotalTrades,
		WinRate:          ToFixed(result.WinRate, 2),
		MaxDrawdown:      ToFixed(result.MaxDrawdown, 4),
		SharpeRatio:      ToFixed(result.SharpeRatio, 3),
	}
	fmt.Printf("Backtest Result\n%s", CreateKeyValuePairs(structs.Map(summary)))
}

// logCloudResult pushes the equity curve and summary to an influx database
// when the STRATA_BACKTEST_DB_URL environment variable is set.
func logCloudResult(result *models.Result) {
	influxURL := os.Getenv("STRATA_BACKTEST_DB_URL")
	if influxURL == "" {
		logger.Errorf("You need to set the `STRATA_BACKTEST_DB_URL` env variable to log cloud stats\n")
		return
	}
	influx, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     influxURL,
		Username: os.Getenv("STRATA_BACKTEST_DB_USER"),
		Password: os.Getenv("STRATA_BACKTEST_DB_PASSWORD"),
		Timeout:  time.Millisecond * 1000 * 10,
	})
	if err != nil {
		logger.Errorf("Failed to create influx client: %v\n", err)
		return
	}
	defer influx.Close()

	bp, _ := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  "backtests",
		Precision: "us",
	})
	tags := map[string]string{"run_id": result.RunID}
	for _, row := range result.History {
		pt, err := client.NewPoint(
			"equity",
			tags,
			map[string]interface{}{"equity": row.Equity, "price": row.Price, "quantity": row.Quantity},
			time.Unix(0, row.Timestamp*int64(time.Millisecond)),
		)
		if err != nil {
			continue
		}
		bp.AddPoint(pt)
	}
	pt, err := client.NewPoint(
		"results",
		tags,
		map[string]interface{}{
			"final_balance": result.FinalBalance,
			"profit_pct":    result.ProfitPercentage,
			"sharpe":        result.SharpeRatio,
			"max_drawdown":  result.MaxDrawdown,
			"trades":        result.TotalTrades,
		},
		time.Now(),
	)
	if err == nil {
		bp.AddPoint(pt)
	}
	if err := influx.Write(bp); err != nil {
		logger.Errorf("Failed to write backtest result to influx: %v\n", err)
	}
}
