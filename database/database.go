// Package database handles candle storage connections and data gathering.
package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/tantralabs/strata/models"
)

// ConnConfig describes a postgres candle store connection.
type ConnConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

func (c ConnConfig) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// GetCandlesByTime fetches candles for a symbol/exchange/interval between
// two timestamps, sorted ascending.
func GetCandlesByTime(cfg ConnConfig, symbol, exchange, interval string, start, end time.Time) ([]*models.Bar, error) {
	db, err := sqlx.Connect("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to candle store: %v", err)
	}
	defer db.Close()

	bars := []*models.Bar{}
	query := `select timestamp, open, high, low, close, volume from candles
		where symbol = $1 and exchange = $2 and interval = $3 and timestamp >= $4 and timestamp <= $5`
	startMs := start.UnixNano() / int64(time.Millisecond)
	endMs := end.UnixNano() / int64(time.Millisecond)
	if err := db.Select(&bars, query, symbol, exchange, interval, startMs, endMs); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no %s %s candles for %s between %v and %v; check the start and end dates",
			exchange, interval, symbol, start, end)
	}
	models.SortBars(bars)
	return bars, nil
}

// GetCandles fetches the most recent numBars candles for a
// symbol/exchange/interval, sorted ascending.
func GetCandles(cfg ConnConfig, symbol, exchange, interval string, numBars int) ([]*models.Bar, error) {
	db, err := sqlx.Connect("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to candle store: %v", err)
	}
	defer db.Close()

	bars := []*models.Bar{}
	query := `select timestamp, open, high, low, close, volume from candles
		where symbol = $1 and exchange = $2 and interval = $3 order by timestamp desc limit $4`
	if err := db.Select(&bars, query, symbol, exchange, interval, numBars); err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no %s %s candles for %s in the candle store", exchange, interval, symbol)
	}
	models.SortBars(bars)
	return bars, nil
}
