package models

// Represents concise Open, High, Low, Close, and Volume data in a single struct.
type OHLCV struct {
	Timestamp []int64
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
}

// GetOHLCV breaks a bar slice into its OHLCV series.
func GetOHLCV(bars []*Bar) (ohlcv OHLCV) {
	numBars := len(bars)
	ohlcv = OHLCV{
		Timestamp: make([]int64, numBars),
		Open:      make([]float64, numBars),
		High:      make([]float64, numBars),
		Low:       make([]float64, numBars),
		Close:     make([]float64, numBars),
		Volume:    make([]float64, numBars),
	}
	for i, bar := range bars {
		ohlcv.Timestamp[i] = bar.Timestamp
		ohlcv.Open[i] = bar.Open
		ohlcv.High[i] = bar.High
		ohlcv.Low[i] = bar.Low
		ohlcv.Close[i] = bar.Close
		ohlcv.Volume[i] = bar.Volume
	}
	return
}
