package models

// History is one per-bar snapshot of the simulated portfolio, used to store
// historical states during a test and for csv export.
type History struct {
	Timestamp int64   `csv:"timestamp"`
	Price     float64 `csv:"price"`
	Quantity  float64 `csv:"quantity"`
	Cash      float64 `csv:"cash"`
	Equity    float64 `csv:"equity"`
}
