package models

// Position is the single open long slot. Quantity > 0 only while a position
// is open; a closed position always leaves Quantity == 0.
type Position struct {
	Quantity       float64 `json:"quantity"`
	EntryPrice     float64 `json:"entry_price"`
	EntryTimestamp int64   `json:"entry_timestamp"`
}

// Open reports whether the position slot currently holds a long position.
func (p Position) Open() bool {
	return p.Quantity > 0
}

// Trade is one closed long round trip. ExitTimestamp == 0 marks a stub for a
// position that is still open.
type Trade struct {
	EntryTimestamp   int64   `csv:"entry_timestamp" json:"entry_timestamp"`
	EntryPrice       float64 `csv:"entry_price" json:"entry_price"`
	ExitTimestamp    int64   `csv:"exit_timestamp" json:"exit_timestamp"`
	ExitPrice        float64 `csv:"exit_price" json:"exit_price"`
	Quantity         float64 `csv:"quantity" json:"quantity"`
	Profit           float64 `csv:"profit" json:"profit"`
	ProfitPercentage float64 `csv:"profit_percentage" json:"profit_percentage"`
}
