package models

// Significance buckets for a correlation result.
const (
	SignificanceHigh   = "high"
	SignificanceMedium = "medium"
	SignificanceLow    = "low"
)

// CorrelationResult is the pairwise correlation of one comparison asset
// against the base asset.
type CorrelationResult struct {
	Asset        string  `json:"asset"`
	Correlation  float64 `json:"correlation"`
	PValue       float64 `json:"p_value"`
	Significance string  `json:"significance"`
}
