package strata

import (
	"math"
	"sort"

	"github.com/chobie/go-gaussian"
	"github.com/tantralabs/strata/models"
	"gonum.org/v1/gonum/stat"
)

// CalculateCorrelations computes the pairwise Pearson correlation of each
// comparison asset's close series against the base asset, with an
// approximate significance test. Every comparison series must already be
// aligned to the base series; unequal lengths fail with a
// MisalignedSeriesError. Results are sorted by descending absolute
// correlation.
func CalculateCorrelations(base []*models.Bar, assets map[string][]*models.Bar) ([]models.CorrelationResult, error) {
	if err := models.ValidateBars(base); err != nil {
		return nil, err
	}
	baseClose := closes(base)

	results := make([]models.CorrelationResult, 0, len(assets))
	for asset, bars := range assets {
		if len(bars) != len(base) {
			return nil, &MisalignedSeriesError{Asset: asset, BaseLength: len(base), Length: len(bars)}
		}
		r := pearson(baseClose, closes(bars))
		p := approximatePValue(r, len(base))
		results = append(results, models.CorrelationResult{
			Asset:        asset,
			Correlation:  r,
			PValue:       p,
			Significance: significanceBucket(r, p),
		})
	}
	sort.Slice(results, func(i, j int) bool {
		return math.Abs(results[i].Correlation) > math.Abs(results[j].Correlation)
	})
	return results, nil
}

// pearson wraps gonum's correlation with an explicit fallback: a
// zero-variance series has no defined correlation and reports 0.
func pearson(x, y []float64) float64 {
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	if r > 1 {
		return 1
	}
	if r < -1 {
		return -1
	}
	return r
}

// approximatePValue derives a two-sided p-value from the t-statistic
// t = r*sqrt((n-2)/(1-r^2)) using the standard normal CDF in place of the
// Student's-t CDF. This is a coarse approximation kept for behavioral
// parity with the significance buckets below; it is not a rigorous test and
// callers must not treat it as exact.
func approximatePValue(r float64, n int) float64 {
	if n <= 2 {
		return 1
	}
	r2 := r * r
	if r2 >= 1 {
		return 0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r2))
	norm := gaussian.NewGaussian(0, 1)
	p := 2 * (1 - norm.Cdf(math.Abs(t)))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

func significanceBucket(r, p float64) string {
	abs := math.Abs(r)
	switch {
	case abs > 0.7 && p < 0.05:
		return models.SignificanceHigh
	case abs > 0.5 && p < 0.1:
		return models.SignificanceMedium
	default:
		return models.SignificanceLow
	}
}

func closes(bars []*models.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = bar.Close
	}
	return out
}
