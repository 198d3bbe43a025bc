package strata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tantralabs/strata/models"
)

func TestCalculateCorrelationsBuckets(t *testing.T) {
	base := makeBars([]float64{100, 102, 101, 105, 104, 108, 107, 111, 110, 114})
	assets := map[string][]*models.Bar{
		"mirror":   makeBars([]float64{50, 51, 50.5, 52.5, 52, 54, 53.5, 55.5, 55, 57}),
		"inverse":  makeBars([]float64{100, 98, 99, 95, 96, 92, 93, 89, 90, 86}),
		"unmoving": makeBars([]float64{42, 42, 42, 42, 42, 42, 42, 42, 42, 42}),
	}

	results, err := CalculateCorrelations(base, assets)
	require.NoError(t, err)
	require.Len(t, results, 3)

	byAsset := map[string]models.CorrelationResult{}
	for _, result := range results {
		byAsset[result.Asset] = result
	}

	// A scaled copy of the base correlates perfectly.
	mirror := byAsset["mirror"]
	assert.InDelta(t, 1.0, mirror.Correlation, 1e-9)
	assert.InDelta(t, 0.0, mirror.PValue, 1e-9)
	assert.Equal(t, models.SignificanceHigh, mirror.Significance)

	inverse := byAsset["inverse"]
	assert.InDelta(t, -1.0, inverse.Correlation, 1e-9)
	assert.Equal(t, models.SignificanceHigh, inverse.Significance)

	// Zero variance has no defined correlation and reports a null result.
	unmoving := byAsset["unmoving"]
	assert.Equal(t, 0.0, unmoving.Correlation)
	assert.Equal(t, 1.0, unmoving.PValue)
	assert.Equal(t, models.SignificanceLow, unmoving.Significance)

	// Sorted by descending absolute correlation: the flat series comes last.
	assert.Equal(t, "unmoving", results[2].Asset)
}

func TestCalculateCorrelationsMisaligned(t *testing.T) {
	base := makeBars([]float64{100, 101, 102, 103})
	assets := map[string][]*models.Bar{
		"short": makeBars([]float64{100, 101, 102}),
	}

	_, err := CalculateCorrelations(base, assets)
	var mse *MisalignedSeriesError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, "short", mse.Asset)
	assert.Equal(t, 4, mse.BaseLength)
	assert.Equal(t, 3, mse.Length)
}

func TestCalculateCorrelationsRejectsInvalidBase(t *testing.T) {
	_, err := CalculateCorrelations(nil, nil)
	assert.Error(t, err)
}

func TestApproximatePValue(t *testing.T) {
	// Too few observations for any inference.
	assert.Equal(t, 1.0, approximatePValue(0.9, 2))
	// Perfect correlation degenerates to certainty.
	assert.Equal(t, 0.0, approximatePValue(1.0, 10))
	// No correlation yields no evidence.
	assert.InDelta(t, 1.0, approximatePValue(0, 10), 1e-9)

	// Stronger correlation at the same n means a smaller p.
	assert.Less(t, approximatePValue(0.9, 20), approximatePValue(0.5, 20))
	// More observations at the same r mean a smaller p.
	assert.Less(t, approximatePValue(0.5, 100), approximatePValue(0.5, 10))
}
