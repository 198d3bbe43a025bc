package strata

import (
	"fmt"
	"math/rand"

	eaopt "github.com/tantralabs/eaopt"
	"github.com/tantralabs/logger"
	"github.com/tantralabs/strata/models"
)

// OptimizeStrategy searches the named numeric strategy parameters for the
// vector that maximizes the backtest Sharpe ratio over the given bars. The
// search uses an OpenAI evolution strategy with a fixed RNG seed, so a
// repeated run over the same inputs walks the same trajectory. Parameter
// vectors whose backtest fails score as heavily negative rather than
// aborting the search.
func OptimizeStrategy(config models.BacktestConfig, bars []*models.Bar, paramNames []string, initial []float64) ([]float64, float64, error) {
	if len(paramNames) == 0 || len(paramNames) != len(initial) {
		return nil, 0, fmt.Errorf("need one initial value per parameter name, got %d names and %d values", len(paramNames), len(initial))
	}

	evaluate := func(vector []float64) float64 {
		runConfig := config
		runConfig.Strategy.Parameters = overrideParams(config.Strategy.Parameters, paramNames, vector)
		engine, err := NewTradingEngine(runConfig)
		if err != nil {
			return 1e9
		}
		result, err := engine.RunTest(bars)
		if err != nil {
			return 1e9
		}
		// Minimizer, so flip the sign.
		return -result.SharpeRatio
	}

	oes, err := eaopt.NewOES(50, 30, 0.5, 0.05, false, nil)
	if err != nil {
		return nil, 0, err
	}
	// Fix random number generation
	oes.GA.RNG = rand.New(rand.NewSource(42))

	best, score, err := oes.Minimize(evaluate, initial)
	if err != nil {
		return nil, 0, err
	}
	logger.Infof("Optimization finished with best Sharpe %.5f at %v\n", -score, best)
	return best, -score, nil
}

// overrideParams replaces or appends the named parameters in a copy of the
// existing parameter list; the input strategy is never modified.
func overrideParams(existing []models.Parameter, names []string, values []float64) []models.Parameter {
	out := make([]models.Parameter, len(existing))
	copy(out, existing)
	for i, name := range names {
		replaced := false
		for j := range out {
			if out[j].Name == name {
				out[j].Value = values[i]
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, models.Parameter{Name: name, Value: values[i]})
		}
	}
	return out
}
