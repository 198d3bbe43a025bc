package strata

import (
	"context"
	"math"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/tantralabs/logger"
	"github.com/tantralabs/strata/models"
)

// DefaultScriptTimeout bounds a single custom strategy invocation.
const DefaultScriptTimeout = 100 * time.Millisecond

// Sandbox produces a per-bar signal for any strategy shape. Predefined and
// combined strategies delegate to the condition evaluator. Custom strategies
// run their code in a restricted tengo VM: no module imports, no file
// access, inputs limited to the series bundle and the strategy parameters,
// and a hard per-call timeout. A script failure of any kind degrades to
// hold and is logged, it never reaches the simulator.
type Sandbox struct {
	strategy models.Strategy
	bundle   *SeriesBundle
	timeout  time.Duration
	compiled *tengo.Compiled
	lastErr  *StrategyExecutionError
}

// NewSandbox prepares a sandbox for one backtest run. Custom code is
// compiled once here; a compile failure leaves the sandbox in a permanent
// hold state rather than failing the run.
func NewSandbox(strategy models.Strategy, bundle *SeriesBundle, timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	s := &Sandbox{strategy: strategy, bundle: bundle, timeout: timeout}
	if strategy.Type == models.StrategyCustom && strategy.Code != "" {
		s.compile()
	}
	return s
}

// Signal computes the signal for one bar index.
func (s *Sandbox) Signal(index int) models.Signal {
	switch s.strategy.Type {
	case models.StrategyPredefined, models.StrategyCombined:
		return EvaluateConditions(s.strategy.Conditions, index, s.bundle)
	case models.StrategyCustom:
		return s.runScript(index)
	}
	return models.SignalHold
}

// LastError reports the most recent custom strategy failure, if any.
func (s *Sandbox) LastError() error {
	if s.lastErr == nil {
		return nil
	}
	return s.lastErr
}

func (s *Sandbox) compile() {
	script := tengo.NewScript([]byte(s.strategy.Code))
	// No SetImports call: scripts get no stdlib modules and no host access.
	inputs := map[string]interface{}{
		"index":       0,
		"close":       floatsToObjects(s.bundle.Close),
		"volume":      floatsToObjects(s.bundle.Volume),
		"rsi":         floatsToObjects(s.bundle.RSI),
		"macd_line":   floatsToObjects(s.bundle.MACDLine),
		"signal_line": floatsToObjects(s.bundle.SignalLine),
		"upper_band":  floatsToObjects(s.bundle.Bollinger.Upper),
		"middle_band": floatsToObjects(s.bundle.Bollinger.Middle),
		"lower_band":  floatsToObjects(s.bundle.Bollinger.Lower),
		"fib_ratio":   floatsToObjects(s.bundle.Fib),
		"params":      paramsToObjects(s.strategy.ParamMap()),
	}
	for name, value := range inputs {
		if err := script.Add(name, value); err != nil {
			s.fail(err)
			return
		}
	}
	compiled, err := script.Compile()
	if err != nil {
		s.fail(err)
		return
	}
	s.compiled = compiled
}

func (s *Sandbox) runScript(index int) models.Signal {
	if s.compiled == nil {
		return models.SignalHold
	}
	if err := s.compiled.Set("index", index); err != nil {
		s.fail(err)
		return models.SignalHold
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.compiled.RunContext(ctx); err != nil {
		s.fail(err)
		return models.SignalHold
	}
	return coerceSignal(s.compiled.Get("signal").Value())
}

func (s *Sandbox) fail(err error) {
	s.lastErr = &StrategyExecutionError{Cause: err}
	logger.Errorf("Treating custom strategy signal as hold: %v\n", s.lastErr)
}

// coerceSignal maps a script return value onto {-1, 0, 1}. Anything that is
// not a finite number holds.
func coerceSignal(value interface{}) models.Signal {
	var n float64
	switch v := value.(type) {
	case int64:
		n = float64(v)
	case float64:
		n = v
	default:
		return models.SignalHold
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return models.SignalHold
	}
	if n > 0 {
		return models.SignalBuy
	}
	if n < 0 {
		return models.SignalSell
	}
	return models.SignalHold
}

func floatsToObjects(values []float64) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func paramsToObjects(params map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(params))
	for name, value := range params {
		out[name] = value
	}
	return out
}
