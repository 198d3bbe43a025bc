package models

// Signal is the per-bar directive produced by a strategy.
type Signal int

const (
	SignalBuy  Signal = 1
	SignalSell Signal = -1
	SignalHold Signal = 0
)

// Strategy types.
const (
	StrategyPredefined = "predefined"
	StrategyCombined   = "combined"
	StrategyCustom     = "custom"
)

// Condition operators.
const (
	OperatorGreater    = "greater"
	OperatorLess       = "less"
	OperatorEqual      = "equal"
	OperatorCrossAbove = "cross-above"
	OperatorCrossBelow = "cross-below"
)

// Condition actions.
const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Indicator keys understood by the condition evaluator.
const (
	IndicatorRSI       = "rsi"
	IndicatorMACD      = "macd"
	IndicatorBollinger = "bollinger"
	IndicatorPrice     = "price"
	IndicatorVolume    = "volume"
)

// Condition is a single ordered rule. The first condition whose predicate
// holds at a bar decides the signal.
type Condition struct {
	Indicator string  `json:"indicator"`
	Operator  string  `json:"operator"`
	Value     float64 `json:"value"`
	Action    string  `json:"action"`
}

// Parameter is a named numeric strategy parameter, exposed to custom
// strategy scripts as params[name].
type Parameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Strategy describes how a signal is produced for each bar. Predefined and
// combined strategies evaluate Conditions in order; custom strategies run
// Code inside the script sandbox.
type Strategy struct {
	Type       string      `json:"type"`
	Conditions []Condition `json:"conditions,omitempty"`
	Code       string      `json:"code,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// ParamMap flattens Parameters into a name to value map. Later duplicates win.
func (s Strategy) ParamMap() map[string]float64 {
	params := make(map[string]float64, len(s.Parameters))
	for _, p := range s.Parameters {
		params[p.Name] = p.Value
	}
	return params
}
