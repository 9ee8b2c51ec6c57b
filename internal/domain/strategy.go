package domain

// IndicatorType identifies a supported technical indicator.
type IndicatorType string

// Supported indicator types.
const (
	IndicatorEMA  IndicatorType = "EMA"
	IndicatorRSI  IndicatorType = "RSI"
	IndicatorMACD IndicatorType = "MACD"
)

// Operator is a threshold comparison operator. Operators originate from
// untrusted callers and are only ever matched against this closed set,
// never interpreted as code.
type Operator string

// Supported comparison operators.
const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "=="
)

// LogicOperator combines the conditions within a single logic block.
type LogicOperator string

// Supported block combinators.
const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// IndicatorConfig selects an indicator and its lookback period.
// Period is ignored for MACD, which always runs with the fixed
// 12/26/9 parameterization.
type IndicatorConfig struct {
	Type   IndicatorType `json:"type"`
	Period int           `json:"period"`
}

// Condition is a single threshold condition over an indicator series.
type Condition struct {
	Indicator IndicatorConfig `json:"indicator"`
	Operator  Operator        `json:"operator"`
	Value     float64         `json:"value"`
}

// LogicBlock groups conditions combined by a single logic operator.
// Blocks themselves are always combined by AND to form the final signal;
// LogicOp applies only within the block.
type LogicBlock struct {
	Conditions []Condition   `json:"conditions"`
	LogicOp    LogicOperator `json:"logic_operator"`
}

// BlockResult reports the scalar-mode outcome of one logic block.
type BlockResult struct {
	LogicBlock int  `json:"logic_block"`
	Result     bool `json:"result"`
}
