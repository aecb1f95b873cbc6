package interpreter

import (
	"fmt"

	"calagent/internal/llm"
	"calagent/internal/logging"
)

// Interpreter strategies selectable through configuration.
const (
	StrategyRule  = "rule"
	StrategyModel = "model"
)

// New returns the interpreter for the given strategy. The model strategy
// needs a completion client; the rule strategy ignores it.
func New(strategy string, client llm.Client, logger logging.Logger) (Interpreter, error) {
	switch strategy {
	case StrategyRule, "":
		return NewRuleInterpreter(logger), nil
	case StrategyModel:
		if client == nil {
			return nil, fmt.Errorf("model strategy requires a completion client")
		}
		return NewModelInterpreter(client, logger), nil
	default:
		return nil, fmt.Errorf("unknown interpreter strategy %q", strategy)
	}
}
