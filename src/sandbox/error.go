package sandbox

import "fmt"

var StrategyValidationErr = fmt.Errorf("strategy code failed validation")
var StrategyExecutionErr = fmt.Errorf("strategy execution failed")
var StrategyTimeoutErr = fmt.Errorf("strategy execution timed out")
