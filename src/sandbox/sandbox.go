package sandbox

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/jiaming2012/backtest-engine/src/models"
)

const DefaultTimeout = 5 * time.Second

const maxCallStackSize = 2048

// Sandbox validates and executes untrusted strategy code. It is a
// process-scoped service object: construct one per run orchestrator and pass
// it by reference, there is no ambient singleton.
//
// Each Execute call runs in a fresh runtime with no host bindings beyond the
// injected indicator helpers, under a hard wall-clock timeout enforced by
// interrupting the interpreter.
type Sandbox struct {
	timeout time.Duration

	mtx      sync.Mutex
	programs map[string]*goja.Program
}

func NewSandbox(timeout time.Duration) *Sandbox {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Sandbox{
		timeout:  timeout,
		programs: make(map[string]*goja.Program),
	}
}

// Validate statically checks strategy code without executing it. A failure
// here is fatal for the whole run.
func (s *Sandbox) Validate(code string) error {
	return validateStrategyCode(code)
}

// compile validates and compiles code, caching the result so the per-bar
// Execute path re-validates at cache-lookup cost.
func (s *Sandbox) compile(code string) (*goja.Program, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if program, found := s.programs[code]; found {
		return program, nil
	}

	if err := validateStrategyCode(code); err != nil {
		return nil, err
	}

	program, err := goja.Compile("strategy.js", code, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", StrategyValidationErr, err)
	}

	s.programs[code] = program
	return program, nil
}

// Execute runs the strategy against the bar window [0..i] and the persistent
// state map. It returns the parsed signal and the state contents to carry
// into the next call: the strategy mutates a copy, and the mutated contents
// replace the prior state.
func (s *Sandbox) Execute(code string, window models.CandleSeries, state map[string]interface{}) (models.Signal, map[string]interface{}, error) {
	program, err := s.compile(code)
	if err != nil {
		return models.Signal{}, state, err
	}

	nextState := copyState(state)

	vm := goja.New()
	vm.SetMaxCallStackSize(maxCallStackSize)

	if err := registerBuiltins(vm); err != nil {
		return models.Signal{}, state, fmt.Errorf("%w: %v", StrategyExecutionErr, err)
	}

	timer := time.AfterFunc(s.timeout, func() {
		vm.Interrupt("strategy timeout")
	})
	defer timer.Stop()

	if _, err := vm.RunProgram(program); err != nil {
		return models.Signal{}, state, execError(err)
	}

	fn, ok := goja.AssertFunction(vm.Get("strategy"))
	if !ok {
		return models.Signal{}, state, fmt.Errorf("%w: no 'strategy' function found in code", StrategyExecutionErr)
	}

	dataVal := vm.ToValue(newDataWindow(window))
	stateVal := vm.ToValue(nextState)

	result, err := fn(goja.Undefined(), dataVal, stateVal)
	if err != nil {
		return models.Signal{}, state, execError(err)
	}

	signal, err := parseSignal(result.Export())
	if err != nil {
		return models.Signal{}, state, err
	}

	return signal, nextState, nil
}

func execError(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return fmt.Errorf("%w after %v", StrategyTimeoutErr, interrupted.Value())
	}

	return fmt.Errorf("%w: %v", StrategyExecutionErr, err)
}

func copyState(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}

	return out
}

// newDataWindow builds the read-only view handed to the strategy: column
// arrays plus parallel date keys. The slices are fresh copies so strategy
// code cannot reach the engine's series.
func newDataWindow(window models.CandleSeries) map[string]interface{} {
	return map[string]interface{}{
		"open":   window.Opens(),
		"high":   window.Highs(),
		"low":    window.Lows(),
		"close":  window.Closes(),
		"volume": window.Volumes(),
		"dates":  window.DateKeys(),
		"length": len(window),
	}
}

// parseSignal checks the strategy's return value: it must be an object with
// a "signal" key holding one of the valid tags (null normalizes to none);
// optional numeric fields are coerced to float64 or rejected.
func parseSignal(exported interface{}) (models.Signal, error) {
	m, ok := exported.(map[string]interface{})
	if !ok {
		return models.Signal{}, fmt.Errorf("%w: strategy must return an object, got %T", StrategyExecutionErr, exported)
	}

	raw, found := m["signal"]
	if !found {
		return models.Signal{}, fmt.Errorf("%w: strategy result must contain a 'signal' key", StrategyExecutionErr)
	}

	tag := ""
	switch v := raw.(type) {
	case nil:
		tag = "none"
	case string:
		tag = v
	default:
		return models.Signal{}, fmt.Errorf("%w: signal must be a string, got %T", StrategyExecutionErr, raw)
	}

	signalType, err := models.NewSignalType(tag)
	if err != nil {
		return models.Signal{}, fmt.Errorf("%w: %v", StrategyExecutionErr, err)
	}

	signal := models.Signal{Type: signalType}

	if signal.Size, err = numericField(m, "size"); err != nil {
		return models.Signal{}, err
	}

	if signal.StopLoss, err = numericField(m, "stop_loss"); err != nil {
		return models.Signal{}, err
	}

	if signal.TakeProfit, err = numericField(m, "take_profit"); err != nil {
		return models.Signal{}, err
	}

	return signal, nil
}

func numericField(m map[string]interface{}, key string) (*float64, error) {
	raw, found := m[key]
	if !found || raw == nil {
		return nil, nil
	}

	switch v := raw.(type) {
	case float64:
		return &v, nil
	case int64:
		f := float64(v)
		return &f, nil
	default:
		return nil, fmt.Errorf("%w: %s must be numeric, got %T", StrategyExecutionErr, key, raw)
	}
}
