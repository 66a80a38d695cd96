package sandbox

import (
	"github.com/dop251/goja"

	"github.com/jiaming2012/backtest-engine/src/indicators"
)

// registerBuiltins injects the indicator helpers that replace a vectorized
// math library inside the sandbox. The JS runtime itself contributes only
// arithmetic, comparisons, containers and Math; it has no IO or OS surface.
func registerBuiltins(vm *goja.Runtime) error {
	builtins := map[string]interface{}{
		"sma": func(values []float64, period int) float64 {
			return indicators.SMA(values, period)
		},
		"ema": func(values []float64, period int) float64 {
			return indicators.EMA(values, period)
		},
		"stdev": func(values []float64, period int) float64 {
			return indicators.StdDev(values, period)
		},
		"mean": func(values []float64) float64 {
			return indicators.Mean(values)
		},
		"highest": func(values []float64, period int) float64 {
			return indicators.Highest(values, period)
		},
		"lowest": func(values []float64, period int) float64 {
			return indicators.Lowest(values, period)
		},
		"rsi": func(values []float64, period int) float64 {
			return indicators.RSI(values, period)
		},
		"zscore": func(values []float64, period int) float64 {
			return indicators.ZScore(values, period)
		},
		"bollinger": func(values []float64, period int, standardDeviation float64) map[string]interface{} {
			ok, bands := indicators.Bollinger(values, period, standardDeviation)
			if !ok {
				return nil
			}

			return map[string]interface{}{
				"upper":  bands.Upper,
				"lower":  bands.Lower,
				"middle": bands.MovingAverage,
			}
		},
	}

	for name, fn := range builtins {
		if err := vm.Set(name, fn); err != nil {
			return err
		}
	}

	return nil
}
