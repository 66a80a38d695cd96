package indicators

import (
	"math"

	"github.com/montanaflynn/stats"
)

// SMA is the simple moving average of the trailing period. Returns 0 until
// the window holds at least period values.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}

	mean, err := stats.Mean(stats.Float64Data(values[len(values)-period:]))
	if err != nil {
		return 0
	}

	return mean
}

// EMA is the exponential moving average over the full window, seeded with the
// SMA of the first period values.
func EMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}

	ema := SMA(values[:period], period)
	multiplier := 2.0 / (float64(period) + 1.0)

	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
	}

	return ema
}

// StdDev is the population standard deviation of the trailing period.
func StdDev(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}

	sd, err := stats.StandardDeviation(stats.Float64Data(values[len(values)-period:]))
	if err != nil {
		return 0
	}

	return sd
}

func Mean(values []float64) float64 {
	mean, err := stats.Mean(stats.Float64Data(values))
	if err != nil {
		return 0
	}

	return mean
}

func Highest(values []float64, period int) float64 {
	if period <= 0 || len(values) == 0 {
		return 0
	}

	if period > len(values) {
		period = len(values)
	}

	highest := math.Inf(-1)
	for _, v := range values[len(values)-period:] {
		if v > highest {
			highest = v
		}
	}

	return highest
}

func Lowest(values []float64, period int) float64 {
	if period <= 0 || len(values) == 0 {
		return 0
	}

	if period > len(values) {
		period = len(values)
	}

	lowest := math.Inf(1)
	for _, v := range values[len(values)-period:] {
		if v < lowest {
			lowest = v
		}
	}

	return lowest
}

// ZScore is the distance of the latest value from the trailing-period mean,
// in standard deviations. Returns 0 when the deviation is 0.
func ZScore(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}

	window := values[len(values)-period:]
	mean := Mean(window)
	sd := StdDev(window, period)
	if sd == 0 {
		return 0
	}

	return (values[len(values)-1] - mean) / sd
}
