package models

import (
	"sort"
	"time"
)

const DateLayout = "2006-01-02"

type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

func (c Candle) DateKey() string {
	return c.Timestamp.Format(DateLayout)
}

// CandleSeries is an ordered, time-indexed OHLCV series for a single
// instrument. It is read-only once handed to the engine.
type CandleSeries []Candle

// Window returns the bars up to and including index i. The slice shares
// backing storage with the series; callers must not mutate it.
func (cs CandleSeries) Window(i int) CandleSeries {
	if i >= len(cs)-1 {
		return cs
	}

	return cs[:i+1]
}

func (cs CandleSeries) Opens() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Open
	}
	return out
}

func (cs CandleSeries) Highs() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.High
	}
	return out
}

func (cs CandleSeries) Lows() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Low
	}
	return out
}

func (cs CandleSeries) Closes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Close
	}
	return out
}

func (cs CandleSeries) Volumes() []float64 {
	out := make([]float64, len(cs))
	for i, c := range cs {
		out[i] = c.Volume
	}
	return out
}

func (cs CandleSeries) DateKeys() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.DateKey()
	}
	return out
}

// SortCandles removes duplicate timestamps and sorts the series
// chronologically.
func SortCandles(candles CandleSeries) CandleSeries {
	xValues := map[time.Time]Candle{}

	for _, candle := range candles {
		xValues[candle.Timestamp] = candle
	}

	out := make(CandleSeries, 0, len(xValues))
	for _, candle := range xValues {
		out = append(out, candle)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	return out
}
