package models

import "time"

// EquityPoint is one point on the portfolio equity curve. Points are keyed by
// distinct trade-exit dates and strictly increasing in date.
type EquityPoint struct {
	Date        time.Time `json:"date"`
	Equity      float64   `json:"equity"`
	DailyReturn *float64  `json:"daily_return,omitempty"`
}
