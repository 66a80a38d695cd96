package models

import "time"

type Direction string

const (
	DirectionLong Direction = "long"
)

// Position is an open holding owned exclusively by one instrument's
// simulation. StopLoss and TakeProfit are absolute prices, resolved at entry.
type Position struct {
	Ticker     string
	EntryDate  time.Time
	EntryPrice float64
	Size       float64
	Direction  Direction
	StopLoss   *float64
	TakeProfit *float64
	EntryBar   int
}

func NewPosition(ticker string, entryDate time.Time, entryPrice float64, size float64, entryBar int) *Position {
	return &Position{
		Ticker:     ticker,
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		Size:       size,
		Direction:  DirectionLong,
		EntryBar:   entryBar,
	}
}

// Notional is the position's value at entry.
func (p *Position) Notional() float64 {
	return p.EntryPrice * p.Size
}
