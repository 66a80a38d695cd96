package models

import (
	"fmt"
	"time"
)

type ExitReason string

const (
	ExitReasonSignal        ExitReason = "signal"
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit    ExitReason = "take_profit"
	ExitReasonEndOfBacktest ExitReason = "end_of_backtest"
)

// Trade is the immutable record of a closed position. It is produced only by
// closing a Position and never mutated afterwards.
type Trade struct {
	Ticker     string     `json:"ticker"`
	EntryDate  time.Time  `json:"entry_date"`
	EntryPrice float64    `json:"entry_price"`
	ExitDate   time.Time  `json:"exit_date"`
	ExitPrice  float64    `json:"exit_price"`
	Size       float64    `json:"size"`
	Direction  Direction  `json:"direction"`
	Pnl        float64    `json:"pnl"`
	PnlPercent float64    `json:"pnl_percent"`
	ExitReason ExitReason `json:"exit_reason"`
	BarsHeld   int        `json:"bars_held"`
}

func (t *Trade) String() string {
	return fmt.Sprintf("%s %s->%s @%.2f->%.2f pnl=%.2f (%s)",
		t.Ticker,
		t.EntryDate.Format(DateLayout),
		t.ExitDate.Format(DateLayout),
		t.EntryPrice,
		t.ExitPrice,
		t.Pnl,
		t.ExitReason,
	)
}

type Trades []*Trade

func (trades Trades) TotalPnl() float64 {
	total := 0.0
	for _, t := range trades {
		total += t.Pnl
	}

	return total
}

// Wins returns the trades with strictly positive P&L.
func (trades Trades) Wins() Trades {
	var out Trades
	for _, t := range trades {
		if t.Pnl > 0 {
			out = append(out, t)
		}
	}

	return out
}

// Losses returns the trades with zero or negative P&L.
func (trades Trades) Losses() Trades {
	var out Trades
	for _, t := range trades {
		if t.Pnl <= 0 {
			out = append(out, t)
		}
	}

	return out
}

// Sample returns the n most recent trades, most-recent-last.
func (trades Trades) Sample(n int) Trades {
	if len(trades) <= n {
		return trades
	}

	return trades[len(trades)-n:]
}
