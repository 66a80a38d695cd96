package models

import (
	"time"

	"github.com/google/uuid"
)

// SampleTradesSize bounds the portfolio-level recent-trade sample.
const SampleTradesSize = 20

// BacktestResult is the complete outcome of a run. Failures are reported as a
// structured result with Success=false rather than raised to the caller.
type BacktestResult struct {
	RunID             uuid.UUID            `json:"run_id"`
	Success           bool                 `json:"success"`
	Message           string               `json:"message,omitempty"`
	Config            *BacktestConfig      `json:"config,omitempty"`
	Metrics           *BacktestMetrics     `json:"metrics,omitempty"`
	EquityCurve       []EquityPoint        `json:"equity_curve,omitempty"`
	TickerPerformance []*TickerPerformance `json:"ticker_performance,omitempty"`
	TopPerformers     []*TickerPerformance `json:"top_performers,omitempty"`
	WorstPerformers   []*TickerPerformance `json:"worst_performers,omitempty"`
	SampleTrades      Trades               `json:"sample_trades,omitempty"`
	ExecutionTime     time.Duration        `json:"execution_time"`
}

func NewBacktestResultError(message string) *BacktestResult {
	return &BacktestResult{
		RunID:   uuid.New(),
		Success: false,
		Message: message,
	}
}

// StreamRecord is one element of the streaming result sequence. Records are
// delivered in completion order; the terminal record has Final=true and
// carries the aggregated result plus the complete per-instrument trade map.
type StreamRecord struct {
	Ticker      string             `json:"ticker,omitempty"`
	Success     bool               `json:"success"`
	Error       string             `json:"error,omitempty"`
	Performance *TickerPerformance `json:"performance,omitempty"`
	Trades      Trades             `json:"trades,omitempty"`
	Completed   int                `json:"completed"`
	Total       int                `json:"total"`
	Final       bool               `json:"final,omitempty"`
	AllTrades   map[string]Trades  `json:"-"`
	Result      *BacktestResult    `json:"result,omitempty"`
}
