package models

// TickerPerformanceSampleSize bounds the per-instrument recent-trade sample.
const TickerPerformanceSampleSize = 10

// TickerPerformance aggregates a single instrument's trade list. MaxDrawdown
// is trade-sequential: trades are replayed in closing order against a running
// equity starting at the configured capital, which will diverge from the
// portfolio's date-sequential drawdown.
type TickerPerformance struct {
	Ticker          string  `json:"ticker"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`
	WinRate         float64 `json:"win_rate"`
	TotalPnl        float64 `json:"total_pnl"`
	TotalPnlPercent float64 `json:"total_pnl_percent"`
	AvgPnlPerTrade  float64 `json:"avg_pnl_per_trade"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	ProfitFactor    float64 `json:"profit_factor"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	Trades          Trades  `json:"trades"`
}

// NewTickerPerformance derives the per-instrument summary from a trade list
// in closing order.
func NewTickerPerformance(ticker string, trades Trades, initialCapital float64) *TickerPerformance {
	wins := trades.Wins()
	losses := trades.Losses()

	totalTrades := len(trades)
	winRate := 0.0
	avgPnl := 0.0
	if totalTrades > 0 {
		winRate = float64(len(wins)) / float64(totalTrades)
		avgPnl = trades.TotalPnl() / float64(totalTrades)
	}

	avgWin := 0.0
	if len(wins) > 0 {
		avgWin = wins.TotalPnl() / float64(len(wins))
	}

	avgLoss := 0.0
	if len(losses) > 0 {
		avgLoss = losses.TotalPnl() / float64(len(losses))
	}

	grossProfit := wins.TotalPnl()
	grossLoss := -losses.TotalPnl()
	profitFactor := 0.0
	if grossLoss > 0 {
		profitFactor = grossProfit / grossLoss
	}

	totalPnlPercent := 0.0
	for _, t := range trades {
		totalPnlPercent += t.PnlPercent
	}

	equity := initialCapital
	peak := equity
	maxDd := 0.0
	for _, t := range trades {
		equity += t.Pnl
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (peak - equity) / peak
			if dd > maxDd {
				maxDd = dd
			}
		}
	}

	return &TickerPerformance{
		Ticker:          ticker,
		TotalTrades:     totalTrades,
		WinningTrades:   len(wins),
		LosingTrades:    len(losses),
		WinRate:         winRate,
		TotalPnl:        trades.TotalPnl(),
		TotalPnlPercent: totalPnlPercent,
		AvgPnlPerTrade:  avgPnl,
		AvgWin:          avgWin,
		AvgLoss:         avgLoss,
		ProfitFactor:    profitFactor,
		MaxDrawdown:     maxDd,
		Trades:          trades.Sample(TickerPerformanceSampleSize),
	}
}
