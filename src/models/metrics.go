package models

// BacktestMetrics is the portfolio-level snapshot derived once per run from
// the full trade set and the date-sequential equity curve.
type BacktestMetrics struct {
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	InitialCapital     float64 `json:"initial_capital"`
	FinalEquity        float64 `json:"final_equity"`
	TotalReturn        float64 `json:"total_return"`
	TotalReturnPercent float64 `json:"total_return_percent"`
	Cagr               float64 `json:"cagr"`
	Volatility         float64 `json:"volatility"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	SortinoRatio       float64 `json:"sortino_ratio"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	MaxDrawdownPercent float64 `json:"max_drawdown_percent"`
	TotalTrades        int     `json:"total_trades"`
	WinningTrades      int     `json:"winning_trades"`
	LosingTrades       int     `json:"losing_trades"`
	WinRate            float64 `json:"win_rate"`
	ProfitFactor       float64 `json:"profit_factor"`
	AvgTradePnl        float64 `json:"avg_trade_pnl"`
	AvgWin             float64 `json:"avg_win"`
	AvgLoss            float64 `json:"avg_loss"`
	AvgBarsHeld        float64 `json:"avg_bars_held"`
	BestTrade          float64 `json:"best_trade"`
	WorstTrade         float64 `json:"worst_trade"`
	ConsecutiveWins    int     `json:"consecutive_wins"`
	ConsecutiveLosses  int     `json:"consecutive_losses"`
}
