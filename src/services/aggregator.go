package services

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/backtest-engine/src/models"
)

const topPerformersSize = 10

const tradingDaysPerYear = 252

// Aggregator derives the portfolio-level equity curve and risk statistics
// from the raw per-instrument trade lists. The equity curve is
// date-sequential (keyed by distinct trade-exit dates), so its max drawdown
// will diverge from the trade-sequential per-instrument figure.
type Aggregator struct {
	cfg *models.BacktestConfig
}

func NewAggregator(cfg *models.BacktestConfig) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate builds the final result from the batch of per-instrument
// summaries and the complete trade-list map. An empty instrument-result set
// is a hard failure.
func (a *Aggregator) Aggregate(performances []*models.TickerPerformance, tradesByTicker map[string]models.Trades) (*models.BacktestResult, error) {
	if len(performances) == 0 {
		return nil, models.NoResultsErr
	}

	var allTrades models.Trades
	for _, trades := range tradesByTicker {
		allTrades = append(allTrades, trades...)
	}

	sort.SliceStable(allTrades, func(i, j int) bool {
		return allTrades[i].EntryDate.Before(allTrades[j].EntryDate)
	})

	equityCurve, finalEquity := a.buildEquityCurve(allTrades)
	returns := dailyReturns(equityCurve)

	metrics := a.buildMetrics(allTrades, equityCurve, returns, finalEquity)

	sort.SliceStable(performances, func(i, j int) bool {
		return performances[i].TotalPnl > performances[j].TotalPnl
	})

	top := performances
	if len(top) > topPerformersSize {
		top = top[:topPerformersSize]
	}

	// worst list is reversed so the single worst instrument comes first
	worstCount := topPerformersSize
	if len(performances) < worstCount {
		worstCount = len(performances)
	}
	worst := make([]*models.TickerPerformance, 0, worstCount)
	for i := len(performances) - 1; i >= len(performances)-worstCount; i-- {
		worst = append(worst, performances[i])
	}

	return &models.BacktestResult{
		RunID:             uuid.New(),
		Success:           true,
		Message:           "backtest completed successfully",
		Metrics:           metrics,
		EquityCurve:       equityCurve,
		TickerPerformance: performances,
		TopPerformers:     top,
		WorstPerformers:   worst,
		SampleTrades:      allTrades.Sample(models.SampleTradesSize),
	}, nil
}

// EmptyResult reports the nothing-to-aggregate failure as a structured
// result: zero trades, equity flat at the configured capital, all ratios 0.
func (a *Aggregator) EmptyResult() *models.BacktestResult {
	curve, finalEquity := a.buildEquityCurve(nil)

	return &models.BacktestResult{
		RunID:       uuid.New(),
		Success:     false,
		Message:     "backtest failed: " + models.NoResultsErr.Error(),
		Metrics:     a.buildMetrics(nil, curve, nil, finalEquity),
		EquityCurve: curve,
	}
}

// buildEquityCurve groups trade P&L by distinct exit date in ascending order,
// starting from the configured capital on the configured start date. Point
// dates are strictly increasing: P&L exiting on the start date itself folds
// into the start point instead of duplicating its date.
func (a *Aggregator) buildEquityCurve(allTrades models.Trades) ([]models.EquityPoint, float64) {
	equity := a.cfg.InitialCapital

	startDate, _ := a.cfg.Start()
	startKey := startDate.Format(models.DateLayout)
	curve := []models.EquityPoint{{Date: startDate, Equity: equity}}

	pnlByDate := make(map[string]float64)
	for _, trade := range allTrades {
		pnlByDate[trade.ExitDate.Format(models.DateLayout)] += trade.Pnl
	}

	dates := make([]string, 0, len(pnlByDate))
	for date := range pnlByDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		equity += pnlByDate[date]
		if date <= startKey {
			curve[0].Equity = equity
			continue
		}
		day, _ := time.Parse(models.DateLayout, date)
		curve = append(curve, models.EquityPoint{Date: day, Equity: equity})
	}

	return curve, equity
}

// dailyReturns computes each point's simple return over the prior point and
// stamps it onto the curve as a percentage.
func dailyReturns(curve []models.EquityPoint) []float64 {
	var returns []float64
	for i := 1; i < len(curve); i++ {
		if curve[i-1].Equity == 0 {
			continue
		}

		ret := (curve[i].Equity - curve[i-1].Equity) / curve[i-1].Equity
		returns = append(returns, ret)

		pct := ret * 100
		curve[i].DailyReturn = &pct
	}

	return returns
}

func (a *Aggregator) buildMetrics(allTrades models.Trades, curve []models.EquityPoint, returns []float64, finalEquity float64) *models.BacktestMetrics {
	totalReturn := finalEquity - a.cfg.InitialCapital
	totalReturnPercent := (totalReturn / a.cfg.InitialCapital) * 100

	cagr := a.computeCagr(finalEquity)

	volatility := 0.0
	avgReturn := 0.0
	if len(returns) > 0 {
		sd, err := stats.StandardDeviation(stats.Float64Data(returns))
		if err == nil {
			volatility = sd * math.Sqrt(tradingDaysPerYear) * 100
		}

		mean, err := stats.Mean(stats.Float64Data(returns))
		if err == nil {
			avgReturn = mean * tradingDaysPerYear
		}
	}

	sharpe := 0.0
	if volatility > 0 {
		sharpe = (avgReturn * 100) / volatility
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	downsideStd := volatility
	if len(downside) > 0 {
		if sd, err := stats.StandardDeviation(stats.Float64Data(downside)); err == nil {
			downsideStd = sd * math.Sqrt(tradingDaysPerYear) * 100
		}
	}

	sortino := 0.0
	if downsideStd > 0 {
		sortino = (avgReturn * 100) / downsideStd
	}

	maxDd := 0.0
	maxDdPercent := 0.0
	peak := a.cfg.InitialCapital
	for _, point := range curve {
		if point.Equity > peak {
			peak = point.Equity
		}

		dd := peak - point.Equity
		if dd > maxDd {
			maxDd = dd
		}

		if peak > 0 {
			ddPercent := (dd / peak) * 100
			if ddPercent > maxDdPercent {
				maxDdPercent = ddPercent
			}
		}
	}

	wins := allTrades.Wins()
	losses := allTrades.Losses()

	totalTrades := len(allTrades)
	winRate := 0.0
	avgTradePnl := 0.0
	avgBarsHeld := 0.0
	if totalTrades > 0 {
		winRate = float64(len(wins)) / float64(totalTrades)
		avgTradePnl = allTrades.TotalPnl() / float64(totalTrades)

		barsHeld := 0
		for _, t := range allTrades {
			barsHeld += t.BarsHeld
		}
		avgBarsHeld = float64(barsHeld) / float64(totalTrades)
	}

	avgWin := 0.0
	if len(wins) > 0 {
		avgWin = wins.TotalPnl() / float64(len(wins))
	}

	avgLoss := 0.0
	if len(losses) > 0 {
		avgLoss = losses.TotalPnl() / float64(len(losses))
	}

	profitFactor := 0.0
	if grossLoss := -losses.TotalPnl(); grossLoss > 0 {
		profitFactor = wins.TotalPnl() / grossLoss
	}

	consecutiveWins, consecutiveLosses := winLossStreaks(allTrades)

	bestTrade := 0.0
	worstTrade := 0.0
	for i, t := range allTrades {
		if i == 0 || t.Pnl > bestTrade {
			bestTrade = t.Pnl
		}
		if i == 0 || t.Pnl < worstTrade {
			worstTrade = t.Pnl
		}
	}

	return &models.BacktestMetrics{
		StartDate:          a.cfg.StartDate,
		EndDate:            a.cfg.EndDate,
		InitialCapital:     a.cfg.InitialCapital,
		FinalEquity:        finalEquity,
		TotalReturn:        totalReturn,
		TotalReturnPercent: totalReturnPercent,
		Cagr:               cagr,
		Volatility:         volatility,
		SharpeRatio:        sharpe,
		SortinoRatio:       sortino,
		MaxDrawdown:        maxDd,
		MaxDrawdownPercent: maxDdPercent,
		TotalTrades:        totalTrades,
		WinningTrades:      len(wins),
		LosingTrades:       len(losses),
		WinRate:            winRate,
		ProfitFactor:       profitFactor,
		AvgTradePnl:        avgTradePnl,
		AvgWin:             avgWin,
		AvgLoss:            avgLoss,
		AvgBarsHeld:        avgBarsHeld,
		BestTrade:          bestTrade,
		WorstTrade:         worstTrade,
		ConsecutiveWins:    consecutiveWins,
		ConsecutiveLosses:  consecutiveLosses,
	}
}

// computeCagr is the compound annual growth rate over the exact elapsed
// year-fraction between the configured dates, 0 when the duration is not
// positive.
func (a *Aggregator) computeCagr(finalEquity float64) float64 {
	start, err := a.cfg.Start()
	if err != nil {
		return 0
	}

	end, err := a.cfg.End()
	if err != nil {
		return 0
	}

	years := end.Sub(start).Hours() / 24 / 365.25
	if years <= 0 || finalEquity <= 0 {
		return 0
	}

	return (math.Pow(finalEquity/a.cfg.InitialCapital, 1/years) - 1) * 100
}

func winLossStreaks(allTrades models.Trades) (int, int) {
	maxWins, maxLosses := 0, 0
	curWins, curLosses := 0, 0

	for _, t := range allTrades {
		if t.Pnl > 0 {
			curWins++
			curLosses = 0
			if curWins > maxWins {
				maxWins = curWins
			}
		} else {
			curLosses++
			curWins = 0
			if curLosses > maxLosses {
				maxLosses = curLosses
			}
		}
	}

	return maxWins, maxLosses
}
