package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/backtest-engine/src/models"
)

func aggTrade(ticker string, entryDay int, exitDay int, pnl float64, barsHeld int) *models.Trade {
	base := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &models.Trade{
		Ticker:     ticker,
		EntryDate:  base.AddDate(0, 0, entryDay),
		ExitDate:   base.AddDate(0, 0, exitDay),
		EntryPrice: 100,
		ExitPrice:  100,
		Size:       1,
		Direction:  models.DirectionLong,
		Pnl:        pnl,
		PnlPercent: pnl,
		ExitReason: models.ExitReasonSignal,
		BarsHeld:   barsHeld,
	}
}

func TestAggregatorEmpty(t *testing.T) {
	agg := NewAggregator(testConfig(buyAndHoldCode))

	_, err := agg.Aggregate(nil, nil)
	assert.ErrorIs(t, err, models.NoResultsErr)
}

func TestAggregatorEmptyResult(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	result := agg.EmptyResult()

	assert.False(t, result.Success)
	require.NotNil(t, result.Metrics)
	assert.Equal(t, 0, result.Metrics.TotalTrades)
	assert.Equal(t, cfg.InitialCapital, result.Metrics.FinalEquity)
	assert.Equal(t, 0.0, result.Metrics.SharpeRatio)
	require.Len(t, result.EquityCurve, 1)
	assert.Equal(t, cfg.InitialCapital, result.EquityCurve[0].Equity)
}

func TestAggregatorEquityCurve(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	trades := map[string]models.Trades{
		"AAA": {
			aggTrade("AAA", 1, 5, 1000, 4),
			aggTrade("AAA", 6, 10, -500, 4),
		},
		"BBB": {
			aggTrade("BBB", 2, 5, 200, 3), // same exit date as AAA's first trade
		},
	}

	performances := []*models.TickerPerformance{
		models.NewTickerPerformance("AAA", trades["AAA"], cfg.InitialCapital),
		models.NewTickerPerformance("BBB", trades["BBB"], cfg.InitialCapital),
	}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)
	require.True(t, result.Success)

	// start point + 2 distinct exit dates
	require.Len(t, result.EquityCurve, 3)
	assert.Equal(t, cfg.InitialCapital, result.EquityCurve[0].Equity)
	assert.Equal(t, cfg.InitialCapital+1200, result.EquityCurve[1].Equity)
	assert.Equal(t, cfg.InitialCapital+700, result.EquityCurve[2].Equity)

	// dates strictly increasing
	for i := 1; i < len(result.EquityCurve); i++ {
		assert.True(t, result.EquityCurve[i].Date.After(result.EquityCurve[i-1].Date))
	}

	// returns stamped on every point after the first
	assert.Nil(t, result.EquityCurve[0].DailyReturn)
	require.NotNil(t, result.EquityCurve[1].DailyReturn)
	assert.InDelta(t, 1200/cfg.InitialCapital*100, *result.EquityCurve[1].DailyReturn, 1e-9)

	metrics := result.Metrics
	assert.Equal(t, 3, metrics.TotalTrades)
	assert.Equal(t, 700.0, metrics.TotalReturn)
	assert.InDelta(t, 700.0/cfg.InitialCapital*100, metrics.TotalReturnPercent, 1e-9)
	assert.Equal(t, 1000.0, metrics.BestTrade)
	assert.Equal(t, -500.0, metrics.WorstTrade)
	assert.InDelta(t, 11.0/3.0, metrics.AvgBarsHeld, 1e-9)

	// drawdown bounds
	assert.GreaterOrEqual(t, metrics.MaxDrawdownPercent, 0.0)
	assert.LessOrEqual(t, metrics.MaxDrawdownPercent, 100.0)
	assert.Equal(t, 500.0, metrics.MaxDrawdown)
}

func TestAggregatorStartDateExit(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	// a one-bar trade closes on the configured start date itself; its pnl
	// folds into the start point instead of duplicating the date
	trades := map[string]models.Trades{
		"AAA": {
			aggTrade("AAA", 0, 0, 300, 0),
			aggTrade("AAA", 1, 2, 100, 1),
		},
	}
	performances := []*models.TickerPerformance{models.NewTickerPerformance("AAA", trades["AAA"], cfg.InitialCapital)}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)

	require.Len(t, result.EquityCurve, 2)
	assert.Equal(t, cfg.InitialCapital+300, result.EquityCurve[0].Equity)
	assert.Equal(t, cfg.InitialCapital+400, result.EquityCurve[1].Equity)
	assert.Equal(t, cfg.InitialCapital+400, result.Metrics.FinalEquity)

	for i := 1; i < len(result.EquityCurve); i++ {
		assert.True(t, result.EquityCurve[i].Date.After(result.EquityCurve[i-1].Date))
	}
}

func TestAggregatorStreaksAndRanking(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	trades := map[string]models.Trades{}
	var performances []*models.TickerPerformance

	// tickers T00..T11 with pnl 0, 100, 200, ... so ranking is exact
	for i := 0; i < 12; i++ {
		ticker := string(rune('A'+i)) + "T"
		list := models.Trades{aggTrade(ticker, i, i+1, float64(i)*100, 1)}
		trades[ticker] = list
		performances = append(performances, models.NewTickerPerformance(ticker, list, cfg.InitialCapital))
	}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)

	require.Len(t, result.TopPerformers, 10)
	assert.Equal(t, 1100.0, result.TopPerformers[0].TotalPnl)

	require.Len(t, result.WorstPerformers, 10)
	// worst list is reversed: single worst instrument first
	assert.Equal(t, 0.0, result.WorstPerformers[0].TotalPnl)
	assert.Equal(t, 100.0, result.WorstPerformers[1].TotalPnl)

	// entry-date ordered trades: pnl 0 (a loss), then 11 wins
	assert.Equal(t, 11, result.Metrics.ConsecutiveWins)
	assert.Equal(t, 1, result.Metrics.ConsecutiveLosses)
}

func TestAggregatorSampleTradesCapped(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	var list models.Trades
	for i := 0; i < 30; i++ {
		list = append(list, aggTrade("AAA", i, i+1, 10, 1))
	}

	trades := map[string]models.Trades{"AAA": list}
	performances := []*models.TickerPerformance{models.NewTickerPerformance("AAA", list, cfg.InitialCapital)}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)

	assert.Len(t, result.SampleTrades, models.SampleTradesSize)
}

func TestAggregatorCagr(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	cfg.StartDate = "2023-01-01"
	cfg.EndDate = "2024-01-01"
	agg := NewAggregator(cfg)

	trades := map[string]models.Trades{
		"AAA": {aggTrade("AAA", 1, 2, cfg.InitialCapital*0.1, 1)},
	}
	performances := []*models.TickerPerformance{models.NewTickerPerformance("AAA", trades["AAA"], cfg.InitialCapital)}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)

	// one year, +10% -> CAGR close to 10%
	assert.InDelta(t, 10.0, result.Metrics.Cagr, 0.2)
}

func TestAggregatorSortinoFallback(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	agg := NewAggregator(cfg)

	// all positive daily pnl: no negative returns, sortino uses volatility
	trades := map[string]models.Trades{
		"AAA": {
			aggTrade("AAA", 1, 2, 100, 1),
			aggTrade("AAA", 3, 4, 900, 1),
		},
	}
	performances := []*models.TickerPerformance{models.NewTickerPerformance("AAA", trades["AAA"], cfg.InitialCapital)}

	result, err := agg.Aggregate(performances, trades)
	require.NoError(t, err)

	assert.Equal(t, result.Metrics.SharpeRatio, result.Metrics.SortinoRatio)
	assert.Greater(t, result.Metrics.SortinoRatio, 0.0)
}
