package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/backtest-engine/src/models"
)

func TestEngineFlatMarketNoSignals(t *testing.T) {
	cfg := testConfig(`function strategy(data, state) { return {signal: 'none'}; }`)
	engine := NewEngine(cfg)

	// a full trading year of flat prices produces no trades at all
	data := map[string]models.CandleSeries{"FLAT": flatSeries(252, 100)}

	result := engine.Run(context.Background(), data)

	assert.False(t, result.Success)
	require.NotNil(t, result.Metrics)
	assert.Equal(t, 0, result.Metrics.TotalTrades)
	assert.Equal(t, cfg.InitialCapital, result.Metrics.FinalEquity)
	assert.Equal(t, 0.0, result.Metrics.SharpeRatio)
}

func TestEngineBuyAndHold(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	engine := NewEngine(cfg)

	data := map[string]models.CandleSeries{"UP": risingSeries(60, 100, 1)}

	result := engine.Run(context.Background(), data)

	require.True(t, result.Success, result.Message)
	require.NotNil(t, result.Metrics)
	assert.Equal(t, 1, result.Metrics.TotalTrades)
	assert.Greater(t, result.Metrics.TotalReturn, 0.0)
	require.Len(t, result.SampleTrades, 1)
	assert.Equal(t, models.ExitReasonEndOfBacktest, result.SampleTrades[0].ExitReason)
	assert.Equal(t, cfg, result.Config)
	assert.Greater(t, result.ExecutionTime.Nanoseconds(), int64(0))
}

func TestEngineMissingInstrumentTolerated(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	cfg.CustomTickers = []string{"AAA", "BBB", "GONE"}
	engine := NewEngine(cfg)

	// the data provider found no bars for GONE; it is simply not simulated
	data := map[string]models.CandleSeries{
		"AAA": risingSeries(20, 100, 1),
		"BBB": risingSeries(20, 50, 0.5),
	}

	result := engine.Run(context.Background(), data)

	require.True(t, result.Success, result.Message)
	assert.Len(t, result.TickerPerformance, 2)
}

func TestEngineValidationFailures(t *testing.T) {
	t.Run("invalid strategy code", func(t *testing.T) {
		cfg := testConfig("function decide() { return 1; }")
		engine := NewEngine(cfg)

		result := engine.Run(context.Background(), map[string]models.CandleSeries{"AAA": flatSeries(5, 100)})

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "strategy")
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(buyAndHoldCode)
		cfg.InitialCapital = -1
		engine := NewEngine(cfg)

		result := engine.Run(context.Background(), map[string]models.CandleSeries{"AAA": flatSeries(5, 100)})

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "invalid config")
	})

	t.Run("no data", func(t *testing.T) {
		engine := NewEngine(testConfig(buyAndHoldCode))

		result := engine.Run(context.Background(), nil)

		assert.False(t, result.Success)
		assert.Contains(t, result.Message, "failed to load any ticker data")
	})
}

func TestEngineIdempotent(t *testing.T) {
	data := map[string]models.CandleSeries{
		"AAA": risingSeries(40, 100, 1),
		"BBB": risingSeries(40, 50, -0.25),
	}

	code := `function strategy(data, state) {
		if (data.length === 1) return {signal: 'buy', stop_loss: 0.9};
		if (data.length === 20) return {signal: 'sell'};
		return {signal: 'none'};
	}`

	first := NewEngine(testConfig(code)).Run(context.Background(), data)
	second := NewEngine(testConfig(code)).Run(context.Background(), data)

	require.True(t, first.Success)
	require.True(t, second.Success)
	assert.Equal(t, *first.Metrics, *second.Metrics)
	assert.Equal(t, first.EquityCurve, second.EquityCurve)
}

func TestEngineRunStreaming(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	engine := NewEngine(cfg)

	data := map[string]models.CandleSeries{
		"AAA": risingSeries(20, 100, 1),
		"BBB": risingSeries(20, 50, 0.5),
	}

	var records []models.StreamRecord
	for record := range engine.RunStreaming(context.Background(), data) {
		records = append(records, record)
	}

	require.Len(t, records, 3)

	for _, record := range records[:2] {
		assert.False(t, record.Final)
		assert.True(t, record.Success)
		assert.Equal(t, 2, record.Total)
	}

	final := records[2]
	require.True(t, final.Final)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Success)
	assert.Equal(t, 2, final.Result.Metrics.TotalTrades)

	// streaming and batch agree on the aggregate
	batch := NewEngine(testConfig(buyAndHoldCode)).Run(context.Background(), data)
	assert.Equal(t, batch.Metrics, final.Result.Metrics)
}

func TestEngineRunStreamingValidationFailure(t *testing.T) {
	cfg := testConfig("not javascript {{")
	engine := NewEngine(cfg)

	var records []models.StreamRecord
	for record := range engine.RunStreaming(context.Background(), map[string]models.CandleSeries{"AAA": flatSeries(5, 100)}) {
		records = append(records, record)
	}

	require.Len(t, records, 1)
	assert.True(t, records[0].Final)
	require.NotNil(t, records[0].Result)
	assert.False(t, records[0].Result.Success)
}
