package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/backtest-engine/src/models"
)

const buyAndHoldCode = `function strategy(data, state) {
	if (data.length === 1) return {signal: 'buy'};
	return {signal: 'none'};
}`

func TestSchedulerRunBatch(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	scheduler := NewScheduler(newTestSimulator(cfg))

	data := map[string]models.CandleSeries{
		"AAA": risingSeries(10, 100, 1),
		"BBB": risingSeries(10, 50, 0.5),
		"CCC": risingSeries(10, 200, 2),
	}

	performances, allTrades := scheduler.RunBatch(context.Background(), data)

	require.Len(t, performances, 3)
	require.Len(t, allTrades, 3)

	seen := map[string]bool{}
	for _, perf := range performances {
		seen[perf.Ticker] = true
		assert.Equal(t, 1, perf.TotalTrades)
		require.Len(t, allTrades[perf.Ticker], 1)
	}
	assert.Len(t, seen, 3)
}

func TestSchedulerFailureIsolation(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	scheduler := NewScheduler(newTestSimulator(cfg))

	data := map[string]models.CandleSeries{
		"GOOD": risingSeries(10, 100, 1),
		"BAD":  nil, // empty series fails the task
	}

	performances, allTrades := scheduler.RunBatch(context.Background(), data)

	require.Len(t, performances, 1)
	assert.Equal(t, "GOOD", performances[0].Ticker)
	assert.NotContains(t, allTrades, "BAD")
}

func TestSchedulerStreaming(t *testing.T) {
	cfg := testConfig(buyAndHoldCode)
	scheduler := NewScheduler(newTestSimulator(cfg))

	data := map[string]models.CandleSeries{
		"AAA": risingSeries(10, 100, 1),
		"BBB": risingSeries(10, 50, 0.5),
		"BAD": nil,
	}

	var records []models.StreamRecord
	for record := range scheduler.RunStreaming(context.Background(), data) {
		records = append(records, record)
	}

	// one record per instrument plus the terminal record
	require.Len(t, records, 4)

	final := records[len(records)-1]
	assert.True(t, final.Final)
	assert.Equal(t, 3, final.Completed)
	assert.Equal(t, 3, final.Total)
	assert.Len(t, final.AllTrades, 2)

	for i, record := range records[:3] {
		assert.False(t, record.Final)
		assert.Equal(t, i+1, record.Completed, "progress counts completion order")
		assert.Equal(t, 3, record.Total)

		if record.Ticker == "BAD" {
			assert.False(t, record.Success)
			assert.NotEmpty(t, record.Error)
		} else {
			assert.True(t, record.Success)
			require.NotNil(t, record.Performance)
			assert.NotEmpty(t, record.Trades, "stream records carry the full trade list")
		}
	}
}

func TestSchedulerNoTradesRecord(t *testing.T) {
	cfg := testConfig(`function strategy(data, state) { return {signal: 'none'}; }`)
	scheduler := NewScheduler(newTestSimulator(cfg))

	data := map[string]models.CandleSeries{"IDLE": flatSeries(10, 100)}

	var records []models.StreamRecord
	for record := range scheduler.RunStreaming(context.Background(), data) {
		records = append(records, record)
	}

	require.Len(t, records, 2)
	assert.False(t, records[0].Success)
	assert.Equal(t, "IDLE", records[0].Ticker)
	assert.Empty(t, records[1].AllTrades)
}
