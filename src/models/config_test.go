package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestBacktestConfig(t *testing.T) {
	newConfig := func() *BacktestConfig {
		cfg := NewBacktestConfig("function strategy(data, state) { return {signal: 'none'}; }", "2023-01-01", "2024-01-01")
		cfg.Universe = UniverseCustom
		cfg.CustomTickers = []string{"AAPL", "MSFT"}
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := newConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("capital must be positive", func(t *testing.T) {
		cfg := newConfig()
		cfg.InitialCapital = 0
		assert.ErrorIs(t, cfg.Validate(), InvalidCapitalErr)

		cfg.InitialCapital = -100
		assert.ErrorIs(t, cfg.Validate(), InvalidCapitalErr)
	})

	t.Run("position size bounds", func(t *testing.T) {
		cfg := newConfig()

		cfg.PositionSize = 0
		assert.ErrorIs(t, cfg.Validate(), InvalidPositionSizeErr)

		cfg.PositionSize = 1.5
		assert.ErrorIs(t, cfg.Validate(), InvalidPositionSizeErr)

		cfg.PositionSize = 1.0
		assert.NoError(t, cfg.Validate())
	})

	t.Run("date format", func(t *testing.T) {
		cfg := newConfig()
		cfg.StartDate = "01/01/2023"
		assert.ErrorIs(t, cfg.Validate(), InvalidDateErr)
	})

	t.Run("date range", func(t *testing.T) {
		cfg := newConfig()
		cfg.EndDate = cfg.StartDate
		assert.ErrorIs(t, cfg.Validate(), InvalidDateRangeErr)
	})

	t.Run("custom universe requires tickers", func(t *testing.T) {
		cfg := newConfig()
		cfg.CustomTickers = nil
		assert.ErrorIs(t, cfg.Validate(), NoTickersErr)
	})

	t.Run("missing strategy code", func(t *testing.T) {
		cfg := newConfig()
		cfg.StrategyCode = ""
		assert.ErrorIs(t, cfg.Validate(), NoStrategyCodeErr)
	})

	t.Run("ticker limit applied before loading", func(t *testing.T) {
		cfg := newConfig()
		cfg.CustomTickers = []string{"AAPL", "MSFT", "GOOGL"}
		cfg.LimitTickers = 2

		assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers(nil))
	})

	t.Run("named universe", func(t *testing.T) {
		cfg := newConfig()
		cfg.Universe = UniverseSP500
		cfg.CustomTickers = nil

		assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Tickers([]string{"SPY", "QQQ"}))
	})
}

func TestBacktestConfigUnmarshalYAML(t *testing.T) {
	t.Run("human readable timeout", func(t *testing.T) {
		raw := `
universe: custom
custom_tickers: [AAPL]
start_date: "2023-01-01"
end_date: "2024-01-01"
initial_capital: 50000
strategy_timeout: 250ms
`
		var cfg BacktestConfig
		require.NoError(t, yaml.Unmarshal([]byte(raw), &cfg))

		assert.Equal(t, 250*time.Millisecond, cfg.StrategyTimeout)
		assert.Equal(t, 50000.0, cfg.InitialCapital)
		assert.Equal(t, []string{"AAPL"}, cfg.CustomTickers)
	})

	t.Run("timeout omitted stays zero", func(t *testing.T) {
		var cfg BacktestConfig
		require.NoError(t, yaml.Unmarshal([]byte("universe: sp500"), &cfg))
		assert.Equal(t, time.Duration(0), cfg.StrategyTimeout)
	})

	t.Run("malformed timeout rejected", func(t *testing.T) {
		var cfg BacktestConfig
		err := yaml.Unmarshal([]byte("strategy_timeout: soon"), &cfg)
		assert.ErrorContains(t, err, "strategy_timeout")
	})
}
