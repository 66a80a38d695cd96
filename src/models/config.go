package models

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	UniverseSP500  = "sp500"
	UniverseCustom = "custom"
)

// BacktestConfig holds the immutable parameters for a single backtest run.
//
// Each instrument is simulated against the full InitialCapital independently;
// MaxPositions is advisory and not enforced as a shared-capital constraint
// across instruments.
type BacktestConfig struct {
	StrategyCode    string        `yaml:"strategy_code" json:"strategy_code"`
	Universe        string        `yaml:"universe" json:"universe"`
	CustomTickers   []string      `yaml:"custom_tickers" json:"custom_tickers,omitempty"`
	LimitTickers    int           `yaml:"limit_tickers" json:"limit_tickers,omitempty"`
	StartDate       string        `yaml:"start_date" json:"start_date"`
	EndDate         string        `yaml:"end_date" json:"end_date"`
	InitialCapital  float64       `yaml:"initial_capital" json:"initial_capital"`
	PositionSize    float64       `yaml:"position_size" json:"position_size"`
	MaxPositions    int           `yaml:"max_positions" json:"max_positions"`
	Commission      float64       `yaml:"commission" json:"commission"`
	Slippage        float64       `yaml:"slippage" json:"slippage"`
	Interval        string        `yaml:"interval" json:"interval"`
	StrategyTimeout time.Duration `yaml:"-" json:"strategy_timeout"`
}

// UnmarshalYAML decodes the config with strategy_timeout given in the human
// form ("5s", "250ms") rather than integer nanoseconds.
func (c *BacktestConfig) UnmarshalYAML(value *yaml.Node) error {
	type alias BacktestConfig
	raw := alias(*c)
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*c = BacktestConfig(raw)

	var timeout struct {
		StrategyTimeout string `yaml:"strategy_timeout"`
	}
	if err := value.Decode(&timeout); err != nil {
		return err
	}

	if timeout.StrategyTimeout != "" {
		d, err := time.ParseDuration(timeout.StrategyTimeout)
		if err != nil {
			return fmt.Errorf("invalid strategy_timeout %q: %w", timeout.StrategyTimeout, err)
		}
		c.StrategyTimeout = d
	}

	return nil
}

func NewBacktestConfig(strategyCode string, startDate string, endDate string) *BacktestConfig {
	return &BacktestConfig{
		StrategyCode:    strategyCode,
		Universe:        UniverseSP500,
		StartDate:       startDate,
		EndDate:         endDate,
		InitialCapital:  100000.0,
		PositionSize:    1.0,
		MaxPositions:    10,
		Commission:      0.001,
		Slippage:        0.0005,
		Interval:        "1d",
		StrategyTimeout: 5 * time.Second,
	}
}

func (c *BacktestConfig) Validate() error {
	if c.StrategyCode == "" {
		return NoStrategyCodeErr
	}

	if c.InitialCapital <= 0 {
		return InvalidCapitalErr
	}

	if c.PositionSize <= 0 || c.PositionSize > 1 {
		return InvalidPositionSizeErr
	}

	if c.MaxPositions < 1 {
		return InvalidMaxPositionsErr
	}

	if c.Commission < 0 {
		return InvalidCommissionErr
	}

	if c.Slippage < 0 {
		return InvalidSlippageErr
	}

	start, err := c.Start()
	if err != nil {
		return err
	}

	end, err := c.End()
	if err != nil {
		return err
	}

	if !end.After(start) {
		return InvalidDateRangeErr
	}

	if c.Universe != UniverseSP500 && len(c.CustomTickers) == 0 {
		return NoTickersErr
	}

	return nil
}

func (c *BacktestConfig) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, InvalidDateErr
	}

	return t, nil
}

func (c *BacktestConfig) End() (time.Time, error) {
	t, err := time.Parse(DateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, InvalidDateErr
	}

	return t, nil
}

// Tickers resolves the instrument selection, applying the optional
// truncation limit before any data is loaded.
func (c *BacktestConfig) Tickers(universe []string) []string {
	tickers := universe
	if c.Universe != UniverseSP500 || len(c.CustomTickers) > 0 {
		tickers = c.CustomTickers
	}

	if c.LimitTickers > 0 && c.LimitTickers < len(tickers) {
		tickers = tickers[:c.LimitTickers]
	}

	return tickers
}
