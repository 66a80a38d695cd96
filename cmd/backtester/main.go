package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jiaming2012/backtest-engine/src/dataloader"
	"github.com/jiaming2012/backtest-engine/src/models"
	"github.com/jiaming2012/backtest-engine/src/services"
	"github.com/jiaming2012/backtest-engine/src/utils"
)

type RunArgs struct {
	ConfigFile   string
	StrategyFile string
	DataDir      string
	UniverseFile string
	Streaming    bool
}

var runCmd = &cobra.Command{
	Use:   "backtester --config config.yaml --strategy strategy.js --dataDir data",
	Short: "Replay historical bars through a strategy and aggregate portfolio statistics",
	Run: func(cmd *cobra.Command, args []string) {
		configFile, err := cmd.Flags().GetString("config")
		if err != nil {
			log.Fatalf("error getting config: %v", err)
		}

		strategyFile, err := cmd.Flags().GetString("strategy")
		if err != nil {
			log.Fatalf("error getting strategy: %v", err)
		}

		dataDir, err := cmd.Flags().GetString("dataDir")
		if err != nil {
			log.Fatalf("error getting dataDir: %v", err)
		}

		universeFile, err := cmd.Flags().GetString("universeFile")
		if err != nil {
			log.Fatalf("error getting universeFile: %v", err)
		}

		streaming, err := cmd.Flags().GetBool("streaming")
		if err != nil {
			log.Fatalf("error getting streaming: %v", err)
		}

		if err := Run(RunArgs{
			ConfigFile:   configFile,
			StrategyFile: strategyFile,
			DataDir:      dataDir,
			UniverseFile: universeFile,
			Streaming:    streaming,
		}); err != nil {
			log.Fatalf("Error: %v", err)
		}

		log.Info("Done")
	},
}

func Run(args RunArgs) error {
	ctx := context.Background()

	if err := utils.InitEnvironmentVariables(); err != nil {
		return fmt.Errorf("failed to init environment variables: %w", err)
	}

	data, err := os.ReadFile(args.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg models.BacktestConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if args.StrategyFile != "" {
		code, err := os.ReadFile(args.StrategyFile)
		if err != nil {
			return fmt.Errorf("failed to read strategy: %w", err)
		}
		cfg.StrategyCode = string(code)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var universe []string
	if args.UniverseFile != "" {
		if universe, err = readUniverse(args.UniverseFile); err != nil {
			return fmt.Errorf("failed to read universe: %w", err)
		}
	}

	tickers := cfg.Tickers(universe)
	if len(tickers) == 0 {
		return models.NoTickersErr
	}

	start, err := cfg.Start()
	if err != nil {
		return err
	}

	end, err := cfg.End()
	if err != nil {
		return err
	}

	provider := dataloader.NewCachedProvider(dataloader.NewCSVProvider(args.DataDir), dataloader.DefaultCacheTTL)
	dataMap := dataloader.BulkFetch(ctx, provider, tickers, start, end, cfg.Interval)

	engine := services.NewEngine(&cfg)

	var result *models.BacktestResult
	if args.Streaming {
		for record := range engine.RunStreaming(ctx, dataMap) {
			if record.Final {
				result = record.Result
				continue
			}

			if record.Success {
				log.Infof("[%d/%d] %s: %d trades, pnl %.2f", record.Completed, record.Total, record.Ticker, record.Performance.TotalTrades, record.Performance.TotalPnl)
			} else {
				log.Warnf("[%d/%d] %s: %s", record.Completed, record.Total, record.Ticker, record.Error)
			}
		}
	} else {
		result = engine.Run(ctx, dataMap)
	}

	if result == nil {
		return fmt.Errorf("no result produced")
	}

	renderResult(result)

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	return nil
}

func readUniverse(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tickers []string
	for _, line := range strings.Split(string(data), "\n") {
		ticker := strings.TrimSpace(line)
		if ticker == "" || strings.HasPrefix(ticker, "#") {
			continue
		}
		tickers = append(tickers, ticker)
	}

	return tickers, nil
}

func renderResult(result *models.BacktestResult) {
	if result.Metrics == nil {
		fmt.Printf("Backtest failed: %s\n", result.Message)
		return
	}

	m := result.Metrics

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})
	table.Append([]string{"Period", fmt.Sprintf("%s to %s", m.StartDate, m.EndDate)})
	table.Append([]string{"Initial Capital", fmt.Sprintf("%.2f", m.InitialCapital)})
	table.Append([]string{"Final Equity", fmt.Sprintf("%.2f", m.FinalEquity)})
	table.Append([]string{"Total Return", fmt.Sprintf("%.2f (%.2f%%)", m.TotalReturn, m.TotalReturnPercent)})
	table.Append([]string{"CAGR", fmt.Sprintf("%.2f%%", m.Cagr)})
	table.Append([]string{"Volatility", fmt.Sprintf("%.2f%%", m.Volatility)})
	table.Append([]string{"Sharpe Ratio", fmt.Sprintf("%.2f", m.SharpeRatio)})
	table.Append([]string{"Sortino Ratio", fmt.Sprintf("%.2f", m.SortinoRatio)})
	table.Append([]string{"Max Drawdown", fmt.Sprintf("%.2f (%.2f%%)", m.MaxDrawdown, m.MaxDrawdownPercent)})
	table.Append([]string{"Total Trades", fmt.Sprintf("%d", m.TotalTrades)})
	table.Append([]string{"Win Rate", fmt.Sprintf("%.1f%%", m.WinRate*100)})
	table.Append([]string{"Profit Factor", fmt.Sprintf("%.2f", m.ProfitFactor)})
	table.Append([]string{"Avg Bars Held", fmt.Sprintf("%.1f", m.AvgBarsHeld)})
	table.Append([]string{"Best / Worst Trade", fmt.Sprintf("%.2f / %.2f", m.BestTrade, m.WorstTrade)})
	table.Render()

	if len(result.TopPerformers) > 0 {
		fmt.Println("\nTop performers:")
		performers := tablewriter.NewWriter(os.Stdout)
		performers.SetHeader([]string{"Ticker", "Trades", "Win Rate", "Total PnL"})
		for _, perf := range result.TopPerformers {
			performers.Append([]string{
				perf.Ticker,
				fmt.Sprintf("%d", perf.TotalTrades),
				fmt.Sprintf("%.1f%%", perf.WinRate*100),
				fmt.Sprintf("%.2f", perf.TotalPnl),
			})
		}
		performers.Render()
	}
}

func main() {
	runCmd.PersistentFlags().String("config", "", "Path to the YAML run configuration.")
	runCmd.PersistentFlags().String("strategy", "", "Path to the strategy file; overrides strategy_code in the config.")
	runCmd.PersistentFlags().String("dataDir", "data", "Directory of <TICKER>.csv bar files.")
	runCmd.PersistentFlags().String("universeFile", "", "Newline-separated ticker list for the named universe.")
	runCmd.PersistentFlags().Bool("streaming", false, "Stream per-instrument results as they complete.")
	runCmd.MarkPersistentFlagRequired("config")
	runCmd.Execute()
}
