package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-engine/src/models"
	"github.com/jiaming2012/backtest-engine/src/sandbox"
)

// Engine is the run orchestrator: it owns the sandbox, simulator, scheduler
// and aggregator lifecycles and exposes the batch and streaming entry points.
// Every failure path degrades to a structured result; Run never panics the
// process.
type Engine struct {
	cfg        *models.BacktestConfig
	sandbox    *sandbox.Sandbox
	scheduler  *Scheduler
	aggregator *Aggregator
}

func NewEngine(cfg *models.BacktestConfig) *Engine {
	sb := sandbox.NewSandbox(cfg.StrategyTimeout)

	return &Engine{
		cfg:        cfg,
		sandbox:    sb,
		scheduler:  NewScheduler(NewSimulator(cfg, sb)),
		aggregator: NewAggregator(cfg),
	}
}

// Run executes the complete backtest over the supplied instrument data map.
// Instruments missing from the map are simply not simulated; validation
// failures abort before any simulation work begins.
func (e *Engine) Run(ctx context.Context, data map[string]models.CandleSeries) *models.BacktestResult {
	startTime := time.Now()

	if result := e.validate(data); result != nil {
		return result
	}

	performances, allTrades := e.scheduler.RunBatch(ctx, data)

	result, err := e.aggregator.Aggregate(performances, allTrades)
	if err != nil {
		log.Errorf("backtest failed: %v", err)
		if errors.Is(err, models.NoResultsErr) {
			result = e.aggregator.EmptyResult()
			result.Config = e.cfg
			result.ExecutionTime = time.Since(startTime)
			return result
		}
		return models.NewBacktestResultError(fmt.Sprintf("backtest failed: %v", err))
	}

	result.Config = e.cfg
	result.ExecutionTime = time.Since(startTime)

	return result
}

// RunStreaming executes the backtest and streams per-instrument records in
// completion order. The terminal record carries the aggregated result (or a
// structured failure when nothing aggregated).
func (e *Engine) RunStreaming(ctx context.Context, data map[string]models.CandleSeries) <-chan models.StreamRecord {
	out := make(chan models.StreamRecord)
	startTime := time.Now()

	go func() {
		defer close(out)

		if result := e.validate(data); result != nil {
			out <- models.StreamRecord{
				Final:  true,
				Error:  result.Message,
				Result: result,
			}
			return
		}

		var performances []*models.TickerPerformance

		for record := range e.scheduler.RunStreaming(ctx, data) {
			if !record.Final {
				if record.Success {
					performances = append(performances, record.Performance)
				}
				out <- record
				continue
			}

			result, err := e.aggregator.Aggregate(performances, record.AllTrades)
			if err != nil {
				log.Errorf("backtest failed: %v", err)
				record.Success = false
				record.Error = err.Error()
				if errors.Is(err, models.NoResultsErr) {
					record.Result = e.aggregator.EmptyResult()
					record.Result.Config = e.cfg
					record.Result.ExecutionTime = time.Since(startTime)
				} else {
					record.Result = models.NewBacktestResultError(fmt.Sprintf("backtest failed: %v", err))
				}
			} else {
				result.Config = e.cfg
				result.ExecutionTime = time.Since(startTime)
				record.Result = result
			}

			out <- record
		}
	}()

	return out
}

// validate runs the fatal pre-flight checks. It returns a structured failure
// result, or nil when the run may proceed.
func (e *Engine) validate(data map[string]models.CandleSeries) *models.BacktestResult {
	if err := e.cfg.Validate(); err != nil {
		return models.NewBacktestResultError(fmt.Sprintf("invalid config: %v", err))
	}

	if err := e.sandbox.Validate(e.cfg.StrategyCode); err != nil {
		return models.NewBacktestResultError(err.Error())
	}

	if len(data) == 0 {
		return models.NewBacktestResultError("failed to load any ticker data")
	}

	return nil
}
