package services

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-engine/src/models"
)

// MaxWorkers caps the simulation worker pool; the effective pool size is
// min(MaxWorkers, instrument count).
const MaxWorkers = 10

// Scheduler fans one simulation task per instrument out over a bounded
// worker pool and fans results back in. Tasks share no mutable state; a
// failure in one task never cancels its siblings.
type Scheduler struct {
	sim *Simulator
}

func NewScheduler(sim *Simulator) *Scheduler {
	return &Scheduler{sim: sim}
}

type simulationJob struct {
	ticker  string
	candles models.CandleSeries
}

// RunStreaming runs all instrument simulations and returns an unbuffered
// channel of records in completion order. Each completed instrument yields
// one record carrying its performance summary and full trade list plus
// completed/total progress; the terminal record has Final=true and carries
// the complete trade-list map. The channel hands control to the consumer
// between records.
func (s *Scheduler) RunStreaming(ctx context.Context, data map[string]models.CandleSeries) <-chan models.StreamRecord {
	out := make(chan models.StreamRecord)

	go func() {
		defer close(out)

		total := len(data)
		workers := MaxWorkers
		if total < workers {
			workers = total
		}

		jobs := make(chan simulationJob)
		results := make(chan models.StreamRecord)

		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for job := range jobs {
					results <- s.runTask(ctx, job)
				}
			}()
		}

		go func() {
			for ticker, candles := range data {
				jobs <- simulationJob{ticker: ticker, candles: candles}
			}
			close(jobs)
		}()

		go func() {
			wg.Wait()
			close(results)
		}()

		completed := 0
		allTrades := make(map[string]models.Trades)

		for record := range results {
			completed++
			record.Completed = completed
			record.Total = total

			if record.Success {
				allTrades[record.Ticker] = record.Trades
			}

			out <- record
		}

		out <- models.StreamRecord{
			Success:   true,
			Final:     true,
			Completed: completed,
			Total:     total,
			AllTrades: allTrades,
		}
	}()

	return out
}

// RunBatch runs all instrument simulations and collects the successful
// results keyed by instrument, independent of completion order.
func (s *Scheduler) RunBatch(ctx context.Context, data map[string]models.CandleSeries) ([]*models.TickerPerformance, map[string]models.Trades) {
	var performances []*models.TickerPerformance
	var allTrades map[string]models.Trades

	for record := range s.RunStreaming(ctx, data) {
		if record.Final {
			allTrades = record.AllTrades
			continue
		}

		if record.Success {
			performances = append(performances, record.Performance)
		}
	}

	return performances, allTrades
}

// runTask runs one instrument's simulation, converting any error or panic
// into a failure record naming the instrument.
func (s *Scheduler) runTask(ctx context.Context, job simulationJob) (record models.StreamRecord) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("simulation panicked for %s: %v", job.ticker, r)
			record = models.StreamRecord{
				Ticker: job.ticker,
				Error:  fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	performance, trades, err := s.sim.RunSingleTicker(ctx, job.ticker, job.candles)
	if err != nil {
		log.Errorf("failed to backtest %s: %v", job.ticker, err)
		return models.StreamRecord{
			Ticker: job.ticker,
			Error:  err.Error(),
		}
	}

	if performance == nil {
		return models.StreamRecord{
			Ticker: job.ticker,
			Error:  "no result returned",
		}
	}

	return models.StreamRecord{
		Ticker:      job.ticker,
		Success:     true,
		Performance: performance,
		Trades:      trades,
	}
}
