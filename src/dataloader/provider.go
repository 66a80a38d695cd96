package dataloader

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-engine/src/models"
)

var NoDataErr = fmt.Errorf("no data for ticker")

// Provider supplies ordered historical bar series. Implementations return
// NoDataErr when a ticker has no coverage; callers treat that as exclusion,
// not failure.
type Provider interface {
	Fetch(ctx context.Context, ticker string, start time.Time, end time.Time, interval string) (models.CandleSeries, error)
}

// BulkFetch loads bar series for every ticker, tolerating partial universe
// coverage: instruments without data are skipped with a warning.
func BulkFetch(ctx context.Context, provider Provider, tickers []string, start time.Time, end time.Time, interval string) map[string]models.CandleSeries {
	data := make(map[string]models.CandleSeries)

	for _, ticker := range tickers {
		candles, err := provider.Fetch(ctx, ticker, start, end, interval)
		if err != nil {
			log.Warnf("skipping %s: %v", ticker, err)
			continue
		}

		if len(candles) == 0 {
			log.Warnf("skipping %s: empty series", ticker)
			continue
		}

		data[ticker] = candles
	}

	log.Infof("loaded data for %d of %d tickers", len(data), len(tickers))
	return data
}
