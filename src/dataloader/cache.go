package dataloader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jiaming2012/backtest-engine/src/models"
)

const DefaultCacheTTL = 24 * time.Hour

type cacheEntry struct {
	candles  models.CandleSeries
	loadedAt time.Time
}

// CachedProvider memoizes another provider's fetches with a TTL, so repeated
// runs over the same range reuse loaded series instead of re-reading them.
type CachedProvider struct {
	provider Provider
	ttl      time.Duration

	mtx     sync.Mutex
	entries map[string]cacheEntry
}

func NewCachedProvider(provider Provider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedProvider{
		provider: provider,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
	}
}

func (p *CachedProvider) Fetch(ctx context.Context, ticker string, start time.Time, end time.Time, interval string) (models.CandleSeries, error) {
	key := fmt.Sprintf("%s_%s_%s_%s", ticker, start.Format(models.DateLayout), end.Format(models.DateLayout), interval)

	p.mtx.Lock()
	entry, found := p.entries[key]
	p.mtx.Unlock()

	if found && time.Since(entry.loadedAt) < p.ttl {
		return entry.candles, nil
	}

	candles, err := p.provider.Fetch(ctx, ticker, start, end, interval)
	if err != nil {
		return nil, err
	}

	p.mtx.Lock()
	p.entries[key] = cacheEntry{candles: candles, loadedAt: time.Now()}
	p.mtx.Unlock()

	return candles, nil
}
