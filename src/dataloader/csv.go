package dataloader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/jiaming2012/backtest-engine/src/models"
)

// CSVCandleDTO is one row of an on-disk bar file: a date column plus OHLCV.
type CSVCandleDTO struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

func (dto *CSVCandleDTO) ToCandle() (models.Candle, error) {
	timestamp, err := time.Parse(models.DateLayout, dto.Date)
	if err != nil {
		return models.Candle{}, fmt.Errorf("failed to parse candle date %q: %w", dto.Date, err)
	}

	return models.Candle{
		Timestamp: timestamp,
		Open:      dto.Open,
		High:      dto.High,
		Low:       dto.Low,
		Close:     dto.Close,
		Volume:    dto.Volume,
	}, nil
}

// CSVProvider serves bar series from a directory of <TICKER>.csv files.
type CSVProvider struct {
	dir string
}

func NewCSVProvider(dir string) *CSVProvider {
	return &CSVProvider{dir: dir}
}

func (p *CSVProvider) Fetch(ctx context.Context, ticker string, start time.Time, end time.Time, interval string) (models.CandleSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(p.dir, ticker+".csv")

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", NoDataErr, ticker)
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*CSVCandleDTO
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var candles models.CandleSeries
	for _, row := range rows {
		candle, err := row.ToCandle()
		if err != nil {
			return nil, err
		}

		if candle.Timestamp.Before(start) || candle.Timestamp.After(end) {
			continue
		}

		candles = append(candles, candle)
	}

	return models.SortCandles(candles), nil
}
