package indicators

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/jiaming2012/backtest-engine/src/models"
)

type BollingerBands struct {
	SmaPeriod         int
	StandardDeviation float64
	typicalPrice      []float64
}

type BollingerBandsStats struct {
	Upper         float64
	Lower         float64
	MovingAverage float64
}

func (b *BollingerBands) Update(c models.Candle) (bool, BollingerBandsStats, error) {
	typicalPrice := (c.High + c.Low + c.Close) / 3.0
	b.typicalPrice = append(b.typicalPrice, typicalPrice)

	if len(b.typicalPrice) < b.SmaPeriod {
		return false, BollingerBandsStats{}, nil
	}

	if len(b.typicalPrice) > b.SmaPeriod {
		b.typicalPrice = b.typicalPrice[1:]
	}

	movingAverage, err := stats.Mean(b.typicalPrice)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to caculate mean: %v", err)
	}

	sd, err := stats.StandardDeviation(b.typicalPrice)
	if err != nil {
		return false, BollingerBandsStats{}, fmt.Errorf("failed to caculate the standard deviation: %v", err)
	}

	return true, BollingerBandsStats{
		Upper:         movingAverage + (b.StandardDeviation * sd),
		Lower:         movingAverage - (b.StandardDeviation * sd),
		MovingAverage: movingAverage,
	}, nil
}

func NewBollingerBands(smaPeriod int, standardDeviation float64) *BollingerBands {
	return &BollingerBands{
		SmaPeriod:         smaPeriod,
		StandardDeviation: standardDeviation,
	}
}

// Bollinger computes bands over the trailing period of a close-price window
// by replaying it through the streaming updater. The ok flag is false until
// the window holds at least period bars.
func Bollinger(closes []float64, period int, standardDeviation float64) (bool, BollingerBandsStats) {
	bands := NewBollingerBands(period, standardDeviation)

	ok := false
	var out BollingerBandsStats
	for _, close := range closes {
		var err error
		if ok, out, err = bands.Update(models.Candle{High: close, Low: close, Close: close}); err != nil {
			return false, BollingerBandsStats{}
		}
	}

	return ok, out
}
