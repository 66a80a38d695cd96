package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/backtest-engine/src/models"
	"github.com/jiaming2012/backtest-engine/src/sandbox"
)

// Simulator runs the bar-by-bar state machine for one instrument: signals in,
// positions and closed trades out. Each instrument is funded with the full
// configured capital independently of its siblings.
type Simulator struct {
	cfg     *models.BacktestConfig
	sandbox *sandbox.Sandbox
}

func NewSimulator(cfg *models.BacktestConfig, sb *sandbox.Sandbox) *Simulator {
	return &Simulator{
		cfg:     cfg,
		sandbox: sb,
	}
}

// RunSingleTicker replays the candle series through the strategy. Bars are
// processed strictly in order: state and cash carry forward bar to bar. A
// per-bar strategy failure skips that bar; any open position is force-closed
// at the final bar. A run that produces zero trades returns a nil
// performance, excluding the instrument from aggregation.
func (s *Simulator) RunSingleTicker(ctx context.Context, ticker string, candles models.CandleSeries) (*models.TickerPerformance, models.Trades, error) {
	if len(candles) == 0 {
		return nil, nil, fmt.Errorf("no candles for %s", ticker)
	}

	cash := s.cfg.InitialCapital
	state := map[string]interface{}{}

	var position *models.Position
	var trades models.Trades

	for i, candle := range candles {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// Exit triggers run before the strategy sees the bar. Stop-loss has
		// priority over take-profit when both would trigger.
		if position != nil {
			var exitReason models.ExitReason
			var exitPrice float64

			if position.StopLoss != nil && candle.Low <= *position.StopLoss {
				exitReason = models.ExitReasonStopLoss
				exitPrice = *position.StopLoss
			} else if position.TakeProfit != nil && candle.High >= *position.TakeProfit {
				exitReason = models.ExitReasonTakeProfit
				exitPrice = *position.TakeProfit
			}

			if exitReason != "" {
				trade := s.closePosition(position, candle.Timestamp, exitPrice, exitReason, i)
				cash += s.proceeds(position, exitPrice)
				trades = append(trades, trade)
				position = nil
			}
		}

		signal, nextState, err := s.sandbox.Execute(s.cfg.StrategyCode, candles.Window(i), state)
		if err != nil {
			log.WithFields(log.Fields{
				"ticker": ticker,
				"date":   candle.DateKey(),
			}).Warnf("strategy execution failed: %v", err)
			continue
		}
		state = nextState

		if signal.IsEntry() && position == nil {
			entryPrice := candle.Close * (1 + s.cfg.Slippage)

			stopLoss := resolveStopLoss(signal.StopLoss, entryPrice)
			takeProfit, err := resolveTakeProfit(signal.TakeProfit, entryPrice)
			if err != nil {
				log.WithFields(log.Fields{
					"ticker": ticker,
					"date":   candle.DateKey(),
				}).Warnf("buy signal rejected: %v", err)
				continue
			}

			positionValue := cash * s.cfg.PositionSize
			shares := positionValue / entryPrice
			commission := positionValue * s.cfg.Commission
			cash -= positionValue + commission

			position = models.NewPosition(ticker, candle.Timestamp, entryPrice, shares, i)
			position.StopLoss = stopLoss
			position.TakeProfit = takeProfit
		} else if signal.IsExit() && position != nil {
			exitPrice := candle.Close * (1 - s.cfg.Slippage)
			trade := s.closePosition(position, candle.Timestamp, exitPrice, models.ExitReasonSignal, i)
			cash += s.proceeds(position, exitPrice)
			trades = append(trades, trade)
			position = nil
		}
	}

	if position != nil {
		finalBar := len(candles) - 1
		finalCandle := candles[finalBar]
		exitPrice := finalCandle.Close * (1 - s.cfg.Slippage)
		trade := s.closePosition(position, finalCandle.Timestamp, exitPrice, models.ExitReasonEndOfBacktest, finalBar)
		cash += s.proceeds(position, exitPrice)
		trades = append(trades, trade)
		position = nil
	}

	if len(trades) == 0 {
		log.Infof("%s: no trades generated", ticker)
		return nil, nil, nil
	}

	log.Infof("%s: generated %d trades", ticker, len(trades))
	return models.NewTickerPerformance(ticker, trades, s.cfg.InitialCapital), trades, nil
}

// closePosition books the trade record for a closed position. Commission is
// charged on notional at both entry and exit.
func (s *Simulator) closePosition(position *models.Position, exitDate time.Time, exitPrice float64, reason models.ExitReason, exitBar int) *models.Trade {
	pnl := (exitPrice - position.EntryPrice) * position.Size

	entryCommission := position.Notional() * s.cfg.Commission
	exitCommission := exitPrice * position.Size * s.cfg.Commission
	pnl -= entryCommission + exitCommission

	pnlPercent := (pnl / position.Notional()) * 100

	return &models.Trade{
		Ticker:     position.Ticker,
		EntryDate:  position.EntryDate,
		EntryPrice: position.EntryPrice,
		ExitDate:   exitDate,
		ExitPrice:  exitPrice,
		Size:       position.Size,
		Direction:  position.Direction,
		Pnl:        pnl,
		PnlPercent: pnlPercent,
		ExitReason: reason,
		BarsHeld:   exitBar - position.EntryBar,
	}
}

// proceeds is the cash released by closing a position, net of the exit
// commission.
func (s *Simulator) proceeds(position *models.Position, exitPrice float64) float64 {
	gross := exitPrice * position.Size
	return gross - gross*s.cfg.Commission
}

// resolveStopLoss turns a signal stop-loss into an absolute price: values
// below 1 are multipliers on the entry price, anything else is taken as an
// absolute price. Non-positive values are ignored.
func resolveStopLoss(value *float64, entryPrice float64) *float64 {
	if value == nil || *value <= 0 {
		return nil
	}

	price := *value
	if price < 1 {
		price = entryPrice * price
	}

	return &price
}

// resolveTakeProfit turns a signal take-profit into an absolute price.
// Values in (1, 2] are multipliers on the entry price; values above 2 are
// absolute prices when they exceed half the entry price. Anything else sits
// in the ambiguous band between the two readings and is rejected rather than
// guessed at.
func resolveTakeProfit(value *float64, entryPrice float64) (*float64, error) {
	if value == nil || *value <= 0 {
		return nil, nil
	}

	v := *value

	if v <= 1 {
		return nil, fmt.Errorf("%w: %v would place the target at or below entry", models.AmbiguousTakeProfitErr, v)
	}

	if v <= 2 {
		price := entryPrice * v
		return &price, nil
	}

	if v > entryPrice*0.5 {
		return &v, nil
	}

	return nil, fmt.Errorf("%w: %v (entry price %v)", models.AmbiguousTakeProfitErr, v, entryPrice)
}
