package models

import "fmt"

type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalFlat SignalType = "flat"
	SignalHold SignalType = "hold"
	SignalNone SignalType = "none"
)

// NewSignalType normalizes a raw signal tag. The aliases "long" and "exit"
// map onto the buy and flat tags.
func NewSignalType(raw string) (SignalType, error) {
	switch raw {
	case "buy", "long":
		return SignalBuy, nil
	case "sell":
		return SignalSell, nil
	case "flat", "exit":
		return SignalFlat, nil
	case "hold":
		return SignalHold, nil
	case "none", "":
		return SignalNone, nil
	default:
		return SignalNone, fmt.Errorf("%w: %q", UnknownSignalErr, raw)
	}
}

// Signal is the sandbox's per-bar output: an action tag plus optional risk
// parameters. StopLoss and TakeProfit are either multipliers relative to the
// entry price or absolute prices; resolution happens at order entry.
type Signal struct {
	Type       SignalType `json:"signal"`
	Size       *float64   `json:"size,omitempty"`
	StopLoss   *float64   `json:"stop_loss,omitempty"`
	TakeProfit *float64   `json:"take_profit,omitempty"`
}

func (s Signal) IsEntry() bool {
	return s.Type == SignalBuy
}

func (s Signal) IsExit() bool {
	return s.Type == SignalSell || s.Type == SignalFlat
}
