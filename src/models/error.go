package models

import "fmt"

var InvalidCapitalErr = fmt.Errorf("initial capital must be positive")
var InvalidPositionSizeErr = fmt.Errorf("position size must be a value between 0 and 1")
var InvalidMaxPositionsErr = fmt.Errorf("max positions must be at least 1")
var InvalidCommissionErr = fmt.Errorf("commission must be non negative")
var InvalidSlippageErr = fmt.Errorf("slippage must be non negative")
var InvalidDateErr = fmt.Errorf("date must be in YYYY-MM-DD format")
var InvalidDateRangeErr = fmt.Errorf("end date must be after start date")
var NoTickersErr = fmt.Errorf("must specify universe or provide custom tickers")
var NoStrategyCodeErr = fmt.Errorf("strategy code not set")
var NoResultsErr = fmt.Errorf("no instrument results to aggregate")
var UnknownSignalErr = fmt.Errorf("unknown signal")
var AmbiguousTakeProfitErr = fmt.Errorf("take profit value is in the ambiguous band between multiplier and absolute price")

type ErrorDTO struct {
	Msg string `json:"msg"`
}
