package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Strategy is the instrument type of a trade.
type Strategy string

const (
	StrategyFuture Strategy = "FUTURE"
	StrategyCall   Strategy = "CALL"
	StrategyPut    Strategy = "PUT"
)

func (s Strategy) IsOption() bool {
	return s == StrategyCall || s == StrategyPut
}

// Action says whether a trade opens new volume or closes existing volume.
type Action string

const (
	ActionOpen  Action = "OPEN"
	ActionClose Action = "CLOSE"
)

// Direction is the side of the position the trade belongs to. Long and
// short volume on the same contract month are independent positions.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign returns +1 for long and -1 for short, the multiplier applied to
// every PnL formula.
func (d Direction) Sign() int64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// TradeRequest is the caller's intent, before validation and pricing.
// StrikePrice and Premium are only meaningful for option opens; closes
// inherit the terms stored on the position.
type TradeRequest struct {
	Contract    string          `json:"contract"`
	Month       string          `json:"month"`
	TradeDate   time.Time       `json:"trade_date"`
	Strategy    Strategy        `json:"strategy"`
	Action      Action          `json:"action"`
	Direction   Direction       `json:"direction"`
	Price       decimal.Decimal `json:"price"`
	StrikePrice decimal.Decimal `json:"strike_price"`
	Premium     decimal.Decimal `json:"premium"`
	Volume      int64           `json:"volume"`
}

// Key returns the position the request acts on.
func (r TradeRequest) Key(accountID string) PositionKey {
	return PositionKey{
		AccountID: accountID,
		Contract:  r.Contract,
		Month:     r.Month,
		Strategy:  r.Strategy,
		Direction: r.Direction,
	}
}

// Trade is one committed ledger entry. Trades are immutable once saved;
// PreviousVolume and ResultingVolume record the position's open interest
// around the fill.
type Trade struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	Contract        string          `json:"contract"`
	Month           string          `json:"month"`
	TradeDate       time.Time       `json:"trade_date"`
	Strategy        Strategy        `json:"strategy"`
	Action          Action          `json:"action"`
	Direction       Direction       `json:"direction"`
	Price           decimal.Decimal `json:"price"`
	StrikePrice     decimal.Decimal `json:"strike_price"`
	Premium         decimal.Decimal `json:"premium"`
	Volume          int64           `json:"volume"`
	Commission      decimal.Decimal `json:"commission"`
	ClearingFee     decimal.Decimal `json:"clearing_fee"`
	TradePnL        decimal.Decimal `json:"trade_pnl"`
	PreviousVolume  int64           `json:"previous_volume"`
	ResultingVolume int64           `json:"resulting_volume"`
	CreatedAt       time.Time       `json:"created_at"`
}

func (t *Trade) Key() PositionKey {
	return PositionKey{
		AccountID: t.AccountID,
		Contract:  t.Contract,
		Month:     t.Month,
		Strategy:  t.Strategy,
		Direction: t.Direction,
	}
}
