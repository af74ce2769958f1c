package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionKey identifies the single live position row per
// (account, contract, month, strategy, direction).
type PositionKey struct {
	AccountID string    `json:"account_id"`
	Contract  string    `json:"contract"`
	Month     string    `json:"month"`
	Strategy  Strategy  `json:"strategy"`
	Direction Direction `json:"direction"`
}

// Position is the mutable aggregate of all unclosed volume on one key.
// OpenInterest never goes negative; the row is deleted, not zeroed, when
// it reaches zero.
type Position struct {
	AccountID     string          `json:"account_id"`
	Contract      string          `json:"contract"`
	Month         string          `json:"month"`
	Strategy      Strategy        `json:"strategy"`
	Direction     Direction       `json:"direction"`
	OpenInterest  int64           `json:"open_interest"`
	AvgPrice      decimal.Decimal `json:"avg_price"`
	StrikePrice   decimal.Decimal `json:"strike_price"`
	Premium       decimal.Decimal `json:"premium"`
	LastMark      decimal.Decimal `json:"last_mark"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Commissions   decimal.Decimal `json:"commissions"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (p *Position) Key() PositionKey {
	return PositionKey{
		AccountID: p.AccountID,
		Contract:  p.Contract,
		Month:     p.Month,
		Strategy:  p.Strategy,
		Direction: p.Direction,
	}
}

// MarkPrice is the daily settlement price for one contract month.
// Applying a mark recomputes unrealized PnL on open positions; it never
// touches account equity.
type MarkPrice struct {
	Contract string          `json:"contract"`
	Month    string          `json:"month"`
	Price    decimal.Decimal `json:"price"`
	MarkDate time.Time       `json:"mark_date"`
}
