package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatement is an immutable equity reconciliation for the period
// [PeriodStart, PeriodEnd). Created once per period close, never mutated.
type SettlementStatement struct {
	ID              string          `json:"id"`
	AccountID       string          `json:"account_id"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	BeginningEquity decimal.Decimal `json:"beginning_equity"`
	Deposits        decimal.Decimal `json:"deposits"`
	Withdrawals     decimal.Decimal `json:"withdrawals"`
	RealizedPnL     decimal.Decimal `json:"realized_pnl"`
	UnrealizedPnL   decimal.Decimal `json:"unrealized_pnl"`
	Commissions     decimal.Decimal `json:"commissions"`
	EndingEquity    decimal.Decimal `json:"ending_equity"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ClosedTradeDetail pairs a closing trade with the opening trade whose
// volume it reduced, FIFO against the key's trade history. Derived on
// demand for statement detail queries, not stored.
type ClosedTradeDetail struct {
	OpenTradeID  string          `json:"open_trade_id"`
	CloseTradeID string          `json:"close_trade_id"`
	Contract     string          `json:"contract"`
	Month        string          `json:"month"`
	Strategy     Strategy        `json:"strategy"`
	Direction    Direction       `json:"direction"`
	OpenPrice    decimal.Decimal `json:"open_price"`
	ClosePrice   decimal.Decimal `json:"close_price"`
	Volume       int64           `json:"volume"`
	RealizedPnL  decimal.Decimal `json:"realized_pnl"`
	OpenedAt     time.Time       `json:"opened_at"`
	ClosedAt     time.Time       `json:"closed_at"`
}
