package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a paper-trading account. CurrentEquity is the cash balance:
// it moves on fees, realized PnL and transfers, never on marks.
type Account struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	InitialEquity decimal.Decimal `json:"initial_equity"`
	CurrentEquity decimal.Decimal `json:"current_equity"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferKind distinguishes the two cash movement directions.
type TransferKind string

const (
	TransferDeposit    TransferKind = "DEPOSIT"
	TransferWithdrawal TransferKind = "WITHDRAWAL"
)

// CashTransfer records one deposit or withdrawal. Immutable once saved.
type CashTransfer struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      TransferKind    `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// AccountSummary is the read model served to clients: the account, its
// open positions, the newest trades and the mark-to-market total.
type AccountSummary struct {
	Account            *Account        `json:"account"`
	Positions          []*Position     `json:"positions"`
	RecentTrades       []*Trade        `json:"recent_trades"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
}
