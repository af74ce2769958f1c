package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AccountRepository defines storage operations for accounts.
type AccountRepository interface {
	CreateAccount(ctx context.Context, a *Account) error
	GetAccount(ctx context.Context, id string) (*Account, error)
	UpdateAccount(ctx context.Context, a *Account) error
}

// TradeRepository defines storage operations for the append-only trade
// ledger. Trades are never updated or deleted.
type TradeRepository interface {
	SaveTrade(ctx context.Context, t *Trade) error
	ListTrades(ctx context.Context, accountID string, limit int) ([]*Trade, error)
	// ListTradesInWindow returns trades with CreatedAt in [start, end),
	// ascending.
	ListTradesInWindow(ctx context.Context, accountID string, start, end time.Time) ([]*Trade, error)
	// ListTradesForKey returns all trades on one position key with
	// CreatedAt before end, ascending.
	ListTradesForKey(ctx context.Context, key PositionKey, end time.Time) ([]*Trade, error)
}

// PositionRepository defines storage operations for live positions.
type PositionRepository interface {
	// GetPosition returns nil without error when no live row exists.
	GetPosition(ctx context.Context, key PositionKey) (*Position, error)
	ListPositions(ctx context.Context, accountID string) ([]*Position, error)
	ListPositionsByContract(ctx context.Context, contract, month string) ([]*Position, error)
	UpsertPosition(ctx context.Context, p *Position) error
	DeletePosition(ctx context.Context, key PositionKey) error
}

// StatementRepository defines storage operations for settlement statements.
type StatementRepository interface {
	SaveStatement(ctx context.Context, s *SettlementStatement) error
	GetStatement(ctx context.Context, id string) (*SettlementStatement, error)
	// LatestStatementEndingBy returns the statement with the greatest
	// PeriodEnd not after t, or nil when the account has none.
	LatestStatementEndingBy(ctx context.Context, accountID string, t time.Time) (*SettlementStatement, error)
	ListStatements(ctx context.Context, accountID string) ([]*SettlementStatement, error)
}

// TransferRepository defines storage operations for cash transfers.
type TransferRepository interface {
	SaveTransfer(ctx context.Context, t *CashTransfer) error
	// SumTransfers totals transfers of one kind with CreatedAt in
	// [start, end).
	SumTransfers(ctx context.Context, accountID string, kind TransferKind, start, end time.Time) (decimal.Decimal, error)
}

// MarkRepository defines storage operations for daily settlement prices.
type MarkRepository interface {
	UpsertMark(ctx context.Context, m *MarkPrice) error
	// GetMark returns nil without error when the contract month has no mark.
	GetMark(ctx context.Context, contract, month string) (*MarkPrice, error)
}

// Repository bundles the entity stores behind one transactional scope.
type Repository interface {
	AccountRepository
	TradeRepository
	PositionRepository
	StatementRepository
	TransferRepository
	MarkRepository

	// WithinTx runs fn against a repository view whose writes commit
	// together or roll back together. Nested calls join the open
	// transaction.
	WithinTx(ctx context.Context, fn func(Repository) error) error
}
