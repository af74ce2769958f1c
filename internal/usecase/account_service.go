package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recentTradeLimit = 20

// AccountService owns account lifecycle and cash movements. Transfers
// share the per-account serialization with the trading engine.
type AccountService struct {
	repo   domain.Repository
	locks  *AccountLocks
	logger *zap.Logger

	onCommit func(accountID string)
}

func NewAccountService(repo domain.Repository, locks *AccountLocks, logger *zap.Logger) *AccountService {
	return &AccountService{repo: repo, locks: locks, logger: logger}
}

// OnCommit registers a callback invoked after every committed cash
// transfer.
func (s *AccountService) OnCommit(fn func(accountID string)) {
	s.onCommit = fn
}

func (s *AccountService) notify(accountID string) {
	if s.onCommit != nil {
		s.onCommit(accountID)
	}
}

// CreateAccount opens a paper-trading account funded with initialEquity.
func (s *AccountService) CreateAccount(ctx context.Context, owner string, initialEquity decimal.Decimal) (*domain.Account, error) {
	if strings.TrimSpace(owner) == "" {
		return nil, domain.ErrInvalidOwner
	}
	if initialEquity.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	account := &domain.Account{
		ID:            uuid.NewString(),
		Owner:         owner,
		InitialEquity: initialEquity,
		CurrentEquity: initialEquity,
		TotalPnL:      decimal.Zero,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("account_id", account.ID),
		zap.String("owner", owner),
		zap.String("initial_equity", initialEquity.String()))
	return account, nil
}

// Deposit credits amount to the account and records the transfer.
func (s *AccountService) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.CashTransfer, error) {
	return s.transfer(ctx, accountID, domain.TransferDeposit, amount)
}

// Withdraw debits amount from the account; rejected when it exceeds
// current equity.
func (s *AccountService) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.CashTransfer, error) {
	return s.transfer(ctx, accountID, domain.TransferWithdrawal, amount)
}

func (s *AccountService) transfer(ctx context.Context, accountID string, kind domain.TransferKind, amount decimal.Decimal) (*domain.CashTransfer, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	unlock := s.locks.Lock(accountID)
	defer unlock()

	transfer := &domain.CashTransfer{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}

	err := s.repo.WithinTx(ctx, func(r domain.Repository) error {
		account, err := r.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		if kind == domain.TransferWithdrawal {
			if amount.GreaterThan(account.CurrentEquity) {
				return domain.ErrInsufficientFunds
			}
			account.CurrentEquity = account.CurrentEquity.Sub(amount)
		} else {
			account.CurrentEquity = account.CurrentEquity.Add(amount)
		}

		if err := r.SaveTransfer(ctx, transfer); err != nil {
			return err
		}
		return r.UpdateAccount(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("cash transfer",
		zap.String("account_id", accountID),
		zap.String("kind", string(kind)),
		zap.String("amount", amount.String()))
	s.notify(accountID)
	return transfer, nil
}

// Summary returns the account, its open positions, recent trades and the
// mark-to-market total across positions.
func (s *AccountService) Summary(ctx context.Context, accountID string) (*domain.AccountSummary, error) {
	var summary *domain.AccountSummary
	err := s.repo.WithinTx(ctx, func(r domain.Repository) error {
		account, err := r.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		positions, err := r.ListPositions(ctx, accountID)
		if err != nil {
			return err
		}
		trades, err := r.ListTrades(ctx, accountID, recentTradeLimit)
		if err != nil {
			return err
		}

		totalUnrealized := decimal.Zero
		for _, p := range positions {
			totalUnrealized = totalUnrealized.Add(p.UnrealizedPnL)
		}

		summary = &domain.AccountSummary{
			Account:            account,
			Positions:          positions,
			RecentTrades:       trades,
			TotalUnrealizedPnL: totalUnrealized,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Positions returns the account's live positions.
func (s *AccountService) Positions(ctx context.Context, accountID string) ([]*domain.Position, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return s.repo.ListPositions(ctx, accountID)
}

// Trades returns the account's most recent trades, newest first.
func (s *AccountService) Trades(ctx context.Context, accountID string, limit int) ([]*domain.Trade, error) {
	if _, err := s.repo.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = recentTradeLimit
	}
	return s.repo.ListTrades(ctx, accountID, limit)
}
