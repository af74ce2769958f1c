package usecase

import (
	"context"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SettlementGenerator produces periodic settlement statements and their
// closed-trade detail breakdowns. Generation is read-mostly: it writes
// only the statement row, inside one transaction-consistent snapshot.
type SettlementGenerator struct {
	repo   domain.Repository
	locks  *AccountLocks
	logger *zap.Logger
}

func NewSettlementGenerator(repo domain.Repository, locks *AccountLocks, logger *zap.Logger) *SettlementGenerator {
	return &SettlementGenerator{repo: repo, locks: locks, logger: logger}
}

// Generate closes the period [start, end) for the account. Beginning
// equity chains from the preceding statement's ending equity, or the
// account's initial equity when none exists. Unrealized PnL snapshots
// the positions live at generation time: callers close a period at its
// boundary, so the snapshot is the period-end state. Generating late
// for a past window folds in positions opened since.
func (g *SettlementGenerator) Generate(ctx context.Context, accountID string, start, end time.Time) (*domain.SettlementStatement, error) {
	if !start.Before(end) {
		return nil, domain.ErrInvalidPeriod
	}

	unlock := g.locks.Lock(accountID)
	defer unlock()

	var stmt *domain.SettlementStatement
	err := g.repo.WithinTx(ctx, func(r domain.Repository) error {
		account, err := r.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		prev, err := r.LatestStatementEndingBy(ctx, accountID, start)
		if err != nil {
			return err
		}
		beginning := account.InitialEquity
		if prev != nil {
			beginning = prev.EndingEquity
		}

		trades, err := r.ListTradesInWindow(ctx, accountID, start, end)
		if err != nil {
			return err
		}
		realized := decimal.Zero
		commissions := decimal.Zero
		for _, t := range trades {
			realized = realized.Add(t.TradePnL)
			commissions = commissions.Add(t.Commission).Add(t.ClearingFee)
		}

		deposits, err := r.SumTransfers(ctx, accountID, domain.TransferDeposit, start, end)
		if err != nil {
			return err
		}
		withdrawals, err := r.SumTransfers(ctx, accountID, domain.TransferWithdrawal, start, end)
		if err != nil {
			return err
		}

		positions, err := r.ListPositions(ctx, accountID)
		if err != nil {
			return err
		}
		unrealized := decimal.Zero
		for _, p := range positions {
			unrealized = unrealized.Add(p.UnrealizedPnL)
		}

		stmt = &domain.SettlementStatement{
			ID:              uuid.NewString(),
			AccountID:       accountID,
			PeriodStart:     start,
			PeriodEnd:       end,
			BeginningEquity: beginning,
			Deposits:        deposits,
			Withdrawals:     withdrawals,
			RealizedPnL:     realized,
			UnrealizedPnL:   unrealized,
			Commissions:     commissions,
			EndingEquity:    beginning.Add(deposits).Sub(withdrawals).Add(realized).Sub(commissions),
			CreatedAt:       time.Now().UTC(),
		}
		return r.SaveStatement(ctx, stmt)
	})
	if err != nil {
		return nil, err
	}

	g.logger.Info("settlement statement created",
		zap.String("statement_id", stmt.ID),
		zap.String("account_id", accountID),
		zap.Time("period_start", start),
		zap.Time("period_end", end),
		zap.String("ending_equity", stmt.EndingEquity.String()))
	return stmt, nil
}

// StatementDetail returns a statement with its closed trades, each FIFO
// paired against the opening trades that supplied the closed volume.
func (g *SettlementGenerator) StatementDetail(ctx context.Context, statementID string) (*domain.SettlementStatement, []domain.ClosedTradeDetail, error) {
	var stmt *domain.SettlementStatement
	var details []domain.ClosedTradeDetail

	err := g.repo.WithinTx(ctx, func(r domain.Repository) error {
		var err error
		stmt, err = r.GetStatement(ctx, statementID)
		if err != nil {
			return err
		}

		window, err := r.ListTradesInWindow(ctx, stmt.AccountID, stmt.PeriodStart, stmt.PeriodEnd)
		if err != nil {
			return err
		}

		// Pairing needs each closing key's full history, not just the
		// statement window.
		seen := make(map[domain.PositionKey]bool)
		for _, t := range window {
			if t.Action != domain.ActionClose || seen[t.Key()] {
				continue
			}
			seen[t.Key()] = true

			history, err := r.ListTradesForKey(ctx, t.Key(), stmt.PeriodEnd)
			if err != nil {
				return err
			}
			details = append(details, pairClosedTrades(history, stmt.PeriodStart, stmt.PeriodEnd)...)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return stmt, details, nil
}

// pairClosedTrades replays one key's trade history in order, matching
// closing volume against a FIFO queue of open lots, and reports the pairs
// whose close falls in [start, end). Per-pair PnL settles against the
// matched lot's open price; a reporting convention, distinct from the
// weighted-average basis the ledger books against.
func pairClosedTrades(history []*domain.Trade, start, end time.Time) []domain.ClosedTradeDetail {
	type lot struct {
		trade     *domain.Trade
		remaining int64
	}

	var queue []lot
	var details []domain.ClosedTradeDetail

	for _, t := range history {
		switch t.Action {
		case domain.ActionOpen:
			queue = append(queue, lot{trade: t, remaining: t.Volume})
		case domain.ActionClose:
			remaining := t.Volume
			inWindow := !t.CreatedAt.Before(start) && t.CreatedAt.Before(end)

			for remaining > 0 && len(queue) > 0 {
				l := &queue[0]
				matched := min(l.remaining, remaining)

				if inWindow {
					pnl := RealizedPnL(t.Strategy, t.Direction, l.trade.Price, t.Price, matched, l.trade.StrikePrice, l.trade.Premium)
					details = append(details, domain.ClosedTradeDetail{
						OpenTradeID:  l.trade.ID,
						CloseTradeID: t.ID,
						Contract:     t.Contract,
						Month:        t.Month,
						Strategy:     t.Strategy,
						Direction:    t.Direction,
						OpenPrice:    l.trade.Price,
						ClosePrice:   t.Price,
						Volume:       matched,
						RealizedPnL:  pnl,
						OpenedAt:     l.trade.CreatedAt,
						ClosedAt:     t.CreatedAt,
					})
				}

				l.remaining -= matched
				remaining -= matched
				if l.remaining == 0 {
					queue = queue[1:]
				}
			}
		}
	}
	return details
}
