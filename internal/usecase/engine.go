package usecase

import (
	"context"
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TradingEngine orchestrates trade execution: it validates the request,
// prices fees, transitions the position and commits trade, position and
// account updates as one transaction.
type TradingEngine struct {
	repo      domain.Repository
	fees      *FeeCalculator
	validator TradeValidator
	ledger    PositionLedger
	locks     *AccountLocks
	logger    *zap.Logger
	audit     *zap.Logger

	onCommit func(accountID string)
}

func NewTradingEngine(repo domain.Repository, fees *FeeCalculator, locks *AccountLocks, logger *zap.Logger, audit *zap.Logger) *TradingEngine {
	if audit == nil {
		audit = logger
	}
	return &TradingEngine{
		repo:   repo,
		fees:   fees,
		locks:  locks,
		logger: logger,
		audit:  audit,
	}
}

// OnCommit registers a callback invoked after every committed mutation of
// an account's ledger.
func (e *TradingEngine) OnCommit(fn func(accountID string)) {
	e.onCommit = fn
}

func (e *TradingEngine) notify(accountID string) {
	if e.onCommit != nil {
		e.onCommit(accountID)
	}
}

// ExecuteTrade runs the full read-validate-write sequence under the
// account's lock. A validation failure aborts before any write; a
// repository failure rolls the whole transaction back.
func (e *TradingEngine) ExecuteTrade(ctx context.Context, accountID string, req domain.TradeRequest) (*domain.Trade, error) {
	unlock := e.locks.Lock(accountID)
	defer unlock()

	now := time.Now().UTC()
	if req.TradeDate.IsZero() {
		req.TradeDate = now
	}

	var trade *domain.Trade
	err := e.repo.WithinTx(ctx, func(r domain.Repository) error {
		account, err := r.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}

		pos, err := r.GetPosition(ctx, req.Key(accountID))
		if err != nil {
			return err
		}

		if err := e.validator.Validate(req, pos); err != nil {
			return err
		}

		commission, clearing, totalFee := e.fees.Fees(req.Price, req.Volume)

		tr, err := e.ledger.Apply(pos, accountID, req, totalFee, now)
		if err != nil {
			return err
		}

		// Closes carry the position's option terms on the trade record.
		strike, premium := req.StrikePrice, req.Premium
		if req.Action == domain.ActionClose && pos != nil {
			strike, premium = pos.StrikePrice, pos.Premium
		}

		trade = &domain.Trade{
			ID:              uuid.NewString(),
			AccountID:       accountID,
			Contract:        req.Contract,
			Month:           req.Month,
			TradeDate:       req.TradeDate,
			Strategy:        req.Strategy,
			Action:          req.Action,
			Direction:       req.Direction,
			Price:           req.Price,
			StrikePrice:     strike,
			Premium:         premium,
			Volume:          req.Volume,
			Commission:      commission,
			ClearingFee:     clearing,
			TradePnL:        tr.RealizedPnL,
			PreviousVolume:  tr.PreviousVolume,
			ResultingVolume: tr.ResultingVolume,
			CreatedAt:       now,
		}
		if err := r.SaveTrade(ctx, trade); err != nil {
			return err
		}

		if tr.Deleted {
			if err := r.DeletePosition(ctx, req.Key(accountID)); err != nil {
				return err
			}
		} else {
			if err := r.UpsertPosition(ctx, tr.Position); err != nil {
				return err
			}
		}

		account.CurrentEquity = account.CurrentEquity.Sub(totalFee).Add(tr.RealizedPnL)
		account.TotalPnL = account.TotalPnL.Add(tr.RealizedPnL)
		return r.UpdateAccount(ctx, account)
	})
	if err != nil {
		if domain.IsValidation(err) {
			e.logger.Info("trade rejected",
				zap.String("account_id", accountID),
				zap.String("contract", req.Contract),
				zap.Error(err))
		} else {
			e.logger.Error("trade failed",
				zap.String("account_id", accountID),
				zap.String("contract", req.Contract),
				zap.Error(err))
		}
		return nil, err
	}

	e.audit.Info("trade executed",
		zap.String("trade_id", trade.ID),
		zap.String("account_id", accountID),
		zap.String("contract", trade.Contract),
		zap.String("month", trade.Month),
		zap.String("strategy", string(trade.Strategy)),
		zap.String("action", string(trade.Action)),
		zap.String("direction", string(trade.Direction)),
		zap.String("price", trade.Price.String()),
		zap.Int64("volume", trade.Volume),
		zap.String("trade_pnl", trade.TradePnL.String()),
		zap.Int64("previous_volume", trade.PreviousVolume),
		zap.Int64("resulting_volume", trade.ResultingVolume))

	e.notify(accountID)
	return trade, nil
}

// ApplyMarks upserts daily settlement prices and re-marks every open
// position on the marked contract months. Each mark commits atomically
// with its position updates; account equity is never touched.
func (e *TradingEngine) ApplyMarks(ctx context.Context, marks []domain.MarkPrice) error {
	touched := make(map[string]struct{})

	for _, mark := range marks {
		if _, ok := domain.LookupContract(mark.Contract); !ok {
			return domain.ErrUnknownContract
		}
		if !mark.Price.IsPositive() {
			return domain.ErrInvalidPrice
		}

		m := mark
		if m.MarkDate.IsZero() {
			m.MarkDate = time.Now().UTC()
		}

		err := e.repo.WithinTx(ctx, func(r domain.Repository) error {
			if err := r.UpsertMark(ctx, &m); err != nil {
				return err
			}

			positions, err := r.ListPositionsByContract(ctx, m.Contract, m.Month)
			if err != nil {
				return err
			}
			for _, pos := range positions {
				pos.LastMark = m.Price
				pos.UnrealizedPnL = UnrealizedPnL(pos.Strategy, pos.Direction, pos.AvgPrice, m.Price, pos.OpenInterest, pos.StrikePrice, pos.Premium)
				pos.UpdatedAt = m.MarkDate
				if err := r.UpsertPosition(ctx, pos); err != nil {
					return err
				}
				touched[pos.AccountID] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return err
		}

		e.logger.Info("mark applied",
			zap.String("contract", m.Contract),
			zap.String("month", m.Month),
			zap.String("price", m.Price.String()))
	}

	for accountID := range touched {
		e.notify(accountID)
	}
	return nil
}
