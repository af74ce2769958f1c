package usecase

import (
	"time"

	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// PositionLedger owns the state transitions for one position key:
// NoPosition -> open, open -> increase (weighted average), open ->
// partial close (average unchanged), open -> full close (row removed).
type PositionLedger struct{}

// Transition is the result of applying one validated trade to a position
// snapshot.
type Transition struct {
	// Position is the resulting row, nil when the trade closed it out.
	Position *domain.Position
	// Deleted is true when a previously live row must be removed.
	Deleted bool
	// RealizedPnL is booked to account equity; zero on opens.
	RealizedPnL     decimal.Decimal
	PreviousVolume  int64
	ResultingVolume int64
}

// Apply computes the transition for a validated request. pos is nil when
// the key holds no live position. totalFee accumulates onto the row's
// commissions; equity posting is the caller's job.
func (PositionLedger) Apply(pos *domain.Position, accountID string, req domain.TradeRequest, totalFee decimal.Decimal, now time.Time) (Transition, error) {
	if req.Action == domain.ActionOpen {
		if pos == nil {
			opened := &domain.Position{
				AccountID:    accountID,
				Contract:     req.Contract,
				Month:        req.Month,
				Strategy:     req.Strategy,
				Direction:    req.Direction,
				OpenInterest: req.Volume,
				AvgPrice:     req.Price,
				StrikePrice:  req.StrikePrice,
				Premium:      req.Premium,
				LastMark:     req.Price,
				Commissions:  totalFee,
				UpdatedAt:    now,
			}
			opened.UnrealizedPnL = UnrealizedPnL(opened.Strategy, opened.Direction, opened.AvgPrice, opened.LastMark, opened.OpenInterest, opened.StrikePrice, opened.Premium)
			return Transition{Position: opened, ResultingVolume: req.Volume}, nil
		}

		avg, err := WeightedAverage(pos.AvgPrice, pos.OpenInterest, req.Price, req.Volume)
		if err != nil {
			return Transition{}, err
		}
		grown := *pos
		grown.AvgPrice = avg
		grown.OpenInterest = pos.OpenInterest + req.Volume
		grown.Commissions = pos.Commissions.Add(totalFee)
		grown.UpdatedAt = now
		grown.UnrealizedPnL = UnrealizedPnL(grown.Strategy, grown.Direction, grown.AvgPrice, grown.LastMark, grown.OpenInterest, grown.StrikePrice, grown.Premium)
		return Transition{
			Position:        &grown,
			PreviousVolume:  pos.OpenInterest,
			ResultingVolume: grown.OpenInterest,
		}, nil
	}

	// Close. The validator guarantees pos exists and covers the volume.
	if pos == nil || req.Volume > pos.OpenInterest {
		return Transition{}, domain.Internalf("close transition without a covering position")
	}

	realized := RealizedPnL(pos.Strategy, pos.Direction, pos.AvgPrice, req.Price, req.Volume, pos.StrikePrice, pos.Premium)

	if req.Volume == pos.OpenInterest {
		return Transition{
			Deleted:        true,
			RealizedPnL:    realized,
			PreviousVolume: pos.OpenInterest,
		}, nil
	}

	reduced := *pos
	reduced.OpenInterest = pos.OpenInterest - req.Volume
	reduced.Commissions = pos.Commissions.Add(totalFee)
	reduced.UpdatedAt = now
	reduced.UnrealizedPnL = UnrealizedPnL(reduced.Strategy, reduced.Direction, reduced.AvgPrice, reduced.LastMark, reduced.OpenInterest, reduced.StrikePrice, reduced.Premium)
	return Transition{
		Position:        &reduced,
		RealizedPnL:     realized,
		PreviousVolume:  pos.OpenInterest,
		ResultingVolume: reduced.OpenInterest,
	}, nil
}
