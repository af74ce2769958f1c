package usecase

import (
	"github.com/baltex/ffa_ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// WeightedAverage returns the volume-weighted average entry price after
// adding newVolume lots at newPrice to oldVolume lots held at oldAvg.
// A zero combined volume is an internal invariant violation.
func WeightedAverage(oldAvg decimal.Decimal, oldVolume int64, newPrice decimal.Decimal, newVolume int64) (decimal.Decimal, error) {
	total := oldVolume + newVolume
	if total == 0 {
		return decimal.Zero, domain.Internalf("weighted average over zero combined volume")
	}
	sum := oldAvg.Mul(decimal.NewFromInt(oldVolume)).Add(newPrice.Mul(decimal.NewFromInt(newVolume)))
	return sum.Div(decimal.NewFromInt(total)), nil
}

// RealizedPnL is the profit booked when volume lots are closed at
// exitPrice. Futures settle against the weighted-average entry price;
// options settle intrinsic value against strike minus the premium paid,
// with the sign mirrored for the short side.
func RealizedPnL(strategy domain.Strategy, direction domain.Direction, entryPrice, exitPrice decimal.Decimal, volume int64, strike, premium decimal.Decimal) decimal.Decimal {
	vol := decimal.NewFromInt(volume)
	sign := decimal.NewFromInt(direction.Sign())

	switch strategy {
	case domain.StrategyCall:
		intrinsic := decimal.Max(decimal.Zero, exitPrice.Sub(strike))
		return sign.Mul(intrinsic.Sub(premium)).Mul(vol)
	case domain.StrategyPut:
		intrinsic := decimal.Max(decimal.Zero, strike.Sub(exitPrice))
		return sign.Mul(intrinsic.Sub(premium)).Mul(vol)
	default:
		return sign.Mul(exitPrice.Sub(entryPrice)).Mul(vol)
	}
}

// UnrealizedPnL marks openInterest lots to markPrice. Identical to
// RealizedPnL with the mark in place of the exit price; zero open
// interest marks to zero.
func UnrealizedPnL(strategy domain.Strategy, direction domain.Direction, entryPrice, markPrice decimal.Decimal, openInterest int64, strike, premium decimal.Decimal) decimal.Decimal {
	if openInterest == 0 {
		return decimal.Zero
	}
	return RealizedPnL(strategy, direction, entryPrice, markPrice, openInterest, strike, premium)
}
