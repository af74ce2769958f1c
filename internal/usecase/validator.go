package usecase

import "github.com/baltex/ffa_ledger/internal/domain"

// TradeValidator runs the stateless business-rule checks for a trade
// request against a snapshot of the current position. The snapshot must
// be read inside the same transaction that commits the trade.
type TradeValidator struct{}

// Validate returns nil or the first failed check, in contract, volume,
// strategy, position order. It has no side effects.
func (TradeValidator) Validate(req domain.TradeRequest, pos *domain.Position) error {
	contract, ok := domain.LookupContract(req.Contract)
	if !ok {
		return domain.ErrUnknownContract
	}

	if req.Volume < contract.MinVolume || req.Volume > contract.MaxVolume {
		return domain.ErrVolumeOutOfRange
	}

	if !knownCombination(req.Strategy, req.Action, req.Direction) {
		return domain.ErrUnknownStrategy
	}
	if !req.Price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	if req.Strategy.IsOption() && req.Action == domain.ActionOpen {
		if !req.StrikePrice.IsPositive() || req.Premium.IsNegative() {
			return domain.ErrInvalidOptionTerms
		}
	}

	if req.Action == domain.ActionClose {
		if pos == nil || pos.OpenInterest == 0 {
			return domain.ErrNoPositionToClose
		}
		if req.Volume > pos.OpenInterest {
			return domain.ErrCloseVolumeExceedsPosition
		}
	}

	return nil
}

func knownCombination(s domain.Strategy, a domain.Action, d domain.Direction) bool {
	switch s {
	case domain.StrategyFuture, domain.StrategyCall, domain.StrategyPut:
	default:
		return false
	}
	switch a {
	case domain.ActionOpen, domain.ActionClose:
	default:
		return false
	}
	switch d {
	case domain.DirectionLong, domain.DirectionShort:
	default:
		return false
	}
	return true
}
