package usecase

import "github.com/shopspring/decimal"

// FeeSchedule holds the proportional commission rate and the fixed
// per-trade clearing fee.
type FeeSchedule struct {
	CommissionRate decimal.Decimal
	ClearingFee    decimal.Decimal
}

// FeeCalculator computes commission and clearing fees for a trade.
type FeeCalculator struct {
	schedule FeeSchedule
}

func NewFeeCalculator(schedule FeeSchedule) *FeeCalculator {
	return &FeeCalculator{schedule: schedule}
}

// Fees returns the proportional commission, the fixed clearing fee and
// their total for a trade of volume lots at price.
func (c *FeeCalculator) Fees(price decimal.Decimal, volume int64) (commission, clearing, total decimal.Decimal) {
	commission = price.Mul(decimal.NewFromInt(volume)).Mul(c.schedule.CommissionRate)
	clearing = c.schedule.ClearingFee
	total = commission.Add(clearing)
	return commission, clearing, total
}

// TradeNotional is price x volume minus total fees. Fees reduce the
// notional on both buy-side and sell-side trades.
func (c *FeeCalculator) TradeNotional(price decimal.Decimal, volume int64) decimal.Decimal {
	_, _, total := c.Fees(price, volume)
	return price.Mul(decimal.NewFromInt(volume)).Sub(total)
}
