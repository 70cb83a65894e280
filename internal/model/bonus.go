package model

import "github.com/shopspring/decimal"

// ShowerStats summarizes shower transactions.
type ShowerStats struct {
	Count               int
	Amount              decimal.Decimal
	WeightPounds        decimal.Decimal
	AverageAmount       decimal.Decimal
	AverageWeightPounds decimal.Decimal
}

// CardStats summarizes card-reissue fees.
type CardStats struct {
	Count   int
	Amount  decimal.Decimal
	Message string
}

// AverageAmount returns Amount/Count rounded to 2dp, or zero when Count is 0.
func (c CardStats) AverageAmount() decimal.Decimal {
	if c.Count == 0 {
		return decimal.Zero
	}
	return c.Amount.DivRound(decimal.NewFromInt(int64(c.Count)), 2)
}
