package entity

// DeductionProfile carries every per-sale percentage deduction the business
// pays, all expressed as fractions. The composite rate (the "DNA" of the
// operation) is the sum of them and feeds the reverse-markup formulas.
// Last write wins; there is no versioning.
type DeductionProfile struct {
	ID             uint    `json:"id,omitempty"`
	FixedCostRatio float64 `json:"fixed_cost_ratio"` // fixed costs / expected revenue
	TaxRate        float64 `json:"tax_rate"`
	CardFeeRate    float64 `json:"card_fee_rate"`
	RoyaltyRate    float64 `json:"royalty_rate"`
}

// CompositeRate returns the total fraction deducted from every sale.
func (d DeductionProfile) CompositeRate() float64 {
	return d.FixedCostRatio + d.TaxRate + d.CardFeeRate + d.RoyaltyRate
}

// NewDeductionProfile derives the fixed-cost ratio from a raw fixed-cost
// amount and the expected revenue it is spread over. A non-positive
// expected revenue yields a zero ratio rather than a division blow-up.
func NewDeductionProfile(fixedCosts, expectedRevenue, taxRate, cardFeeRate, royaltyRate float64) DeductionProfile {
	ratio := 0.0
	if expectedRevenue > 0 {
		ratio = fixedCosts / expectedRevenue
	}
	return DeductionProfile{
		FixedCostRatio: ratio,
		TaxRate:        taxRate,
		CardFeeRate:    cardFeeRate,
		RoyaltyRate:    royaltyRate,
	}
}
