package entity

// FixedParams are the externally supplied parameters of a P&L rollup.
// OverrideRevenue, when set, replaces the computed revenue total and
// scales the computed cost proportionally.
type FixedParams struct {
	FixedCosts      float64  `json:"fixed_costs"`
	WasteAllowance  float64  `json:"waste_allowance"`
	TaxRate         float64  `json:"tax_rate"`
	CardFeeRate     float64  `json:"card_fee_rate"`
	OverrideRevenue *float64 `json:"override_revenue,omitempty"`
}

// Statement is the net-profit rollup of a dataset under fixed parameters.
type Statement struct {
	Revenue        float64  `json:"revenue"`
	Cost           float64  `json:"cost"`
	Deductions     float64  `json:"deductions"`
	FixedCosts     float64  `json:"fixed_costs"`
	WasteAllowance float64  `json:"waste_allowance"`
	NetProfit      float64  `json:"net_profit"`
	NetMargin      *float64 `json:"net_margin"` // nil at zero revenue
}
