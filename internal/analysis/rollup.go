package analysis

import "github.com/pedrostorrios-lang/padaria-gestao/internal/entity"

// Rollup aggregates the dataset into a net-profit statement under the
// supplied fixed parameters. When an override revenue differs from the
// computed total, the computed cost is scaled proportionally so the
// statement stays coherent with the externally reported figure.
func Rollup(ds entity.Dataset, p entity.FixedParams) entity.Statement {
	var computedRevenue, computedCost float64
	for _, rec := range ds {
		revenue := rec.Revenue
		if revenue == 0 {
			revenue = rec.Quantity * rec.UnitPrice
		}
		computedRevenue += revenue
		computedCost += rec.Quantity * rec.UnitCost
	}

	effectiveRevenue := computedRevenue
	effectiveCost := computedCost
	if p.OverrideRevenue != nil && *p.OverrideRevenue != computedRevenue {
		effectiveRevenue = *p.OverrideRevenue
		scale := 1.0
		if computedRevenue > 0 {
			scale = effectiveRevenue / computedRevenue
		}
		effectiveCost = computedCost * scale
	}

	deductions := effectiveRevenue * (p.TaxRate + p.CardFeeRate)
	netProfit := effectiveRevenue - effectiveCost - deductions - p.FixedCosts - p.WasteAllowance

	st := entity.Statement{
		Revenue:        effectiveRevenue,
		Cost:           effectiveCost,
		Deductions:     deductions,
		FixedCosts:     p.FixedCosts,
		WasteAllowance: p.WasteAllowance,
		NetProfit:      netProfit,
	}
	if effectiveRevenue > 0 {
		m := netProfit / effectiveRevenue
		st.NetMargin = &m
	}
	return st
}
