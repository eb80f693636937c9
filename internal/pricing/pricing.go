// Package pricing implements the reverse-markup formulas: instead of
// adding a fixed markup to cost, they solve for the sale price that still
// delivers the desired margin after every per-sale deduction. Values are
// never rounded here; formatting is the caller's concern.
package pricing

import (
	"errors"
	"fmt"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// ErrMarginExceedsCeiling is returned when the composite deduction rate
// plus the desired margin reaches or passes 100% of the price.
var ErrMarginExceedsCeiling = errors.New("margin plus deductions exceed 100% of price")

// ErrCommissionExceedsCeiling is returned when a delivery-platform
// commission rate reaches or passes 100%.
var ErrCommissionExceedsCeiling = errors.New("commission rate exceeds 100%")

// CounterPrice computes the counter sale price that covers direct costs,
// the composite deduction rate and the desired margin.
func CounterPrice(directCosts float64, dna entity.DeductionProfile, desiredMargin float64) (float64, error) {
	divisor := 1 - dna.CompositeRate() - desiredMargin
	if divisor <= 0 {
		return 0, fmt.Errorf("divisor %.4f: %w", divisor, ErrMarginExceedsCeiling)
	}
	return directCosts / divisor, nil
}

// DeliveryQuote is the delivery-platform variant of the reverse markup:
// the minimum payout the platform must transfer, and the price the
// customer sees once the coupon is financed into it.
type DeliveryQuote struct {
	MinimumPayout float64 `json:"minimum_payout"`
	CustomerPrice float64 `json:"customer_price"`
}

// DeliveryPrice solves platform pricing for a list price, the per-order
// delivery cost, the campaign spend attributed to the order and the
// coupon value granted, under the platform's commission rate.
func DeliveryPrice(listPrice, deliveryCost, campaignSpend, couponValue, commissionRate float64) (DeliveryQuote, error) {
	if commissionRate >= 1 {
		return DeliveryQuote{}, fmt.Errorf("rate %.4f: %w", commissionRate, ErrCommissionExceedsCeiling)
	}
	payout := (listPrice + deliveryCost + campaignSpend) / (1 - commissionRate)
	return DeliveryQuote{
		MinimumPayout: payout,
		CustomerPrice: payout + couponValue,
	}, nil
}

// SeedFromRecord pre-fills counter pricing inputs from a dataset row,
// using its unit cost as the direct costs.
func SeedFromRecord(rec entity.ProductRecord) float64 {
	return rec.UnitCost
}
