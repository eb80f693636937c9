package entity

// ComboSuggestion is a transient promotional bundle pairing two products.
// Suggestions are returned in generation order and are never persisted.
type ComboSuggestion struct {
	ProductA             string   `json:"product_a"`
	ProductB             string   `json:"product_b"`
	Strategy             string   `json:"strategy"`
	Discount             float64  `json:"discount"`
	FullPrice            float64  `json:"full_price"`
	PromoPrice           float64  `json:"promo_price"`
	OperationalDeduction float64  `json:"operational_deduction"`
	NetProfit            float64  `json:"net_profit"`
	NetMargin            *float64 `json:"net_margin"` // nil when promo price is zero
}
