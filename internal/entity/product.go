package entity

// ABC revenue tiers.
const (
	ClassA = "A"
	ClassB = "B"
	ClassC = "C"
)

// BCG-style profitability quadrants.
const (
	CategoryStar      = "Star"
	CategoryWorkhorse = "Workhorse"
	CategoryPuzzle    = "Puzzle"
	CategoryDog       = "Dog"
)

// ProductRecord is one row of the sales/cost ledger. Name is treated as a
// lookup key even though it is not unique; duplicates resolve to the first
// match. Revenue, Profit, MarginRatio, ABCClass and BCGCategory are filled
// by the classification engine, not by ingestion.
type ProductRecord struct {
	Name        string   `json:"product"`
	Quantity    float64  `json:"quantity"`
	UnitCost    float64  `json:"cost"`
	UnitPrice   float64  `json:"sale_price"`
	Revenue     float64  `json:"revenue"`
	Profit      float64  `json:"profit"`
	MarginRatio *float64 `json:"margin_ratio"` // nil when revenue is zero
	ABCClass    string   `json:"abc_class,omitempty"`
	BCGCategory string   `json:"bcg_category,omitempty"`
}

// Dataset is an ordered collection of product records. Engine calls treat
// a dataset as a snapshot: they copy before computing and never mutate the
// caller's slice in place.
type Dataset []ProductRecord

// Copy returns an independent copy of the dataset.
func (d Dataset) Copy() Dataset {
	out := make(Dataset, len(d))
	copy(out, d)
	return out
}

// Find returns the first record with the given name.
func (d Dataset) Find(name string) (ProductRecord, bool) {
	for _, rec := range d {
		if rec.Name == name {
			return rec, true
		}
	}
	return ProductRecord{}, false
}
