// Package analysis computes the profitability views of a dataset: ABC
// revenue tiers, BCG-style quadrants and the profit-and-loss rollup.
// Every function is pure over a snapshot of its input; callers can run
// them concurrently over the same dataset without coordination.
package analysis

import (
	"sort"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// TierMode selects the metric used for ABC tiering. Revenue-based tiering
// is the default; quantity-based tiering is an alternate mode some
// operations prefer for high-rotation goods.
type TierMode string

const (
	TierByRevenue  TierMode = "revenue"
	TierByQuantity TierMode = "quantity"
)

// Options tune the classification engine.
type Options struct {
	TierBy TierMode // defaults to TierByRevenue
}

// ABC cumulative-share cutoffs.
const (
	classACutoff = 0.80
	classBCutoff = 0.95
)

// Classify derives revenue, profit and margin for every record, assigns
// ABC classes by cumulative revenue share and BCG quadrants by margin
// versus the median margin. The input dataset is copied, never mutated;
// the result is ordered by the tiering metric, descending. An empty
// dataset classifies to an empty result.
func Classify(ds entity.Dataset, opts Options) entity.Dataset {
	out := ds.Copy()
	if len(out) == 0 {
		return out
	}

	for i := range out {
		rec := &out[i]
		// A supplied revenue column is authoritative when non-zero.
		if rec.Revenue == 0 {
			rec.Revenue = rec.Quantity * rec.UnitPrice
		}
		rec.Profit = rec.Revenue - rec.Quantity*rec.UnitCost
		if rec.Revenue > 0 {
			m := rec.Profit / rec.Revenue
			rec.MarginRatio = &m
		} else {
			rec.MarginRatio = nil
		}
	}

	tierBy := opts.TierBy
	if tierBy == "" {
		tierBy = TierByRevenue
	}
	metric := func(r entity.ProductRecord) float64 { return r.Revenue }
	if tierBy == TierByQuantity {
		metric = func(r entity.ProductRecord) float64 { return r.Quantity }
	}

	sort.SliceStable(out, func(i, j int) bool {
		return metric(out[i]) > metric(out[j])
	})

	var total float64
	for _, rec := range out {
		total += metric(rec)
	}

	cumulative := 0.0
	for i := range out {
		if total == 0 {
			out[i].ABCClass = entity.ClassC
			continue
		}
		cumulative += metric(out[i]) / total
		switch {
		case cumulative <= classACutoff:
			out[i].ABCClass = entity.ClassA
		case cumulative <= classBCutoff:
			out[i].ABCClass = entity.ClassB
		default:
			out[i].ABCClass = entity.ClassC
		}
	}

	median, hasMedian := medianMargin(out)
	for i := range out {
		highVolume := out[i].ABCClass == entity.ClassA || out[i].ABCClass == entity.ClassB
		// Records with undefined margin count as not high-margin.
		highMargin := hasMedian && out[i].MarginRatio != nil && *out[i].MarginRatio >= median
		switch {
		case highVolume && highMargin:
			out[i].BCGCategory = entity.CategoryStar
		case highVolume:
			out[i].BCGCategory = entity.CategoryWorkhorse
		case highMargin:
			out[i].BCGCategory = entity.CategoryPuzzle
		default:
			out[i].BCGCategory = entity.CategoryDog
		}
	}

	return out
}

// medianMargin returns the median of the defined margin ratios.
func medianMargin(ds entity.Dataset) (float64, bool) {
	margins := make([]float64, 0, len(ds))
	for _, rec := range ds {
		if rec.MarginRatio != nil {
			margins = append(margins, *rec.MarginRatio)
		}
	}
	if len(margins) == 0 {
		return 0, false
	}
	sort.Float64s(margins)
	mid := len(margins) / 2
	if len(margins)%2 == 0 {
		return (margins[mid-1] + margins[mid]) / 2, true
	}
	return margins[mid], true
}

// Summary aggregates the headline figures the dashboard shows.
type Summary struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalProfit  float64 `json:"total_profit"`
	MeanMargin   float64 `json:"mean_margin"`
	Products     int     `json:"products"`
}

// Summarize rolls a classified dataset up into dashboard figures. The
// mean margin averages only records with a defined margin.
func Summarize(ds entity.Dataset) Summary {
	s := Summary{Products: len(ds)}
	defined := 0
	for _, rec := range ds {
		s.TotalRevenue += rec.Revenue
		s.TotalProfit += rec.Profit
		if rec.MarginRatio != nil {
			s.MeanMargin += *rec.MarginRatio
			defined++
		}
	}
	if defined > 0 {
		s.MeanMargin /= float64(defined)
	}
	return s
}
