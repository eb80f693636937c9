// Package combo pairs segmented products into promotional bundles: the
// classic move is to let a high-traffic Workhorse pull a high-margin
// Puzzle item along. Which strategies fire first is randomized, but the
// bundle economics are deterministic.
package combo

import (
	"math/rand"
	"time"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// Segment names the pools products are drawn from.
type Segment string

const (
	SegmentStar      Segment = "star"
	SegmentWorkhorse Segment = "workhorse"
	SegmentPuzzle    Segment = "puzzle"
	SegmentDog       Segment = "dog"
)

// Thresholds split the classified dataset into segments. They are
// configuration, not business law: operations with fatter margins raise
// them.
type Thresholds struct {
	StarMargin   float64 // high-volume items above this margin are stars
	PuzzleMargin float64 // low-volume items above this margin are puzzles
}

// DefaultThresholds mirror the house defaults.
var DefaultThresholds = Thresholds{StarMargin: 0.40, PuzzleMargin: 0.50}

// Strategy names a segment pairing and its default discount fraction.
type Strategy struct {
	Name     string  `json:"name"`
	From     Segment `json:"from"`
	To       Segment `json:"to"`
	Discount float64 `json:"discount"`
}

// DefaultStrategies is the house strategy table.
var DefaultStrategies = []Strategy{
	{Name: "puxador de trafego", From: SegmentWorkhorse, To: SegmentPuzzle, Discount: 0.10},
	{Name: "vitrine premium", From: SegmentStar, To: SegmentPuzzle, Discount: 0.08},
	{Name: "dupla campea", From: SegmentStar, To: SegmentStar, Discount: 0.05},
	{Name: "resgate de encalhe", From: SegmentWorkhorse, To: SegmentDog, Discount: 0.15},
	{Name: "carro chefe", From: SegmentStar, To: SegmentWorkhorse, Discount: 0.05},
}

// maxPasses bounds the strategy loop so empty segments can never spin it
// forever.
const maxPasses = 8

// Options tune the recommender.
type Options struct {
	Thresholds *Thresholds // nil means DefaultThresholds; a zero value is honored
	Strategies []Strategy
	Rand       *rand.Rand // selection randomness; a new seeded source when nil
}

// Suggest produces up to count bundle suggestions from a classified
// dataset. The strategy order is shuffled once per invocation, then walked
// in bounded passes until count is reached or a full pass adds nothing
// new. An empty result is a valid outcome, not an error.
func Suggest(ds entity.Dataset, dna entity.DeductionProfile, count int, opts Options) []entity.ComboSuggestion {
	if count <= 0 || len(ds) == 0 {
		return nil
	}
	th := DefaultThresholds
	if opts.Thresholds != nil {
		th = *opts.Thresholds
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	segments := segment(ds, th)

	shuffled := append([]Strategy(nil), strategies...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	suggestions := make([]entity.ComboSuggestion, 0, count)
	seen := make(map[[2]string]bool)
	for pass := 0; pass < maxPasses && len(suggestions) < count; pass++ {
		progressed := false
		for _, st := range shuffled {
			if len(suggestions) >= count {
				break
			}
			a, b, ok := drawPair(segments[st.From], segments[st.To], st.From == st.To, rng)
			if !ok {
				continue
			}
			key := pairKey(a.Name, b.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			suggestions = append(suggestions, price(a, b, st, dna))
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return suggestions
}

// segment partitions classified records into the strategy pools. High
// volume means ABC class A or B; an undefined margin counts as zero.
func segment(ds entity.Dataset, th Thresholds) map[Segment][]entity.ProductRecord {
	out := make(map[Segment][]entity.ProductRecord)
	for _, rec := range ds {
		margin := 0.0
		if rec.MarginRatio != nil {
			margin = *rec.MarginRatio
		}
		highVolume := rec.ABCClass == entity.ClassA || rec.ABCClass == entity.ClassB
		var seg Segment
		switch {
		case highVolume && margin > th.StarMargin:
			seg = SegmentStar
		case highVolume:
			seg = SegmentWorkhorse
		case margin > th.PuzzleMargin:
			seg = SegmentPuzzle
		default:
			seg = SegmentDog
		}
		out[seg] = append(out[seg], rec)
	}
	return out
}

// drawPair picks one record from each pool. A self-paired pool must hold
// at least two products and the two draws must differ; a bundle never
// pairs a product with itself.
func drawPair(from, to []entity.ProductRecord, same bool, rng *rand.Rand) (entity.ProductRecord, entity.ProductRecord, bool) {
	if len(from) == 0 || len(to) == 0 {
		return entity.ProductRecord{}, entity.ProductRecord{}, false
	}
	a := from[rng.Intn(len(from))]
	if !same {
		b := to[rng.Intn(len(to))]
		if a.Name == b.Name {
			return entity.ProductRecord{}, entity.ProductRecord{}, false
		}
		return a, b, true
	}
	if len(to) < 2 {
		return entity.ProductRecord{}, entity.ProductRecord{}, false
	}
	// Bounded re-draws: a pool can hold duplicate names.
	for i := 0; i < 2*len(to); i++ {
		b := to[rng.Intn(len(to))]
		if b.Name != a.Name {
			return a, b, true
		}
	}
	return entity.ProductRecord{}, entity.ProductRecord{}, false
}

// price computes the bundle economics under the deduction profile.
func price(a, b entity.ProductRecord, st Strategy, dna entity.DeductionProfile) entity.ComboSuggestion {
	full := a.UnitPrice + b.UnitPrice
	promo := full * (1 - st.Discount)
	deduction := promo * dna.CompositeRate()
	netProfit := promo - (a.UnitCost + b.UnitCost) - deduction

	s := entity.ComboSuggestion{
		ProductA:             a.Name,
		ProductB:             b.Name,
		Strategy:             st.Name,
		Discount:             st.Discount,
		FullPrice:            full,
		PromoPrice:           promo,
		OperationalDeduction: deduction,
		NetProfit:            netProfit,
	}
	if promo > 0 {
		m := netProfit / promo
		s.NetMargin = &m
	}
	return s
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
