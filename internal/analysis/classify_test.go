package analysis

import (
	"math"
	"testing"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

func rec(name string, qty, cost, price float64) entity.ProductRecord {
	return entity.ProductRecord{Name: name, Quantity: qty, UnitCost: cost, UnitPrice: price}
}

func TestClassifyEmptyDataset(t *testing.T) {
	got := Classify(entity.Dataset{}, Options{})
	if len(got) != 0 {
		t.Fatalf("empty dataset must classify to empty result, got %d rows", len(got))
	}
}

func TestClassifyDoesNotMutateInput(t *testing.T) {
	in := entity.Dataset{rec("a", 10, 1, 5), rec("b", 1, 1, 2)}
	_ = Classify(in, Options{})
	if in[0].ABCClass != "" || in[0].Revenue != 0 {
		t.Errorf("input mutated: %+v", in[0])
	}
}

func TestClassifyABCPartition(t *testing.T) {
	// Revenues: 700, 200, 60, 40 of 1000 total.
	// Cumulative: 0.70 (A), 0.90 (B), 0.96 (C), 1.00 (C).
	ds := entity.Dataset{
		rec("lider", 700, 0.5, 1),
		rec("segundo", 200, 0.5, 1),
		rec("terceiro", 60, 0.5, 1),
		rec("cauda", 40, 0.5, 1),
	}
	got := Classify(ds, Options{})

	wantClasses := map[string]string{
		"lider":    entity.ClassA,
		"segundo":  entity.ClassB,
		"terceiro": entity.ClassC,
		"cauda":    entity.ClassC,
	}
	for _, r := range got {
		if r.ABCClass != wantClasses[r.Name] {
			t.Errorf("%s: class = %s, want %s", r.Name, r.ABCClass, wantClasses[r.Name])
		}
	}

	// Class A cumulative share stays at or below the cutoff; admitting the
	// first B record crosses it.
	var total, cumA float64
	for _, r := range got {
		total += r.Revenue
	}
	firstB := -1.0
	for _, r := range got {
		if r.ABCClass == entity.ClassA {
			cumA += r.Revenue
		}
		if r.ABCClass == entity.ClassB && firstB < 0 {
			firstB = r.Revenue
		}
	}
	if cumA/total > 0.80 {
		t.Errorf("class A share %v exceeds 0.80", cumA/total)
	}
	if firstB > 0 && (cumA+firstB)/total <= 0.80 {
		t.Errorf("first class B record should cross the 0.80 boundary")
	}
}

func TestClassifyBoundaryRecordAdmittedToA(t *testing.T) {
	// Two records of equal revenue: cumulative shares 0.5 and 1.0.
	ds := entity.Dataset{rec("um", 10, 0, 1), rec("dois", 10, 0, 1)}
	got := Classify(ds, Options{})
	if got[0].ABCClass != entity.ClassA {
		t.Errorf("record at cumulative 0.50 must be class A, got %s", got[0].ABCClass)
	}
}

func TestClassifyZeroRevenueAllC(t *testing.T) {
	ds := entity.Dataset{rec("a", 0, 1, 0), rec("b", 0, 2, 0)}
	got := Classify(ds, Options{})
	for _, r := range got {
		if r.ABCClass != entity.ClassC {
			t.Errorf("%s: class = %s, want C at zero total revenue", r.Name, r.ABCClass)
		}
		if r.MarginRatio != nil {
			t.Errorf("%s: margin must be undefined at zero revenue", r.Name)
		}
		if r.BCGCategory != entity.CategoryDog {
			t.Errorf("%s: category = %s, want Dog", r.Name, r.BCGCategory)
		}
	}
}

func TestClassifyBCGQuadrants(t *testing.T) {
	// lider: high volume, high margin -> Star
	// massa: high volume, low margin  -> Workhorse
	// joia:  low volume, high margin  -> Puzzle
	// peso:  low volume, low margin   -> Dog
	ds := entity.Dataset{
		rec("lider", 600, 0.2, 1), // margin 0.8
		rec("massa", 350, 0.9, 1), // margin 0.1
		rec("joia", 30, 0.1, 1),   // margin 0.9
		rec("peso", 20, 0.95, 1),  // margin 0.05
	}
	got := Classify(ds, Options{})
	want := map[string]string{
		"lider": entity.CategoryStar,
		"massa": entity.CategoryWorkhorse,
		"joia":  entity.CategoryPuzzle,
		"peso":  entity.CategoryDog,
	}
	for _, r := range got {
		if r.BCGCategory != want[r.Name] {
			t.Errorf("%s: category = %s, want %s", r.Name, r.BCGCategory, want[r.Name])
		}
	}
}

func TestClassifyEveryRecordCategorized(t *testing.T) {
	ds := entity.Dataset{
		rec("a", 100, 1, 2), rec("b", 50, 1, 3), rec("c", 10, 2, 2),
		rec("d", 0, 1, 0), rec("e", 5, 0.5, 1),
	}
	got := Classify(ds, Options{})
	for _, r := range got {
		if r.BCGCategory == "" || r.ABCClass == "" {
			t.Errorf("%s left unclassified: %+v", r.Name, r)
		}
	}
}

func TestClassifySuppliedRevenueAuthoritative(t *testing.T) {
	ds := entity.Dataset{{Name: "a", Quantity: 10, UnitCost: 1, UnitPrice: 2, Revenue: 500}}
	got := Classify(ds, Options{})
	if got[0].Revenue != 500 {
		t.Errorf("supplied revenue must win, got %v", got[0].Revenue)
	}
	if got[0].Profit != 490 {
		t.Errorf("profit = %v, want 490", got[0].Profit)
	}
}

func TestClassifyTierByQuantity(t *testing.T) {
	// Low price, high rotation item leads under quantity tiering.
	ds := entity.Dataset{
		rec("caro", 10, 5, 50), // revenue 500
		rec("popular", 750, 0.2, 0.5),
		rec("raro", 240, 1, 1),
	}
	got := Classify(ds, Options{TierBy: TierByQuantity})
	if got[0].Name != "popular" {
		t.Errorf("quantity tiering should lead with popular, got %s", got[0].Name)
	}
	if got[0].ABCClass != entity.ClassA {
		t.Errorf("popular class = %s, want A", got[0].ABCClass)
	}
}

func TestSummarize(t *testing.T) {
	ds := Classify(entity.Dataset{rec("a", 100, 1, 2), rec("b", 50, 2, 4)}, Options{})
	s := Summarize(ds)
	if s.TotalRevenue != 400 {
		t.Errorf("revenue = %v, want 400", s.TotalRevenue)
	}
	if s.TotalProfit != 200 {
		t.Errorf("profit = %v, want 200", s.TotalProfit)
	}
	if math.Abs(s.MeanMargin-0.5) > 1e-9 {
		t.Errorf("mean margin = %v, want 0.5", s.MeanMargin)
	}
	if s.Products != 2 {
		t.Errorf("products = %d, want 2", s.Products)
	}
}
