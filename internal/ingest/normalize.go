package ingest

import "strings"

// Canonical column names every normalized table carries.
const (
	ColProduct   = "product"
	ColQuantity  = "quantity"
	ColCost      = "cost"
	ColSalePrice = "sale_price"
	ColRevenue   = "revenue"
)

// UnknownProduct is the placeholder injected when no header maps to the
// product column.
const UnknownProduct = "produto desconhecido"

// Table is a raw tabular parse result: one header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// canonicalColumns lists the canonical fields in claim order. The order
// matters: the first field whose synonym list matches a header wins that
// header, so a header is never claimed twice.
var canonicalColumns = []string{ColProduct, ColQuantity, ColCost, ColSalePrice, ColRevenue}

// synonyms maps each canonical field to the header variations seen in real
// reports, Portuguese and English mixed. A header matches on exact
// equality, or on substring containment for synonyms longer than three
// characters.
var synonyms = map[string][]string{
	ColProduct:   {ColProduct, "produto", "nome", "descrição", "descricao", "item", "mercadoria", "name"},
	ColQuantity:  {ColQuantity, "qtd", "quant", "quantidade", "volume", "unidades", "qty"},
	ColCost:      {ColCost, "custo", "custo unit", "vl custo", "preço de custo", "custo_unitario", "unit cost"},
	ColSalePrice: {ColSalePrice, "venda", "preço venda", "vl venda", "preço de venda", "preco medio", "preço médio r$", "price"},
	ColRevenue:   {ColRevenue, "total", "faturamento", "total r$", "valor total"},
}

// auxiliaryHeaders name the percent/cumulative columns some exported
// reports carry. They are recognized so a header like "faturamento
// acumulado" cannot shadow a canonical field, then dropped.
var auxiliaryHeaders = []string{"%", "percentual", "percent", "participação", "participacao", "acumulado", "acumulada", "cumulative"}

// Normalize maps arbitrary header text onto the canonical columns and
// injects defaults for whatever is missing: 0.0 for numeric fields, a
// placeholder for the product name. It is a best-effort heuristic, never
// an error, and running it on an already-canonical table is a no-op.
func Normalize(t Table) Table {
	lowered := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	claimed := make(map[int]bool)
	for i, h := range lowered {
		if matchesColumn(h, auxiliaryHeaders) {
			claimed[i] = true
		}
	}

	colIndex := make(map[string]int) // canonical name -> source column
	for _, canon := range canonicalColumns {
		for i, h := range lowered {
			if claimed[i] {
				continue
			}
			if matchesColumn(h, synonyms[canon]) {
				colIndex[canon] = i
				claimed[i] = true
				break
			}
		}
	}

	out := Table{Headers: append([]string(nil), canonicalColumns...)}
	out.Rows = make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		normalized := make([]string, len(canonicalColumns))
		for j, canon := range canonicalColumns {
			if idx, ok := colIndex[canon]; ok && idx < len(row) {
				normalized[j] = strings.TrimSpace(row[idx])
			} else if canon == ColProduct {
				normalized[j] = UnknownProduct
			} else {
				normalized[j] = "0.0"
			}
		}
		out.Rows = append(out.Rows, normalized)
	}
	return out
}

func matchesColumn(header string, candidates []string) bool {
	if header == "" {
		return false
	}
	for _, c := range candidates {
		if header == c {
			return true
		}
		if len(c) > 3 && strings.Contains(header, c) {
			return true
		}
	}
	return false
}
