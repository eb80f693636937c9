package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVSemicolon(t *testing.T) {
	csv := "Produto;Quantidade;Custo;Venda\nPão Francês;1000;R$ 0,30;R$ 0,90\nBolo de Fubá;50;2,00;8,00\n"
	ds, err := Read(strings.NewReader(csv), "vendas.csv", KindCSV, Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("got %d rows, want 2", len(ds))
	}
	first := ds[0]
	if first.Name != "Pão Francês" || first.Quantity != 1000 || first.UnitCost != 0.30 || first.UnitPrice != 0.90 {
		t.Errorf("unexpected first row: %+v", first)
	}
}

func TestReadCSVCommaSeparator(t *testing.T) {
	csv := "product,quantity,cost,sale_price\nCroissant,80,1.50,4.00\n"
	ds, err := Read(strings.NewReader(csv), "sales.csv", KindCSV, Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ds[0].UnitPrice != 4.00 {
		t.Errorf("sale price = %v, want 4", ds[0].UnitPrice)
	}
}

func TestReadClampsNegatives(t *testing.T) {
	csv := "Produto;Qtd;Custo;Venda\nEstorno;-5;-1,00;2,00\n"
	ds, err := Read(strings.NewReader(csv), "vendas.csv", KindCSV, Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if ds[0].Quantity != 0 || ds[0].UnitCost != 0 {
		t.Errorf("negative inputs must clamp to zero, got %+v", ds[0])
	}
}

func TestReadMalformedCellsDegradeToZero(t *testing.T) {
	csv := "Produto;Qtd;Custo;Venda\nTorta;abc;???;10,00\n"
	ds, err := Read(strings.NewReader(csv), "vendas.csv", KindCSV, Options{})
	if err != nil {
		t.Fatalf("malformed cells must not abort the import: %v", err)
	}
	if ds[0].Quantity != 0 || ds[0].UnitCost != 0 || ds[0].UnitPrice != 10 {
		t.Errorf("unexpected row: %+v", ds[0])
	}
}

func TestReadUnsupportedKind(t *testing.T) {
	_, err := Read(strings.NewReader("x"), "notas.docx", Kind("docx"), Options{})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("want *FormatError, got %v", err)
	}
	if fe.File != "notas.docx" {
		t.Errorf("FormatError.File = %q", fe.File)
	}
}

func TestReadEmptyCSV(t *testing.T) {
	_, err := Read(strings.NewReader("Produto;Qtd\n"), "vazio.csv", KindCSV, Options{})
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("header-only file must fail with *FormatError, got %v", err)
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Produto", "Quantidade", "Custo", "Preço Venda"},
		{"Pão de Queijo", 200, 0.80, 2.50},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}

	ds, err := Read(&buf, "vendas.xlsx", KindXLSX, Options{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(ds) != 1 || ds[0].Name != "Pão de Queijo" || ds[0].Quantity != 200 {
		t.Errorf("unexpected dataset: %+v", ds)
	}
}

func TestAssembleTableSingleHeader(t *testing.T) {
	pages := [][][]string{
		{
			{"Produto", "Qtd", "Venda"},
			{"Pão", "1000", "0,90"},
		},
		{
			{"Bolo", "50", "8,00"},
			{"Torta", "12", "15,00"},
		},
	}
	table, err := assembleTable(pages, SingleHeader)
	if err != nil {
		t.Fatalf("assembleTable: %v", err)
	}
	if table.Headers[0] != "Produto" {
		t.Errorf("headers = %v", table.Headers)
	}
	// Every row after the first page's header is data, including the
	// first row of page two.
	if len(table.Rows) != 3 || table.Rows[1][0] != "Bolo" {
		t.Errorf("rows = %v, want 3 rows starting Pão/Bolo/Torta", table.Rows)
	}
}

func TestAssembleTableHeaderPerPage(t *testing.T) {
	pages := [][][]string{
		{
			{"Produto", "Qtd", "Venda"},
			{"Pão", "1000", "0,90"},
		},
		{
			{"Produto", "Qtd", "Venda"},
			{"Torta", "12", "15,00"},
		},
	}
	table, err := assembleTable(pages, HeaderPerPage)
	if err != nil {
		t.Fatalf("assembleTable: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("rows = %v, want the repeated header dropped", table.Rows)
	}
	if table.Rows[0][0] != "Pão" || table.Rows[1][0] != "Torta" {
		t.Errorf("rows = %v", table.Rows)
	}
}

func TestAssembleTableEmptyDocument(t *testing.T) {
	if _, err := assembleTable(nil, SingleHeader); err == nil {
		t.Fatal("expected an error for a document with no table")
	}
	headerOnly := [][][]string{{{"Produto", "Qtd"}}}
	if _, err := assembleTable(headerOnly, SingleHeader); err == nil {
		t.Fatal("expected an error for a header without data rows")
	}
}

func TestRowCellsSplitsOnGaps(t *testing.T) {
	// Two tightly packed words form one cell; a wide horizontal gap
	// starts the next one.
	row := &pdf.Row{Content: pdf.TextHorizontal{
		{S: "Pão ", X: 10, W: 22},
		{S: "Francês", X: 34, W: 40},
		{S: "1000", X: 120, W: 25},
		{S: "0,90", X: 180, W: 25},
	}}
	got := rowCells(row)
	want := []string{"Pão Francês", "1000", "0,90"}
	if len(got) != len(want) {
		t.Fatalf("cells = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("cell %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestKindFromName(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"vendas.csv", KindCSV, true},
		{"VENDAS.XLSX", KindXLSX, true},
		{"relatorio.pdf", KindPDF, true},
		{"foto.png", "", false},
	}
	for _, tt := range tests {
		got, err := KindFromName(tt.name)
		if tt.ok && (err != nil || got != tt.want) {
			t.Errorf("KindFromName(%q) = %v, %v", tt.name, got, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("KindFromName(%q) should fail", tt.name)
		}
	}
}
