// Package ingest reads a retailer's sales/cost reports (delimited text,
// spreadsheets, tabular PDFs) into a normalized dataset. Column headers
// are matched against a synonym table and locale-formatted numbers are
// cleaned up; a malformed cell degrades to zero instead of aborting the
// import.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
	"github.com/pedrostorrios-lang/padaria-gestao/internal/numparse"
)

// Kind declares the format of an uploaded file.
type Kind string

const (
	KindCSV  Kind = "csv"
	KindXLSX Kind = "xlsx"
	KindPDF  Kind = "pdf"
)

// HeaderMode controls how multi-page PDF tables treat each page's first
// row. SingleHeader keeps only the first page's first row as the header
// and concatenates every later row as data; HeaderPerPage drops the first
// row of every page.
type HeaderMode string

const (
	SingleHeader  HeaderMode = "single_header"
	HeaderPerPage HeaderMode = "header_per_page"
)

// Options tune the ingestion adapter.
type Options struct {
	HeaderMode HeaderMode // defaults to SingleHeader
}

// FormatError reports an unsupported or unparseable input file. Ingestion
// commits no partial dataset when it is returned.
type FormatError struct {
	File string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.File, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// KindFromName guesses the file kind from its extension.
func KindFromName(name string) (Kind, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv"), strings.HasSuffix(lower, ".txt"):
		return KindCSV, nil
	case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xls"):
		return KindXLSX, nil
	case strings.HasSuffix(lower, ".pdf"):
		return KindPDF, nil
	}
	return "", &FormatError{File: name, Err: fmt.Errorf("unsupported file format")}
}

// Read parses the byte source into a dataset: raw table extraction, then
// column normalization, then numeric cleanup with negative values clamped
// to zero. An unsupported kind or unrecoverable parse error surfaces a
// *FormatError; no partial dataset is returned.
func Read(r io.Reader, name string, kind Kind, opts Options) (entity.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &FormatError{File: name, Err: err}
	}

	var table Table
	switch kind {
	case KindCSV:
		table, err = readCSV(data)
	case KindXLSX:
		table, err = readXLSX(data)
	case KindPDF:
		table, err = readPDF(data, opts.HeaderMode)
	default:
		err = fmt.Errorf("unsupported file format %q", kind)
	}
	if err != nil {
		return nil, &FormatError{File: name, Err: err}
	}

	return toDataset(Normalize(table)), nil
}

// toDataset converts a normalized table into product records. Numeric
// fields go through the locale parser; negatives never survive ingestion.
func toDataset(t Table) entity.Dataset {
	ds := make(entity.Dataset, 0, len(t.Rows))
	for _, row := range t.Rows {
		ds = append(ds, entity.ProductRecord{
			Name:      row[0],
			Quantity:  numparse.NonNegative(row[1]),
			UnitCost:  numparse.NonNegative(row[2]),
			UnitPrice: numparse.NonNegative(row[3]),
			Revenue:   numparse.NonNegative(row[4]),
		})
	}
	return ds
}

// detectSeparator picks the delimiter that occurs most often in the header
// line. Brazilian exports favor ";", so it wins ties.
func detectSeparator(header string) rune {
	seps := []rune{';', ',', '\t'}
	best, bestCount := ';', 0
	for _, s := range seps {
		if n := strings.Count(header, string(s)); n > bestCount {
			best, bestCount = s, n
		}
	}
	return best
}

func readCSV(data []byte) (Table, error) {
	firstLine, _, _ := strings.Cut(string(data), "\n")
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectSeparator(firstLine)
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("csv read: %w", err)
	}
	if len(records) < 2 {
		return Table{}, fmt.Errorf("csv has no data rows")
	}
	return Table{Headers: records[0], Rows: records[1:]}, nil
}

func readXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return Table{}, fmt.Errorf("xlsx open: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("xlsx rows: %w", err)
	}
	if len(rows) < 2 {
		return Table{}, fmt.Errorf("sheet %q has no data rows", sheet)
	}
	return Table{Headers: rows[0], Rows: rows[1:]}, nil
}

// pdfCellGap is the horizontal gap (in points) between two words that
// starts a new table cell.
const pdfCellGap = 8.0

func readPDF(data []byte, mode HeaderMode) (Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Table{}, fmt.Errorf("pdf open: %w", err)
	}

	var pages [][][]string
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return Table{}, fmt.Errorf("pdf page %d: %w", pageNum, err)
		}
		var pageRows [][]string
		for _, row := range rows {
			if cells := rowCells(row); len(cells) > 0 {
				pageRows = append(pageRows, cells)
			}
		}
		if len(pageRows) > 0 {
			pages = append(pages, pageRows)
		}
	}
	return assembleTable(pages, mode)
}

// assembleTable stitches per-page rows into one table. The first row of
// the first page is always the header; under HeaderPerPage the first row
// of every later page is a repeated header and is dropped, under
// SingleHeader it is data.
func assembleTable(pages [][][]string, mode HeaderMode) (Table, error) {
	if mode == "" {
		mode = SingleHeader
	}
	var table Table
	for _, rows := range pages {
		for i, cells := range rows {
			switch {
			case table.Headers == nil:
				table.Headers = cells
			case i == 0 && mode == HeaderPerPage:
				// repeated per-page header, drop it
			default:
				table.Rows = append(table.Rows, cells)
			}
		}
	}
	if table.Headers == nil || len(table.Rows) == 0 {
		return Table{}, fmt.Errorf("no table found in document")
	}
	return table, nil
}

// rowCells groups the words of a PDF text row into cells on horizontal
// gaps.
func rowCells(row *pdf.Row) []string {
	var cells []string
	var cell strings.Builder
	prevEnd := 0.0
	for i, word := range row.Content {
		if i > 0 && word.X-prevEnd > pdfCellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(word.S)
		prevEnd = word.X + word.W
	}
	if s := strings.TrimSpace(cell.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}
