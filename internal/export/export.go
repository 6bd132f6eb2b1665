// Package export serialises entries for download and spreadsheet sync.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"networth/internal/core"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// Header is the column layout shared by every tabular format.
var Header = []string{"id", "date", "class", "subcategory", "description", "value"}

// SheetName is the worksheet written by WriteXLSX.
const SheetName = "Entries"

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, JSON, XLSX:
		return f, nil
	case "excel":
		return XLSX, nil
	case "":
		return CSV, nil
	}
	return "", &core.ValidationError{Field: "format", Reason: fmt.Sprintf("unsupported export format %q", s)}
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Filename returns the download name for base, e.g. "entries.csv".
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// Row renders one entry in Header order.
func Row(e core.Entry) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Date.String(),
		string(e.Class),
		e.Subcategory,
		e.Description,
		e.Value.String(),
	}
}

// Write dispatches to the writer for f.
func Write(w io.Writer, f Format, entries []core.Entry) error {
	switch f {
	case CSV:
		return WriteCSV(w, entries)
	case JSON:
		return WriteJSON(w, entries)
	case XLSX:
		return WriteXLSX(w, entries)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

func WriteCSV(w io.Writer, entries []core.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(Row(e)); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes entries as an indented JSON array; nil writes "[]".
func WriteJSON(w io.Writer, entries []core.Entry) error {
	if entries == nil {
		entries = []core.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

// WriteXLSX writes a workbook with a single Entries sheet. Values are numeric cells.
func WriteXLSX(w io.Writer, entries []core.Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("set header: %w", err)
		}
	}

	for idx, e := range entries {
		row := idx + 2
		values := []any{e.ID, e.Date.String(), string(e.Class), e.Subcategory, e.Description, e.Value.Decimal().InexactFloat64()}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{{"B", "C", 12}, {"D", "D", 20}, {"E", "E", 40}} {
		if err := f.SetColWidth(SheetName, w.from, w.to, w.width); err != nil {
			return fmt.Errorf("set column width %s: %w", w.from, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
