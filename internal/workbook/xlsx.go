package workbook

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
)

// XLSX is a Workbook backed by an Office Open XML spreadsheet.
type XLSX struct {
	f *excelize.File
}

// Open decodes an xlsx workbook from r.
func Open(r io.Reader) (*XLSX, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	return &XLSX{f: f}, nil
}

// OpenBytes decodes an xlsx workbook held in memory.
func OpenBytes(data []byte) (*XLSX, error) {
	return Open(bytes.NewReader(data))
}

// OpenFile decodes the xlsx workbook at path.
func OpenFile(path string) (*XLSX, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	return &XLSX{f: f}, nil
}

// Close releases temporary files held by the decoder.
func (x *XLSX) Close() error {
	return x.f.Close()
}

func (x *XLSX) SheetNames() []string {
	return x.f.GetSheetList()
}

// Rows reads raw (unformatted) cell values. Numeric cells become numbers,
// other non-blank cells text.
func (x *XLSX) Rows(sheet string) ([][]cell.Value, error) {
	if idx, err := x.f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%q: %w", sheet, ErrNoSheet)
	}
	raw, err := x.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}

	grid := make([][]cell.Value, len(raw))
	for r, row := range raw {
		vals := make([]cell.Value, len(row))
		for c, s := range row {
			if s == "" {
				continue
			}
			vals[c] = x.classify(sheet, c+1, r+1, s)
		}
		grid[r] = vals
	}
	return grid, nil
}

func (x *XLSX) classify(sheet string, col, row int, s string) cell.Value {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cell.Text(s)
	}
	typ, err := x.f.GetCellType(sheet, axis)
	if err != nil {
		return cell.Text(s)
	}
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return cell.Number(f)
		}
	}
	return cell.Text(s)
}
