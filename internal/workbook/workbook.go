// Package workbook provides the sheet-level view of a spreadsheet the
// register parser reads from: an ordered list of sheet names and, per
// sheet, a grid of raw cell values.
package workbook

import (
	"errors"
	"fmt"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
)

// ErrNoSheet is returned by Rows for a sheet the workbook does not have.
var ErrNoSheet = errors.New("sheet not found")

// Workbook is a read-only spreadsheet.
type Workbook interface {
	// SheetNames returns the sheet names in workbook order.
	SheetNames() []string
	// Rows returns the cell grid of a sheet, row-major, 0-based.
	Rows(sheet string) ([][]cell.Value, error)
}

// Memory is a Workbook held in memory. Sheet order is insertion order.
type Memory struct {
	names  []string
	sheets map[string][][]cell.Value
}

// NewMemory returns an empty in-memory workbook.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string][][]cell.Value)}
}

// AddSheet adds or replaces a sheet.
func (m *Memory) AddSheet(name string, rows [][]cell.Value) *Memory {
	if _, ok := m.sheets[name]; !ok {
		m.names = append(m.names, name)
	}
	m.sheets[name] = rows
	return m
}

// AddTextSheet adds a sheet from strings; "" becomes an empty cell.
func (m *Memory) AddTextSheet(name string, rows [][]string) *Memory {
	grid := make([][]cell.Value, len(rows))
	for i, r := range rows {
		vals := make([]cell.Value, len(r))
		for j, s := range r {
			if s != "" {
				vals[j] = cell.Text(s)
			}
		}
		grid[i] = vals
	}
	return m.AddSheet(name, grid)
}

func (m *Memory) SheetNames() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

func (m *Memory) Rows(sheet string) ([][]cell.Value, error) {
	rows, ok := m.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%q: %w", sheet, ErrNoSheet)
	}
	return rows, nil
}
