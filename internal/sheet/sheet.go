package sheet

import (
	"strings"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// Well-known sheet names.
const (
	VersionSheet    = "Version"
	AddressMapSheet = "Address Map"
)

// Block sheet column order.
const (
	ColAddress = iota
	ColRegister
	ColField
	ColBits
	ColAccess
	ColReset
	ColDescription
)

// BlockEntry is one row of the address map.
type BlockEntry struct {
	Name        string
	BaseAddress uint64
	Range       uint64
}

// Locate finds the sheet matching target. An exact name wins, then a
// case-insensitive match, then a case-insensitive match with the spaces of
// target replaced by underscores ("Address Map" finds "address_map").
func Locate(names []string, target string) (string, bool) {
	for _, n := range names {
		if n == target {
			return n, true
		}
	}
	for _, n := range names {
		if strings.EqualFold(n, target) {
			return n, true
		}
	}
	underscored := strings.ReplaceAll(target, " ", "_")
	for _, n := range names {
		if strings.EqualFold(n, underscored) {
			return n, true
		}
	}
	return "", false
}

// ExtractVersion reads vendor, library, name and version from the second
// row, columns 1 through 4.
func ExtractVersion(rows [][]cell.Value) regmap.VersionInfo {
	if len(rows) < 2 {
		return regmap.VersionInfo{}
	}
	row := rows[1]
	return regmap.VersionInfo{
		Vendor:  cell.ParseString(cell.Get(row, 1)),
		Library: cell.ParseString(cell.Get(row, 2)),
		Name:    cell.ParseString(cell.Get(row, 3)),
		Version: cell.ParseString(cell.Get(row, 4)),
	}
}

// ExtractAddressMap returns the block index in sheet order. The header row
// and rows without a block name are skipped.
func ExtractAddressMap(rows [][]cell.Value) []BlockEntry {
	blocks := []BlockEntry{}
	for i, row := range rows {
		if i == 0 {
			continue
		}
		name := cell.Get(row, 0)
		if name.IsEmpty() {
			continue
		}
		blocks = append(blocks, BlockEntry{
			Name:        cell.ParseString(name),
			BaseAddress: cell.ParseIntSafe(cell.Get(row, 1)),
			Range:       cell.ParseIntSafe(cell.Get(row, 2)),
		})
	}
	return blocks
}

// ExtractBlockRows normalizes a block sheet. Rows with neither a register
// nor a field name are dropped, the address and register columns are
// forward-filled, and leading rows that still have no register are dropped.
func ExtractBlockRows(rows [][]cell.Value) []regmap.RawRow {
	out := []regmap.RawRow{}
	var lastAddr, lastReg cell.Value

	for i, row := range rows {
		if i == 0 {
			continue
		}
		r := toRawRow(row)
		if r.RegName.IsEmpty() && r.FieldName.IsEmpty() {
			continue
		}

		if r.Address.IsEmpty() {
			r.Address = lastAddr
		} else {
			lastAddr = r.Address
		}
		if r.RegName.IsEmpty() {
			r.RegName = lastReg
		} else {
			lastReg = r.RegName
		}

		if r.RegName.IsEmpty() {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toRawRow(row []cell.Value) regmap.RawRow {
	return regmap.RawRow{
		Address:     cell.Get(row, ColAddress),
		RegName:     cell.Get(row, ColRegister),
		FieldName:   cell.Get(row, ColField),
		BitRange:    cell.Get(row, ColBits),
		Access:      cell.Get(row, ColAccess),
		Reset:       cell.Get(row, ColReset),
		Description: cell.Get(row, ColDescription),
	}
}
