package regmap

import (
	"strings"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
)

// RawRow is one normalized line of a block sheet, before typing.
// Address and RegName are forward-filled; the other cells are as read.
type RawRow struct {
	Address     cell.Value
	RegName     cell.Value
	FieldName   cell.Value
	BitRange    cell.Value
	Access      cell.Value
	Reset       cell.Value
	Description cell.Value
}

// Key is the register name used for deduplication.
func (r RawRow) Key() string {
	return strings.TrimSpace(r.RegName.String())
}

// Build folds rows into registers. The first row naming a register fixes
// its address; later rows with the same name only append fields. Registers
// come back in first-seen order and fields in row order.
func Build(rows []RawRow) []Register {
	regs := []Register{}
	index := make(map[string]int, len(rows))

	for _, row := range rows {
		name := row.Key()
		i, ok := index[name]
		if !ok {
			regs = append(regs, Register{
				Name:          name,
				AddressOffset: cell.ParseIntSafe(row.Address),
				Size:          RegisterSize,
				Fields:        []Field{},
			})
			i = len(regs) - 1
			index[name] = i
		}

		if row.FieldName.IsEmpty() {
			continue
		}
		regs[i].Fields = append(regs[i].Fields, buildField(row))
	}

	return regs
}

func buildField(row RawRow) Field {
	bits := "0"
	if !row.BitRange.IsEmpty() {
		bits = row.BitRange.String()
	}
	msb, lsb := cell.ParseBitRange(bits)

	return Field{
		Name:        cell.ParseString(row.FieldName),
		BitOffset:   lsb,
		BitWidth:    cell.Width(msb, lsb),
		Access:      cell.ParseAccess(row.Access),
		ResetValue:  cell.ParseIntSafe(row.Reset),
		Description: cell.ParseString(row.Description),
	}
}
