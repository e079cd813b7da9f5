package expand

import (
	"fmt"
	"strconv"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// DefaultStride is the address step used when a group declares no bits.
const DefaultStride = 4

// Stride returns the byte distance between two instances of a register:
// the summed width of its fields rounded up to whole bytes. Rows without a
// bit range do not contribute.
func Stride(rows []regmap.RawRow) uint64 {
	var bits uint64
	for _, r := range rows {
		if r.BitRange.IsEmpty() {
			continue
		}
		bits += cell.Width(cell.ParseBitRange(r.BitRange.String()))
	}
	if bits == 0 {
		return DefaultStride
	}
	return (bits + 7) / 8
}

// ExpandGroup instantiates a group whose name matches the expansion
// grammar. Instance i is named "<base>_<i>" and placed at
// base address + i*stride, where i counts instances from zero regardless
// of the range values. Groups without a pattern are returned unchanged.
func ExpandGroup(g Group) []regmap.RawRow {
	p, ok := MatchExpansion(g.Name)
	if !ok || len(g.Rows) == 0 {
		return g.Rows
	}

	stride := Stride(g.Rows)
	base := cell.ParseIntSafe(g.Rows[0].Address)
	indices := p.Indices()

	out := make([]regmap.RawRow, 0, len(indices)*len(g.Rows))
	for i := range indices {
		name := cell.Text(p.Base + "_" + strconv.Itoa(i))
		addr := cell.Text(fmt.Sprintf("0x%X", base+uint64(i)*stride))
		for _, r := range g.Rows {
			r.RegName = name
			r.Address = addr
			out = append(out, r)
		}
	}
	return out
}

// Expand expands every group and flattens the result, keeping group order.
func Expand(groups []Group) []regmap.RawRow {
	out := []regmap.RawRow{}
	for _, g := range groups {
		out = append(out, ExpandGroup(g)...)
	}
	return out
}

// Rows groups rows and expands them in one step.
func Rows(rows []regmap.RawRow) []regmap.RawRow {
	return Expand(GroupContiguous(rows))
}
