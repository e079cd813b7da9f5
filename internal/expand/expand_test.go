package expand

import (
	"math"
	"reflect"
	"testing"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

func raw(addr, reg, field, bits string) regmap.RawRow {
	r := regmap.RawRow{RegName: cell.Text(reg)}
	if addr != "" {
		r.Address = cell.Text(addr)
	}
	if field != "" {
		r.FieldName = cell.Text(field)
	}
	if bits != "" {
		r.BitRange = cell.Text(bits)
	}
	return r
}

func TestMatchExpansion(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Pattern
		matched bool
	}{
		{"stop only", "REG{n}, n=range(3)", Pattern{Base: "REG", Stop: 3, Step: 1}, true},
		{"start stop", "CH{n},n = range( 1 , 4 )", Pattern{Base: "CH", Start: 1, Stop: 4, Step: 1}, true},
		{"stepped", "BUF {n}, n=range(0, 10, 2)", Pattern{Base: "BUF", Stop: 10, Step: 2}, true},
		{"negative step", "R{n}, n=range(3, -1, -1)", Pattern{Base: "R", Start: 3, Stop: -1, Step: -1}, true},
		{"trailing text", "R{n}, n=range(2) extra", Pattern{Base: "R", Stop: 2, Step: 1}, true},
		{"second placeholder", "A{n}B{n}, n=range(2)", Pattern{Base: "A{n}B", Stop: 2, Step: 1}, true},
		{"plain name", "CTRL", Pattern{}, false},
		{"no range", "REG{n}", Pattern{}, false},
		{"space before comma", "REG{n} , n=range(3)", Pattern{}, false},
		{"unclosed", "REG{n}, n=range(3", Pattern{}, false},
		{"empty args", "REG{n}, n=range()", Pattern{}, false},
		{"too many args", "REG{n}, n=range(1,2,3,4)", Pattern{}, false},
		{"non integer", "REG{n}, n=range(a)", Pattern{}, false},
		{"zero step", "REG{n}, n=range(0,4,0)", Pattern{}, false},
		{"wrong variable", "REG{n}, m=range(3)", Pattern{}, false},
		{"too large", "REG{n}, n=range(100000000)", Pattern{}, false},
		{"span wider than int", "R{n}, n=range(-9000000000000000000, 9000000000000000000)", Pattern{}, false},
		{"descending span wider than int", "R{n}, n=range(9000000000000000000, -9000000000000000000, -1)", Pattern{}, false},
		{"extreme step", "R{n}, n=range(-9223372036854775808, 9223372036854775807, 9223372036854775807)", Pattern{Base: "R", Start: -9223372036854775808, Stop: 9223372036854775807, Step: 9223372036854775807}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchExpansion(tt.in)
			if ok != tt.matched {
				t.Fatalf("MatchExpansion(%q) matched = %v, want %v", tt.in, ok, tt.matched)
			}
			if ok && got != tt.want {
				t.Fatalf("MatchExpansion(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPatternIndices(t *testing.T) {
	tests := []struct {
		p    Pattern
		want []int
	}{
		{Pattern{Stop: 3, Step: 1}, []int{0, 1, 2}},
		{Pattern{Start: 2, Stop: 5, Step: 1}, []int{2, 3, 4}},
		{Pattern{Start: 0, Stop: 10, Step: 3}, []int{0, 3, 6, 9}},
		{Pattern{Start: 3, Stop: -1, Step: -2}, []int{3, 1}},
		{Pattern{Start: 5, Stop: 5, Step: 1}, []int{}},
		{Pattern{Start: 5, Stop: 1, Step: 1}, []int{}},
	}
	for _, tt := range tests {
		if got := tt.p.Indices(); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%+v.Indices() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestPatternCountWideSpan(t *testing.T) {
	wide := Pattern{Start: math.MinInt, Stop: math.MaxInt, Step: 1}
	if got := wide.count(); got != math.MaxUint64 {
		t.Fatalf("count() = %d, want %d", got, uint64(math.MaxUint64))
	}
	if got := wide.Indices(); got != nil {
		t.Fatalf("Indices() of a runaway range should be nil, got %d values", len(got))
	}
	down := Pattern{Start: math.MaxInt, Stop: math.MinInt, Step: math.MinInt}
	if got := down.count(); got != 2 {
		t.Fatalf("count() = %d, want 2", got)
	}
}

func TestExpandRunawayPatternPassesThrough(t *testing.T) {
	name := "R{n}, n=range(-9000000000000000000, 9000000000000000000)"
	rows := []regmap.RawRow{
		raw("0x0", "CTRL", "EN", "[0]"),
		raw("0x4", name, "V", "[7:0]"),
	}
	regs := regmap.Build(Rows(rows))
	if len(regs) != 2 || regs[0].Name != "CTRL" || regs[1].Name != name {
		t.Fatalf("expected CTRL plus the untouched pattern row, got %+v", regs)
	}
}

func TestGroupContiguous(t *testing.T) {
	rows := []regmap.RawRow{
		raw("0x0", "A", "F0", "[0]"),
		raw("0x0", "A", "F1", "[1]"),
		raw("0x4", "B", "F0", "[0]"),
		raw("0x0", "A", "F2", "[2]"),
	}
	groups := GroupContiguous(rows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	names := []string{groups[0].Name, groups[1].Name, groups[2].Name}
	if !reflect.DeepEqual(names, []string{"A", "B", "A"}) {
		t.Fatalf("group names = %v", names)
	}
	if len(groups[0].Rows) != 2 || len(groups[2].Rows) != 1 {
		t.Fatalf("unexpected group sizes")
	}

	regs := regmap.Build(Expand(groups))
	if len(regs) != 2 || len(regs[0].Fields) != 3 {
		t.Fatalf("builder should merge A by name, got %+v", regs)
	}
}

func TestExpandGroupStride(t *testing.T) {
	name := "REG{n}, n=range(3)"
	g := Group{Name: name, Rows: []regmap.RawRow{
		raw("0x10", name, "LO", "[7:0]"),
		raw("0x10", name, "HI", "[15:8]"),
	}}

	regs := regmap.Build(ExpandGroup(g))
	if len(regs) != 3 {
		t.Fatalf("expected 3 registers, got %d", len(regs))
	}
	want := []struct {
		name string
		addr uint64
	}{{"REG_0", 0x10}, {"REG_1", 0x12}, {"REG_2", 0x14}}
	for i, w := range want {
		if regs[i].Name != w.name || regs[i].AddressOffset != w.addr {
			t.Fatalf("register %d = %s@%#x, want %s@%#x", i, regs[i].Name, regs[i].AddressOffset, w.name, w.addr)
		}
		if len(regs[i].Fields) != 2 || regs[i].Fields[0].Name != "LO" || regs[i].Fields[1].Name != "HI" {
			t.Fatalf("register %s fields = %+v", regs[i].Name, regs[i].Fields)
		}
	}
}

func TestExpandGroupUsesPositionNotIndexValue(t *testing.T) {
	name := "CH{n}, n=range(4, 10, 3)"
	g := Group{Name: name, Rows: []regmap.RawRow{raw("0x100", name, "EN", "[31:0]")}}

	rows := ExpandGroup(g)
	if len(rows) != 2 {
		t.Fatalf("expected 2 instances, got %d", len(rows))
	}
	if rows[0].RegName.String() != "CH_0" || rows[1].RegName.String() != "CH_1" {
		t.Fatalf("names = %s, %s", rows[0].RegName, rows[1].RegName)
	}
	if rows[0].Address.String() != "0x100" || rows[1].Address.String() != "0x104" {
		t.Fatalf("addresses = %s, %s", rows[0].Address, rows[1].Address)
	}
}

func TestExpandGroupZeroFieldsDefaultsStride(t *testing.T) {
	name := "SPARE{n}, n=range(3)"
	g := Group{Name: name, Rows: []regmap.RawRow{raw("0x20", name, "", "")}}

	regs := regmap.Build(ExpandGroup(g))
	if len(regs) != 3 {
		t.Fatalf("expected 3 registers, got %d", len(regs))
	}
	for i, r := range regs {
		if want := uint64(0x20 + 4*i); r.AddressOffset != want {
			t.Fatalf("%s at %#x, want %#x", r.Name, r.AddressOffset, want)
		}
		if len(r.Fields) != 0 {
			t.Fatalf("%s should have no fields", r.Name)
		}
	}
}

func TestExpandGroupPassthrough(t *testing.T) {
	g := Group{Name: "CTRL", Rows: []regmap.RawRow{
		raw("0x8", "CTRL", "EN", "[0]"),
		raw("0x8", "CTRL", "GO", "[1]"),
	}}
	out := ExpandGroup(g)
	if !reflect.DeepEqual(out, g.Rows) {
		t.Fatalf("passthrough changed rows: %+v", out)
	}
	again := Expand(GroupContiguous(out))
	if !reflect.DeepEqual(again, out) {
		t.Fatalf("passthrough is not idempotent")
	}
}

func TestExpandGroupEmptyRange(t *testing.T) {
	name := "R{n}, n=range(0)"
	g := Group{Name: name, Rows: []regmap.RawRow{raw("0x0", name, "F", "[0]")}}
	if out := ExpandGroup(g); len(out) != 0 {
		t.Fatalf("empty range should produce no rows, got %d", len(out))
	}
}

func TestStride(t *testing.T) {
	tests := []struct {
		bits []string
		want uint64
	}{
		{nil, 4},
		{[]string{"[0]"}, 1},
		{[]string{"[7:0]", "[8]"}, 2},
		{[]string{"[31:0]"}, 4},
		{[]string{"[31:0]", "[63:32]"}, 8},
		{[]string{"", ""}, 4},
	}
	for _, tt := range tests {
		var rows []regmap.RawRow
		for _, b := range tt.bits {
			rows = append(rows, raw("", "R", "F", b))
		}
		if got := Stride(rows); got != tt.want {
			t.Fatalf("Stride(%v) = %d, want %d", tt.bits, got, tt.want)
		}
	}
}
