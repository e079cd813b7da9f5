package cell

import "testing"

func TestParseBitRange(t *testing.T) {
	tests := []struct {
		in       string
		msb, lsb uint64
	}{
		{"[7:0]", 7, 0},
		{"7:0", 7, 0},
		{" [15 : 8] ", 15, 8},
		{"[3]", 3, 3},
		{"3", 3, 3},
		{"[0:7]", 7, 0},
		{"bogus", 0, 0},
		{"", 0, 0},
		{"[]", 0, 0},
		{"7:x", 0, 0},
		{"-1", 0, 0},
		{"1:2:3", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			msb, lsb := ParseBitRange(tt.in)
			if msb != tt.msb || lsb != tt.lsb {
				t.Fatalf("ParseBitRange(%q) = (%d, %d), want (%d, %d)", tt.in, msb, lsb, tt.msb, tt.lsb)
			}
			if w := Width(msb, lsb); w < 1 {
				t.Fatalf("width %d < 1", w)
			}
		})
	}
}

func TestParseIntSafe(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want uint64
	}{
		{"hex", Text("0xFF"), 255},
		{"hex upper prefix", Text("0X1f"), 31},
		{"float text", Text("10.0"), 10},
		{"truncates", Text("7.9"), 7},
		{"decimal", Text(" 42 "), 42},
		{"empty text", Text(""), 0},
		{"absent", Empty(), 0},
		{"none", Text("None"), 0},
		{"garbage", Text("abc"), 0},
		{"bad hex", Text("0xZZ"), 0},
		{"bare prefix", Text("0x"), 0},
		{"negative", Text("-3"), 0},
		{"infinity", Text("inf"), 0},
		{"number cell", Number(16), 16},
		{"number cell fraction", Number(3.75), 3},
		{"exponent", Text("1e3"), 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseIntSafe(tt.in); got != tt.want {
				t.Fatalf("ParseIntSafe(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAccess(t *testing.T) {
	if got := ParseAccess(Empty()); got != "RW" {
		t.Fatalf("empty access = %q, want RW", got)
	}
	if got := ParseAccess(Text("  ro ")); got != "RO" {
		t.Fatalf("access = %q, want RO", got)
	}
	if got := ParseAccess(Text("   ")); got != "RW" {
		t.Fatalf("blank access = %q, want RW", got)
	}
}

func TestParseString(t *testing.T) {
	if got := ParseString(Empty()); got != "" {
		t.Fatalf("empty = %q", got)
	}
	if got := ParseString(Text("  enable bit ")); got != "enable bit" {
		t.Fatalf("got %q", got)
	}
	if got := ParseString(Number(2)); got != "2" {
		t.Fatalf("number = %q, want 2", got)
	}
}

func TestValueVariants(t *testing.T) {
	if !Empty().IsEmpty() || !Text(" ").IsEmpty() {
		t.Fatalf("expected blank values to be empty")
	}
	if Number(0).IsEmpty() {
		t.Fatalf("number zero is a value")
	}
	if Number(2.5).String() != "2.5" {
		t.Fatalf("number render = %q", Number(2.5).String())
	}
	if !Text("a").Equal(Text("a")) || Text("1").Equal(Number(1)) {
		t.Fatalf("Equal mismatch")
	}
	if Get([]Value{Text("x")}, 3).Kind() != KindEmpty {
		t.Fatalf("out of range cell should be empty")
	}
}
