package cell

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "empty"
	}
}

// Value is a single spreadsheet cell: absent, text, or a number.
// The zero Value is Empty.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Empty returns an absent cell.
func Empty() Value { return Value{} }

// Text returns a text cell. The string is kept verbatim.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Number returns a numeric cell.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// Float returns the numeric payload and whether v is a number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// IsEmpty reports whether the cell carries no usable content. Text that is
// blank after trimming counts as empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindText:
		return strings.TrimSpace(v.text) == ""
	case KindNumber:
		return false
	default:
		return true
	}
}

// String renders the cell as text. Numbers use the shortest decimal form
// that round-trips, so 16 renders as "16" and 2.5 as "2.5".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return ""
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Equal compares two cells by variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == o.text
	case KindNumber:
		return v.num == o.num
	default:
		return true
	}
}

// Get returns row[i], or Empty when the row is too short.
func Get(row []Value, i int) Value {
	if i < 0 || i >= len(row) {
		return Empty()
	}
	return row[i]
}
