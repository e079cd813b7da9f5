package cell

import (
	"math"
	"strconv"
	"strings"
)

// DefaultAccess is used when the access column is blank.
const DefaultAccess = "RW"

// ParseBitRange parses "[7:0]", "7:0", "[3]" or "3" into (msb, lsb).
// Anything unparseable yields (0, 0); a reversed range is swapped so that
// msb >= lsb.
func ParseBitRange(raw string) (msb, lsb uint64) {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '[' && s[len(s)-1] == ']' {
		s = s[1 : len(s)-1]
	}

	hi, lo, ok := splitBits(s)
	if !ok {
		return 0, 0
	}
	if hi < lo {
		hi, lo = lo, hi
	}
	return hi, lo
}

func splitBits(s string) (uint64, uint64, bool) {
	first, second, hasColon := strings.Cut(s, ":")
	if !hasColon {
		bit, err := parseBitToken(s)
		if err != nil {
			return 0, 0, false
		}
		return bit, bit, true
	}
	hi, err := parseBitToken(first)
	if err != nil {
		return 0, 0, false
	}
	lo, err := parseBitToken(second)
	if err != nil {
		return 0, 0, false
	}
	return hi, lo, true
}

func parseBitToken(tok string) (uint64, error) {
	return strconv.ParseUint(strings.TrimSpace(tok), 10, 64)
}

// Width returns the number of bits covered by [msb:lsb].
func Width(msb, lsb uint64) uint64 {
	return msb - lsb + 1
}

// ParseIntSafe coerces a cell to an unsigned integer. Blank cells and the
// token "none" are 0, "0x"-prefixed text is hexadecimal, and everything else
// is read as a float and truncated toward zero so that "10.0" is 10.
// Failures, negatives and out-of-range values are 0.
func ParseIntSafe(v Value) uint64 {
	if f, ok := v.Float(); ok {
		return truncate(f)
	}
	if v.IsEmpty() {
		return 0
	}
	s := strings.TrimSpace(v.String())
	if strings.EqualFold(s, "none") {
		return 0
	}
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		n, err := strconv.ParseUint(s[2:], 16, 64)
		if err != nil {
			return 0
		}
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return truncate(f)
}

func truncate(f float64) uint64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	t := math.Trunc(f)
	if t < 0 || t >= math.MaxUint64 {
		return 0
	}
	return uint64(t)
}

// ParseAccess returns the trimmed, uppercased access token, or "RW".
func ParseAccess(v Value) string {
	if v.IsEmpty() {
		return DefaultAccess
	}
	return strings.ToUpper(strings.TrimSpace(v.String()))
}

// ParseString returns the trimmed text of a cell; Empty is "".
func ParseString(v Value) string {
	return strings.TrimSpace(v.String())
}
