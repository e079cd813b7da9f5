package expand

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxInstances bounds how many registers one pattern may generate. Larger
// ranges are treated as malformed.
const MaxInstances = 1 << 16

const placeholder = "{n}"

// Pattern is a register name of the form
//
//	<base>{n}, n=range(<args>)
//
// where args are one to three integers with the usual stepped-range
// meaning: stop, or start and stop, or start, stop and step.
type Pattern struct {
	Base  string
	Start int
	Stop  int
	Step  int
}

// count returns the number of indices the range produces. It works in
// uint64 so that spans wider than the int range do not wrap.
func (p Pattern) count() uint64 {
	switch {
	case p.Step > 0 && p.Start < p.Stop:
		span := uint64(p.Stop) - uint64(p.Start)
		return (span-1)/uint64(p.Step) + 1
	case p.Step < 0 && p.Start > p.Stop:
		span := uint64(p.Start) - uint64(p.Stop)
		return (span-1)/-uint64(p.Step) + 1
	default:
		return 0
	}
}

// Indices returns the index values of the range in order. Ranges longer
// than MaxInstances yield nil.
func (p Pattern) Indices() []int {
	n := p.count()
	if n > MaxInstances {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = p.Start + i*p.Step
	}
	return out
}

// MatchExpansion parses name against the expansion grammar. Every "{n}"
// occurrence is tried in turn; the text before the matching one, trimmed,
// becomes the base name. Anything after the closing parenthesis is ignored.
func MatchExpansion(name string) (Pattern, bool) {
	off := 0
	for {
		i := strings.Index(name[off:], placeholder)
		if i < 0 {
			return Pattern{}, false
		}
		at := off + i
		if p, ok := parseRangeClause(name[at+len(placeholder):]); ok {
			p.Base = strings.TrimSpace(name[:at])
			return p, true
		}
		off = at + len(placeholder)
	}
}

// parseRangeClause matches `,\s*n\s*=\s*range(<args>)` at the start of s.
func parseRangeClause(s string) (Pattern, bool) {
	sc := scanner{src: s}
	if !sc.literal(",") {
		return Pattern{}, false
	}
	sc.skipSpace()
	if !sc.literal("n") {
		return Pattern{}, false
	}
	sc.skipSpace()
	if !sc.literal("=") {
		return Pattern{}, false
	}
	sc.skipSpace()
	if !sc.literal("range(") {
		return Pattern{}, false
	}
	args, ok := sc.until(')')
	if !ok {
		return Pattern{}, false
	}
	return parseRangeArgs(args)
}

func parseRangeArgs(args string) (Pattern, bool) {
	if strings.TrimSpace(args) == "" {
		return Pattern{}, false
	}
	parts := strings.Split(args, ",")
	if len(parts) > 3 {
		return Pattern{}, false
	}
	nums := make([]int, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Pattern{}, false
		}
		nums[i] = n
	}

	p := Pattern{Step: 1}
	switch len(nums) {
	case 1:
		p.Stop = nums[0]
	case 2:
		p.Start, p.Stop = nums[0], nums[1]
	case 3:
		p.Start, p.Stop, p.Step = nums[0], nums[1], nums[2]
	}
	if p.Step == 0 || p.count() > MaxInstances {
		return Pattern{}, false
	}
	return p, true
}

type scanner struct {
	src string
	pos int
}

func (sc *scanner) literal(lit string) bool {
	if !strings.HasPrefix(sc.src[sc.pos:], lit) {
		return false
	}
	sc.pos += len(lit)
	return true
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.src) {
		r, size := utf8.DecodeRuneInString(sc.src[sc.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		sc.pos += size
	}
}

// until consumes up to and including the next c and returns the text
// before it.
func (sc *scanner) until(c byte) (string, bool) {
	i := strings.IndexByte(sc.src[sc.pos:], c)
	if i < 0 {
		return "", false
	}
	out := sc.src[sc.pos : sc.pos+i]
	sc.pos += i + 1
	return out, true
}
