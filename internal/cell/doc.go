// Package cell models loosely-typed spreadsheet cells and the coercions
// applied to them.
//
// A workbook cell is absent, text, or a number. Register sheets mix these
// freely: an address can be the text "0x10" or the number 16, a reset value
// can be blank, "none" or "10.0". The functions here turn such cells into
// the typed values of the register map and never fail; malformed input
// degrades to zero values.
//
// Bit ranges are normalized: ParseBitRange("[0:7]") returns (7, 0), not the
// literal (first, second) order, so that msb-lsb+1 is always a positive
// width on unsigned values.
package cell
