// Package sheet turns raw sheet grids into the rows the register map is
// built from.
//
// A register workbook has three kinds of sheets:
//
//	Version      row 2, columns B..E: vendor, library, name, version
//	Address Map  one block per row: name, base address, range
//	<block>      address, register, field, bits, access, reset, description
//
// Block sheets are sparse: the address and register cells are usually only
// filled on the first line of a register and left blank for its remaining
// fields. ExtractBlockRows restores them by forward fill.
package sheet
