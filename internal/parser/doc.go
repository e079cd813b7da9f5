// Package parser turns a register workbook into a regmap.Model.
//
// =============================================================================
// FAILURE POLICY: DEGRADE PER SHEET, NEVER ABORT
// =============================================================================
//
// Register workbooks are hand-edited and often incomplete. The parser keeps
// going and produces the most complete model it can:
//
//	Version sheet missing or unreadable   -> empty vendor/library/name/version
//	Address Map missing or unreadable     -> no address blocks
//	block sheet missing or unreadable     -> that block has no registers
//	malformed number or bit range         -> 0 / [0:0]
//
// Only a file that is not a workbook at all is an error (*OpenError).
// Everything that was defaulted is reported as a Diagnostic so callers can
// surface it without changing the model.
//
// Per address block the pipeline is:
//
//	sheet.ExtractBlockRows -> expand.GroupContiguous -> expand.Expand -> regmap.Build
//
// =============================================================================
package parser
