package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/robert-at-pretension-io/regsheet/internal/cell"
	"github.com/robert-at-pretension-io/regsheet/internal/expand"
	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
	"github.com/robert-at-pretension-io/regsheet/internal/sheet"
	"github.com/robert-at-pretension-io/regsheet/internal/workbook"
)

// ErrSheetMissing marks a sheet that could not be located by name.
var ErrSheetMissing = errors.New("sheet missing")

// OpenError is the only fatal parse failure: the input is not a workbook.
type OpenError struct {
	Err error
}

func (e *OpenError) Error() string {
	return "failed to parse workbook: " + e.Err.Error()
}

func (e *OpenError) Unwrap() error { return e.Err }

// Outcome is the result of reading one sheet. A failed outcome carries Err
// and the zero Value; callers choose the default.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Or returns the value, or def when the outcome failed.
func (o Outcome[T]) Or(def T) T {
	if o.Err != nil {
		return def
	}
	return o.Value
}

// Result is a parsed model plus everything that was degraded on the way.
type Result struct {
	Model       *regmap.Model
	Diagnostics []Diagnostic
}

// Parser converts register workbooks into register maps. The zero value is
// ready to use and logs nothing.
type Parser struct {
	Log logrus.FieldLogger
}

// New returns a parser logging to log. A nil log discards output.
func New(log logrus.FieldLogger) *Parser {
	return &Parser{Log: log}
}

// Parse builds the register map of wb. It never fails: a sheet that is
// missing or unreadable yields its documented default and a diagnostic,
// and the remaining sheets are still processed.
func (p *Parser) Parse(wb workbook.Workbook) Result {
	log := p.logger()
	names := wb.SheetNames()
	var diags diagnostics

	versionOut := readSheet(wb, names, sheet.VersionSheet, sheet.ExtractVersion)
	diags.add(log, sheet.VersionSheet, versionOut.Err)

	blocksOut := readSheet(wb, names, sheet.AddressMapSheet, sheet.ExtractAddressMap)
	diags.add(log, sheet.AddressMapSheet, blocksOut.Err)

	model := regmap.NewModel(versionOut.Or(regmap.VersionInfo{}))
	for _, entry := range blocksOut.Or(nil) {
		regsOut := readSheet(wb, names, entry.Name, buildRegisters)
		diags.add(log, entry.Name, regsOut.Err)

		model.AddressBlocks = append(model.AddressBlocks, regmap.AddressBlock{
			Name:        entry.Name,
			BaseAddress: entry.BaseAddress,
			Range:       entry.Range,
			Registers:   regsOut.Or([]regmap.Register{}),
		})
		log.WithFields(logrus.Fields{
			"block":     entry.Name,
			"registers": len(model.AddressBlocks[len(model.AddressBlocks)-1].Registers),
		}).Debug("parsed address block")
	}

	return Result{Model: model, Diagnostics: diags.list}
}

func buildRegisters(rows [][]cell.Value) []regmap.Register {
	return regmap.Build(expand.Rows(sheet.ExtractBlockRows(rows)))
}

// readSheet locates target, reads its grid and runs extract on it. Lookup
// misses, read errors and panics all end up in the outcome's Err.
func readSheet[T any](wb workbook.Workbook, names []string, target string, extract func([][]cell.Value) T) (out Outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome[T]{Err: fmt.Errorf("sheet %q: %v", target, r)}
		}
	}()

	name, ok := sheet.Locate(names, target)
	if !ok {
		return Outcome[T]{Err: fmt.Errorf("%q: %w", target, ErrSheetMissing)}
	}
	rows, err := wb.Rows(name)
	if err != nil {
		return Outcome[T]{Err: fmt.Errorf("reading sheet %q: %w", name, err)}
	}
	return Outcome[T]{Value: extract(rows)}
}

func (p *Parser) logger() logrus.FieldLogger {
	if p == nil || p.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return p.Log
}

// ParseWorkbook parses wb without logging and drops diagnostics.
func ParseWorkbook(wb workbook.Workbook) *regmap.Model {
	return New(nil).Parse(wb).Model
}

// ParseBytes decodes an xlsx workbook and parses it.
func ParseBytes(data []byte) (*regmap.Model, error) {
	wb, err := workbook.OpenBytes(data)
	if err != nil {
		return nil, &OpenError{Err: err}
	}
	defer wb.Close()
	return ParseWorkbook(wb), nil
}

// ParseFile decodes the xlsx workbook at path and parses it.
func ParseFile(path string) (*regmap.Model, error) {
	wb, err := workbook.OpenFile(path)
	if err != nil {
		return nil, &OpenError{Err: err}
	}
	defer wb.Close()
	return ParseWorkbook(wb), nil
}
