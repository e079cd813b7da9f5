package validator

// =============================================================================
// VALIDATOR: THE OUTPUT CONTRACT
// =============================================================================
//
// Every document regsheet writes is checked against schema.cue before it
// leaves the process. Downstream generators (C headers, RTL, docs) consume
// the JSON by key name; a renamed key or a zero-width field would otherwise
// flow through silently.
//
// When validation fails, fix the parser or the builder. Do not loosen the
// schema to make a workbook pass.
// =============================================================================

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Definitions in schema.cue.
const (
	ModelDef  = "#Model"
	TablesDef = "#Tables"
)

// Validator checks data against one definition of the embedded schema.
type Validator struct {
	ctx    *cue.Context
	def    cue.Value
	defKey string
}

// New creates a validator for the register map document.
func New() (*Validator, error) {
	return newValidator(ModelDef)
}

// NewTablesValidator creates a validator for the flat relational tables.
func NewTablesValidator() (*Validator, error) {
	return newValidator(TablesDef)
}

// newValidator compiles the schema in a context of its own; a cue.Context
// must not be shared between goroutines.
func newValidator(path string) (*Validator, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile register schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(path))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema has no %s: %w", path, err)
	}
	return &Validator{ctx: ctx, def: def, defKey: path}, nil
}

// Validate checks the JSON encoding of data, so struct tags are what get
// validated.
func (v *Validator) Validate(data any) error {
	doc, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", v.defKey, err)
	}
	return v.ValidateJSON(doc)
}

// ValidateJSON validates JSON bytes directly against the schema.
func (v *Validator) ValidateJSON(doc []byte) error {
	if err := v.unify(doc); err != nil {
		return fmt.Errorf("%s validation failed: %w", v.defKey, err)
	}
	return nil
}

// ValidationErrors returns one message per violation, or nil when data is valid.
func (v *Validator) ValidationErrors(data any) []string {
	doc, err := json.Marshal(data)
	if err != nil {
		return []string{err.Error()}
	}
	err = v.unify(doc)
	if err == nil {
		return nil
	}
	list := errors.Errors(err)
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		msgs = append(msgs, e.Error())
	}
	return msgs
}

func (v *Validator) unify(doc []byte) error {
	value := v.ctx.CompileBytes(doc)
	if err := value.Err(); err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	return v.def.Unify(value).Validate(cue.Concrete(true))
}
