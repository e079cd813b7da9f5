// Package export writes register maps in the formats downstream tools read.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/robert-at-pretension-io/regsheet/internal/regmap"
)

// Formats understood by Write.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatIPXACT = "ipxact"
)

// Extension returns the file extension for format, with the dot.
func Extension(format string) string {
	switch format {
	case FormatYAML:
		return ".yaml"
	case FormatIPXACT:
		return ".xml"
	default:
		return ".json"
	}
}

// Write encodes m to w in format. indent is the per-level indent; JSON is
// compact when indent is empty.
func Write(w io.Writer, m *regmap.Model, format, indent string) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, m, indent)
	case FormatYAML:
		return WriteYAML(w, m, len(indent))
	case FormatIPXACT:
		return WriteIPXACT(w, m, indent)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteJSON writes the register map document, followed by a newline.
func WriteJSON(w io.Writer, m *regmap.Model, indent string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", indent)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// WriteYAML writes the register map document as YAML. Keys match the JSON
// document.
func WriteYAML(w io.Writer, m *regmap.Model, indent int) error {
	if indent < 2 {
		indent = 2
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return nil
}
