package parser

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Severity of a diagnostic.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic records a sheet that was replaced by its default. Diagnostics
// are informational; they never change the model.
type Diagnostic struct {
	Sheet    string   `json:"sheet"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

type diagnostics struct {
	list []Diagnostic
}

// add records err for sheet. A missing sheet is expected in partial
// workbooks and is info; anything else is a warning.
func (d *diagnostics) add(log logrus.FieldLogger, sheet string, err error) {
	if err == nil {
		return
	}
	entry := log.WithField("sheet", sheet).WithError(err)
	sev := SeverityWarning
	if errors.Is(err, ErrSheetMissing) {
		sev = SeverityInfo
		entry.Debug("sheet not found, using defaults")
	} else {
		entry.Warn("sheet unreadable, using defaults")
	}
	d.list = append(d.list, Diagnostic{Sheet: sheet, Severity: sev, Message: err.Error()})
}
