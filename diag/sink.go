package diag

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/sdlgen/span"
)

// Sink is the append-only diagnostic collector owned by the driver.
type Sink struct {
	diags    []*Diagnostic
	errors   int
	warnings int
}

// Report appends a diagnostic.
func (s *Sink) Report(d *Diagnostic) {
	s.diags = append(s.diags, d)
	switch d.Severity {
	case SeverityError:
		s.errors++
	case SeverityWarning:
		s.warnings++
	}
}

// Add records an error. Errors that are not diagnostics are recorded as
// internal errors without a span.
func (s *Sink) Add(stage Stage, err error) {
	if err == nil {
		return
	}
	var d *Diagnostic
	if errors.As(err, &d) {
		s.Report(d)
		return
	}
	s.Report(Errorf(stage, span.Span{}, "%v", err))
}

// Errorf records an error diagnostic.
func (s *Sink) Errorf(stage Stage, at span.Span, format string, args ...any) {
	s.Report(Errorf(stage, at, format, args...))
}

// Warnf records a warning diagnostic.
func (s *Sink) Warnf(stage Stage, at span.Span, format string, args ...any) {
	s.Report(Warnf(stage, at, format, args...))
}

// Notef records an informational diagnostic.
func (s *Sink) Notef(stage Stage, at span.Span, format string, args ...any) {
	s.Report(Notef(stage, at, format, args...))
}

// All returns the recorded diagnostics in report order.
func (s *Sink) All() []*Diagnostic {
	return s.diags
}

// ErrorCount returns the number of error diagnostics.
func (s *Sink) ErrorCount() int {
	return s.errors
}

// WarningCount returns the number of warning diagnostics.
func (s *Sink) WarningCount() int {
	return s.warnings
}

// Summary returns a one-line count of errors and warnings.
func (s *Sink) Summary() string {
	return fmt.Sprintf("%d error(s), %d warning(s)", s.errors, s.warnings)
}
