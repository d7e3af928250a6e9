// Package diag carries sourced diagnostics from every pipeline stage to the
// user.
package diag

import (
	"fmt"

	"github.com/ardanlabs/sdlgen/span"
)

// Stage identifies which pipeline phase produced the diagnostic.
type Stage string

const (
	StageIO       Stage = "io"
	StageParse    Stage = "parse"
	StagePreproc  Stage = "preprocessor"
	StageEval     Stage = "eval"
	StageEmit     Stage = "emit"
	StageInternal Stage = "internal"
)

// Severity captures how impactful the diagnostic is.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// Diagnostic is a message tied to a source span. It doubles as the error
// type returned by parser productions, the evaluator and the emitter.
type Diagnostic struct {
	Stage    Stage
	Severity Severity
	Message  string
	Span     span.Span
	Notes    []string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	if d.Span.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Span.Pos(), d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Unwrap returns the underlying cause.
func (d *Diagnostic) Unwrap() error {
	return d.Err
}

// WithNote returns the diagnostic with an extra note line.
func (d *Diagnostic) WithNote(format string, args ...any) *Diagnostic {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
	return d
}

// Errorf builds an error diagnostic.
func Errorf(stage Stage, at span.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Stage:    stage,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Span:     at,
	}
}

// Warnf builds a warning diagnostic.
func Warnf(stage Stage, at span.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Stage:    stage,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Span:     at,
	}
}

// Notef builds an informational diagnostic.
func Notef(stage Stage, at span.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Stage:    stage,
		Severity: SeverityNote,
		Message:  fmt.Sprintf(format, args...),
		Span:     at,
	}
}

// Wrap builds an error diagnostic whose message is err's text.
func Wrap(stage Stage, at span.Span, err error) *Diagnostic {
	return &Diagnostic{
		Stage:    stage,
		Severity: SeverityError,
		Message:  err.Error(),
		Span:     at,
		Err:      err,
	}
}
