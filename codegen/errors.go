package codegen

import "fmt"

// Position locates a node in its source for diagnostics.
type Position struct {
	File string
	Line int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Severity grades a diagnostic.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevWarning {
		return "warning"
	}
	return "error"
}

// CompileError is one diagnostic. Errors abort resolution of the expression
// that raised them; warnings do not.
type CompileError struct {
	Pos      Position
	Severity Severity
	Msg      string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Severity, e.Msg)
}

// Diagnostics collects every message raised during a compilation so callers
// see all problems, not just the first.
type Diagnostics struct {
	Messages []*CompileError
}

// Errorf records and returns an error diagnostic.
func (d *Diagnostics) Errorf(pos Position, format string, args ...any) error {
	e := &CompileError{Pos: pos, Severity: SevError, Msg: fmt.Sprintf(format, args...)}
	d.Messages = append(d.Messages, e)
	return e
}

// Warnf records a warning diagnostic.
func (d *Diagnostics) Warnf(pos Position, format string, args ...any) {
	d.Messages = append(d.Messages, &CompileError{
		Pos: pos, Severity: SevWarning, Msg: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any error-severity message was recorded.
func (d *Diagnostics) HasErrors() bool {
	for _, m := range d.Messages {
		if m.Severity == SevError {
			return true
		}
	}
	return false
}

// Warnings returns the warning-severity messages.
func (d *Diagnostics) Warnings() []*CompileError {
	var out []*CompileError
	for _, m := range d.Messages {
		if m.Severity == SevWarning {
			out = append(out, m)
		}
	}
	return out
}
