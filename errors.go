package scopegen

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for generation failures.
var (
	// ErrDiagnostics is returned when generation completed but one or more
	// declarations were rejected during resolution.
	ErrDiagnostics = errors.New("scopegen: generation reported diagnostics")
)

// A Diagnostic is a structured per-declaration failure. It carries the
// offending declaration's identity and source position so the host build can
// surface it as a compilation error pointing at the declaration.
type Diagnostic struct {
	Decl    TypeID // offending declaration
	Pos     string // source position, empty if unknown
	Message string
}

// Error returns the error string.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString("scopegen: ")
	if d.Pos != "" {
		b.WriteString(d.Pos)
		b.WriteString(": ")
	}
	if !d.Decl.IsZero() {
		fmt.Fprintf(&b, "%s: ", d.Decl)
	}
	b.WriteString(d.Message)
	return b.String()
}

// Is reports whether the target matches the diagnostics sentinel.
func (d *Diagnostic) Is(err error) bool {
	return err == ErrDiagnostics
}

// NewDiagnostic returns a new Diagnostic for the given declaration.
func NewDiagnostic(decl TypeID, pos, format string, args ...any) *Diagnostic {
	return &Diagnostic{Decl: decl, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// DiagnosticList aggregates multiple diagnostics collected during a run.
type DiagnosticList struct {
	Diagnostics []*Diagnostic
}

// Error returns the error string.
func (l *DiagnosticList) Error() string {
	if len(l.Diagnostics) == 0 {
		return "scopegen: no diagnostics"
	}
	if len(l.Diagnostics) == 1 {
		return l.Diagnostics[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "scopegen: %d declarations failed:", len(l.Diagnostics))
	for _, d := range l.Diagnostics {
		fmt.Fprintf(&sb, "\n  %v", d)
	}
	return sb.String()
}

// Is reports whether the target matches the diagnostics sentinel.
func (l *DiagnosticList) Is(err error) bool {
	return err == ErrDiagnostics
}

// NewDiagnosticList returns an error aggregating the given diagnostics,
// or nil if there are none. A single diagnostic is returned unwrapped.
func NewDiagnosticList(diags ...*Diagnostic) error {
	var filtered []*Diagnostic
	for _, d := range diags {
		if d != nil {
			filtered = append(filtered, d)
		}
	}
	switch len(filtered) {
	case 0:
		return nil
	case 1:
		return filtered[0]
	default:
		return &DiagnosticList{Diagnostics: filtered}
	}
}

// IsDiagnostic reports whether the error is a Diagnostic or DiagnosticList.
func IsDiagnostic(err error) bool {
	if err == nil {
		return false
	}
	var d *Diagnostic
	var l *DiagnosticList
	return errors.As(err, &d) || errors.As(err, &l) || errors.Is(err, ErrDiagnostics)
}
