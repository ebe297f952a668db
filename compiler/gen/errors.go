// Package gen implements the merge engine: the scope registry, the conflict
// resolver, the container synthesizer and the two-phase driver.
package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("scopegen: missing configuration")
	// ErrProtocol indicates a violation of the two-phase driver contract.
	ErrProtocol = errors.New("scopegen: protocol violation")
	// ErrEmit indicates a failure writing or reserving generated output.
	ErrEmit = errors.New("scopegen: emit failed")
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("scopegen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("scopegen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// ProtocolError represents a programming-contract violation of the driver:
// finalizing more than once, or requesting output before scanning completed.
// Protocol errors are fatal to the whole run.
type ProtocolError struct {
	Op      string // the operation that was rejected
	State   string // driver state at the time of the call
	Message string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	var b strings.Builder
	b.WriteString("scopegen: protocol violation")
	if e.Op != "" {
		fmt.Fprintf(&b, " in %s", e.Op)
	}
	if e.State != "" {
		fmt.Fprintf(&b, " (state: %s)", e.State)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for ProtocolError.
func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocol
}

// NewProtocolError creates a new ProtocolError.
func NewProtocolError(op, state, message string) *ProtocolError {
	return &ProtocolError{
		Op:      op,
		State:   state,
		Message: message,
	}
}

// EmitError represents a failure creating or writing a generated file.
// A reserved output location with no content leaves the host build's
// incremental state inconsistent, so emit errors abort the run.
type EmitError struct {
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *EmitError) Error() string {
	var b strings.Builder
	b.WriteString("scopegen: emit error")
	if e.Path != "" {
		fmt.Fprintf(&b, " (file: %s)", e.Path)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *EmitError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for EmitError.
func (e *EmitError) Is(target error) bool {
	return target == ErrEmit
}

// NewEmitError creates a new EmitError.
func NewEmitError(path, message string, cause error) *EmitError {
	return &EmitError{
		Path:    path,
		Message: message,
		Cause:   cause,
	}
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsProtocolError reports whether the error is a ProtocolError.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}

// IsEmitError reports whether the error is an EmitError.
func IsEmitError(err error) bool {
	var emitErr *EmitError
	return errors.As(err, &emitErr)
}
