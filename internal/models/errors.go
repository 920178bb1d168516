package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrMissingIndexFile ErrorType = iota
	ErrUnsatisfiedOr
	ErrUnsatisfiedAnd
	ErrInvalidEpoch
	ErrMalformedDependency
	ErrFieldLookup
	ErrWorkspace
	ErrInvalidConfig
	ErrFileOp
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrMissingIndexFile:
		return "MissingIndexFile"
	case ErrUnsatisfiedOr:
		return "UnsatisfiedOrDependency"
	case ErrUnsatisfiedAnd:
		return "UnsatisfiedAndDependency"
	case ErrInvalidEpoch:
		return "InvalidEpoch"
	case ErrMalformedDependency:
		return "MalformedDependencyClause"
	case ErrFieldLookup:
		return "FieldLookup"
	case ErrWorkspace:
		return "Workspace"
	case ErrInvalidConfig:
		return "InvalidConfig"
	case ErrFileOp:
		return "FileOp"
	default:
		return "Unknown"
	}
}

// CubeError represents a hard failure surfaced to the caller
type CubeError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *CubeError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *CubeError) Unwrap() error {
	return e.Err
}

// Diagnostic is a non-fatal problem recorded while scanning or resolving.
// Diagnostics are collected and returned, they never abort the operation.
type Diagnostic struct {
	Type    ErrorType
	Package string
	Source  string
	Message string
}

func (d Diagnostic) String() string {
	switch {
	case d.Package != "" && d.Source != "":
		return fmt.Sprintf("[%s] %s (%s): %s", d.Type, d.Package, d.Source, d.Message)
	case d.Package != "":
		return fmt.Sprintf("[%s] %s: %s", d.Type, d.Package, d.Message)
	case d.Source != "":
		return fmt.Sprintf("[%s] %s: %s", d.Type, d.Source, d.Message)
	default:
		return fmt.Sprintf("[%s] %s", d.Type, d.Message)
	}
}
