// Package errors provides sentinel errors and custom error types for the treevi application.
// Use errors.Is() and errors.As() to check for specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrUnknownModel indicates that a variational model name is not in the registry
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnknownOptimizer indicates that an optimizer name is not in the registry
	ErrUnknownOptimizer = errors.New("unknown optimizer")

	// ErrDivergence indicates that the variational objective became non-finite
	ErrDivergence = errors.New("objective is not finite")

	// ErrNoTopology indicates that an operation needed a sampled topology before one existed
	ErrNoTopology = errors.New("no topology has been sampled")

	// ErrNoTreesLoaded indicates that tree structure has not been read yet
	ErrNoTreesLoaded = errors.New("no trees loaded")

	// ErrNoAlignment indicates that sequence data has not been read yet
	ErrNoAlignment = errors.New("no alignment loaded")
)

// UnknownNameError represents a lookup of a model or optimizer name that is
// not part of the closed registry.
type UnknownNameError struct {
	Kind    string // "model" or "optimizer"
	Name    string
	Allowed []string
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown %s %q (allowed: %v)", e.Kind, e.Name, e.Allowed)
}

// Is returns true if the target matches the sentinel for this registry kind
func (e *UnknownNameError) Is(target error) bool {
	switch e.Kind {
	case "model":
		return target == ErrUnknownModel
	case "optimizer":
		return target == ErrUnknownOptimizer
	}
	return false
}

// NewUnknownModelError creates a new UnknownNameError for a model lookup
func NewUnknownModelError(name string, allowed []string) *UnknownNameError {
	return &UnknownNameError{Kind: "model", Name: name, Allowed: allowed}
}

// NewUnknownOptimizerError creates a new UnknownNameError for an optimizer lookup
func NewUnknownOptimizerError(name string, allowed []string) *UnknownNameError {
	return &UnknownNameError{Kind: "optimizer", Name: name, Allowed: allowed}
}

// DivergenceError represents a fitting run aborted because the ELBO became
// non-finite. There is no recovery: the run is terminal at the failing step.
type DivergenceError struct {
	Step int
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("ELBO is not finite at step %d, stopping", e.Step)
}

// Is returns true if the target error is ErrDivergence
func (e *DivergenceError) Is(target error) bool {
	return target == ErrDivergence
}

// NewDivergenceError creates a new DivergenceError
func NewDivergenceError(step int) *DivergenceError {
	return &DivergenceError{Step: step}
}

// FormatError represents a malformed input file (NEXUS tree trace, FASTA alignment)
type FormatError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("malformed file %s", e.Path)
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += fmt.Sprintf("\n%v", e.Err)
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// NewFormatError creates a new FormatError
func NewFormatError(path string, line int, msg string, err error) *FormatError {
	return &FormatError{Path: path, Line: line, Msg: msg, Err: err}
}
