package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDeclarations means the input held nothing the extractor recognises.
	ErrNoDeclarations = errors.New("no matching declarations found")

	// ErrNoInputs means a signature has no input parameter to size outputs against.
	ErrNoInputs = errors.New("signature has no inputs")
)

// ExtractionError reports a declaration that could not be tokenized or parsed.
type ExtractionError struct {
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("extraction error: %s", e.Msg)
	}
	return fmt.Sprintf("extraction error at %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// TypeResolutionError names a raw type missing from the fixed type tables.
type TypeResolutionError struct {
	Function string
	Param    string
	RawType  string
}

func (e *TypeResolutionError) Error() string {
	return fmt.Sprintf("type resolution error: %s.%s: unknown type %q", e.Function, e.Param, e.RawType)
}

// ShapeError reports a declaration that does not follow the expected layout.
type ShapeError struct {
	Function string
	Reason   string
	Err      error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid declaration %s: %s", e.Function, e.Reason)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// DuplicateNameError is returned when two declarations map to the same module.
type DuplicateNameError struct {
	Module string
	First  string
	Second string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate module %q: %s and %s", e.Module, e.First, e.Second)
}
