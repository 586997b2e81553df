package importer

import (
	"errors"
	"fmt"
)

// Kind classifies import errors by how the caller has to react to them.
type Kind int

const (
	// DataQuality errors come from missing or malformed data in a single row.
	// The row is skipped or degraded and processing continues.
	DataQuality Kind = iota + 1

	// Integrity errors are persistence failures for a single row, e.g. a
	// natural key collision. The row is recorded as skipped.
	Integrity

	// Structural errors mean the input itself cannot be processed. They are
	// returned before any row is processed.
	Structural
)

func (k Kind) String() string {
	switch k {
	case DataQuality:
		return "data quality"
	case Integrity:
		return "integrity"
	case Structural:
		return "structural"
	}
	return "unknown"
}

// Error is an error that happened during an import.
type Error struct {
	Kind Kind
	Row  int // 1-based row or line number, 0 if the error is not tied to a row
	Err  error
}

func (e *Error) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s error in row %d: %s", e.Kind, e.Row, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Reason is the message of the wrapped error, without kind and row.
func (e *Error) Reason() string {
	return e.Err.Error()
}

// KindOf returns the kind of an import error. Errors that are not import
// errors happened while persisting a row and are integrity errors.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}

	var importErr *Error
	if errors.As(err, &importErr) {
		return importErr.Kind
	}
	return Integrity
}

// ReasonOf returns the reason for an error as shown to the operator.
func ReasonOf(err error) string {
	var importErr *Error
	if errors.As(err, &importErr) {
		return importErr.Reason()
	}
	return err.Error()
}

// DataQualityError returns a data quality error for a row.
func DataQualityError(row int, format string, a ...any) error {
	return &Error{Kind: DataQuality, Row: row, Err: fmt.Errorf(format, a...)}
}

// IntegrityError wraps a persistence error for a row.
func IntegrityError(row int, err error) error {
	return &Error{Kind: Integrity, Row: row, Err: err}
}

// StructuralError wraps an error that makes the whole input unusable.
func StructuralError(err error) error {
	return &Error{Kind: Structural, Err: err}
}
