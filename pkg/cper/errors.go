package cper

import (
	"errors"
	"fmt"
)

// Validation failures. Match them with errors.Is; the concrete error is a
// *ValidationError carrying the position of the fault.
var (
	ErrMalformedHeader = errors.New("cper: malformed record header")
	ErrSectionOverrun  = errors.New("cper: section length overruns record")
	ErrTrailingBytes   = errors.New("cper: trailing bytes after last section")
	ErrSectionTooSmall = errors.New("cper: section payload too small")
)

// ValidationError describes where a record failed validation.
type ValidationError struct {
	Err     error  // one of the Err* sentinels
	Section int    // section index, -1 for record-level faults
	Offset  int    // byte offset into the record buffer
	Detail  string
}

func (e *ValidationError) Error() string {
	if e.Section < 0 {
		return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Detail)
	}
	return fmt.Sprintf("%v: section %d at offset %d: %s", e.Err, e.Section, e.Offset, e.Detail)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func headerError(offset int, format string, args ...interface{}) error {
	return &ValidationError{Err: ErrMalformedHeader, Section: -1, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

func sectionError(err error, section, offset int, format string, args ...interface{}) error {
	return &ValidationError{Err: err, Section: section, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}
