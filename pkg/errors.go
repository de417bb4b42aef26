package converter

import "fmt"

// SourceUnavailableError reports a source file that is missing or cannot
// be opened. Conversion aborts before any output is written.
type SourceUnavailableError struct {
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source file %q unavailable: %v", e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }

// MissingFieldError reports a required dataset absent from a source file.
type MissingFieldError struct {
	Field string
	Path  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q not found in %q", e.Field, e.Path)
}

// InvalidRateError reports a sample period that cannot yield a sampling rate.
type InvalidRateError struct {
	Period float64
}

func (e *InvalidRateError) Error() string {
	return fmt.Sprintf("invalid sample period %v: must be finite and > 0", e.Period)
}

// GeometryMismatchError reports a pixel index that falls outside the frame
// geometry. This usually means rows and columns were read in the wrong order.
type GeometryMismatchError struct {
	Index int64
	Row   int64
	Col   int64
	NRows int
	NCols int
}

func (e *GeometryMismatchError) Error() string {
	return fmt.Sprintf("pixel index %d maps to (row %d, col %d) outside %dx%d frame",
		e.Index, e.Row, e.Col, e.NRows, e.NCols)
}

// StackReadError reports a raw imaging file missing or unreadable while
// assembling the stack. Position is the file's index in the stack sequence.
// Frames already flushed in embed mode are left in place.
type StackReadError struct {
	Path     string
	Position int
	Err      error
}

func (e *StackReadError) Error() string {
	return fmt.Sprintf("error reading stack file %q (position %d): %v", e.Path, e.Position, e.Err)
}

func (e *StackReadError) Unwrap() error { return e.Err }

// UnknownSubjectError reports a subject id with no registry entry.
type UnknownSubjectError struct {
	SubjectID string
}

func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("subject %q not found in registry", e.SubjectID)
}

// ConvertStepError names the top-level conversion step that failed.
// A failed step aborts the remaining steps.
type ConvertStepError struct {
	Step string
	Err  error
}

func (e *ConvertStepError) Error() string {
	return fmt.Sprintf("conversion step %q failed: %v", e.Step, e.Err)
}

func (e *ConvertStepError) Unwrap() error { return e.Err }
