package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// LoadFailureKind classifies why a dataset could not be loaded
type LoadFailureKind string

const (
	LoadMissingFile    LoadFailureKind = "missing_file"
	LoadMissingColumns LoadFailureKind = "missing_columns"
	LoadParseFailure   LoadFailureKind = "parse_failure"
)

// DataLoadError is fatal for the session: nothing downstream runs without a dataset
type DataLoadError struct {
	Kind    LoadFailureKind
	Path    string
	Missing []string
	Row     int
	Cause   error
}

// Error implements the error interface
func (e *DataLoadError) Error() string {
	switch e.Kind {
	case LoadMissingFile:
		return fmt.Sprintf("data file not found: %s", e.Path)
	case LoadMissingColumns:
		return fmt.Sprintf("data file %s is missing required columns: %s", e.Path, strings.Join(e.Missing, ", "))
	default:
		if e.Row > 0 {
			return fmt.Sprintf("failed to parse data file %s at row %d: %v", e.Path, e.Row, e.Cause)
		}
		return fmt.Sprintf("failed to parse data file %s: %v", e.Path, e.Cause)
	}
}

// Unwrap returns the underlying cause
func (e *DataLoadError) Unwrap() error {
	return e.Cause
}

// NewMissingFileError reports an absent source file
func NewMissingFileError(path string, cause error) *DataLoadError {
	return &DataLoadError{Kind: LoadMissingFile, Path: path, Cause: cause}
}

// NewMissingColumnsError reports required columns absent from the header
func NewMissingColumnsError(path string, missing []string) *DataLoadError {
	return &DataLoadError{Kind: LoadMissingColumns, Path: path, Missing: missing}
}

// NewParseFailureError reports an unreadable workbook or an unparseable cell;
// row is the 1-based sheet row or 0 when not row specific.
func NewParseFailureError(path string, row int, cause error) *DataLoadError {
	return &DataLoadError{Kind: LoadParseFailure, Path: path, Row: row, Cause: cause}
}

// ErrEmptyResult marks a filter that matched no records
var ErrEmptyResult = stderrors.New("no records match the current filters")

// EmptyResultWarning is a non-fatal notice that a view is empty
type EmptyResultWarning struct {
	Notice string
}

// NewEmptyResultWarning creates a warning with the given notice, or the default one
func NewEmptyResultWarning(notice string) *EmptyResultWarning {
	if notice == "" {
		notice = ErrEmptyResult.Error()
	}
	return &EmptyResultWarning{Notice: notice}
}

// Error implements the error interface
func (w *EmptyResultWarning) Error() string {
	return w.Notice
}

// Unwrap lets errors.Is match ErrEmptyResult
func (w *EmptyResultWarning) Unwrap() error {
	return ErrEmptyResult
}
