package errors

import (
	"fmt"
)

// OpKind classifies failures outside request handling
type OpKind string

const (
	OpStorage OpKind = "storage"
	OpConfig  OpKind = "config"
)

// AppError records which operation failed on which file. It is returned by
// code paths that touch the filesystem on their own, like writing an export
// or reading the config file, so callers can log the path without parsing
// the message.
type AppError struct {
	Kind OpKind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewStorageError reports a failed write under the exports directory
func NewStorageError(op, path string, err error) *AppError {
	return &AppError{Kind: OpStorage, Op: op, Path: path, Err: err}
}

// NewConfigError reports configuration that could not be loaded; path is the
// config file when one was read
func NewConfigError(op, path string, err error) *AppError {
	return &AppError{Kind: OpConfig, Op: op, Path: path, Err: err}
}
