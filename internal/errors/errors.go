// Copyright (c) 2025 sqlexplorer
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so transports can map a failure to a response shape
// without parsing error strings.
//
// The package supports wrapping underlying errors while maintaining error kind information.
// KindOf walks the wrap chain, so a kind survives fmt.Errorf("...: %w") at package boundaries.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// NeedCredentials indicates the connection has no usable user/password yet.
	NeedCredentials Kind = "need_credentials"
	// MultiStatement indicates the input contained more than one SQL statement.
	MultiStatement Kind = "multi_statement"
	// MalformedLimit indicates a LIMIT keyword not followed by an integer.
	MalformedLimit Kind = "malformed_limit"
	// NoConnection indicates the connection id could not be resolved to a live connection.
	NoConnection Kind = "no_connection"
	// Execution indicates the driver rejected or failed the statement.
	Execution Kind = "execution"
	// TaskNotFound indicates an unknown, collected or cancelled task id.
	TaskNotFound Kind = "task_not_found"
	// Cancelled indicates the work was cancelled before it completed.
	Cancelled Kind = "cancelled"
	// InvalidConfig indicates a configuration value out of range.
	InvalidConfig Kind = "invalid_config"
	// InvalidConnection indicates a connection descriptor that failed validation.
	InvalidConnection Kind = "invalid_connection"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	// Dialect names the database dialect for Execution errors.
	Dialect string
	Err     error
}

func (e *E) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		}
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Dialect != "" {
		return fmt.Sprintf("[%s] %s", e.Dialect, msg)
	}
	return msg
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a format string.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ExecutionError wraps a driver failure for the given dialect.
func ExecutionError(dialect string, err error) *E {
	return &E{Kind: Execution, Dialect: dialect, Err: err}
}

// KindOf returns the kind of the first *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
