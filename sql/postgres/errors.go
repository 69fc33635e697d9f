// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed plan execution by the
// SQLSTATE class the server reported.
type ErrorKind uint8

const (
	// KindUnclassified covers failures with no more specific mapping.
	// The server message is preserved verbatim.
	KindUnclassified ErrorKind = iota
	// KindTypeConversion reports a value that cannot be converted to
	// the target column type, even with an explicit cast.
	KindTypeConversion
	// KindOverflow reports a value out of range for the target type.
	KindOverflow
	// KindConstraintViolation reports a NOT NULL, CHECK or UNIQUE
	// violation raised while altering a column.
	KindConstraintViolation
	// KindLockTimeout reports that a statement could not acquire its
	// table lock within the configured lock_timeout bound.
	KindLockTimeout
	// KindConcurrentConflict reports a serialization failure or a
	// deadlock with a concurrent session.
	KindConcurrentConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindTypeConversion:
		return "type conversion"
	case KindOverflow:
		return "overflow"
	case KindConstraintViolation:
		return "constraint violation"
	case KindLockTimeout:
		return "lock timeout"
	case KindConcurrentConflict:
		return "concurrent conflict"
	default:
		return "unclassified"
	}
}

// ExecError is returned when applying a migration plan fails. It carries
// the statement that failed and the classified kind of the failure. The
// transaction the plan ran in was rolled back in full before it is returned.
type ExecError struct {
	Kind ErrorKind
	Stmt string
	err  error
}

func (e *ExecError) Error() string {
	if e.Stmt == "" {
		return fmt.Sprintf("postgres: %s: %s", e.Kind, e.err)
	}
	return fmt.Sprintf("postgres: executing %q: %s: %s", e.Stmt, e.Kind, e.err)
}

func (e *ExecError) Unwrap() error { return e.err }

// sqlState extracts the SQLSTATE code from a driver error. Both lib/pq
// and pgx error values implement the asserted interface.
func sqlState(err error) string {
	var state interface{ SQLState() string }
	if errors.As(err, &state) {
		return state.SQLState()
	}
	return ""
}

// classify wraps a statement failure in an ExecError with the
// kind mapped from its SQLSTATE code.
func classify(stmt string, err error) *ExecError {
	kind := KindUnclassified
	switch sqlState(err) {
	case "22P02", "22018", "42846", "42804":
		kind = KindTypeConversion
	case "22003", "22001", "22008":
		kind = KindOverflow
	case "23502", "23514", "23505":
		kind = KindConstraintViolation
	case "55P03":
		kind = KindLockTimeout
	case "40001", "40P01":
		kind = KindConcurrentConflict
	}
	return &ExecError{Kind: kind, Stmt: stmt, err: err}
}

func isKind(err error, k ErrorKind) bool {
	var e *ExecError
	return errors.As(err, &e) && e.Kind == k
}

// IsTypeConversion reports if the error was classified as a failed
// value conversion.
func IsTypeConversion(err error) bool { return isKind(err, KindTypeConversion) }

// IsOverflow reports if the error was classified as a value out of
// range for its target type.
func IsOverflow(err error) bool { return isKind(err, KindOverflow) }

// IsConstraintViolation reports if the error was classified as a
// constraint violation.
func IsConstraintViolation(err error) bool { return isKind(err, KindConstraintViolation) }

// IsLockTimeout reports if the error was classified as a lock
// acquisition timeout.
func IsLockTimeout(err error) bool { return isKind(err, KindLockTimeout) }

// IsConcurrentConflict reports if the error was classified as a
// conflict with a concurrent session.
func IsConcurrentConflict(err error) bool { return isKind(err, KindConcurrentConflict) }
