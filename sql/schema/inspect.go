// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"context"
	"database/sql"
	"errors"
)

// An InspectError wraps a catalog read failure. The original error is
// retained so callers can still inspect the driver failure, while the
// migrator can catch the kind.
type InspectError struct {
	Err error
}

func (e *InspectError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying catalog error.
func (e *InspectError) Unwrap() error { return e.Err }

// IsInspectError reports if an error is an InspectError.
func IsInspectError(err error) bool {
	if err == nil {
		return false
	}
	var e *InspectError
	return errors.As(err, &e)
}

// ExecQuerier wraps the standard sql.DB methods the drivers require.
type ExecQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// TxOpener wraps the method for opening transactions. It is implemented
// by *sql.DB and required by drivers that apply plans transactionally.
type TxOpener interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// InspectOptions describes options for the Inspector.
type InspectOptions struct {
	// Tables to inspect. Empty means all tables in the schema.
	Tables []string
}

// Inspector is the interface implemented by the database drivers for
// inspecting the live schema state.
type Inspector interface {
	// InspectSchema returns the description of the connected schema.
	// A failure to read the catalog is returned as an *InspectError.
	InspectSchema(ctx context.Context, opts *InspectOptions) (*Schema, error)
}
