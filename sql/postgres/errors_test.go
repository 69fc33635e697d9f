// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// pgError mimics the error value database drivers return for server
// errors. Both lib/pq and pgx expose the SQLSTATE code this way.
type pgError struct {
	code string
	msg  string
}

func (e *pgError) Error() string    { return e.msg }
func (e *pgError) SQLState() string { return e.code }

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		kind ErrorKind
	}{
		{code: "22P02", kind: KindTypeConversion},
		{code: "22018", kind: KindTypeConversion},
		{code: "42846", kind: KindTypeConversion},
		{code: "42804", kind: KindTypeConversion},
		{code: "22003", kind: KindOverflow},
		{code: "22001", kind: KindOverflow},
		{code: "22008", kind: KindOverflow},
		{code: "23502", kind: KindConstraintViolation},
		{code: "23514", kind: KindConstraintViolation},
		{code: "23505", kind: KindConstraintViolation},
		{code: "55P03", kind: KindLockTimeout},
		{code: "40001", kind: KindConcurrentConflict},
		{code: "40P01", kind: KindConcurrentConflict},
		{code: "42P01", kind: KindUnclassified},
		{code: "", kind: KindUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			cause := &pgError{code: tt.code, msg: "server says no"}
			err := classify(`DROP TABLE "t"`, cause)
			require.Equal(t, tt.kind, err.Kind)
			require.Equal(t, `DROP TABLE "t"`, err.Stmt)
			require.ErrorIs(t, err, cause)
			require.Contains(t, err.Error(), "server says no")
		})
	}
}

// Errors with no SQLSTATE stay unclassified with their message intact.
func TestClassify_PlainError(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := classify("COMMIT", cause)
	require.Equal(t, KindUnclassified, err.Kind)
	require.Contains(t, err.Error(), "driver: bad connection")
}

// The SQLSTATE is found even when the driver error was wrapped.
func TestClassify_WrappedError(t *testing.T) {
	cause := fmt.Errorf("exec: %w", &pgError{code: "40P01", msg: "deadlock detected"})
	err := classify(`ALTER TABLE "t" DROP COLUMN "c"`, cause)
	require.Equal(t, KindConcurrentConflict, err.Kind)
	require.True(t, IsConcurrentConflict(err))
}

func TestErrorKindPredicates(t *testing.T) {
	require.True(t, IsOverflow(&ExecError{Kind: KindOverflow, Stmt: "s"}))
	require.False(t, IsOverflow(&ExecError{Kind: KindLockTimeout, Stmt: "s"}))
	require.False(t, IsLockTimeout(errors.New("unrelated")))
	require.True(t, IsConstraintViolation(fmt.Errorf("apply: %w", &ExecError{Kind: KindConstraintViolation})))
}

func TestErrorKindString(t *testing.T) {
	require.Equal(t, "type conversion", KindTypeConversion.String())
	require.Equal(t, "lock timeout", KindLockTimeout.String())
	require.Equal(t, "unclassified", KindUnclassified.String())
}
