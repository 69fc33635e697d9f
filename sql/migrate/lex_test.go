// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStmts(t *testing.T) {
	stmts, err := Stmts(`
-- users table
CREATE TABLE users (
    id serial PRIMARY KEY,
    name varchar(255) NOT NULL, -- display name
    email varchar(255)
);

/* legacy data */
CREATE TABLE products (id integer, note text DEFAULT 'a; b');
`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0].Text, "CREATE TABLE users")
	require.True(t, stmts[0].Text[len(stmts[0].Text)-1] == ';')
	require.Equal(t, []string{"-- users table"}, stmts[0].Comments)
	require.Contains(t, stmts[1].Text, `DEFAULT 'a; b'`)
	require.Equal(t, []string{"/* legacy data */"}, stmts[1].Comments)
}

func TestStmts_QuotesAndDollar(t *testing.T) {
	stmts, err := Stmts(`CREATE TABLE t (c text DEFAULT 'it''s;fine'); SELECT $tag$ a; b $tag$;`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[0].Text, "it''s;fine")
	require.Contains(t, stmts[1].Text, "$tag$ a; b $tag$")
}

// A minus or slash followed by a structural character is not a comment
// opener, and the character after it keeps its meaning.
func TestStmts_MinusAndSlashNotComments(t *testing.T) {
	stmts, err := Stmts(`CREATE TABLE t (a integer DEFAULT (3-(1)), b integer DEFAULT (4/(2)));`)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	require.Contains(t, stmts[0].Text, "3-(1)")
	require.Contains(t, stmts[0].Text, "4/(2)")

	stmts, err = Stmts(`SELECT 5-1; SELECT 2;`)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Equal(t, "SELECT 5-1;", stmts[0].Text)
}

func TestStmts_Errors(t *testing.T) {
	_, err := Stmts(`CREATE TABLE t (id integer`)
	require.EqualError(t, err, "unclosed parentheses")

	_, err = Stmts(`CREATE TABLE t (c text DEFAULT 'oops)`)
	require.Error(t, err)

	stmts, err := Stmts("  \n\t")
	require.NoError(t, err)
	require.Empty(t, stmts)
}
