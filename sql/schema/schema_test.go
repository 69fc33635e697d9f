// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchema_Lookup(t *testing.T) {
	s := New("public").AddTables(
		NewTable("users").AddColumns(
			NewColumn("id").SetType(&IntegerType{T: "integer", Size: 4}).SetNull(false),
			NewColumn("name").SetType(&StringType{T: "text"}).SetNull(true),
		),
		NewTable("orders"),
	)
	users, ok := s.Table("users")
	require.True(t, ok)
	require.Same(t, s, users.Schema)
	_, ok = s.Table("posts")
	require.False(t, ok)

	name, ok := users.Column("name")
	require.True(t, ok)
	require.True(t, name.Type.Null)
	_, ok = users.Column("email")
	require.False(t, ok)
}

func TestChangeKind_Is(t *testing.T) {
	k := ChangeType | ChangeDefault
	require.True(t, k.Is(ChangeType))
	require.True(t, k.Is(ChangeDefault))
	require.False(t, k.Is(ChangeNull))
	require.False(t, NoChange.Is(ChangeType))
}

func TestIsInspectError(t *testing.T) {
	err := &InspectError{Err: fmt.Errorf("querying tables: %w", errors.New("timeout"))}
	require.True(t, IsInspectError(err))
	require.True(t, IsInspectError(fmt.Errorf("inspect: %w", err)))
	require.False(t, IsInspectError(errors.New("timeout")))
	require.False(t, IsInspectError(nil))
	require.EqualError(t, err, "querying tables: timeout")
}
