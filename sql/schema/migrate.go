// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

type (
	// A Change represents a schema change. The types below implement this
	// interface and describe the atomic steps of a migration plan.
	Change interface {
		change()
	}

	// AddTable describes a table creation change.
	AddTable struct {
		T *Table
	}

	// DropTable describes a table removal change.
	DropTable struct {
		T *Table
	}

	// ModifyTable groups the column changes of a single table. Changes of
	// one table keep their relative order; tables are independent of each
	// other (no cross-table dependency is modeled).
	ModifyTable struct {
		T       *Table
		Changes []Change
	}

	// AddColumn describes a column creation change.
	AddColumn struct {
		C *Column
	}

	// DropColumn describes a column removal change.
	DropColumn struct {
		C *Column
	}

	// ModifyType describes a column type change.
	ModifyType struct {
		From, To *Column
	}

	// ModifyNull describes a column nullability change.
	ModifyNull struct {
		C *Column
	}

	// ModifyDefault describes a column default change. A nil To.Default
	// drops the default.
	ModifyDefault struct {
		From, To *Column
	}
)

// A ChangeKind describes the set of changed column attributes as a
// bit-set. The zero kind is no change.
type ChangeKind uint

const (
	// NoChange holds the zero value of a change kind.
	NoChange ChangeKind = 0

	// ChangeType describes a column type change.
	ChangeType ChangeKind = 1 << iota
	// ChangeNull describes a column nullability change.
	ChangeNull
	// ChangeDefault describes a column default change.
	ChangeDefault
)

// Is reports whether k matches the given change kind.
func (k ChangeKind) Is(c ChangeKind) bool { return k&c != 0 }

// Differ is the interface implemented by the migration drivers for
// comparing schema states. SchemaDiff is pure and total: any two
// well-formed schemas produce a changeset, identical schemas produce
// an empty one, and the receiver holds no state across calls.
type Differ interface {
	// SchemaDiff returns the changeset for migrating a schema from
	// state "from" (current) to state "to" (desired).
	SchemaDiff(from, to *Schema) []Change
}

// changes.
func (*AddTable) change()      {}
func (*DropTable) change()     {}
func (*ModifyTable) change()   {}
func (*AddColumn) change()     {}
func (*DropColumn) change()    {}
func (*ModifyType) change()    {}
func (*ModifyNull) change()    {}
func (*ModifyDefault) change() {}
