// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlx

import (
	"github.com/pgalign/pgalign/sql/schema"
)

type (
	// A Diff provides a generic schema.Differ for diffing schema elements.
	//
	// The DiffDriver is required for supporting database/dialect specific
	// diff capabilities, like comparing custom types or default expressions.
	Diff struct {
		DiffDriver
	}

	// A DiffDriver wraps the methods for diffing elements that may have
	// database-specific comparison logic. See sql/postgres/diff.go for an
	// implementation example.
	DiffDriver interface {
		// ColumnChange returns the changed attributes (if any) for
		// migrating one column to the other.
		ColumnChange(from, to *schema.Column) schema.ChangeKind
	}
)

// SchemaDiff implements the schema.Differ interface and returns a list of
// changes that need to be applied in order to move from one state to the
// other. The "from" state is the inspected database and "to" the desired one.
func (d *Diff) SchemaDiff(from, to *schema.Schema) []schema.Change {
	var changes []schema.Change
	// Drop or modify tables.
	for _, t1 := range from.Tables {
		t2, ok := to.Table(t1.Name)
		if !ok {
			changes = append(changes, &schema.DropTable{T: t1})
			continue
		}
		if change := d.TableDiff(t1, t2); len(change) > 0 {
			changes = append(changes, &schema.ModifyTable{
				T:       t2,
				Changes: change,
			})
		}
	}
	// Add tables.
	for _, t1 := range to.Tables {
		if _, ok := from.Table(t1.Name); !ok {
			changes = append(changes, &schema.AddTable{T: t1})
		}
	}
	return changes
}

// TableDiff returns the changes needed to migrate a table from state
// "from" to state "to". Column position is not compared: the model has
// no reorder operation.
func (d *Diff) TableDiff(from, to *schema.Table) []schema.Change {
	var changes []schema.Change
	// Drop or modify columns.
	for _, c1 := range from.Columns {
		c2, ok := to.Column(c1.Name)
		if !ok {
			changes = append(changes, &schema.DropColumn{C: c1})
			continue
		}
		// Each changed attribute becomes its own step. An attribute
		// that did not change emits nothing.
		change := d.ColumnChange(c1, c2)
		if change.Is(schema.ChangeType) {
			changes = append(changes, &schema.ModifyType{From: c1, To: c2})
		}
		if change.Is(schema.ChangeNull) {
			changes = append(changes, &schema.ModifyNull{C: c2})
		}
		if change.Is(schema.ChangeDefault) {
			changes = append(changes, &schema.ModifyDefault{From: c1, To: c2})
		}
	}
	// Add columns in their desired order, so that insertion
	// order is predictable for callers previewing the plan.
	for _, c1 := range to.Columns {
		if _, ok := from.Column(c1.Name); !ok {
			changes = append(changes, &schema.AddColumn{C: c1})
		}
	}
	return changes
}
