// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package migrate

import (
	"context"

	"github.com/pgalign/pgalign/sql/schema"
)

type (
	// A Plan defines a planned changeset that its execution brings the
	// database to the new desired state. A plan is consumed exactly once
	// by the applying driver.
	Plan struct {
		// Transactional reports if the changeset is applied
		// inside a single transaction.
		Transactional bool

		// Changes defines the ordered list of changes in the plan.
		Changes []*Change
	}

	// A Change of migration.
	Change struct {
		// Cmd is the statement to execute.
		Cmd string

		// A Comment describes the change.
		Comment string

		// The Source that caused this change, or nil.
		Source schema.Change
	}
)

// Stmts returns the ordered list of DDL statements the plan represents.
// Serializing a plan has no execution side effects.
func (p *Plan) Stmts() []string {
	stmts := make([]string, len(p.Changes))
	for i, c := range p.Changes {
		stmts[i] = c.Cmd
	}
	return stmts
}

type (
	// PlanApplier wraps the methods for planning and applying changes
	// on the database.
	PlanApplier interface {
		// PlanChanges returns a migration plan for the given changeset.
		PlanChanges(context.Context, []schema.Change) (*Plan, error)

		// ApplyChanges applies the given changeset atomically: either
		// every change is committed, or none is and the connection
		// remains usable.
		ApplyChanges(context.Context, []schema.Change) error
	}

	// Driver is the interface implemented by database drivers to support
	// reconciling a desired schema with a live database: inspecting the
	// current state, diffing it against the desired one, and planning and
	// applying the resulting changes.
	Driver interface {
		schema.Differ
		schema.Inspector
		schema.ExecQuerier
		PlanApplier
	}
)
