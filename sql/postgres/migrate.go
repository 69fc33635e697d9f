// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pgalign/pgalign/sql/internal/sqlx"
	"github.com/pgalign/pgalign/sql/migrate"
	"github.com/pgalign/pgalign/sql/schema"
)

// A planApply provides migration capabilities for schema elements.
type planApply struct{ *conn }

var _ migrate.PlanApplier = (*planApply)(nil)

// PlanChanges returns a migration plan for the given schema changes.
// Each change plans into exactly one DDL statement and the plan executes
// in one transaction.
func (p *planApply) PlanChanges(_ context.Context, changes []schema.Change) (*migrate.Plan, error) {
	s := &state{conn: p.conn, Plan: migrate.Plan{Transactional: true}}
	if err := s.plan(changes); err != nil {
		return nil, err
	}
	return &s.Plan, nil
}

// ApplyChanges plans the given changes and applies the plan on the
// database. See apply for the transaction semantics.
func (p *planApply) ApplyChanges(ctx context.Context, changes []schema.Change) error {
	plan, err := p.PlanChanges(ctx, changes)
	if err != nil {
		return err
	}
	return p.apply(ctx, plan)
}

// apply executes a plan in one transaction. The first statement bounds
// lock waits with the configured lock_timeout. On the first failure the
// whole transaction is rolled back and a classified ExecError returned,
// leaving the database exactly as it was.
func (p *planApply) apply(ctx context.Context, plan *migrate.Plan) error {
	if len(plan.Changes) == 0 {
		return nil
	}
	opener, ok := p.ExecQuerier.(schema.TxOpener)
	if !ok {
		return fmt.Errorf("postgres: connection does not support transactions")
	}
	tx, err := opener.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: starting transaction: %w", err)
	}
	if err := func() error {
		lt := fmt.Sprintf("SET LOCAL lock_timeout = %d", p.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, lt); err != nil {
			return classify(lt, err)
		}
		for _, c := range plan.Changes {
			if _, err := tx.ExecContext(ctx, c.Cmd); err != nil {
				return classify(c.Cmd, err)
			}
		}
		return nil
	}(); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("COMMIT", err)
	}
	return nil
}

// state wraps the migration plan and its connection.
type state struct {
	*conn
	migrate.Plan
}

func (s *state) plan(changes []schema.Change) error {
	for _, c := range changes {
		var err error
		switch c := c.(type) {
		case *schema.AddTable:
			err = s.addTable(c)
		case *schema.DropTable:
			err = s.dropTable(c)
		case *schema.ModifyTable:
			err = s.modifyTable(c)
		default:
			err = fmt.Errorf("postgres: unsupported change %T", c)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *state) addTable(add *schema.AddTable) error {
	var err error
	b := Build("CREATE TABLE").Table(add.T)
	b.Wrap(func(b *sqlx.Builder) {
		b.MapComma(len(add.T.Columns), func(i int, b *sqlx.Builder) {
			if cerr := column(b, add.T.Columns[i]); cerr != nil && err == nil {
				err = cerr
			}
		})
	})
	if err != nil {
		return err
	}
	s.append(&migrate.Change{
		Cmd:     b.String(),
		Source:  add,
		Comment: fmt.Sprintf("add table %q", add.T.Name),
	})
	return nil
}

func (s *state) dropTable(drop *schema.DropTable) error {
	s.append(&migrate.Change{
		Cmd:     Build("DROP TABLE").Table(drop.T).String(),
		Source:  drop,
		Comment: fmt.Sprintf("drop table %q", drop.T.Name),
	})
	return nil
}

// modifyTable plans each column change of the table into its own
// ALTER TABLE statement.
func (s *state) modifyTable(modify *schema.ModifyTable) error {
	for _, change := range modify.Changes {
		b := Build("ALTER TABLE").Table(modify.T)
		var (
			err     error
			comment string
		)
		switch change := change.(type) {
		case *schema.AddColumn:
			b.P("ADD COLUMN")
			err = column(b, change.C)
			comment = fmt.Sprintf("add column %q to table %q", change.C.Name, modify.T.Name)
		case *schema.DropColumn:
			b.P("DROP COLUMN").Ident(change.C.Name)
			comment = fmt.Sprintf("drop column %q from table %q", change.C.Name, modify.T.Name)
		case *schema.ModifyType:
			err = alterType(b, change.To)
			comment = fmt.Sprintf("modify type of column %q in table %q", change.To.Name, modify.T.Name)
		case *schema.ModifyNull:
			b.P("ALTER COLUMN").Ident(change.C.Name)
			if change.C.Type.Null {
				b.P("DROP NOT NULL")
			} else {
				b.P("SET NOT NULL")
			}
			comment = fmt.Sprintf("modify nullability of column %q in table %q", change.C.Name, modify.T.Name)
		case *schema.ModifyDefault:
			b.P("ALTER COLUMN").Ident(change.To.Name)
			if x, xerr := defaultDDL(change.To); xerr != nil {
				err = xerr
			} else if x == "" {
				b.P("DROP DEFAULT")
			} else {
				b.P("SET DEFAULT", x)
			}
			comment = fmt.Sprintf("modify default of column %q in table %q", change.To.Name, modify.T.Name)
		default:
			err = fmt.Errorf("postgres: unsupported table change %T", change)
		}
		if err != nil {
			return err
		}
		s.append(&migrate.Change{Cmd: b.String(), Source: change, Comment: comment})
	}
	return nil
}

// alterType writes the type change clause with its conversion. The cast
// is always explicit so the server converts existing rows natively, and
// the target of a serial column is its backing integer type since serial
// is a create-time shorthand.
func alterType(b *sqlx.Builder, to *schema.Column) error {
	ft, err := formatType(to)
	if err != nil {
		return err
	}
	if st, ok := to.Type.Type.(*schema.SerialType); ok {
		ft = st.SequenceT
	}
	b.P("ALTER COLUMN").Ident(to.Name).P("TYPE", ft)
	b.P(fmt.Sprintf(`USING "%s"::%s`, to.Name, ft))
	return nil
}

// column writes the column definition clause of a CREATE TABLE or
// ADD COLUMN statement.
func column(b *sqlx.Builder, c *schema.Column) error {
	ft, err := formatType(c)
	if err != nil {
		return err
	}
	b.Ident(c.Name).P(ft)
	if !c.Type.Null {
		b.P("NOT")
	}
	b.P("NULL")
	x, err := defaultDDL(c)
	if err != nil {
		return err
	}
	if x != "" {
		b.P("DEFAULT", x)
	}
	return nil
}

// formatType returns the DDL text of a column type, falling back to the
// declared raw type when no canonical form exists.
func formatType(c *schema.Column) (string, error) {
	f, err := FormatType(c.Type.Type)
	if err != nil && c.Type.Raw != "" {
		return c.Type.Raw, nil
	}
	return f, err
}

// defaultDDL returns the DEFAULT clause value for a column, if any.
// Boolean defaults accept the full set of boolean input tokens and are
// written back in canonical form; an invalid token is a conversion error.
func defaultDDL(c *schema.Column) (string, error) {
	x, ok := defaultExpr(c)
	if !ok {
		return "", nil
	}
	if _, ok := c.Type.Type.(*schema.BoolType); ok {
		v, err := ParseBool(normalizeDefault(x))
		if err != nil {
			return "", &ExecError{Kind: KindTypeConversion, err: err}
		}
		return strconv.FormatBool(v), nil
	}
	return x, nil
}

// append adds a change to the plan.
func (s *state) append(c *migrate.Change) {
	s.Changes = append(s.Changes, c)
}

// Build instantiates a new builder with PostgreSQL identifier quoting.
func Build(phrase string) *sqlx.Builder {
	b := &sqlx.Builder{QuoteChar: '"'}
	return b.P(phrase)
}
