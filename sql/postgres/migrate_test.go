// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pgalign/pgalign/sql/internal/sqltest"
	"github.com/pgalign/pgalign/sql/schema"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPlanChanges(t *testing.T) {
	users := schema.NewTable("users").AddColumns(
		schema.NewColumn("id").SetType(&schema.SerialType{T: "serial", SequenceT: "integer"}).SetNull(false),
		schema.NewColumn("email").SetType(&schema.StringType{T: "character varying", Size: 255}).SetNull(false),
		schema.NewColumn("bio").SetType(&schema.StringType{T: "text"}).SetNull(true),
		schema.NewColumn("active").SetType(&schema.BoolType{T: "boolean"}).SetNull(false).
			SetDefault(&schema.Literal{V: "'yes'"}),
	)
	age4 := schema.NewColumn("age").SetType(&schema.IntegerType{T: "integer", Size: 4}).SetNull(true)
	age8 := schema.NewColumn("age").SetType(&schema.IntegerType{T: "bigint", Size: 8}).SetNull(true)
	tests := []struct {
		name     string
		changes  []schema.Change
		expected []string
	}{
		{
			name:    "add table",
			changes: []schema.Change{&schema.AddTable{T: users}},
			expected: []string{
				`CREATE TABLE "users" ("id" serial NOT NULL, "email" character varying(255) NOT NULL, "bio" text NULL, "active" boolean NOT NULL DEFAULT true)`,
			},
		},
		{
			name:     "add empty table",
			changes:  []schema.Change{&schema.AddTable{T: schema.NewTable("empty")}},
			expected: []string{`CREATE TABLE "empty" ()`},
		},
		{
			name:     "drop table",
			changes:  []schema.Change{&schema.DropTable{T: users}},
			expected: []string{`DROP TABLE "users"`},
		},
		{
			name: "modify type",
			changes: []schema.Change{
				&schema.ModifyTable{T: users, Changes: []schema.Change{
					&schema.ModifyType{From: age4, To: age8},
				}},
			},
			expected: []string{`ALTER TABLE "users" ALTER COLUMN "age" TYPE bigint USING "age"::bigint`},
		},
		{
			name: "modify nullability",
			changes: []schema.Change{
				&schema.ModifyTable{T: users, Changes: []schema.Change{
					&schema.ModifyNull{C: schema.NewColumn("email").SetType(&schema.StringType{T: "text"}).SetNull(false)},
					&schema.ModifyNull{C: schema.NewColumn("bio").SetType(&schema.StringType{T: "text"}).SetNull(true)},
				}},
			},
			expected: []string{
				`ALTER TABLE "users" ALTER COLUMN "email" SET NOT NULL`,
				`ALTER TABLE "users" ALTER COLUMN "bio" DROP NOT NULL`,
			},
		},
		{
			name: "modify default",
			changes: []schema.Change{
				&schema.ModifyTable{T: users, Changes: []schema.Change{
					&schema.ModifyDefault{
						From: schema.NewColumn("bio").SetType(&schema.StringType{T: "text"}).SetNull(true),
						To: schema.NewColumn("bio").SetType(&schema.StringType{T: "text"}).SetNull(true).
							SetDefault(&schema.Literal{V: "'hi'"}),
					},
					&schema.ModifyDefault{
						From: schema.NewColumn("email").SetType(&schema.StringType{T: "text"}).SetNull(false).
							SetDefault(&schema.Literal{V: "'x'"}),
						To: schema.NewColumn("email").SetType(&schema.StringType{T: "text"}).SetNull(false),
					},
				}},
			},
			expected: []string{
				`ALTER TABLE "users" ALTER COLUMN "bio" SET DEFAULT 'hi'`,
				`ALTER TABLE "users" ALTER COLUMN "email" DROP DEFAULT`,
			},
		},
		{
			name: "add and drop columns",
			changes: []schema.Change{
				&schema.ModifyTable{T: users, Changes: []schema.Change{
					&schema.DropColumn{C: schema.NewColumn("bio").SetType(&schema.StringType{T: "text"}).SetNull(true)},
					&schema.AddColumn{C: schema.NewColumn("nickname").SetType(&schema.StringType{T: "text"}).SetNull(true)},
				}},
			},
			expected: []string{
				`ALTER TABLE "users" DROP COLUMN "bio"`,
				`ALTER TABLE "users" ADD COLUMN "nickname" text NULL`,
			},
		},
		{
			name: "serial alters to its backing type",
			changes: []schema.Change{
				&schema.ModifyTable{T: users, Changes: []schema.Change{
					&schema.ModifyType{
						From: schema.NewColumn("id").SetType(&schema.IntegerType{T: "integer", Size: 4}).SetNull(false),
						To:   schema.NewColumn("id").SetType(&schema.SerialType{T: "bigserial", SequenceT: "bigint"}).SetNull(false),
					},
				}},
			},
			expected: []string{`ALTER TABLE "users" ALTER COLUMN "id" TYPE bigint USING "id"::bigint`},
		},
	}
	p := &planApply{&conn{}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := p.PlanChanges(context.Background(), tt.changes)
			require.NoError(t, err)
			require.True(t, plan.Transactional)
			require.Equal(t, tt.expected, plan.Stmts())
		})
	}
}

func TestPlanChanges_InvalidBooleanDefault(t *testing.T) {
	p := &planApply{&conn{}}
	_, err := p.PlanChanges(context.Background(), []schema.Change{
		&schema.AddTable{T: schema.NewTable("t").AddColumns(
			schema.NewColumn("active").SetType(&schema.BoolType{T: "boolean"}).SetNull(false).
				SetDefault(&schema.Literal{V: "'maybe'"}),
		)},
	})
	require.Error(t, err)
	require.True(t, IsTypeConversion(err))
}

func TestApplyChanges(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	m := mock{mk}
	m.version("140000")
	drv, err := Open(db, WithLockTimeout(5*time.Second))
	require.NoError(t, err)

	m.ExpectBegin()
	m.ExpectExec(sqltest.Escape("SET LOCAL lock_timeout = 5000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(sqltest.Escape(`ALTER TABLE "users" ALTER COLUMN "age" TYPE bigint USING "age"::bigint`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(sqltest.Escape(`ALTER TABLE "users" ALTER COLUMN "age" SET NOT NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectCommit()

	users := schema.NewTable("users")
	err = drv.ApplyChanges(context.Background(), []schema.Change{
		&schema.ModifyTable{T: users, Changes: []schema.Change{
			&schema.ModifyType{
				From: schema.NewColumn("age").SetType(&schema.IntegerType{T: "integer", Size: 4}).SetNull(true),
				To:   schema.NewColumn("age").SetType(&schema.IntegerType{T: "bigint", Size: 8}).SetNull(false),
			},
			&schema.ModifyNull{C: schema.NewColumn("age").SetType(&schema.IntegerType{T: "bigint", Size: 8}).SetNull(false)},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestApplyChanges_Empty(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	m := mock{mk}
	m.version("140000")
	drv, err := Open(db)
	require.NoError(t, err)
	// No changes, no transaction.
	require.NoError(t, drv.ApplyChanges(context.Background(), nil))
	require.NoError(t, m.ExpectationsWereMet())
}

// A failure in the middle of a plan rolls the whole transaction back
// and surfaces one classified error for the failing statement.
func TestApplyChanges_RollbackOnFailure(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	m := mock{mk}
	m.version("140000")
	drv, err := Open(db)
	require.NoError(t, err)

	stmt := `ALTER TABLE "users" ALTER COLUMN "age" TYPE integer USING "age"::integer`
	m.ExpectBegin()
	m.ExpectExec(sqltest.Escape("SET LOCAL lock_timeout = 10000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(sqltest.Escape(`ALTER TABLE "users" ALTER COLUMN "name" SET NOT NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(sqltest.Escape(stmt)).
		WillReturnError(&pgError{code: "22P02", msg: `invalid input syntax for type integer: "abc"`})
	m.ExpectRollback()

	err = drv.ApplyChanges(context.Background(), []schema.Change{
		&schema.ModifyTable{T: schema.NewTable("users"), Changes: []schema.Change{
			&schema.ModifyNull{C: schema.NewColumn("name").SetType(&schema.StringType{T: "text"}).SetNull(false)},
			&schema.ModifyType{
				From: schema.NewColumn("age").SetType(&schema.StringType{T: "text"}).SetNull(true),
				To:   schema.NewColumn("age").SetType(&schema.IntegerType{T: "integer", Size: 4}).SetNull(true),
			},
		}},
	})
	require.Error(t, err)
	require.True(t, IsTypeConversion(err))
	var ee *ExecError
	require.ErrorAs(t, err, &ee)
	require.Equal(t, stmt, ee.Stmt)
	// The server message is preserved verbatim.
	require.Contains(t, err.Error(), `invalid input syntax for type integer: "abc"`)
	require.NoError(t, m.ExpectationsWereMet())
}

func TestApplyChanges_LockTimeout(t *testing.T) {
	db, mk, err := sqlmock.New()
	require.NoError(t, err)
	m := mock{mk}
	m.version("140000")
	drv, err := Open(db)
	require.NoError(t, err)

	m.ExpectBegin()
	m.ExpectExec(sqltest.Escape("SET LOCAL lock_timeout = 10000")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(sqltest.Escape(`DROP TABLE "legacy"`)).
		WillReturnError(&pgError{code: "55P03", msg: "canceling statement due to lock timeout"})
	m.ExpectRollback()

	err = drv.ApplyChanges(context.Background(), []schema.Change{
		&schema.DropTable{T: schema.NewTable("legacy")},
	})
	require.True(t, IsLockTimeout(err))
	require.False(t, errors.Is(err, context.DeadlineExceeded))
	require.NoError(t, m.ExpectationsWereMet())
}
