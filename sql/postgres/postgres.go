// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package postgres provides the PostgreSQL driver for inspecting database
// schemas, diffing them against a desired state, and planning and applying
// the resulting migration changes.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pgalign/pgalign/sql/internal/sqlx"
	"github.com/pgalign/pgalign/sql/migrate"
	"github.com/pgalign/pgalign/sql/schema"

	"golang.org/x/mod/semver"
)

type (
	// Driver represents a PostgreSQL driver for introspecting database
	// schemas, generating diff between schema elements and applying
	// migration changes.
	Driver struct {
		*conn
		schema.Differ
		schema.Inspector
		migrate.PlanApplier
	}

	// database connection and its information.
	conn struct {
		schema.ExecQuerier
		// Server version, set on Open.
		version string
		// Bound on the time a planned DDL statement may
		// wait for the locks it requires.
		lockTimeout time.Duration
	}

	// Option configures the driver on Open.
	Option func(*conn)
)

var _ migrate.Driver = (*Driver)(nil)

// DefaultLockTimeout bounds DDL lock waits unless WithLockTimeout is given.
const DefaultLockTimeout = 10 * time.Second

// WithLockTimeout sets the session lock_timeout used while applying plans.
// A statement that cannot acquire its table lock within the bound fails
// with a lock-timeout error and the whole plan is rolled back.
func WithLockTimeout(d time.Duration) Option {
	return func(c *conn) {
		c.lockTimeout = d
	}
}

// Open opens a new PostgreSQL driver.
func Open(db schema.ExecQuerier, opts ...Option) (*Driver, error) {
	c := &conn{ExecQuerier: db, lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(c)
	}
	rows, err := db.QueryContext(context.Background(), paramsQuery)
	if err != nil {
		return nil, fmt.Errorf("postgres: scanning system variables: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, fmt.Errorf("postgres: server_version_num was not found")
	}
	var v string
	if err := rows.Scan(&v); err != nil {
		return nil, fmt.Errorf("postgres: failed scanning row value: %w", err)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("postgres: malformed version: %s", v)
	}
	c.version = fmt.Sprintf("%d.%d", n/10000, n%10000)
	if semver.Compare("v"+c.version, "v10") == -1 {
		return nil, fmt.Errorf("postgres: unsupported postgres version: %s", c.version)
	}
	return &Driver{
		conn:        c,
		Differ:      &sqlx.Diff{DiffDriver: &diff{c}},
		Inspector:   &inspect{c},
		PlanApplier: &planApply{c},
	}, nil
}

// paramsQuery resolves the server version on Open.
const paramsQuery = `SELECT setting FROM pg_settings WHERE name = 'server_version_num'`

// Standard column types (and their aliases) as defined in
// the PostgreSQL codebase/website.
const (
	tBoolean = "boolean"
	tBool    = "bool" // boolean.
	tBytea   = "bytea"

	tCharacter = "character"
	tChar      = "char"   // character.
	tBPChar    = "bpchar" // character.
	tCharVar   = "character varying"
	tVarChar   = "varchar" // character varying.
	tText      = "text"

	tSmallInt = "smallint"
	tInteger  = "integer"
	tBigInt   = "bigint"
	tInt      = "int"  // integer.
	tInt2     = "int2" // smallint.
	tInt4     = "int4" // integer.
	tInt8     = "int8" // bigint.

	tDate          = "date"
	tTime          = "time" // time without time zone.
	tTimeTZ        = "timetz"
	tTimeWTZ       = "time with time zone"
	tTimeWOTZ      = "time without time zone"
	tTimestamp     = "timestamp" // timestamp without time zone.
	tTimestampTZ   = "timestamptz"
	tTimestampWTZ  = "timestamp with time zone"
	tTimestampWOTZ = "timestamp without time zone"
	tInterval      = "interval"

	tDouble = "double precision"
	tReal   = "real"
	tFloat8 = "float8" // double precision.
	tFloat4 = "float4" // real.

	tNumeric = "numeric"
	tDecimal = "decimal" // numeric.

	tSmallSerial = "smallserial" // smallint-backed sequence column.
	tSerial      = "serial"      // integer-backed sequence column.
	tBigSerial   = "bigserial"   // bigint-backed sequence column.
	tSerial2     = "serial2"     // smallserial.
	tSerial4     = "serial4" // serial.
	tSerial8     = "serial8" // bigserial.

	tJSON  = "json"
	tJSONB = "jsonb"
	tUUID  = "uuid"
)
