// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/pgalign/pgalign/sql/internal/sqlx"
	"github.com/pgalign/pgalign/sql/schema"
)

// inspect provides schema inspection from the information schema.
type inspect struct{ *conn }

var _ schema.Inspector = (*inspect)(nil)

// InspectSchema returns schema descriptions of the connected schema.
// Tables and their columns preserve catalog ordinal order.
func (i *inspect) InspectSchema(ctx context.Context, opts *schema.InspectOptions) (*schema.Schema, error) {
	if opts == nil {
		opts = &schema.InspectOptions{}
	}
	var name string
	if err := i.QueryRowContext(ctx, schemaQuery).Scan(&name); err != nil {
		return nil, &schema.InspectError{Err: fmt.Errorf("postgres: querying current schema: %w", err)}
	}
	s := schema.New(name)
	if err := i.tables(ctx, s, opts); err != nil {
		return nil, err
	}
	if len(s.Tables) == 0 {
		return s, nil
	}
	if err := i.columns(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// tables queries and appends the tables of the connected schema.
func (i *inspect) tables(ctx context.Context, s *schema.Schema, opts *schema.InspectOptions) error {
	query, args := tablesQuery, []any{s.Name}
	if len(opts.Tables) > 0 {
		query = fmt.Sprintf(tablesQueryArgs, nArgs(2, len(opts.Tables)))
		for _, t := range opts.Tables {
			args = append(args, t)
		}
	}
	rows, err := i.QueryContext(ctx, query, args...)
	if err != nil {
		return &schema.InspectError{Err: fmt.Errorf("postgres: querying tables: %w", err)}
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return &schema.InspectError{Err: fmt.Errorf("postgres: scanning table: %w", err)}
		}
		s.AddTables(schema.NewTable(name))
	}
	if err := rows.Err(); err != nil {
		return &schema.InspectError{Err: err}
	}
	return nil
}

// columns queries and appends the columns of the schema tables.
func (i *inspect) columns(ctx context.Context, s *schema.Schema) error {
	args := []any{s.Name}
	for _, t := range s.Tables {
		args = append(args, t.Name)
	}
	rows, err := i.QueryContext(ctx, fmt.Sprintf(columnsQuery, nArgs(2, len(s.Tables))), args...)
	if err != nil {
		return &schema.InspectError{Err: fmt.Errorf("postgres: querying columns: %w", err)}
	}
	defer rows.Close()
	for rows.Next() {
		if err := i.addColumn(s, rows); err != nil {
			return &schema.InspectError{Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return &schema.InspectError{Err: err}
	}
	return nil
}

// addColumn scans one catalog row into its table in the schema.
func (i *inspect) addColumn(s *schema.Schema, rows *sql.Rows) error {
	var (
		table, name, typ, nullable string
		defaults                   sql.NullString
		maxlen, precision, scale   sql.NullInt64
	)
	if err := rows.Scan(&table, &name, &typ, &nullable, &defaults, &maxlen, &precision, &scale); err != nil {
		return fmt.Errorf("postgres: scanning column: %w", err)
	}
	t, ok := s.Table(table)
	if !ok {
		return fmt.Errorf("postgres: table %q was not found in schema", table)
	}
	c := schema.NewColumn(name)
	c.Type = &schema.ColumnType{
		Raw:  typ,
		Null: nullable == "YES",
		Type: columnType(&columnDesc{
			typ:       typ,
			size:      maxlen.Int64,
			precision: precision.Int64,
			scale:     scale.Int64,
		}),
	}
	if sqlx.ValidString(defaults) {
		columnDefault(c, defaults.String)
	}
	t.AddColumns(c)
	return nil
}

// columnDefault attaches the catalog default expression to the column.
// Sequence-backed integer defaults fold the column into its serial type
// instead of carrying the nextval expression.
func columnDefault(c *schema.Column, x string) {
	if t, ok := c.Type.Type.(*schema.IntegerType); ok && strings.HasPrefix(x, "nextval(") {
		st := &schema.SerialType{SequenceT: t.T}
		switch t.T {
		case tSmallInt:
			st.T = tSmallSerial
		case tBigInt:
			st.T = tBigSerial
		default:
			st.T = tSerial
		}
		c.Type.Type = st
		return
	}
	switch {
	case strings.HasPrefix(x, "'"):
		c.Default = &schema.Literal{V: x}
	case isLiteralDefault(x):
		c.Default = &schema.Literal{V: x}
	default:
		c.Default = &schema.RawExpr{X: x}
	}
}

// isLiteralDefault reports if a bare default expression is a plain
// numeric or boolean literal rather than a function call.
func isLiteralDefault(x string) bool {
	x = normalizeDefault(x)
	if _, err := ParseBool(x); err == nil {
		return true
	}
	for i := 0; i < len(x); i++ {
		if c := x[i]; (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' {
			return false
		}
	}
	return len(x) > 0
}

// nArgs returns the placeholder list ($i, $i+1, ...) for n arguments.
func nArgs(start, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "$%d", start+i)
	}
	return b.String()
}

const (
	// Query the name of the connected schema.
	schemaQuery = `SELECT CURRENT_SCHEMA()`

	// Query to list schema tables.
	tablesQuery = `SELECT t1.table_name FROM information_schema.tables AS t1 WHERE t1.table_schema = $1 AND t1.table_type = 'BASE TABLE' ORDER BY t1.table_name`

	// Query to list schema tables filtered by name.
	tablesQueryArgs = `SELECT t1.table_name FROM information_schema.tables AS t1 WHERE t1.table_schema = $1 AND t1.table_type = 'BASE TABLE' AND t1.table_name IN (%s) ORDER BY t1.table_name`

	// Query to list table columns in ordinal order.
	columnsQuery = `SELECT t1.table_name, t1.column_name, t1.data_type, t1.is_nullable, t1.column_default, t1.character_maximum_length, t1.numeric_precision, t1.numeric_scale FROM information_schema.columns AS t1 WHERE t1.table_schema = $1 AND t1.table_name IN (%s) ORDER BY t1.table_name, t1.ordinal_position`
)
