// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package schema

type (
	// A Schema describes the set of tables of a single database schema,
	// either the desired state declared by the user or the state inspected
	// from a live database. It is a plain value: the differ never touches
	// a connection.
	Schema struct {
		Name   string
		Tables []*Table
	}

	// A Table represents a table definition. Column order is preserved as
	// declared or inspected; it determines CREATE TABLE and ADD COLUMN
	// sequencing but carries no comparison semantics.
	Table struct {
		Name    string
		Schema  *Schema
		Columns []*Column
	}

	// A Column represents a column definition.
	Column struct {
		Name    string
		Type    *ColumnType
		Default Expr
	}

	// ColumnType represents the type of a column as both its raw database
	// form and its parsed representation.
	ColumnType struct {
		Type Type
		Raw  string
		Null bool
	}
)

// Table returns the first table that matched the given name.
func (s *Schema) Table(name string) (*Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Column returns the first column that matched the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// New creates a new Schema.
func New(name string) *Schema {
	return &Schema{Name: name}
}

// AddTables appends the given tables to the schema and links them back.
func (s *Schema) AddTables(tables ...*Table) *Schema {
	for _, t := range tables {
		t.Schema = s
		s.Tables = append(s.Tables, t)
	}
	return s
}

// NewTable creates a new Table.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// AddColumns appends the given columns to the table.
func (t *Table) AddColumns(columns ...*Column) *Table {
	t.Columns = append(t.Columns, columns...)
	return t
}

// NewColumn creates a new column with the given name.
func NewColumn(name string) *Column {
	return &Column{Name: name}
}

// SetType sets the parsed type of the column.
func (c *Column) SetType(t Type) *Column {
	if c.Type == nil {
		c.Type = &ColumnType{}
	}
	c.Type.Type = t
	return c
}

// SetNull sets the nullability of the column.
func (c *Column) SetNull(null bool) *Column {
	if c.Type == nil {
		c.Type = &ColumnType{}
	}
	c.Type.Null = null
	return c
}

// SetDefault sets the default expression of the column.
func (c *Column) SetDefault(x Expr) *Column {
	c.Default = x
	return c
}

type (
	// A Type represents a database type. The types below implement this
	// interface and can be used for describing schemas.
	Type interface {
		typ()
	}

	// A StringType represents a character type with an optional
	// maximum length (0 means unbounded, e.g. "text").
	StringType struct {
		T    string
		Size int
	}

	// A BoolType represents a boolean type.
	BoolType struct {
		T string
	}

	// An IntegerType represents an int type.
	IntegerType struct {
		T    string
		Size int // storage size in bytes.
	}

	// A DecimalType represents a fixed-point type that stores exact
	// numeric values.
	DecimalType struct {
		T         string
		Precision int
		Scale     int
	}

	// A FloatType represents a floating-point type that stores
	// approximate numeric values.
	FloatType struct {
		T         string
		Precision int
	}

	// A TimeType represents a date/time type.
	TimeType struct {
		T string
	}

	// A BinaryType represents a type that stores binary data.
	BinaryType struct {
		T string
	}

	// A JSONType represents a JSON type.
	JSONType struct {
		T string
	}

	// A UUIDType defines a UUID type.
	UUIDType struct {
		T string
	}

	// A SerialType defines an auto-incrementing integer type backed
	// by an implicit sequence.
	SerialType struct {
		T         string
		SequenceT string // underlying integer type.
	}

	// An UnsupportedType represents a type the driver has no parsed
	// representation for. Its raw form still round-trips through plans.
	UnsupportedType struct {
		T string
	}
)

type (
	// An Expr defines an SQL expression in schema DDL.
	Expr interface {
		expr()
	}

	// A Literal represents a basic literal expression like 1 or '1'.
	// String literals are quoted with single quotes.
	Literal struct {
		V string
	}

	// A RawExpr represents a raw expression like "now()" that is
	// inlined as-is on migration.
	RawExpr struct {
		X string
	}
)

// types.
func (*BoolType) typ()        {}
func (*TimeType) typ()        {}
func (*JSONType) typ()        {}
func (*UUIDType) typ()        {}
func (*FloatType) typ()       {}
func (*StringType) typ()      {}
func (*BinaryType) typ()      {}
func (*SerialType) typ()      {}
func (*IntegerType) typ()     {}
func (*DecimalType) typ()     {}
func (*UnsupportedType) typ() {}

// expressions.
func (*Literal) expr() {}
func (*RawExpr) expr() {}
