// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pgalign/pgalign/sql/migrate"
	"github.com/pgalign/pgalign/sql/schema"
)

// ParseError is returned by ParseSchema for declaration text that does
// not describe a valid set of CREATE TABLE statements. Pos is the byte
// offset of the offending statement in the input.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("postgres: parse: %s (at position %d)", e.Msg, e.Pos)
}

// ParseSchema parses schema declaration text, a sequence of CREATE TABLE
// statements, into its schema model. The returned schema holds the tables
// and columns in declaration order.
func ParseSchema(text string) (*schema.Schema, error) {
	stmts, err := migrate.Stmts(text)
	if err != nil {
		return nil, &ParseError{Msg: err.Error()}
	}
	s := schema.New("public")
	for _, stmt := range stmts {
		t, err := parseCreateTable(stmt)
		if err != nil {
			return nil, err
		}
		if _, ok := s.Table(t.Name); ok {
			return nil, &ParseError{Pos: stmt.Pos, Msg: fmt.Sprintf("table %q declared twice", t.Name)}
		}
		s.AddTables(t)
	}
	return s, nil
}

func parseCreateTable(stmt *migrate.Stmt) (*schema.Table, error) {
	text := strings.TrimSuffix(stmt.Text, ";")
	i := strings.IndexByte(text, '(')
	j := strings.LastIndexByte(text, ')')
	if i == -1 || j < i {
		return nil, &ParseError{Pos: stmt.Pos, Msg: "statement is not a CREATE TABLE"}
	}
	head := strings.Fields(text[:i])
	switch {
	case len(head) == 3 && strings.EqualFold(head[0], "CREATE") && strings.EqualFold(head[1], "TABLE"):
		head = head[2:]
	case len(head) == 6 && strings.EqualFold(head[0], "CREATE") && strings.EqualFold(head[1], "TABLE") &&
		strings.EqualFold(head[2], "IF") && strings.EqualFold(head[3], "NOT") && strings.EqualFold(head[4], "EXISTS"):
		head = head[5:]
	default:
		return nil, &ParseError{Pos: stmt.Pos, Msg: "statement is not a CREATE TABLE"}
	}
	if rest := strings.TrimSpace(text[j+1:]); rest != "" {
		return nil, &ParseError{Pos: stmt.Pos, Msg: fmt.Sprintf("unexpected text %q after table body", rest)}
	}
	t := schema.NewTable(ident(head[0]))
	var pk []string
	for _, def := range splitDefs(text[i+1 : j]) {
		c, names, err := parseColumnDef(stmt.Pos, def)
		if err != nil {
			return nil, err
		}
		pk = append(pk, names...)
		if c == nil {
			continue
		}
		if _, ok := t.Column(c.Name); ok {
			return nil, &ParseError{Pos: stmt.Pos, Msg: fmt.Sprintf("column %q declared twice", c.Name)}
		}
		t.AddColumns(c)
	}
	// Primary key columns are implicitly NOT NULL.
	for _, name := range pk {
		c, ok := t.Column(ident(name))
		if !ok {
			return nil, &ParseError{Pos: stmt.Pos, Msg: fmt.Sprintf("primary key references unknown column %q", name)}
		}
		c.Type.Null = false
	}
	return t, nil
}

// parseColumnDef parses one table body element. Table-level key and
// constraint clauses return a nil column; a table-level PRIMARY KEY
// additionally returns its column names.
func parseColumnDef(pos int, def string) (*schema.Column, []string, error) {
	tokens := fields(def)
	if len(tokens) == 0 {
		return nil, nil, &ParseError{Pos: pos, Msg: "empty column definition"}
	}
	switch strings.ToUpper(tokens[0]) {
	case "PRIMARY":
		i, j := strings.IndexByte(def, '('), strings.LastIndexByte(def, ')')
		if i == -1 || j < i || !strings.EqualFold(strings.TrimSpace(def[len("PRIMARY"):i]), "KEY") {
			return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("malformed primary key clause %q", def)}
		}
		return nil, splitDefs(def[i+1 : j]), nil
	case "CONSTRAINT":
		// A named constraint clause is parsed without its name, so a
		// named primary key still folds into NOT NULL columns.
		if len(tokens) >= 3 {
			return parseColumnDef(pos, strings.Join(tokens[2:], " "))
		}
		return nil, nil, nil
	case "UNIQUE", "CHECK", "FOREIGN", "EXCLUDE":
		return nil, nil, nil
	}
	if len(tokens) < 2 {
		return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("missing type for column %q", tokens[0])}
	}
	c := schema.NewColumn(ident(tokens[0]))
	raw, next := scanType(tokens[1:])
	ct, err := ParseType(raw)
	if err != nil {
		return nil, nil, &ParseError{Pos: pos, Msg: err.Error()}
	}
	c.Type = &schema.ColumnType{Raw: raw, Type: ct, Null: true}
	var pk []string
	for i := 2 + next; i < len(tokens); i++ {
		switch strings.ToUpper(tokens[i]) {
		case "NOT":
			if i+1 >= len(tokens) || !strings.EqualFold(tokens[i+1], "NULL") {
				return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected token %q in column %q", tokens[i], c.Name)}
			}
			c.Type.Null = false
			i++
		case "NULL":
			c.Type.Null = true
		case "DEFAULT":
			x, n := scanDefault(tokens[i+1:])
			if n == 0 {
				return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("missing default expression for column %q", c.Name)}
			}
			if !strings.EqualFold(x, "NULL") {
				c.Default = defaultFor(x)
			}
			i += n
		case "PRIMARY":
			if i+1 >= len(tokens) || !strings.EqualFold(tokens[i+1], "KEY") {
				return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected token %q in column %q", tokens[i], c.Name)}
			}
			pk = append(pk, c.Name)
			i++
		case "UNIQUE":
		case "CHECK":
			// Skip the check expression.
			if i+1 < len(tokens) && strings.HasPrefix(tokens[i+1], "(") {
				i++
			}
		case "REFERENCES":
			if i+1 >= len(tokens) {
				return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("missing referenced table for column %q", c.Name)}
			}
			i++
			if i+1 < len(tokens) && strings.HasPrefix(tokens[i+1], "(") {
				i++
			}
		default:
			return nil, nil, &ParseError{Pos: pos, Msg: fmt.Sprintf("unexpected token %q in column %q", tokens[i], c.Name)}
		}
	}
	// Sequence-backed columns are implicitly NOT NULL.
	if _, ok := ct.(*schema.SerialType); ok {
		c.Type.Null = false
	}
	return c, pk, nil
}

// scanType assembles the type expression from the leading tokens and
// returns it with the count of tokens consumed past the first. A
// continuation word may carry the type parameters attached, as in
// "character varying(120)".
func scanType(tokens []string) (string, int) {
	raw, n := tokens[0], 0
	for _, t := range tokens[1:] {
		word := t
		if i := strings.IndexByte(word, '('); i > 0 {
			word = word[:i]
		}
		switch strings.ToLower(word) {
		case "varying", "precision", "with", "without", "time", "zone":
			raw += " " + t
		default:
			if !strings.HasPrefix(t, "(") {
				return raw, n
			}
			raw += t
		}
		n++
	}
	return raw, n
}

// scanDefault assembles a default expression and returns it with the
// count of tokens consumed.
func scanDefault(tokens []string) (string, int) {
	var parts []string
	for _, t := range tokens {
		switch strings.ToUpper(t) {
		case "NOT", "PRIMARY", "UNIQUE", "CHECK", "REFERENCES", "CONSTRAINT":
			return strings.Join(parts, " "), len(parts)
		}
		// A bare NULL ends the expression unless it is the expression.
		if strings.EqualFold(t, "NULL") && len(parts) > 0 {
			break
		}
		parts = append(parts, t)
	}
	return strings.Join(parts, " "), len(parts)
}

// defaultFor returns the expression value for a default clause. Quoted
// strings and numeric or boolean tokens are literals, anything else is
// kept as a raw expression.
func defaultFor(x string) schema.Expr {
	if strings.HasPrefix(x, "'") {
		return &schema.Literal{V: x}
	}
	if _, err := strconv.ParseFloat(x, 64); err == nil {
		return &schema.Literal{V: x}
	}
	if _, err := ParseBool(x); err == nil {
		return &schema.Literal{V: x}
	}
	return &schema.RawExpr{X: x}
}

// ident normalizes an identifier. Unquoted identifiers fold to lower
// case as the server does; quoted identifiers keep their exact spelling.
func ident(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return strings.ToLower(s)
}

// splitDefs splits a table body (or a column name list) on its
// top-level commas, honoring quotes and nested parentheses.
func splitDefs(body string) []string {
	var (
		defs  []string
		depth int
		quote byte
		start int
	)
	for i := 0; i < len(body); i++ {
		switch c := body[i]; {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == ',' && depth == 0:
			if d := strings.TrimSpace(body[start:i]); d != "" {
				defs = append(defs, d)
			}
			start = i + 1
		}
	}
	if d := strings.TrimSpace(body[start:]); d != "" {
		defs = append(defs, d)
	}
	return defs
}

// fields splits a column definition on whitespace, keeping quoted
// strings intact and attaching parenthesized groups to their token.
func fields(s string) []string {
	var (
		out   []string
		cur   []byte
		depth int
		quote byte
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			cur = append(cur, c)
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
			cur = append(cur, c)
		case c == '(':
			depth++
			cur = append(cur, c)
		case c == ')':
			depth--
			cur = append(cur, c)
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			if len(cur) > 0 {
				out = append(out, string(cur))
				cur = nil
			}
		default:
			cur = append(cur, c)
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}
