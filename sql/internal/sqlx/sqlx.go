// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package sqlx

import (
	"database/sql"
	"strings"

	"github.com/pgalign/pgalign/sql/schema"
)

// A Builder provides a helper method for writing SQL statements with
// quoted identifiers and balanced spacing.
type Builder struct {
	QuoteChar byte
	buf       []byte
}

// P writes a list of phrases to the builder, padded with spaces.
func (b *Builder) P(phrases ...string) *Builder {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		b.pad()
		b.buf = append(b.buf, p...)
	}
	return b
}

// Ident writes the given string as a quoted identifier.
func (b *Builder) Ident(s string) *Builder {
	b.pad()
	b.buf = append(b.buf, b.QuoteChar)
	b.buf = append(b.buf, s...)
	b.buf = append(b.buf, b.QuoteChar)
	return b
}

// Table writes the table identifier to the builder.
func (b *Builder) Table(t *schema.Table) *Builder {
	return b.Ident(t.Name)
}

// Comma writes a comma, dropping any trailing space before it.
func (b *Builder) Comma() *Builder {
	b.trim()
	b.buf = append(b.buf, ',', ' ')
	return b
}

// MapComma maps the indexes 0..n-1 with the given function, writing
// a comma between the elements.
func (b *Builder) MapComma(n int, f func(i int, b *Builder)) *Builder {
	for i := 0; i < n; i++ {
		if i > 0 {
			b.Comma()
		}
		f(i, b)
	}
	return b
}

// Wrap wraps the output of f in parentheses.
func (b *Builder) Wrap(f func(b *Builder)) *Builder {
	b.pad()
	b.buf = append(b.buf, '(')
	f(b)
	b.trim()
	b.buf = append(b.buf, ')')
	return b
}

// String returns the accumulated statement.
func (b *Builder) String() string {
	return strings.TrimSpace(string(b.buf))
}

func (b *Builder) pad() {
	if n := len(b.buf); n > 0 && b.buf[n-1] != ' ' && b.buf[n-1] != '(' {
		b.buf = append(b.buf, ' ')
	}
}

func (b *Builder) trim() {
	for n := len(b.buf); n > 0 && b.buf[n-1] == ' '; n = len(b.buf) {
		b.buf = b.buf[:n-1]
	}
}

// ValidString reports if the given string is not null and valid.
func ValidString(s sql.NullString) bool {
	return s.Valid && s.String != "" && strings.ToLower(s.String) != "null"
}
