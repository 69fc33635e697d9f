// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package sqltest provides helpers for writing sqlmock-based tests.
package sqltest

import (
	"database/sql/driver"
	"regexp"
	"strings"
	"unicode"

	"github.com/DATA-DOG/go-sqlmock"
)

// Rows converts psql-style table output to sqlmock.Rows. All values are
// parsed as text except the "nil" and NULL keywords, which scan as NULL.
//
//	 column_name | data_type | is_nullable
//	-------------+-----------+-------------
//	 id          | integer   | NO
//	 name        | text      | YES
func Rows(table string) *sqlmock.Rows {
	var (
		nc    int
		rows  *sqlmock.Rows
		lines = strings.Split(table, "\n")
	)
	for i := 0; i < len(lines); i++ {
		line := strings.TrimFunc(lines[i], unicode.IsSpace)
		// Skip empty lines and header separators.
		if line == "" || strings.IndexAny(line, "+-") == 0 {
			continue
		}
		columns := strings.Split(line, "|")
		for i, c := range columns {
			columns[i] = strings.TrimSpace(c)
		}
		if rows == nil {
			nc = len(columns)
			rows = sqlmock.NewRows(columns)
			continue
		}
		values := make([]driver.Value, nc)
		for i, c := range columns {
			switch c {
			case "", "nil", "NULL":
			default:
				values[i] = c
			}
		}
		rows.AddRow(values...)
	}
	return rows
}

// Escape escapes all regular expression metacharacters in the given query
// and collapses its lines, so it can be passed to sqlmock.ExpectQuery.
func Escape(query string) string {
	lines := strings.Split(query, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	query = strings.Join(lines, " ")
	return strings.TrimSpace(regexp.QuoteMeta(query)) + "$"
}
