// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/pgalign/pgalign/sql/schema"
)

// A diff provides the PostgreSQL column comparison for the generic
// diff engine.
type diff struct{ *conn }

// ColumnChange reports which attributes of a column differ between its
// current and desired definitions. Attributes that match report nothing,
// so an unchanged column contributes no migration step.
func (d *diff) ColumnChange(from, to *schema.Column) schema.ChangeKind {
	change := schema.NoChange
	if typeChanged(from, to) {
		change |= schema.ChangeType
	}
	if from.Type.Null != to.Type.Null {
		change |= schema.ChangeNull
	}
	if defaultChanged(from, to) {
		change |= schema.ChangeDefault
	}
	return change
}

// typeChanged reports if the column type was changed. Types compare by
// their parsed canonical form, so "int4" and "integer" are equal.
func typeChanged(from, to *schema.Column) bool {
	fromT, toT := from.Type.Type, to.Type.Type
	if fromT == nil || toT == nil {
		return !strings.EqualFold(from.Type.Raw, to.Type.Raw)
	}
	if reflect.TypeOf(fromT) != reflect.TypeOf(toT) {
		return true
	}
	var changed bool
	switch fromT := fromT.(type) {
	case *schema.BoolType, *schema.BinaryType, *schema.UUIDType:
	case *schema.IntegerType:
		changed = fromT.T != toT.(*schema.IntegerType).T
	case *schema.StringType:
		toT := toT.(*schema.StringType)
		changed = fromT.T != toT.T || fromT.Size != toT.Size
	case *schema.DecimalType:
		toT := toT.(*schema.DecimalType)
		changed = fromT.Precision != toT.Precision || fromT.Scale != toT.Scale
	case *schema.FloatType:
		changed = fromT.T != toT.(*schema.FloatType).T
	case *schema.TimeType:
		changed = fromT.T != toT.(*schema.TimeType).T
	case *schema.JSONType:
		changed = fromT.T != toT.(*schema.JSONType).T
	case *schema.SerialType:
		changed = fromT.T != toT.(*schema.SerialType).T
	case *schema.UnsupportedType:
		changed = !strings.EqualFold(fromT.T, toT.(*schema.UnsupportedType).T)
	}
	return changed
}

// defaultChanged reports if the default value of a column was changed.
// Defaults the catalog reports with cast decoration compare equal to the
// bare literal they wrap, and boolean and numeric literals compare by
// value rather than by spelling.
func defaultChanged(from, to *schema.Column) bool {
	fromX, ok1 := defaultExpr(from)
	toX, ok2 := defaultExpr(to)
	if ok1 != ok2 {
		return true
	}
	if !ok1 {
		return false
	}
	fromX, toX = normalizeDefault(fromX), normalizeDefault(toX)
	if fromX == toX {
		return false
	}
	switch to.Type.Type.(type) {
	case *schema.BoolType:
		b1, err1 := ParseBool(fromX)
		b2, err2 := ParseBool(toX)
		return err1 != nil || err2 != nil || b1 != b2
	case *schema.IntegerType, *schema.DecimalType, *schema.FloatType, *schema.SerialType:
		f1, err1 := strconv.ParseFloat(fromX, 64)
		f2, err2 := strconv.ParseFloat(toX, 64)
		return err1 != nil || err2 != nil || f1 != f2
	}
	return !strings.EqualFold(fromX, toX)
}

// defaultExpr returns the raw text of a column default, if any.
func defaultExpr(c *schema.Column) (string, bool) {
	switch x := c.Default.(type) {
	case *schema.Literal:
		return x.V, true
	case *schema.RawExpr:
		return x.X, true
	default:
		return "", false
	}
}

// normalizeDefault strips the cast decoration and quoting the catalog
// adds to stored defaults, e.g. 'active'::character varying => active.
func normalizeDefault(x string) string {
	x = strings.TrimSpace(x)
	if strings.HasPrefix(x, "'") {
		if i := strings.LastIndex(x, "'"); i > 0 {
			return strings.ReplaceAll(x[1:i], "''", "'")
		}
	}
	if i := strings.Index(x, "::"); i > 0 && !strings.Contains(x[:i], "(") {
		x = strings.TrimSpace(x[:i])
	}
	return x
}
