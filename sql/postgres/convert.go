// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pgalign/pgalign/sql/schema"
)

// columnDesc represents a column descriptor scanned from a raw
// type expression or from the information schema.
type columnDesc struct {
	typ       string
	size      int64
	precision int64
	scale     int64
}

// ParseType returns the schema.Type value represented by the given raw type.
// Aliases are folded into their canonical names (int4 to integer, varchar to
// character varying, and so on) so that types parsed from declaration text
// compare equal to types read back from the catalog.
func ParseType(raw string) (schema.Type, error) {
	d, err := parseColumn(raw)
	if err != nil {
		return nil, err
	}
	return columnType(d), nil
}

// parseColumn scans a raw type expression into its descriptor.
func parseColumn(raw string) (*columnDesc, error) {
	parts := strings.FieldsFunc(strings.ToLower(strings.TrimSpace(raw)), func(r rune) bool {
		return r == '(' || r == ')' || r == ' ' || r == ','
	})
	if len(parts) == 0 {
		return nil, fmt.Errorf("postgres: missing type expression")
	}
	d := &columnDesc{}
	var words []string
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		switch {
		case err == nil && len(words) == 0:
			return nil, fmt.Errorf("postgres: malformed type expression %q", raw)
		case err == nil:
			switch {
			case d.size == 0:
				d.size, d.precision = n, n
			case d.scale == 0:
				d.scale = n
			default:
				return nil, fmt.Errorf("postgres: too many type parameters in %q", raw)
			}
		default:
			if d.size != 0 {
				return nil, fmt.Errorf("postgres: malformed type expression %q", raw)
			}
			words = append(words, p)
		}
	}
	d.typ = strings.Join(words, " ")
	return d, nil
}

// columnType maps a column descriptor to its schema.Type value.
func columnType(c *columnDesc) schema.Type {
	var typ schema.Type
	switch t := c.typ; t {
	case tBoolean, tBool:
		typ = &schema.BoolType{T: tBoolean}
	case tSmallInt, tInt2:
		typ = &schema.IntegerType{T: tSmallInt, Size: 2}
	case tInteger, tInt, tInt4:
		typ = &schema.IntegerType{T: tInteger, Size: 4}
	case tBigInt, tInt8:
		typ = &schema.IntegerType{T: tBigInt, Size: 8}
	case tCharVar, tVarChar:
		typ = &schema.StringType{T: tCharVar, Size: int(c.size)}
	case tCharacter, tChar, tBPChar:
		typ = &schema.StringType{T: tCharacter, Size: int(c.size)}
	case tText:
		typ = &schema.StringType{T: tText}
	case tNumeric, tDecimal:
		typ = &schema.DecimalType{T: tNumeric, Precision: int(c.precision), Scale: int(c.scale)}
	case tReal, tFloat4:
		typ = &schema.FloatType{T: tReal, Precision: 24}
	case tDouble, tFloat8:
		typ = &schema.FloatType{T: tDouble, Precision: 53}
	case tDate, tInterval:
		typ = &schema.TimeType{T: t}
	case tTime, tTimeWOTZ:
		typ = &schema.TimeType{T: tTimeWOTZ}
	case tTimeTZ, tTimeWTZ:
		typ = &schema.TimeType{T: tTimeWTZ}
	case tTimestamp, tTimestampWOTZ:
		typ = &schema.TimeType{T: tTimestampWOTZ}
	case tTimestampTZ, tTimestampWTZ:
		typ = &schema.TimeType{T: tTimestampWTZ}
	case tBytea:
		typ = &schema.BinaryType{T: tBytea}
	case tJSON, tJSONB:
		typ = &schema.JSONType{T: t}
	case tUUID:
		typ = &schema.UUIDType{T: tUUID}
	case tSmallSerial, tSerial2:
		typ = &schema.SerialType{T: tSmallSerial, SequenceT: tSmallInt}
	case tSerial, tSerial4:
		typ = &schema.SerialType{T: tSerial, SequenceT: tInteger}
	case tBigSerial, tSerial8:
		typ = &schema.SerialType{T: tBigSerial, SequenceT: tBigInt}
	default:
		typ = &schema.UnsupportedType{T: t}
	}
	return typ
}

// FormatType converts a schema.Type to its canonical column type string.
func FormatType(t schema.Type) (string, error) {
	var f string
	switch t := t.(type) {
	case *schema.BoolType:
		f = tBoolean
	case *schema.IntegerType:
		f = t.T
	case *schema.StringType:
		switch t.T {
		case tText:
			f = tText
		case tCharVar, tVarChar:
			f = tCharVar
			if t.Size > 0 {
				f = fmt.Sprintf("%s(%d)", f, t.Size)
			}
		case tCharacter, tChar, tBPChar:
			f = tCharacter
			if t.Size > 0 {
				f = fmt.Sprintf("%s(%d)", f, t.Size)
			}
		default:
			return "", fmt.Errorf("postgres: invalid string type %q", t.T)
		}
	case *schema.DecimalType:
		f = tNumeric
		switch {
		case t.Precision > 0 && t.Scale > 0:
			f = fmt.Sprintf("%s(%d,%d)", f, t.Precision, t.Scale)
		case t.Precision > 0:
			f = fmt.Sprintf("%s(%d)", f, t.Precision)
		}
	case *schema.FloatType:
		f = t.T
	case *schema.TimeType:
		f = t.T
	case *schema.BinaryType:
		f = tBytea
	case *schema.JSONType:
		f = t.T
	case *schema.UUIDType:
		f = tUUID
	case *schema.SerialType:
		f = t.T
	case *schema.UnsupportedType:
		return "", fmt.Errorf("postgres: unsupported type %q", t.T)
	default:
		return "", fmt.Errorf("postgres: invalid schema type %T", t)
	}
	return f, nil
}

// ParseBool reports the boolean value of a PostgreSQL boolean input
// literal. Accepted true tokens are t, true, 1, yes, y and on; accepted
// false tokens are f, false, 0, no, n and off, all case-insensitive.
// Any other token is a conversion failure.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "t", "true", "1", "yes", "y", "on":
		return true, nil
	case "f", "false", "0", "no", "n", "off":
		return false, nil
	}
	return false, fmt.Errorf("postgres: invalid boolean literal %q", s)
}
