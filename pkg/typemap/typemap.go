// Package typemap implements the Type Mapper (spec §4.6): translating a
// canonical sql_type_tag into the symbolic target-language type token the
// code-generation collaborator emits, per the table in spec §6.
package typemap

import (
	"strings"

	"github.com/sqlcheck/sqlcheck/pkg/sqltype"
)

// TargetType is the symbolic target-language type name for a tag. Nullable
// fields are the code-generation collaborator's concern to wrap in an
// option/maybe — this package only ever returns the bare token.
func TargetType(tag string) string {
	if strings.HasPrefix(tag, "array<") && strings.HasSuffix(tag, ">") {
		inner := tag[len("array<") : len(tag)-1]
		return "sequence<" + TargetType(inner) + ">"
	}
	if t, ok := targetByTag[tag]; ok {
		return t
	}
	return "unknown"
}

// TargetTypeOf is a convenience wrapper that skips the tag round-trip.
func TargetTypeOf(t sqltype.Type) string { return TargetType(t.Tag()) }

var targetByTag = map[string]string{
	"smallint":    "i16",
	"integer":     "i32",
	"bigint":      "i64",
	"real":        "f32",
	"double":      "f64",
	"numeric":     "decimal",
	"text":        "string",
	"varchar":     "string",
	"char":        "string",
	"bytea":       "byte-sequence",
	"boolean":     "bool",
	"timestamp":   "naive-datetime",
	"timestamptz": "datetime-with-utc",
	"date":        "date",
	"time":        "time",
	"uuid":        "uuid",
	"json":        "json-value",
	"jsonb":       "json-value",
	"inet":        "ip-address",
	"unknown":     "unknown",
}
