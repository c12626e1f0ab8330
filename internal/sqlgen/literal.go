package sqlgen

import (
	"math"
	"strconv"
	"strings"

	"clonegen/pkg/records"
)

// Literal renders v as a MySQL literal.
//
// Null is NULL, integers are decimal, strings are single-quoted with
// backslash and quote escaped by a backslash. Floats use six fixed decimals
// with trailing zeros and a trailing dot removed; magnitudes below 1e-9 and
// negative zero render as 0.
func Literal(v records.Value) string {
	switch v.Kind {
	case records.Null:
		return "NULL"
	case records.Int:
		return strconv.FormatInt(v.I, 10)
	case records.Float:
		return floatLiteral(v.F)
	case records.String:
		return quote(v.S)
	}
	return "NULL"
}

var stringEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(s string) string {
	return "'" + stringEscaper.Replace(s) + "'"
}

func floatLiteral(f float64) string {
	if math.Abs(f) < 1e-9 {
		f = 0
	}
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "-0" || s == "" {
		s = "0"
	}
	return s
}

// Tuple renders row as "(v1,v2,...)".
func Tuple(row records.Row) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, v := range row {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(Literal(v))
	}
	sb.WriteByte(')')
	return sb.String()
}
