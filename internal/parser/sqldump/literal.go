package sqldump

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clonegen/pkg/records"
)

// ErrMalformedLiteral is the sentinel wrapped by every LiteralError.
var ErrMalformedLiteral = errors.New("sqldump: malformed literal")

// LiteralError reports a token that is not a NULL, number, or quoted string.
type LiteralError struct {
	Token  string
	Reason string
}

func (e *LiteralError) Error() string {
	return fmt.Sprintf("malformed literal %q: %s", abbrev(e.Token, 60), e.Reason)
}

func (e *LiteralError) Unwrap() error { return ErrMalformedLiteral }

// ParseLiteral evaluates a single raw token to its natural type:
//
//	NULL (any case)          -> records.Null
//	-12, 7                   -> records.Int
//	1.5, -0.25, 3e2          -> records.Float
//	'text', "text"           -> records.String (backslash and doubled-quote escapes)
func ParseLiteral(tok string) (records.Value, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return records.Value{}, &LiteralError{Token: tok, Reason: "empty token"}
	}
	if strings.EqualFold(tok, "NULL") {
		return records.NullValue(), nil
	}
	if q := tok[0]; q == '\'' || q == '"' {
		s, err := unquote(tok)
		if err != nil {
			return records.Value{}, err
		}
		return records.StringValue(s), nil
	}
	return parseNumber(tok)
}

// ParseTuple splits and evaluates one parenthesized tuple.
func ParseTuple(tuple string) (records.Row, error) {
	toks, err := SplitFields(tuple)
	if err != nil {
		return nil, err
	}
	row := make(records.Row, len(toks))
	for i, tok := range toks {
		v, err := ParseLiteral(tok)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

func parseNumber(tok string) (records.Value, error) {
	isFloat := false
	for i := 0; i < len(tok); i++ {
		switch c := tok[i]; {
		case c >= '0' && c <= '9':
		case c == '-' || c == '+':
		case c == '.' || c == 'e' || c == 'E':
			isFloat = true
		default:
			return records.Value{}, &LiteralError{Token: tok, Reason: fmt.Sprintf("unexpected character %q", c)}
		}
	}
	if !isFloat {
		i, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return records.Value{}, &LiteralError{Token: tok, Reason: "invalid integer"}
		}
		return records.IntValue(i), nil
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return records.Value{}, &LiteralError{Token: tok, Reason: "invalid number"}
	}
	return records.FloatValue(f), nil
}

// unquote decodes a single- or double-quoted MySQL string literal.
func unquote(tok string) (string, error) {
	q := tok[0]
	if len(tok) < 2 || tok[len(tok)-1] != q {
		return "", &LiteralError{Token: tok, Reason: "unterminated string"}
	}
	body := tok[1 : len(tok)-1]
	if strings.IndexByte(body, '\\') < 0 && strings.IndexByte(body, q) < 0 {
		return body, nil
	}

	var sb strings.Builder
	sb.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\':
			if i+1 >= len(body) {
				return "", &LiteralError{Token: tok, Reason: "dangling escape"}
			}
			i++
			switch e := body[i]; e {
			case '0':
				sb.WriteByte(0)
			case 'b':
				sb.WriteByte('\b')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'Z':
				sb.WriteByte(0x1a)
			case '%', '_':
				sb.WriteByte('\\')
				sb.WriteByte(e)
			default:
				sb.WriteByte(e)
			}
		case c == q:
			if i+1 < len(body) && body[i+1] == q {
				sb.WriteByte(q)
				i++
				continue
			}
			return "", &LiteralError{Token: tok, Reason: "unescaped quote inside string"}
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}
