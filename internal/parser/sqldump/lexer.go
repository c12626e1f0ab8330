// Package sqldump implements a small, explicit tokenizer for MySQL-style
// insert dumps. It splits a dump into statements, recognizes insert/replace
// statements for a table, splits their VALUES payload into parenthesized
// tuples, and evaluates each literal to a typed records.Value.
//
// Every stage is a hand-written state machine that tracks quote state and
// nesting depth. There is deliberately no general expression evaluator: a
// token that is not NULL, a number, or a quoted string is rejected with a
// LiteralError.
package sqldump

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedStatement is returned when a statement, tuple list, or tuple
// cannot be split structurally (unbalanced parentheses, unterminated quotes,
// stray characters between tuples).
var ErrMalformedStatement = errors.New("sqldump: malformed statement")

// lexer states shared by the splitters.
const (
	sText = iota
	sSQ   // '...'
	sDQ   // "..."
	sBT   // `...`
	sLC   // -- or # line comment
	sBC   // /* ... */
)

// Statements splits src into individual statements on ';' outside quotes,
// identifiers, and comments. Comments are dropped from the returned text and
// each statement is trimmed of surrounding whitespace. Empty statements
// (e.g. the ';' after a MySQL /*! ... */ directive) are omitted. A trailing
// statement without a terminating ';' is returned as well.
func Statements(src string) []string {
	var (
		out   []string
		sb    strings.Builder
		state = sText
	)
	flush := func() {
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
		sb.Reset()
	}

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch state {
		case sText:
			switch {
			case c == ';':
				flush()
			case c == '\'':
				state = sSQ
				sb.WriteByte(c)
			case c == '"':
				state = sDQ
				sb.WriteByte(c)
			case c == '`':
				state = sBT
				sb.WriteByte(c)
			case c == '#':
				state = sLC
			case c == '-' && i+1 < len(src) && src[i+1] == '-' && (i+2 == len(src) || isSpace(src[i+2])):
				state = sLC
				i++
			case c == '/' && i+1 < len(src) && src[i+1] == '*':
				state = sBC
				i++
			default:
				sb.WriteByte(c)
			}

		case sSQ, sDQ:
			sb.WriteByte(c)
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			}
			switch c {
			case '\\':
				if i+1 < len(src) {
					i++
					sb.WriteByte(src[i])
				}
			case quote:
				state = sText
			}

		case sBT:
			sb.WriteByte(c)
			if c == '`' {
				state = sText
			}

		case sLC:
			if c == '\n' {
				state = sText
				sb.WriteByte('\n')
			}

		case sBC:
			if c == '*' && i+1 < len(src) && src[i+1] == '/' {
				state = sText
				sb.WriteByte(' ')
				i++
			}
		}
	}
	flush()
	return out
}

// Insert is the structural view of a single insert/replace statement.
type Insert struct {
	// Table is the unquoted target table name (the last dotted segment).
	Table string
	// Columns is the optional explicit column list, unquoted. Nil when the
	// statement relies on positional alignment.
	Columns []string
	// Payload is the raw text following the VALUES keyword.
	Payload string
}

// ParseInsert recognizes "INSERT [IGNORE] INTO", "REPLACE [INTO]" statements.
// ok is false when stmt is some other kind of statement. An error is returned
// when stmt is an insert whose shape is not "... VALUES (...)".
func ParseInsert(stmt string) (ins Insert, ok bool, err error) {
	sc := &scanner{s: stmt}
	switch strings.ToUpper(sc.word()) {
	case "INSERT":
		w := strings.ToUpper(sc.word())
		for w == "IGNORE" || w == "LOW_PRIORITY" || w == "DELAYED" || w == "HIGH_PRIORITY" {
			w = strings.ToUpper(sc.word())
		}
		if w != "INTO" {
			return Insert{}, false, nil
		}
	case "REPLACE":
		save := sc.pos
		w := strings.ToUpper(sc.word())
		if w == "LOW_PRIORITY" || w == "DELAYED" {
			save = sc.pos
			w = strings.ToUpper(sc.word())
		}
		if w != "INTO" {
			sc.pos = save
		}
	default:
		return Insert{}, false, nil
	}

	table, err := sc.tableName()
	if err != nil {
		return Insert{}, true, err
	}
	ins.Table = table

	sc.skipSpace()
	if sc.peek() == '(' {
		cols, err := sc.columnList()
		if err != nil {
			return Insert{}, true, fmt.Errorf("insert into %s: %w", table, err)
		}
		ins.Columns = cols
	}

	switch kw := strings.ToUpper(sc.word()); kw {
	case "VALUES", "VALUE":
	default:
		return Insert{}, true, fmt.Errorf("%w: insert into %s: expected VALUES, got %q", ErrMalformedStatement, table, kw)
	}
	ins.Payload = strings.TrimSpace(sc.s[sc.pos:])
	return ins, true, nil
}

// SplitTuples splits a VALUES payload such as "(1,'a'),(2,'b')" into the
// individual parenthesized tuple texts, outer parentheses included. Commas
// inside nested parentheses or quoted strings never split. Only whitespace
// and commas may appear between tuples.
func SplitTuples(payload string) ([]string, error) {
	var (
		out   []string
		state = sText
		depth int
		start int
	)
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		switch state {
		case sSQ, sDQ:
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			}
			if c == '\\' {
				i++
			} else if c == quote {
				state = sText
			}
			continue
		}

		switch c {
		case '\'':
			if depth == 0 {
				return nil, fmt.Errorf("%w: quoted text outside tuple at offset %d", ErrMalformedStatement, i)
			}
			state = sSQ
		case '"':
			if depth == 0 {
				return nil, fmt.Errorf("%w: quoted text outside tuple at offset %d", ErrMalformedStatement, i)
			}
			state = sDQ
		case '(':
			if depth == 0 {
				start = i
			}
			depth++
		case ')':
			if depth == 0 {
				return nil, fmt.Errorf("%w: unbalanced ')' at offset %d", ErrMalformedStatement, i)
			}
			depth--
			if depth == 0 {
				out = append(out, payload[start:i+1])
			}
		default:
			if depth == 0 && c != ',' && !isSpace(c) {
				return nil, fmt.Errorf("%w: unexpected %q between tuples at offset %d", ErrMalformedStatement, c, i)
			}
		}
	}
	if state != sText {
		return nil, fmt.Errorf("%w: unterminated string in values list", ErrMalformedStatement)
	}
	if depth != 0 {
		return nil, fmt.Errorf("%w: unterminated tuple in values list", ErrMalformedStatement)
	}
	return out, nil
}

// SplitFields splits one parenthesized tuple into its raw literal tokens at
// depth-zero commas outside quotes. Tokens are trimmed but otherwise
// unevaluated; see ParseLiteral.
func SplitFields(tuple string) ([]string, error) {
	t := strings.TrimSpace(tuple)
	if len(t) < 2 || t[0] != '(' || t[len(t)-1] != ')' {
		return nil, fmt.Errorf("%w: tuple must be parenthesized: %s", ErrMalformedStatement, abbrev(t, 80))
	}
	inner := t[1 : len(t)-1]
	if strings.TrimSpace(inner) == "" {
		return []string{}, nil
	}

	var (
		out   []string
		state = sText
		depth int
		start int
	)
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch state {
		case sSQ, sDQ:
			quote := byte('\'')
			if state == sDQ {
				quote = '"'
			}
			if c == '\\' {
				i++
			} else if c == quote {
				state = sText
			}
			continue
		}
		switch c {
		case '\'':
			state = sSQ
		case '"':
			state = sDQ
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%w: unbalanced ')' in tuple: %s", ErrMalformedStatement, abbrev(t, 80))
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	if state != sText || depth != 0 {
		return nil, fmt.Errorf("%w: unterminated tuple: %s", ErrMalformedStatement, abbrev(t, 80))
	}
	out = append(out, strings.TrimSpace(inner[start:]))
	return out, nil
}

// scanner is a tiny cursor over a statement prefix.
type scanner struct {
	s   string
	pos int
}

func (sc *scanner) skipSpace() {
	for sc.pos < len(sc.s) && isSpace(sc.s[sc.pos]) {
		sc.pos++
	}
}

func (sc *scanner) peek() byte {
	if sc.pos >= len(sc.s) {
		return 0
	}
	return sc.s[sc.pos]
}

// word reads a bare keyword made of letters, digits, and underscores.
func (sc *scanner) word() string {
	sc.skipSpace()
	start := sc.pos
	for sc.pos < len(sc.s) && isWordByte(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos]
}

// ident reads a bare or backtick/double-quote quoted identifier.
func (sc *scanner) ident() (string, error) {
	sc.skipSpace()
	if q := sc.peek(); q == '`' || q == '"' {
		end := strings.IndexByte(sc.s[sc.pos+1:], q)
		if end < 0 {
			return "", fmt.Errorf("%w: unterminated identifier", ErrMalformedStatement)
		}
		id := sc.s[sc.pos+1 : sc.pos+1+end]
		sc.pos += end + 2
		return id, nil
	}
	id := sc.word()
	if id == "" {
		return "", fmt.Errorf("%w: expected identifier at offset %d", ErrMalformedStatement, sc.pos)
	}
	return id, nil
}

// tableName reads a possibly schema-qualified table name and returns the
// last segment.
func (sc *scanner) tableName() (string, error) {
	name, err := sc.ident()
	if err != nil {
		return "", err
	}
	for sc.peek() == '.' {
		sc.pos++
		if name, err = sc.ident(); err != nil {
			return "", err
		}
	}
	return name, nil
}

func (sc *scanner) columnList() ([]string, error) {
	sc.pos++ // '('
	var cols []string
	for {
		id, err := sc.ident()
		if err != nil {
			return nil, err
		}
		cols = append(cols, id)
		sc.skipSpace()
		switch sc.peek() {
		case ',':
			sc.pos++
		case ')':
			sc.pos++
			return cols, nil
		default:
			return nil, fmt.Errorf("%w: unterminated column list", ErrMalformedStatement)
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// abbrev shortens s for error messages.
func abbrev(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
