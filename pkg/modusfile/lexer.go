// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mayhemheroes/modus/pkg/logic"
)

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokFString
	tokLParen
	tokRParen
	tokComma
	tokSemicolon
	tokPeriod
	tokImplies
	tokDoubleColon
	tokEq
	tokNeq
)

type (
	tokenKind int

	token struct {
		kind  tokenKind
		text  string
		parts []logic.Fragment
		pos   logic.Position
	}

	lexer struct {
		file string
		src  string
		off  int
		line int
		col  int
	}
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokIdent:
		return "identifier"
	case tokString:
		return "string"
	case tokFString:
		return "f-string"
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokComma:
		return "','"
	case tokSemicolon:
		return "';'"
	case tokPeriod:
		return "'.'"
	case tokImplies:
		return "':-'"
	case tokDoubleColon:
		return "'::'"
	case tokEq:
		return "'='"
	case tokNeq:
		return "'!='"
	default:
		return "unknown token"
	}
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent:
		return "identifier " + t.text
	case tokString, tokFString:
		return t.kind.String() + " " + logic.Quote(t.text)
	default:
		return t.kind.String()
	}
}

// tokenize splits src into tokens, ending with a tokEOF token.
func tokenize(file, src string) ([]token, error) {
	l := &lexer{file: file, src: src, line: 1, col: 1}
	var toks []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) pos() logic.Position {
	return logic.Position{Line: l.line, Column: l.col}
}

func (l *lexer) peekChar() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return r
}

func (l *lexer) getChar() rune {
	if l.off >= len(l.src) {
		return -1
	}
	r, size := utf8.DecodeRuneInString(l.src[l.off:])
	l.off += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) lexWhile(isChar func(r rune) bool) string {
	start := l.off
	for r := l.peekChar(); r != -1 && isChar(r); r = l.peekChar() {
		l.getChar()
	}
	return l.src[start:l.off]
}

func (l *lexer) errorf(pos logic.Position, format string, args ...any) error {
	return newSyntaxError(l.file, pos, format, args...)
}

func (l *lexer) next() (token, error) {
	for {
		r := l.peekChar()
		switch {
		case r == -1:
			return token{kind: tokEOF, pos: l.pos()}, nil
		case unicode.IsSpace(r):
			l.getChar()
			continue
		case r == '#':
			l.lexWhile(func(r rune) bool { return r != '\n' })
			continue
		}
		break
	}

	pos := l.pos()
	r := l.getChar()
	single := func(k tokenKind) (token, error) {
		return token{kind: k, text: string(r), pos: pos}, nil
	}
	switch r {
	case '(':
		return single(tokLParen)
	case ')':
		return single(tokRParen)
	case ',':
		return single(tokComma)
	case ';':
		return single(tokSemicolon)
	case '.':
		return single(tokPeriod)
	case '=':
		return single(tokEq)
	case '!':
		if l.peekChar() == '=' {
			l.getChar()
			return token{kind: tokNeq, text: "!=", pos: pos}, nil
		}
		return token{}, l.errorf(pos, "unexpected character '!'")
	case ':':
		switch l.peekChar() {
		case '-':
			l.getChar()
			return token{kind: tokImplies, text: ":-", pos: pos}, nil
		case ':':
			l.getChar()
			return token{kind: tokDoubleColon, text: "::", pos: pos}, nil
		}
		return token{}, l.errorf(pos, "unexpected character ':'")
	case '"':
		raw, err := l.rawString(pos)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokString, text: unescape(raw), pos: pos}, nil
	}

	if r == 'f' && l.peekChar() == '"' {
		l.getChar()
		raw, err := l.rawString(pos)
		if err != nil {
			return token{}, err
		}
		parts, err := l.fragments(pos, raw)
		if err != nil {
			return token{}, err
		}
		return token{kind: tokFString, text: raw, parts: parts, pos: pos}, nil
	}

	if isIdentFirst(r) {
		name := string(r) + l.lexWhile(isIdentNext)
		return token{kind: tokIdent, text: name, pos: pos}, nil
	}
	return token{}, l.errorf(pos, "unexpected character %q", r)
}

// rawString consumes string content up to the closing quote, keeping escape
// sequences as written. The opening quote has been consumed.
func (l *lexer) rawString(start logic.Position) (string, error) {
	begin := l.off
	for {
		switch l.getChar() {
		case -1:
			return "", l.errorf(start, "unterminated string literal")
		case '\\':
			if l.getChar() == -1 {
				return "", l.errorf(start, "unterminated string literal")
			}
		case '"':
			return l.src[begin : l.off-1], nil
		}
	}
}

// fragments splits raw f-string content into literal text and ${var} parts.
func (l *lexer) fragments(pos logic.Position, raw string) ([]logic.Fragment, error) {
	var (
		parts []logic.Fragment
		lit   strings.Builder
	)
	for i := 0; i < len(raw); {
		switch {
		case raw[i] == '\\' && i+1 < len(raw) && raw[i+1] == '$':
			lit.WriteByte('$')
			i += 2
		case raw[i] == '\\':
			n := escapeLen(raw[i:])
			lit.WriteString(unescape(raw[i : i+n]))
			i += n
		case raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{':
			end := strings.IndexByte(raw[i+2:], '}')
			if end < 0 {
				return nil, l.errorf(pos, "unterminated ${ in f-string")
			}
			name := strings.TrimSpace(raw[i+2 : i+2+end])
			if !isIdentifier(name) {
				return nil, l.errorf(pos, "invalid variable name %q in f-string", name)
			}
			if name == logic.AnonymousName {
				return nil, l.errorf(pos, "anonymous variable cannot be interpolated")
			}
			parts = append(parts, logic.Literal(lit.String()))
			lit.Reset()
			parts = append(parts, logic.Embed(logic.Variable{Name: name}))
			i += end + 3
		default:
			lit.WriteByte(raw[i])
			i++
		}
	}
	parts = append(parts, logic.Literal(lit.String()))
	return parts, nil
}

// escapeLen returns the byte length of the escape sequence at the start of s,
// including a line continuation and the whitespace it swallows.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	if s[1] != '\n' {
		_, size := utf8.DecodeRuneInString(s[1:])
		return 1 + size
	}
	n := 2
	for n < len(s) && unicode.IsSpace(rune(s[n])) {
		n++
	}
	return n
}

// unescape processes escape sequences. A backslash followed by a newline
// continues the string and drops the leading whitespace of the next line.
// Unknown escapes are kept verbatim.
func unescape(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	var sb strings.Builder
	for i := 0; i < len(raw); {
		if raw[i] != '\\' || i+1 >= len(raw) {
			sb.WriteByte(raw[i])
			i++
			continue
		}
		n := escapeLen(raw[i:])
		switch raw[i+1] {
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '0':
			sb.WriteByte(0)
		case '\n':
		default:
			sb.WriteString(raw[i : i+n])
		}
		i += n
	}
	return sb.String()
}

func isIdentFirst(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentNext(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if i == 0 && !isIdentFirst(r) || i > 0 && !isIdentNext(r) {
			return false
		}
	}
	return s != ""
}
