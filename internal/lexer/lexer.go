// Package lexer turns PLC source text into a finite token sequence
// (spec.md §4.1).
package lexer

import (
	"unicode"
	"unicode/utf8"

	"github.com/plc-lang/plc/internal/common"
	"github.com/plc-lang/plc/internal/token"
)

// Lex scans src into an ordered list of tokens, or the first positioned
// failure encountered. It fails fast: spec.md §7 excludes error recovery.
func Lex(src string) ([]token.Token, error) {
	l := &lexer{src: src}
	l.next()

	var tokens []token.Token
	for {
		l.skipWhitespace()
		if l.atEOF() {
			break
		}
		tok, err := l.lexToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

type lexer struct {
	src        string
	offset     int // byte offset of ch
	nextOffset int // byte offset immediately after ch
	ch         rune
}

const eof = -1

func (l *lexer) next() {
	if l.nextOffset >= len(l.src) {
		l.offset = len(l.src)
		l.ch = eof
		return
	}
	r, size := utf8.DecodeRuneInString(l.src[l.nextOffset:])
	l.offset = l.nextOffset
	l.nextOffset += size
	l.ch = r
}

func (l *lexer) atEOF() bool {
	return l.ch == eof
}

func (l *lexer) skipWhitespace() {
	for l.ch != eof && unicode.IsSpace(l.ch) {
		l.next()
	}
}

// lexToken dispatches on the next character, per spec.md §4.1's dispatch
// table, and consumes exactly one token.
func (l *lexer) lexToken() (token.Token, error) {
	start := l.offset

	switch {
	case isIdentStart(l.ch):
		return l.lexIdentifier(start)
	case l.ch == '+' || l.ch == '-':
		if isDigit(l.peekAfterSign()) {
			return l.lexNumber(start)
		}
		return l.lexOperator(start)
	case isDigit(l.ch):
		return l.lexNumber(start)
	case l.ch == '\'':
		return l.lexCharacter(start)
	case l.ch == '"':
		return l.lexString(start)
	default:
		return l.lexOperator(start)
	}
}

func (l *lexer) peekAfterSign() rune {
	if l.nextOffset >= len(l.src) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.nextOffset:])
	return r
}

func isIdentStart(ch rune) bool {
	return ch == '_' || ('A' <= ch && ch <= 'Z') || ('a' <= ch && ch <= 'z')
}

func isIdentPart(ch rune) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '-'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *lexer) lexIdentifier(start int) (token.Token, error) {
	l.next()
	for isIdentPart(l.ch) {
		l.next()
	}
	return token.Token{Kind: token.Identifier, Literal: l.src[start:l.offset], Index: start}, nil
}

// lexNumber consumes an optional leading sign, a run of digits, and an
// optional '.' fraction (only if followed by at least one digit, per
// spec.md §4.1).
func (l *lexer) lexNumber(start int) (token.Token, error) {
	if l.ch == '+' || l.ch == '-' {
		l.next()
	}
	for isDigit(l.ch) {
		l.next()
	}

	kind := token.Integer
	if l.ch == '.' {
		save := l.offset
		saveNext := l.nextOffset
		saveCh := l.ch
		l.next()
		if isDigit(l.ch) {
			kind = token.Decimal
			for isDigit(l.ch) {
				l.next()
			}
		} else {
			// '.' not followed by a digit is not part of the number.
			l.offset, l.nextOffset, l.ch = save, saveNext, saveCh
		}
	}

	return token.Token{Kind: kind, Literal: l.src[start:l.offset], Index: start}, nil
}

// escapeAlphabet is the set of characters valid immediately after a
// backslash inside a character or string literal (spec.md §4.1).
var escapeAlphabet = map[rune]bool{
	'b': true, 'n': true, 'r': true, 't': true,
	'\'': true, '"': true, '\\': true,
}

func (l *lexer) lexEscape() error {
	// l.ch == '\\' on entry.
	l.next()
	if l.ch == eof || !escapeAlphabet[l.ch] {
		return common.NewParseError(l.offset, "invalid escape sequence")
	}
	l.next()
	return nil
}

func (l *lexer) lexCharacter(start int) (token.Token, error) {
	l.next() // consume opening '

	switch {
	case l.ch == eof:
		return token.Token{}, common.NewParseError(l.offset, "unterminated character literal")
	case l.ch == '\\':
		if err := l.lexEscape(); err != nil {
			return token.Token{}, err
		}
	case l.ch == '\'':
		return token.Token{}, common.NewParseError(l.offset, "empty character literal")
	default:
		l.next()
	}

	if l.ch != '\'' {
		return token.Token{}, common.NewParseError(l.offset, "unterminated character literal")
	}
	l.next() // consume closing '

	return token.Token{Kind: token.Character, Literal: l.src[start:l.offset], Index: start}, nil
}

func (l *lexer) lexString(start int) (token.Token, error) {
	l.next() // consume opening "

	for {
		switch {
		case l.ch == eof || l.ch == '\n':
			return token.Token{}, common.NewParseError(l.offset, "unterminated string literal")
		case l.ch == '"':
			l.next()
			return token.Token{Kind: token.String, Literal: l.src[start:l.offset], Index: start}, nil
		case l.ch == '\\':
			if err := l.lexEscape(); err != nil {
				return token.Token{}, err
			}
		default:
			l.next()
		}
	}
}

// lexOperator handles the relational/equality two-character forms and
// falls back to a single arbitrary character (spec.md §4.1).
func (l *lexer) lexOperator(start int) (token.Token, error) {
	ch := l.ch
	l.next()

	switch ch {
	case '<', '>', '!', '=':
		if l.ch == '=' {
			l.next()
		}
	}

	return token.Token{Kind: token.Operator, Literal: l.src[start:l.offset], Index: start}, nil
}
