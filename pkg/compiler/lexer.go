package compiler

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Syntax errors, all of them wrap ErrSyntax.
var (
	ErrSyntax            = errors.New("syntax error")
	ErrUnterminatedQuote = fmt.Errorf("%w: unterminated quote", ErrSyntax)
	ErrInvalidEscape     = fmt.Errorf("%w: invalid escape sequence", ErrSyntax)
	ErrInvalidUTF8       = fmt.Errorf("%w: invalid UTF-8", ErrSyntax)
)

const (
	commentChar = '#'
	quoteChar   = '"'
	escapeChar  = '\\'
)

var escapes = map[rune]rune{
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'"':  '"',
	'\\': '\\',
	'0':  0,
}

// Tokenize splits a source line into tokens. Tokens are separated by
// whitespace, "#" starts a comment outside of quotes. Quoted tokens may
// contain whitespace and the \n, \r, \t, \", \\ and \0 escapes. A blank or
// comment-only line yields no tokens. Lines must be valid UTF-8.
func Tokenize(line string) ([]string, error) {
	if !utf8.ValidString(line) {
		return nil, fmt.Errorf("%w at byte %d", ErrInvalidUTF8, invalidOffset(line))
	}
	var (
		tokens []string
		s      = strings.TrimLeftFunc(line, unicode.IsSpace)
	)
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		switch {
		case unicode.IsSpace(r):
			s = s[size:]
		case r == commentChar:
			return tokens, nil
		case r == quoteChar:
			tok, rest, err := scanQuoted(s[size:])
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			s = rest
		default:
			end := strings.IndexFunc(s, func(r rune) bool {
				return unicode.IsSpace(r) || r == commentChar
			})
			if end < 0 {
				end = len(s)
			}
			tokens = append(tokens, s[:end])
			s = s[end:]
		}
	}
	return tokens, nil
}

// scanQuoted reads a quoted token body up to the closing quote and returns
// the decoded token and the remainder of the line after the quote.
func scanQuoted(s string) (string, string, error) {
	var b strings.Builder
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		switch r {
		case quoteChar:
			return b.String(), s, nil
		case escapeChar:
			if len(s) == 0 {
				return "", "", ErrUnterminatedQuote
			}
			e, esize := utf8.DecodeRuneInString(s)
			s = s[esize:]
			dec, ok := escapes[e]
			if !ok {
				return "", "", fmt.Errorf("%w: \\%c", ErrInvalidEscape, e)
			}
			b.WriteRune(dec)
		default:
			b.WriteRune(r)
		}
	}
	return "", "", ErrUnterminatedQuote
}

func invalidOffset(s string) int {
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				return i
			}
		}
	}
	return len(s)
}
