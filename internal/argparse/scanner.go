// SPDX-License-Identifier: MPL-2.0

package argparse

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Escape makes the following rune literal.
const Escape = '\\'

var (
	// ErrUnclosedQuote is returned when a quoted argument is not closed.
	ErrUnclosedQuote = errors.New("a quoted argument is incomplete")
	// ErrTrailingEscape is returned when input ends with an escape.
	ErrTrailingEscape = errors.New("input ends with an escape character")
)

// quotePairs maps opening quote runes to their closing rune.
var quotePairs = map[rune]rune{
	'"':  '"',
	'\'': '\'',
	'«':  '»',
	'‘':  '’',
	'“':  '”',
	'„':  '‟',
	'‹':  '›',
	'‚':  '‛',
	'《':  '》',
	'〈':  '〉',
	'「':  '」',
	'『':  '』',
	'〝':  '〞',
	'＂':  '＂',
	'＇':  '＇',
	'｢':  '｣',
}

type (
	// Token is one argument of the input.
	Token struct {
		// Value is the argument with quotes and escapes removed.
		Value string
		// Quoted reports whether any part of the token was quoted.
		Quoted bool
		// Start and End are byte offsets of the raw token in the input.
		Start, End int
	}

	// Scanner splits argument input into tokens. Arguments are separated by
	// whitespace or the configured separator; a token starting with a quote
	// rune extends to the matching closing rune.
	Scanner struct {
		input string
		sep   string
		pos   int
	}
)

// NewScanner creates a scanner over input. An empty sep means whitespace only.
func NewScanner(input, sep string) *Scanner {
	if strings.TrimSpace(sep) == "" {
		sep = ""
	}
	return &Scanner{input: input, sep: sep}
}

// Done reports whether only separators remain.
func (s *Scanner) Done() bool {
	s.skip()
	return s.pos >= len(s.input)
}

// Rest consumes and returns the remaining input as one argument, verbatim
// apart from leading separators and trailing whitespace. Quotes and escapes
// are kept.
func (s *Scanner) Rest() string {
	s.skip()
	rest := strings.TrimRightFunc(s.input[s.pos:], unicode.IsSpace)
	s.pos = len(s.input)
	return rest
}

// Next returns the next token. It reports false when the input is exhausted.
func (s *Scanner) Next() (Token, bool, error) {
	s.skip()
	if s.pos >= len(s.input) {
		return Token{}, false, nil
	}

	tok := Token{Start: s.pos}
	var b strings.Builder
	var closing rune
	inQuote := false

	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])

		switch {
		case r == Escape:
			next, nsize := utf8.DecodeRuneInString(s.input[s.pos+size:])
			if nsize == 0 {
				return Token{}, false, ErrTrailingEscape
			}
			b.WriteRune(next)
			s.pos += size + nsize
			continue
		case inQuote && r == closing:
			inQuote = false
			s.pos += size
			continue
		case inQuote:
			b.WriteRune(r)
			s.pos += size
			continue
		case s.atSeparator(r):
			tok.Value = b.String()
			tok.End = s.pos
			return tok, true, nil
		}

		if c, ok := quotePairs[r]; ok && s.pos == tok.Start {
			inQuote = true
			tok.Quoted = true
			closing = c
			s.pos += size
			continue
		}
		b.WriteRune(r)
		s.pos += size
	}

	if inQuote {
		return Token{}, false, ErrUnclosedQuote
	}
	tok.Value = b.String()
	tok.End = s.pos
	return tok, true, nil
}

// Tokenize splits all of input into tokens.
func Tokenize(input, sep string) ([]Token, error) {
	s := NewScanner(input, sep)
	var out []Token
	for {
		tok, ok, err := s.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, tok)
	}
}

func (s *Scanner) atSeparator(r rune) bool {
	return unicode.IsSpace(r) || (s.sep != "" && strings.HasPrefix(s.input[s.pos:], s.sep))
}

func (s *Scanner) skip() {
	for s.pos < len(s.input) {
		r, size := utf8.DecodeRuneInString(s.input[s.pos:])
		switch {
		case unicode.IsSpace(r):
			s.pos += size
		case s.sep != "" && strings.HasPrefix(s.input[s.pos:], s.sep):
			s.pos += len(s.sep)
		default:
			return
		}
	}
}
