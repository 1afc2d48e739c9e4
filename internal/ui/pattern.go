package ui

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Token renders one field of a value into a pattern.
type Token[T any] struct {
	Description string
	Render      func(T) string
}

// Tokens maps the single-letter pattern tokens to their renderers.
type Tokens[T any] map[rune]Token[T]

// Help lists the tokens as "x - description" lines, sorted by letter.
func (t Tokens[T]) Help() string {
	letters := make([]rune, 0, len(t))
	for r := range t {
		letters = append(letters, r)
	}
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	var b strings.Builder
	for i, r := range letters {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "    %c - %s", r, t[r].Description)
	}
	return b.String()
}

// PatternError reports a letter in a pattern that is not a known token.
type PatternError struct {
	Pattern  string
	Position int
	Letter   rune
	Valid    string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("unknown token %q at position %d in pattern %q (valid tokens: %s; escape literal letters with \\)",
		e.Letter, e.Position, e.Pattern, e.Valid)
}

// Pattern is a compiled output template. Token letters are substituted, a
// backslash makes the following rune literal, and every other non-letter
// rune is copied as is.
type Pattern[T any] struct {
	source string
	parts  []patternPart[T]
}

type patternPart[T any] struct {
	literal string
	token   rune
	render  func(T) string
}

// ParsePattern compiles pattern against tokens. Unknown ASCII letters are rejected.
func ParsePattern[T any](pattern string, tokens Tokens[T]) (*Pattern[T], error) {
	p := &Pattern[T]{source: pattern}
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			p.parts = append(p.parts, patternPart[T]{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); {
		r, size := utf8.DecodeRuneInString(pattern[i:])
		switch {
		case r == '\\':
			if i+size < len(pattern) {
				next, nextSize := utf8.DecodeRuneInString(pattern[i+size:])
				lit.WriteRune(next)
				i += size + nextSize
				continue
			}
			lit.WriteRune(r)
		case isASCIILetter(r):
			tok, ok := tokens[r]
			if !ok {
				return nil, &PatternError{Pattern: pattern, Position: i, Letter: r, Valid: tokens.letters()}
			}
			flush()
			p.parts = append(p.parts, patternPart[T]{token: r, render: tok.Render})
		default:
			lit.WriteRune(r)
		}
		i += size
	}
	flush()
	return p, nil
}

// MustParsePattern is ParsePattern for patterns known to be valid.
func MustParsePattern[T any](pattern string, tokens Tokens[T]) *Pattern[T] {
	p, err := ParsePattern(pattern, tokens)
	if err != nil {
		panic(err)
	}
	return p
}

// Format renders v through the pattern.
func (p *Pattern[T]) Format(v T) string {
	var b strings.Builder
	for _, part := range p.parts {
		if part.render != nil {
			b.WriteString(part.render(v))
		} else {
			b.WriteString(part.literal)
		}
	}
	return b.String()
}

// Uses reports whether the pattern contains the token letter.
func (p *Pattern[T]) Uses(letter rune) bool {
	if p == nil {
		return false
	}
	for _, part := range p.parts {
		if part.render != nil && part.token == letter {
			return true
		}
	}
	return false
}

func (p *Pattern[T]) String() string { return p.source }

func (t Tokens[T]) letters() string {
	letters := make([]string, 0, len(t))
	for r := range t {
		letters = append(letters, string(r))
	}
	sort.Strings(letters)
	return strings.Join(letters, ", ")
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
