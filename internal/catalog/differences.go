package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/runenames"

	"carsales/internal/domain"
)

// ErrMalformedDifferences is returned when a differences cell is not a mapping literal.
var ErrMalformedDifferences = errors.New("malformed differences literal")

// ParseDifferences parses a differences cell. The cell holds a mapping literal
// either as JSON or as a single-quoted dict literal ({'Mesin': '1.9L', 'Turbo': True}).
// Key order is preserved. Non-string scalars keep their literal spelling and
// nested containers keep their raw text.
func ParseDifferences(s string) ([]domain.Attribute, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	p := &literalParser{src: s}
	attrs, err := p.parseMapping()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected trailing text")
	}
	return attrs, nil
}

// FormatDifferences renders attributes as "- key: value" lines.
func FormatDifferences(attrs []domain.Attribute) string {
	lines := make([]string, len(attrs))
	for i, a := range attrs {
		lines[i] = fmt.Sprintf("- %s: %s", a.Key, a.Value)
	}
	return strings.Join(lines, "\n")
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w at offset %d: %s", ErrMalformedDifferences, p.pos, fmt.Sprintf(format, args...))
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && strings.ContainsRune(" \t\r\n", rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *literalParser) parseMapping() ([]domain.Attribute, error) {
	p.skipSpace()
	if p.peek() != '{' {
		return nil, p.errorf("expected '{'")
	}
	p.pos++
	var attrs []domain.Attribute
	index := map[string]int{}
	for {
		p.skipSpace()
		if p.peek() == '}' {
			p.pos++
			return attrs, nil
		}
		key, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ':' {
			return nil, p.errorf("expected ':' after key %q", key)
		}
		p.pos++
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if i, ok := index[key]; ok {
			// a repeated key keeps its first position and takes the last value
			attrs[i].Value = value
		} else {
			index[key] = len(attrs)
			attrs = append(attrs, domain.Attribute{Key: key, Value: value})
		}
		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
		case '}':
		default:
			return nil, p.errorf("expected ',' or '}'")
		}
	}
}

func (p *literalParser) parseValue() (string, error) {
	p.skipSpace()
	switch c := p.peek(); c {
	case 0:
		return "", p.errorf("unexpected end of input")
	case '\'', '"':
		return p.parseString(c)
	case '{', '[', '(':
		return p.parseRaw()
	default:
		return p.parseScalar()
	}
}

func (p *literalParser) parseString(quote byte) (string, error) {
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == quote:
			p.pos++
			return b.String(), nil
		case c == '\\':
			if err := p.parseEscape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf("unterminated string")
}

var simpleEscapes = map[byte]string{
	'\\': "\\", '\'': "'", '"': "\"", '/': "/",
	'n': "\n", 't': "\t", 'r': "\r",
	'a': "\a", 'b': "\b", 'f': "\f", 'v': "\v",
	'\n': "",
}

// parseEscape decodes the escape sequence at p.pos, which points at the backslash.
// It accepts the JSON escapes and the string escapes of dict literals.
func (p *literalParser) parseEscape(b *strings.Builder) error {
	start := p.pos
	p.pos++
	if p.pos >= len(p.src) {
		return p.errorf("unterminated escape")
	}
	e := p.src[p.pos]
	p.pos++
	if s, ok := simpleEscapes[e]; ok {
		b.WriteString(s)
		return nil
	}
	switch e {
	case 'x':
		r, err := p.hexRune(2)
		if err != nil {
			return err
		}
		b.WriteRune(r)
	case 'u':
		r, err := p.hexRune(4)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) && strings.HasPrefix(p.src[p.pos:], "\\u") {
			save := p.pos
			p.pos += 2
			lo, err := p.hexRune(4)
			if err == nil {
				if pair := utf16.DecodeRune(r, lo); pair != utf8.RuneError {
					r = pair
				} else {
					p.pos = save
				}
			} else {
				p.pos = save
			}
		}
		b.WriteRune(r)
	case 'U':
		r, err := p.hexRune(8)
		if err != nil {
			return err
		}
		if !utf8.ValidRune(r) {
			p.pos = start
			return p.errorf("invalid code point %U", r)
		}
		b.WriteRune(r)
	case 'N':
		end := strings.IndexByte(p.src[p.pos:], '}')
		if p.peek() != '{' || end < 0 {
			p.pos = start
			return p.errorf("malformed \\N escape")
		}
		name := p.src[p.pos+1 : p.pos+end]
		r, ok := runeByName(name)
		if !ok {
			p.pos = start
			return p.errorf("unknown character name %q", name)
		}
		p.pos += end + 1
		b.WriteRune(r)
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := rune(e - '0')
		for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
			v = v*8 + rune(p.src[p.pos]-'0')
			p.pos++
		}
		b.WriteRune(v)
	default:
		p.pos = start
		return p.errorf("unknown escape \\%c", e)
	}
	return nil
}

func (p *literalParser) hexRune(digits int) (rune, error) {
	if p.pos+digits > len(p.src) {
		return 0, p.errorf("truncated hex escape")
	}
	v, err := strconv.ParseUint(p.src[p.pos:p.pos+digits], 16, 32)
	if err != nil {
		return 0, p.errorf("invalid hex escape %q", p.src[p.pos:p.pos+digits])
	}
	p.pos += digits
	return rune(v), nil
}

var (
	runeNamesOnce sync.Once
	runeNames     map[string]rune
)

// runeByName resolves a Unicode character name, ignoring case.
func runeByName(name string) (rune, bool) {
	runeNamesOnce.Do(func() {
		runeNames = make(map[string]rune, 1<<15)
		for r := rune(0); r <= unicode.MaxRune; r++ {
			if utf16.IsSurrogate(r) {
				continue
			}
			if n := runenames.Name(r); n != "" && !strings.HasPrefix(n, "<") {
				runeNames[n] = r
			}
		}
	})
	r, ok := runeNames[strings.ToUpper(strings.TrimSpace(name))]
	return r, ok
}

// parseRaw captures a nested container verbatim, honouring quoted brackets.
func (p *literalParser) parseRaw() (string, error) {
	start := p.pos
	depth := 0
	var quote byte
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case quote != 0:
			if c == '\\' {
				p.pos++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '{' || c == '[' || c == '(':
			depth++
		case c == '}' || c == ']' || c == ')':
			depth--
			if depth == 0 {
				p.pos++
				return p.src[start:p.pos], nil
			}
		}
		p.pos++
	}
	return "", p.errorf("unbalanced brackets")
}

func (p *literalParser) parseScalar() (string, error) {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune(",:}", rune(p.src[p.pos])) {
		p.pos++
	}
	v := strings.TrimSpace(p.src[start:p.pos])
	if v == "" {
		return "", p.errorf("empty value")
	}
	return v, nil
}
