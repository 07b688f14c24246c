package syntax

import (
	"fmt"
	"strings"
	"unicode"
)

// TypeRef is a reference to a type as written in source. The shorthand
// Foo[] is normalized to Array<Foo>.
type TypeRef struct {
	Name     string
	Params   []TypeRef
	Nullable bool
	Pos      Pos
}

// IsCollection reports whether the reference is an Array<...> (or Foo[]).
func (r TypeRef) IsCollection() bool {
	return r.Name == "Array" || r.Name == "lang.taxi.Array"
}

// IsStream reports whether the reference is a Stream<...>.
func (r TypeRef) IsStream() bool {
	return r.Name == "Stream" || r.Name == "lang.taxi.Stream"
}

// Member returns the single type parameter of a collection or stream
// reference, or the reference itself.
func (r TypeRef) Member() TypeRef {
	if (r.IsCollection() || r.IsStream()) && len(r.Params) == 1 {
		return r.Params[0]
	}
	return r
}

func (r TypeRef) String() string {
	var b strings.Builder
	if r.IsCollection() && len(r.Params) == 1 {
		b.WriteString(r.Params[0].String())
		b.WriteString("[]")
	} else {
		b.WriteString(r.Name)
		if len(r.Params) > 0 {
			b.WriteByte('<')
			for i, p := range r.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(p.String())
			}
			b.WriteByte('>')
		}
	}
	if r.Nullable {
		b.WriteByte('?')
	}
	return b.String()
}

// ArrayOf wraps r in Array<r>.
func ArrayOf(r TypeRef) TypeRef {
	return TypeRef{Name: "Array", Params: []TypeRef{r}, Pos: r.Pos}
}

// ParseTypeRef parses the textual form of a type reference:
//
//	Foo
//	acme.Foo
//	Foo[]
//	Foo?
//	Array<Foo>
//	Map<String, acme.Foo[]>
//
// Every node of the result carries pos.
func ParseTypeRef(s string, pos Pos) (TypeRef, error) {
	p := &typeRefParser{src: s, pos: pos}
	ref, err := p.parse()
	if err != nil {
		return TypeRef{}, err
	}
	p.skipSpace()
	if p.i != len(p.src) {
		return TypeRef{}, p.errorf("unexpected %q", p.src[p.i:])
	}
	return ref, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
// Use only in tests or with constant input.
func MustParseTypeRef(s string) TypeRef {
	ref, err := ParseTypeRef(s, NoPos)
	if err != nil {
		panic(err)
	}
	return ref
}

type typeRefParser struct {
	src string
	i   int
	pos Pos
}

func (p *typeRefParser) errorf(format string, args ...any) error {
	return fmt.Errorf("invalid type reference %q: %s", p.src, fmt.Sprintf(format, args...))
}

func (p *typeRefParser) skipSpace() {
	for p.i < len(p.src) && p.src[p.i] == ' ' {
		p.i++
	}
}

func (p *typeRefParser) parse() (TypeRef, error) {
	p.skipSpace()
	name := p.name()
	if name == "" {
		return TypeRef{}, p.errorf("expected a type name at offset %d", p.i)
	}
	ref := TypeRef{Name: name, Pos: p.pos}

	p.skipSpace()
	if p.peek('<') {
		p.i++
		for {
			param, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			ref.Params = append(ref.Params, param)
			p.skipSpace()
			if p.peek(',') {
				p.i++
				continue
			}
			if p.peek('>') {
				p.i++
				break
			}
			return TypeRef{}, p.errorf("expected ',' or '>' at offset %d", p.i)
		}
	}

	for {
		p.skipSpace()
		switch {
		case strings.HasPrefix(p.src[p.i:], "[]"):
			p.i += 2
			ref = ArrayOf(ref)
		case p.peek('?'):
			p.i++
			ref.Nullable = true
		default:
			return ref, nil
		}
	}
}

func (p *typeRefParser) peek(c byte) bool {
	return p.i < len(p.src) && p.src[p.i] == c
}

func (p *typeRefParser) name() string {
	start := p.i
	for p.i < len(p.src) {
		r := rune(p.src[p.i])
		if r == '.' || r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			p.i++
			continue
		}
		break
	}
	name := p.src[start:p.i]
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") || strings.Contains(name, "..") {
		p.i = start
		return ""
	}
	return name
}
