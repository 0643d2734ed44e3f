package model

import (
	"fmt"
	"strings"
	"unicode"

	"dslgen/internal/types"
)

// typeExpr is a parsed but unresolved type expression.
type typeExpr struct {
	Name     string
	Args     []argExpr
	Nullable bool
}

type argExpr struct {
	Variance types.Variance
	Type     *typeExpr // nil for `*`
}

// parseType parses expressions like `kotlin.Pair<A, List<out B>>?`.
func parseType(src string) (*typeExpr, error) {
	p := &typeParser{src: src}
	t, err := p.typ()
	if err != nil {
		return nil, err
	}
	p.space()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *typeParser) space() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.space()
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *typeParser) ident() string {
	p.space()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if r != '_' && r != '$' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *typeParser) typ() (*typeExpr, error) {
	var parts []string
	for {
		id := p.ident()
		if id == "" {
			return nil, p.errorf("expected a name")
		}
		parts = append(parts, id)
		if p.peek() != '.' {
			break
		}
		p.pos++
	}
	t := &typeExpr{Name: strings.Join(parts, ".")}
	if p.peek() == '<' {
		p.pos++
		for {
			a, err := p.arg()
			if err != nil {
				return nil, err
			}
			t.Args = append(t.Args, a)
			c := p.peek()
			p.pos++
			if c == '>' {
				break
			}
			if c != ',' {
				return nil, p.errorf("expected ',' or '>'")
			}
		}
	}
	if p.peek() == '?' {
		p.pos++
		t.Nullable = true
	}
	return t, nil
}

func (p *typeParser) arg() (argExpr, error) {
	if p.peek() == '*' {
		p.pos++
		return argExpr{Variance: types.Star}, nil
	}
	save := p.pos
	v := types.Invariant
	switch p.ident() {
	case "in":
		v = types.Contravariant
	case "out":
		v = types.Covariant
	default:
		p.pos = save
	}
	// `in` and `out` may also be type names when nothing follows
	if v != types.Invariant {
		if c := p.peek(); c == ',' || c == '>' || c == '?' || c == '.' || c == '<' {
			p.pos = save
			v = types.Invariant
		}
	}
	t, err := p.typ()
	if err != nil {
		return argExpr{}, err
	}
	return argExpr{Variance: v, Type: t}, nil
}
