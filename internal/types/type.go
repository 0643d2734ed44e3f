package types

import (
	"strings"
)

// Type is a use of a declaration with type arguments.
type Type struct {
	Decl     Decl
	Args     []Arg
	Nullable bool
}

// Arg is a type argument; Type is nil for star projections.
type Arg struct {
	Variance Variance
	Type     *Type
}

// Descriptor helpers ---------------------------------------------------------

// MakeClass applies c to invariant arguments.
func MakeClass(c *Class, args ...*Type) *Type {
	t := &Type{Decl: c}
	for _, a := range args {
		t.Args = append(t.Args, Arg{Type: a})
	}
	return t
}

// MakeParam refers to a type parameter.
func MakeParam(p *TypeParam) *Type {
	return &Type{Decl: p}
}

func InvArg(t *Type) Arg { return Arg{Variance: Invariant, Type: t} }
func OutArg(t *Type) Arg { return Arg{Variance: Covariant, Type: t} }
func InArg(t *Type) Arg  { return Arg{Variance: Contravariant, Type: t} }
func StarArg() Arg       { return Arg{Variance: Star} }

// Accessors -----------------------------------------------------------------

func (t *Type) Class() *Class {
	if t == nil {
		return nil
	}
	c, _ := t.Decl.(*Class)
	return c
}

func (t *Type) Param() *TypeParam {
	if t == nil {
		return nil
	}
	p, _ := t.Decl.(*TypeParam)
	return p
}

func (t *Type) Alias() *Alias {
	if t == nil {
		return nil
	}
	a, _ := t.Decl.(*Alias)
	return a
}

// Is reports whether t refers to the class with the given qualified name.
func (t *Type) Is(qualified string) bool {
	c := t.Class()
	return c != nil && c.QualifiedName() == qualified
}

// WithNullable returns a copy with the requested nullability.
func (t *Type) WithNullable(nullable bool) *Type {
	if t == nil || t.Nullable == nullable {
		return t
	}
	cp := *t
	cp.Nullable = nullable
	return &cp
}

// WithArgs returns a copy with new arguments.
func (t *Type) WithArgs(args []Arg) *Type {
	cp := *t
	cp.Args = args
	return &cp
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Type) write(b *strings.Builder) {
	b.WriteString(t.Decl.QualifiedName())
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			a.write(b)
		}
		b.WriteByte('>')
	}
	if t.Nullable {
		b.WriteByte('?')
	}
}

func (a Arg) String() string {
	var b strings.Builder
	a.write(&b)
	return b.String()
}

func (a Arg) write(b *strings.Builder) {
	if a.Variance == Star || a.Type == nil {
		b.WriteByte('*')
		return
	}
	if l := a.Variance.Label(); l != "" {
		b.WriteString(l)
		b.WriteByte(' ')
	}
	a.Type.write(b)
}

// Equal compares two types structurally. Declarations compare by identity.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Decl != b.Decl || a.Nullable != b.Nullable || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if !ArgEqual(a.Args[i], b.Args[i]) {
			return false
		}
	}
	return true
}

func ArgEqual(a, b Arg) bool {
	if a.Variance == Star || b.Variance == Star {
		return a.Variance == b.Variance
	}
	return a.Variance == b.Variance && Equal(a.Type, b.Type)
}

// Replace substitutes type parameters with the mapped types, keeping
// use-site variances. A nullable use of a replaced parameter stays nullable.
func Replace(t *Type, m map[*TypeParam]*Type) *Type {
	if t == nil || len(m) == 0 {
		return t
	}
	if p := t.Param(); p != nil {
		r, ok := m[p]
		if !ok {
			return t
		}
		if t.Nullable {
			return r.WithNullable(true)
		}
		return r
	}
	if len(t.Args) == 0 {
		return t
	}
	changed := false
	args := make([]Arg, len(t.Args))
	for i, a := range t.Args {
		args[i] = a
		if a.Type == nil {
			continue
		}
		if nt := Replace(a.Type, m); nt != a.Type {
			args[i].Type = nt
			changed = true
		}
	}
	if !changed {
		return t
	}
	return t.WithArgs(args)
}

// SubstituteArgs replaces type parameters standing directly in argument
// positions with whole arguments, merging projections. It is used when a
// supertype or an alias target is seen through a concrete use.
func SubstituteArgs(t *Type, m map[*TypeParam]Arg, nullableAny *Type) *Type {
	if t == nil {
		return nil
	}
	if p := t.Param(); p != nil {
		r, ok := m[p]
		if !ok {
			return t
		}
		if r.Type == nil {
			return nullableAny
		}
		if t.Nullable {
			return r.Type.WithNullable(true)
		}
		return r.Type
	}
	if len(t.Args) == 0 {
		return t
	}
	args := make([]Arg, len(t.Args))
	for i, a := range t.Args {
		if a.Type == nil {
			args[i] = a
			continue
		}
		p := a.Type.Param()
		r, ok := m[p]
		if p == nil || !ok {
			args[i] = Arg{Variance: a.Variance, Type: SubstituteArgs(a.Type, m, nullableAny)}
			continue
		}
		na := r
		switch {
		case r.Variance == Star:
		case a.Variance == Invariant:
		case r.Variance == Invariant:
			na.Variance = a.Variance
		case r.Variance != a.Variance:
			na = StarArg()
		}
		if na.Type != nil && a.Type.Nullable {
			na.Type = na.Type.WithNullable(true)
		}
		args[i] = na
	}
	return t.WithArgs(args)
}

// UsedParams appends the type parameters occurring in t, in order of first
// appearance, skipping those already present in out.
func UsedParams(t *Type, out []*TypeParam) []*TypeParam {
	if t == nil {
		return out
	}
	if p := t.Param(); p != nil {
		for _, q := range out {
			if q == p {
				return out
			}
		}
		return append(out, p)
	}
	for _, a := range t.Args {
		out = UsedParams(a.Type, out)
	}
	return out
}

// Mentions reports whether p occurs anywhere in t.
func Mentions(t *Type, p *TypeParam) bool {
	for _, q := range UsedParams(t, nil) {
		if q == p {
			return true
		}
	}
	return false
}
