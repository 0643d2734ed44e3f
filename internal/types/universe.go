package types

import (
	"fmt"
	"sort"
)

// Universe is an in-memory Oracle: a set of classes, aliases and functions
// seeded with the builtins the generator relies on.
type Universe struct {
	classes  map[string]*Class
	aliases  map[string]*Alias
	funcs    map[string][]*Func // top-level functions by package
	builtins Builtins
}

// NewUniverse constructs a universe seeded with builtin declarations.
func NewUniverse() *Universe {
	u := &Universe{
		classes: make(map[string]*Class, 64),
		aliases: make(map[string]*Alias),
		funcs:   make(map[string][]*Func),
	}
	u.seed()
	return u
}

// Builtins returns the builtin classes.
func (u *Universe) Builtins() *Builtins {
	return &u.builtins
}

// AddClass registers c. Duplicate qualified names are rejected.
func (u *Universe) AddClass(c *Class) error {
	name := c.QualifiedName()
	if _, ok := u.classes[name]; ok {
		return fmt.Errorf("class %s declared twice", name)
	}
	if _, ok := u.aliases[name]; ok {
		return fmt.Errorf("class %s clashes with a type alias", name)
	}
	u.classes[name] = c
	return nil
}

func (u *Universe) AddAlias(a *Alias) error {
	name := a.QualifiedName()
	if _, ok := u.aliases[name]; ok {
		return fmt.Errorf("type alias %s declared twice", name)
	}
	if _, ok := u.classes[name]; ok {
		return fmt.Errorf("type alias %s clashes with a class", name)
	}
	u.aliases[name] = a
	return nil
}

// AddFunc registers f as a top-level function, a member or a constructor
// depending on its owner and name.
func (u *Universe) AddFunc(f *Func) {
	switch {
	case f.Owner == nil:
		u.funcs[f.Package] = append(u.funcs[f.Package], f)
	case f.IsConstructor():
		f.Owner.Constructors = append(f.Owner.Constructors, f)
	default:
		f.Owner.Functions = append(f.Owner.Functions, f)
	}
}

func (u *Universe) ClassByName(qualified string) (*Class, bool) {
	c, ok := u.classes[qualified]
	return c, ok
}

func (u *Universe) AliasByName(qualified string) (*Alias, bool) {
	a, ok := u.aliases[qualified]
	return a, ok
}

// Classes lists registered classes sorted by qualified name.
func (u *Universe) Classes() []*Class {
	out := make([]*Class, 0, len(u.classes))
	for _, c := range u.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName() < out[j].QualifiedName() })
	return out
}

// Functions lists the top-level functions of a package in declaration order.
func (u *Universe) Functions(pkg string) []*Func {
	return u.funcs[pkg]
}

func (u *Universe) ResolveAlias(t *Type) *Type {
	for depth := 0; t != nil; depth++ {
		a := t.Alias()
		if a == nil {
			return t
		}
		if depth > 64 {
			panic(fmt.Errorf("type alias %s expands recursively", a.QualifiedName()))
		}
		m := make(map[*TypeParam]Arg, len(a.TypeParams))
		for i, p := range a.TypeParams {
			if i < len(t.Args) {
				m[p] = t.Args[i]
			} else {
				m[p] = StarArg()
			}
		}
		exp := SubstituteArgs(a.Target, m, u.nullableAny())
		if t.Nullable {
			exp = exp.WithNullable(true)
		}
		t = exp
	}
	return t
}

func (u *Universe) nullableAny() *Type {
	return MakeClass(u.builtins.Any).WithNullable(true)
}

func (u *Universe) IsAssignable(from, to *Type) bool {
	from = Expand(u, from)
	to = Expand(u, to)
	if from.Nullable && !to.Nullable {
		return false
	}
	if from.Class() == u.builtins.Nothing {
		return true
	}
	if to.Class() == u.builtins.Any {
		return true
	}
	if fp := from.Param(); fp != nil {
		if to.Param() == fp {
			return true
		}
		for _, b := range fp.Bounds {
			if u.IsAssignable(b.WithNullable(b.Nullable || from.Nullable), to) {
				return true
			}
		}
		return false
	}
	tc := to.Class()
	if tc == nil || from.Class() == nil {
		return false
	}
	args, ok := u.SuperTypeMatching(from.WithNullable(false), tc)
	if !ok {
		return false
	}
	for i, tp := range tc.TypeParams {
		if i >= len(to.Args) || i >= len(args) {
			break
		}
		ta, fa := to.Args[i], args[i]
		if ta.Variance == Star {
			continue
		}
		eff := ta.Variance
		if eff == Invariant {
			eff = tp.Variance
		}
		switch eff {
		case Covariant:
			if fa.Variance == Star || fa.Variance == Contravariant {
				if !u.IsAssignable(u.nullableAny(), ta.Type) {
					return false
				}
				continue
			}
			if !u.IsAssignable(fa.Type, ta.Type) {
				return false
			}
		case Contravariant:
			if fa.Variance == Star || fa.Variance == Covariant {
				return false
			}
			if !u.IsAssignable(ta.Type, fa.Type) {
				return false
			}
		default:
			if fa.Variance != Invariant || !Equal(Expand(u, fa.Type), ta.Type) {
				return false
			}
		}
	}
	return true
}

func (u *Universe) SuperTypeMatching(t *Type, target *Class) ([]Arg, bool) {
	return u.superTypeMatching(Expand(u, t), target, 0)
}

func (u *Universe) superTypeMatching(t *Type, target *Class, depth int) ([]Arg, bool) {
	if depth > 64 {
		return nil, false
	}
	switch d := t.Decl.(type) {
	case *TypeParam:
		for _, b := range d.Bounds {
			if args, ok := u.superTypeMatching(Expand(u, b), target, depth+1); ok {
				return args, true
			}
		}
		if target == u.builtins.Any {
			return nil, true
		}
	case *Class:
		if d == target {
			args := make([]Arg, len(d.TypeParams))
			for i := range args {
				if i < len(t.Args) {
					args[i] = t.Args[i]
				} else {
					args[i] = StarArg()
				}
			}
			return args, true
		}
		if target == u.builtins.Any || d == u.builtins.Nothing {
			return target.StarProjected().Args, true
		}
		m := make(map[*TypeParam]Arg, len(d.TypeParams))
		for i, p := range d.TypeParams {
			if i < len(t.Args) {
				m[p] = t.Args[i]
			} else {
				m[p] = StarArg()
			}
		}
		for _, st := range d.Supertypes {
			sub := SubstituteArgs(Expand(u, st), m, u.nullableAny())
			if args, ok := u.superTypeMatching(sub, target, depth+1); ok {
				return args, true
			}
		}
	}
	return nil, false
}

func (u *Universe) FindFunctions(scope Scope, name string) []*Func {
	var src []*Func
	switch {
	case scope.Class != nil && name == ConstructorName:
		return u.ConstructorsOf(scope.Class)
	case scope.Class != nil:
		src = scope.Class.Functions
	default:
		src = u.funcs[scope.Package]
	}
	var out []*Func
	for _, f := range src {
		if f.Name == name {
			out = append(out, f)
		}
	}
	return out
}

func (u *Universe) ConstructorsOf(c *Class) []*Func {
	return c.Constructors
}
