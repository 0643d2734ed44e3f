package model

import (
	"fmt"
	"strings"

	"dslgen/internal/types"
)

// implicit packages searched after the declaring one
var implicit = []string{types.PkgKotlin, types.PkgCollection, types.PkgSequences}

type scope struct {
	pkg    string
	params map[string]*types.TypeParam
}

// newScope makes inner type parameters shadow outer ones.
func newScope(pkg string, outer, inner []*types.TypeParam) *scope {
	sc := &scope{pkg: pkg, params: make(map[string]*types.TypeParam, len(outer)+len(inner))}
	for _, p := range outer {
		sc.params[p.Name] = p
	}
	for _, p := range inner {
		sc.params[p.Name] = p
	}
	return sc
}

func (l *loader) typeOf(un unit, p pos, sc *scope, src string) (*types.Type, error) {
	if strings.TrimSpace(src) == "" {
		return nil, l.errorf(un.path, p, "missing type")
	}
	te, err := parseType(src)
	if err != nil {
		return nil, l.wrap(un.path, p, "bad type expression", err)
	}
	t, err := l.resolve(te, sc)
	if err != nil {
		return nil, l.wrap(un.path, p, "cannot resolve "+src, err)
	}
	return t, nil
}

func (l *loader) resolve(te *typeExpr, sc *scope) (*types.Type, error) {
	if tp, ok := sc.params[te.Name]; ok {
		if len(te.Args) > 0 {
			return nil, fmt.Errorf("type parameter %s takes no arguments", te.Name)
		}
		return &types.Type{Decl: tp, Nullable: te.Nullable}, nil
	}
	decl, arity, err := l.lookup(sc.pkg, te.Name)
	if err != nil {
		return nil, err
	}
	if len(te.Args) != arity {
		return nil, fmt.Errorf("%s expects %d type arguments, got %d", decl.QualifiedName(), arity, len(te.Args))
	}
	t := &types.Type{Decl: decl, Nullable: te.Nullable}
	for _, a := range te.Args {
		arg := types.Arg{Variance: a.Variance}
		if a.Type != nil {
			if arg.Type, err = l.resolve(a.Type, sc); err != nil {
				return nil, err
			}
		}
		t.Args = append(t.Args, arg)
	}
	return t, nil
}

// lookup tries the name as written, then in pkg, then in the implicit packages.
func (l *loader) lookup(pkg, name string) (types.Decl, int, error) {
	candidates := make([]string, 0, 2+len(implicit))
	if strings.Contains(name, ".") {
		candidates = append(candidates, name)
	}
	if pkg != "" {
		candidates = append(candidates, pkg+"."+name)
	} else {
		candidates = append(candidates, name)
	}
	for _, p := range implicit {
		candidates = append(candidates, p+"."+name)
	}
	for _, q := range candidates {
		if c, ok := l.u.ClassByName(q); ok {
			return c, len(c.TypeParams), nil
		}
		if a, ok := l.u.AliasByName(q); ok {
			return a, len(a.TypeParams), nil
		}
	}
	return nil, 0, fmt.Errorf("unknown type %s", name)
}

func (l *loader) classNamed(pkg, name string) (*types.Class, error) {
	d, _, err := l.lookup(pkg, name)
	if err != nil {
		return nil, err
	}
	c, ok := d.(*types.Class)
	if !ok {
		return nil, fmt.Errorf("%s is not a class", name)
	}
	return c, nil
}
