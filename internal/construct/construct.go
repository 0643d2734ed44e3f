// Package construct finds the function the generator calls to build a value
// of a given class: either a well-known collection factory, the public
// primary constructor, or a user-supplied alternative.
package construct

import (
	"dslgen/internal/diag"
	"dslgen/internal/options"
	"dslgen/internal/types"
)

var (
	ErrNotFound  = diag.Sentinel(diag.ConNotFound)
	ErrAmbiguous = diag.Sentinel(diag.ConAmbiguous)
)

type factory struct {
	pkg  string
	name string
}

// factories maps collection-family classes to their variadic factory.
var factories = map[string]factory{
	"kotlin.collections.Map":         {types.PkgCollection, "mapOf"},
	"kotlin.collections.MutableMap":  {types.PkgCollection, "mutableMapOf"},
	"kotlin.collections.HashMap":     {types.PkgCollection, "hashMapOf"},
	"kotlin.collections.Set":         {types.PkgCollection, "setOf"},
	"kotlin.collections.MutableSet":  {types.PkgCollection, "mutableSetOf"},
	"kotlin.collections.HashSet":     {types.PkgCollection, "hashSetOf"},
	"kotlin.collections.List":        {types.PkgCollection, "listOf"},
	"kotlin.collections.MutableList": {types.PkgCollection, "mutableListOf"},
	"kotlin.collections.ArrayList":   {types.PkgCollection, "arrayListOf"},
	"kotlin.sequences.Sequence":      {types.PkgSequences, "sequenceOf"},
}

// Resolve returns the construction function of c, or nil when c is a leaf
// type that only gets a flat setter.
func Resolve(o types.Oracle, c *types.Class) (*types.Func, error) {
	if c == nil {
		return nil, nil
	}
	if f, ok := factories[c.QualifiedName()]; ok {
		for _, fn := range o.FindFunctions(types.Scope{Package: f.pkg}, f.name) {
			if len(fn.Params) > 0 && fn.Params[0].Vararg {
				return fn, nil
			}
		}
		return nil, diag.Internal("no variadic overload of %s.%s for %s", f.pkg, f.name, c.QualifiedName())
	}
	p := c.Primary
	if p == nil || p.Visibility != types.Public || len(p.Params) == 0 {
		return nil, nil
	}
	return p, nil
}

// Locate resolves a user supplied alternative construction. Exactly one
// function must survive the name, return-type and parameter filters.
func Locate(o types.Oracle, expected *types.Type, l options.Locator) (*types.Func, error) {
	var all []*types.Func
	if l.Owner != "" {
		owner, ok := o.ClassByName(l.Owner)
		if !ok {
			return nil, diag.Errorf(diag.ConNotFound, "class %s of alternative construction %s is unknown", l.Owner, l)
		}
		if l.Name == types.ConstructorName {
			all = o.ConstructorsOf(owner)
		} else {
			all = o.FindFunctions(types.Scope{Class: owner}, l.Name)
		}
	} else {
		all = o.FindFunctions(types.Scope{Package: l.Package}, l.Name)
	}

	var byReturn []*types.Func
	for _, fn := range all {
		if returnMatches(o, fn, expected, l.Return) {
			byReturn = append(byReturn, fn)
		}
	}

	var found []*types.Func
	for _, fn := range byReturn {
		if l.Params == nil || paramsMatch(o, fn, l.Params) {
			found = append(found, fn)
		}
	}

	switch len(found) {
	case 1:
		return found[0], nil
	case 0:
		return nil, diag.Errorf(diag.ConNotFound, "no function matches %s", l).WithCandidates(describe(all))
	}
	return nil, diag.Errorf(diag.ConAmbiguous, "more than one function matches %s", l).WithCandidates(describe(found))
}

func returnMatches(o types.Oracle, fn *types.Func, expected, want *types.Type) bool {
	ret := types.Expand(o, fn.Return)
	if want != nil {
		return types.Equal(ret, types.Expand(o, want))
	}
	if expected == nil {
		return true
	}
	if len(types.UsedParams(ret, nil)) > 0 {
		// generic return: compare raw classes, inference settles the rest
		ec, rc := types.Expand(o, expected).Class(), ret.Class()
		if ec == nil || rc == nil {
			return true
		}
		_, ok := o.SuperTypeMatching(rc.StarProjected(), ec)
		return ok
	}
	return o.IsAssignable(ret, expected)
}

func paramsMatch(o types.Oracle, fn *types.Func, want []*types.Type) bool {
	if len(fn.Params) != len(want) {
		return false
	}
	for i, p := range fn.Params {
		if !types.Equal(types.Expand(o, p.Type), types.Expand(o, want[i])) {
			return false
		}
	}
	return true
}

func describe(fns []*types.Func) []string {
	out := make([]string, len(fns))
	for i, fn := range fns {
		out[i] = fn.Describe()
	}
	return out
}
