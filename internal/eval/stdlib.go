package eval

import (
	"reflect"
	"slices"

	"dslgen/internal/diag"
)

// LinkStdlib defines the collection factories and the Pair constructor.
// Lists, sets and sequences are []any, maps are map[any]any.
func (p *Program) LinkStdlib() {
	list := func(args []any) (any, error) { return elements(args), nil }
	set := func(args []any) (any, error) {
		var out []any
		for _, e := range elements(args) {
			if !slices.ContainsFunc(out, func(x any) bool { return reflect.DeepEqual(x, e) }) {
				out = append(out, e)
			}
		}
		if out == nil {
			out = []any{}
		}
		return out, nil
	}
	dict := func(args []any) (any, error) {
		out := make(map[any]any)
		for _, e := range elements(args) {
			pr, ok := e.(Pair)
			if !ok {
				return nil, diag.Internal("map entry is %T, not a pair", e)
			}
			out[pr.First] = pr.Second
		}
		return out, nil
	}
	for _, name := range []string{"kotlin.arrayOf", "kotlin.collections.listOf", "kotlin.collections.mutableListOf", "kotlin.collections.arrayListOf", "kotlin.sequences.sequenceOf"} {
		p.Define(name, list)
	}
	for _, name := range []string{"kotlin.collections.setOf", "kotlin.collections.mutableSetOf", "kotlin.collections.hashSetOf"} {
		p.Define(name, set)
	}
	for _, name := range []string{"kotlin.collections.mapOf", "kotlin.collections.mutableMapOf", "kotlin.collections.hashMapOf"} {
		p.Define(name, dict)
	}
	p.Define("kotlin.Pair", func(args []any) (any, error) {
		if len(args) != 2 {
			return nil, diag.Internal("Pair takes 2 arguments, got %d", len(args))
		}
		return Pair{First: args[0], Second: args[1]}, nil
	})
}

// elements flattens the argument list of a factory: no arguments, one
// vararg array, or a single element.
func elements(args []any) []any {
	switch len(args) {
	case 0:
		return []any{}
	case 1:
		if l, ok := args[0].([]any); ok {
			return slices.Clone(l)
		}
	}
	return slices.Clone(args)
}
