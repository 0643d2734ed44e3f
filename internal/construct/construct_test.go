package construct

import (
	"errors"
	"testing"

	"dslgen/internal/options"
	"dslgen/internal/types"
)

func TestResolveCollectionFactories(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	cases := []struct {
		cls  *types.Class
		want string
	}{
		{b.List, "kotlin.collections.listOf"},
		{b.MutableList, "kotlin.collections.mutableListOf"},
		{b.HashSet, "kotlin.collections.hashSetOf"},
		{b.Map, "kotlin.collections.mapOf"},
		{b.Sequence, "kotlin.sequences.sequenceOf"},
	}
	for _, tc := range cases {
		fn, err := Resolve(u, tc.cls)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tc.cls.Name, err)
		}
		if fn == nil || fn.QualifiedName() != tc.want {
			t.Fatalf("Resolve(%s) = %v, want %s", tc.cls.Name, fn, tc.want)
		}
		if !fn.Params[0].Vararg {
			t.Fatalf("Resolve(%s) picked a non-variadic overload", tc.cls.Name)
		}
	}
}

func TestResolvePrimaryConstructor(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	my := &types.Class{Package: "demo", Name: "MyClass"}
	my.Primary = &types.Func{Package: "demo", Owner: my, Name: types.ConstructorName, Params: []types.Param{
		{Name: "x", Type: types.MakeClass(b.Int)},
	}, Return: my.Self()}
	empty := &types.Class{Package: "demo", Name: "Empty"}
	empty.Primary = &types.Func{Package: "demo", Owner: empty, Name: types.ConstructorName, Return: empty.Self()}
	hidden := &types.Class{Package: "demo", Name: "Hidden"}
	hidden.Primary = &types.Func{Package: "demo", Owner: hidden, Name: types.ConstructorName,
		Visibility: types.Private, Params: []types.Param{{Name: "x", Type: types.MakeClass(b.Int)}}}

	if fn, err := Resolve(u, my); err != nil || fn != my.Primary {
		t.Fatalf("expected MyClass primary constructor, got %v, %v", fn, err)
	}
	for _, c := range []*types.Class{empty, hidden, b.Int} {
		if fn, err := Resolve(u, c); err != nil || fn != nil {
			t.Fatalf("%s should be a leaf type, got %v, %v", c.Name, fn, err)
		}
	}
}

func TestLocate(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	intT, strT := types.MakeClass(b.Int), types.MakeClass(b.String)
	point := &types.Class{Package: "demo", Name: "Point"}
	if err := u.AddClass(point); err != nil {
		t.Fatalf("AddClass: %v", err)
	}
	fromInt := &types.Func{Package: "demo", Name: "point", Params: []types.Param{{Name: "v", Type: intT}}, Return: point.Self()}
	fromStr := &types.Func{Package: "demo", Name: "point", Params: []types.Param{{Name: "s", Type: strT}}, Return: point.Self()}
	other := &types.Func{Package: "demo", Name: "point", Params: []types.Param{{Name: "v", Type: intT}}, Return: strT}
	for _, fn := range []*types.Func{fromInt, fromStr, other} {
		u.AddFunc(fn)
	}

	_, err := Locate(u, point.Self(), options.Locator{Package: "demo", Name: "point"})
	if !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("expected ambiguity between two Point factories, got %v", err)
	}

	fn, err := Locate(u, point.Self(), options.Locator{Package: "demo", Name: "point", Params: []*types.Type{strT}})
	if err != nil || fn != fromStr {
		t.Fatalf("parameter filter should pick the String overload, got %v, %v", fn, err)
	}

	fn, err = Locate(u, point.Self(), options.Locator{Package: "demo", Name: "point", Return: strT})
	if err != nil || fn != other {
		t.Fatalf("explicit return filter should pick the String-returning overload, got %v, %v", fn, err)
	}

	_, err = Locate(u, point.Self(), options.Locator{Package: "demo", Name: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLocateConstructor(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	box := &types.Class{Package: "demo", Name: "Box"}
	ctor := &types.Func{Package: "demo", Owner: box, Name: types.ConstructorName,
		Params: []types.Param{{Name: "v", Type: types.MakeClass(b.Int)}}, Return: box.Self()}
	box.Primary = ctor
	if err := u.AddClass(box); err != nil {
		t.Fatalf("AddClass: %v", err)
	}
	u.AddFunc(ctor)

	fn, err := Locate(u, box.Self(), options.Locator{Owner: "demo.Box", Name: types.ConstructorName})
	if err != nil || fn != ctor {
		t.Fatalf("expected Box constructor, got %v, %v", fn, err)
	}
}
