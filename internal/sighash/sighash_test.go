package sighash

import (
	"testing"

	"dslgen/internal/types"
)

func genericFunc(u *types.Universe, name, tpName string, viaAlias *types.Alias) *types.Func {
	b := u.Builtins()
	fn := &types.Func{Package: "demo", Name: name}
	p := &types.TypeParam{Name: tpName, Owner: "demo." + name}
	fn.TypeParams = []*types.TypeParam{p}
	list := types.MakeClass(b.List, types.MakeParam(p))
	if viaAlias != nil {
		list = &types.Type{Decl: viaAlias, Args: []types.Arg{types.InvArg(types.MakeParam(p))}}
	}
	fn.Params = []types.Param{{Name: "items", Type: list}}
	fn.Return = types.MakeParam(p)
	return fn
}

func TestIdentifierIgnoresTypeParamNamesAndAliases(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	alias := &types.Alias{Package: "demo", Name: "Items"}
	ap := &types.TypeParam{Name: "X", Owner: "demo.Items"}
	alias.TypeParams = []*types.TypeParam{ap}
	alias.Target = types.MakeClass(b.List, types.MakeParam(ap))
	if err := u.AddAlias(alias); err != nil {
		t.Fatal(err)
	}

	id1, sig1 := Function(u, genericFunc(u, "first", "T", nil))
	id2, sig2 := Function(u, genericFunc(u, "first", "R", alias))
	if id1 != id2 {
		t.Fatalf("identifiers differ:\n%s\n%s", sig1, sig2)
	}
	id3, _ := Function(u, genericFunc(u, "other", "T", nil))
	if id3 == id1 {
		t.Fatalf("different owners must not collide")
	}
	if len(id1) != 2*Size {
		t.Fatalf("identifier %q has wrong width", id1)
	}
}

func TestSignatureShape(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	fn := &types.Func{
		Package: "demo",
		Name:    "sum",
		Params: []types.Param{
			{Name: "a", Type: types.MakeClass(b.Int)},
			{Name: "b", Type: types.MakeClass(b.Int)},
		},
		Return: types.MakeClass(b.Int),
	}
	want := "demo.sum:<>(kotlin.Int<>;kotlin.Int<>)kotlin.Int<>"
	if got := Signature(u, fn); got != want {
		t.Fatalf("Signature = %q, want %q", got, want)
	}
	id1, _ := Function(u, fn)
	id2, _ := Function(u, fn)
	if id1 != id2 || id1 != Hash(want) {
		t.Fatalf("identifier not stable")
	}
}

func TestNullabilityDistinguishes(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	mk := func(nullable bool) *types.Func {
		return &types.Func{Package: "demo", Name: "f", Params: []types.Param{
			{Name: "s", Type: types.MakeClass(b.String).WithNullable(nullable)},
		}, Return: types.MakeClass(b.Unit)}
	}
	a, _ := Function(u, mk(false))
	c, _ := Function(u, mk(true))
	if a == c {
		t.Fatalf("String and String? must hash differently")
	}
}

func TestSpecificationUsesOrdinals(t *testing.T) {
	u := types.NewUniverse()
	b := u.Builtins()
	p1 := &types.TypeParam{Name: "A"}
	p2 := &types.TypeParam{Name: "B"}
	args := func(p *types.TypeParam) []types.Arg {
		return []types.Arg{types.OutArg(types.MakeClass(b.List, types.MakeParam(p)))}
	}
	id1, s1 := Specification(u, []*types.TypeParam{p1}, args(p1), "$Context$abc")
	id2, _ := Specification(u, []*types.TypeParam{p2}, args(p2), "$Context$abc")
	if id1 != id2 {
		t.Fatalf("specification identifiers depend on parameter names")
	}
	if want := "$Context$abc with <out kotlin.collections.List<INVARIANT T0>>"; s1 != want {
		t.Fatalf("Specification = %q, want %q", s1, want)
	}
}
