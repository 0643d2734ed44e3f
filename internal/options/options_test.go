package options

import (
	"errors"
	"testing"

	"dslgen/internal/diag"
	"dslgen/internal/types"
)

func TestTriResolve(t *testing.T) {
	cases := []struct {
		tri  Tri
		def  bool
		want bool
	}{
		{Unset, true, true},
		{Unset, false, false},
		{True, false, true},
		{False, true, false},
	}
	for _, tc := range cases {
		if got := tc.tri.Resolve(tc.def); got != tc.want {
			t.Errorf("%s.Resolve(%v) = %v, want %v", tc.tri, tc.def, got, tc.want)
		}
	}
}

func TestValidateMarker(t *testing.T) {
	fn := &types.Func{Package: "demo", Name: "sum", Params: []types.Param{{Name: "a"}, {Name: "b"}}}
	plain := &types.Class{Package: "demo", Name: "Plain"}
	notMarker := &types.Class{Package: "demo", Name: "Ann", Kind: types.ClassAnnotation}
	marker := &types.Class{Package: "demo", Name: "Dsl", Kind: types.ClassAnnotation, DslMarker: true}

	cases := []struct {
		marker *types.Class
		code   diag.Code
	}{
		{nil, diag.CfgMissingMarker},
		{plain, diag.CfgMarkerNotAnnotation},
		{notMarker, diag.CfgMarkerNotDslMarker},
	}
	for _, tc := range cases {
		err := Validate(Generation{Marker: tc.marker}, fn, diag.NopReporter)
		if !errors.Is(err, diag.Sentinel(tc.code)) {
			t.Errorf("marker %v: expected %s, got %v", tc.marker, tc.code.ID(), err)
		}
	}

	bag := diag.NewBag(8)
	if err := Validate(Generation{Marker: marker, MonoParameter: true}, fn, bag); err != nil {
		t.Fatalf("valid marker rejected: %v", err)
	}
	if bag.Len() != 2 || bag.HasErrors() {
		t.Fatalf("expected two monoParameter warnings, got %d", bag.Len())
	}
}

func TestEntryName(t *testing.T) {
	owner := &types.Class{Package: "demo", Name: "MyClass"}
	cases := []struct {
		fn   *types.Func
		want string
	}{
		{&types.Func{Package: "demo", Name: "sum"}, "sum"},
		{&types.Func{Package: "demo", Name: types.ConstructorName, Owner: owner}, "myClass"},
		{&types.Func{Package: "demo", Name: "Build", Owner: owner}, "Build"},
	}
	for _, tc := range cases {
		if got := EntryName(tc.fn); got != tc.want {
			t.Errorf("EntryName(%s) = %q, want %q", tc.fn.QualifiedName(), got, tc.want)
		}
	}
}
