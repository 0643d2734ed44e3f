package source

import "testing"

func TestLocString(t *testing.T) {
	cases := []struct {
		loc  Loc
		want string
	}{
		{NoLoc, "<synthetic>"},
		{Loc{File: "a.yaml"}, "a.yaml"},
		{Loc{File: "a.yaml", Line: 3}, "a.yaml:3"},
		{Loc{File: "a.yaml", Line: 3, Col: 7}, "a.yaml:3:7"},
	}
	for _, tc := range cases {
		if got := tc.loc.String(); got != tc.want {
			t.Errorf("Loc%+v.String() = %q, want %q", tc.loc, got, tc.want)
		}
	}
}

func TestLocLess(t *testing.T) {
	a := Loc{File: "a.yaml", Line: 2, Col: 1}
	b := Loc{File: "a.yaml", Line: 2, Col: 5}
	c := Loc{File: "b.yaml", Line: 1, Col: 1}
	if !a.Less(b) || b.Less(a) {
		t.Fatalf("column ordering broken")
	}
	if !b.Less(c) {
		t.Fatalf("file ordering broken")
	}
}
