package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dslgen/internal/diag"
	"dslgen/internal/dsl"
	"dslgen/internal/emit"
	"dslgen/internal/eval"
	"dslgen/internal/options"
	"dslgen/internal/types"
)

const demo = `
package: demo
markers: [Dsl]
classes:
  - name: MyClass
    constructor:
      params:
        - {name: a, type: Int}
        - {name: b, type: String}
  - name: Box
    typeParams: [out T]
    constructor:
      params:
        - {name: value, type: T}
  - name: Shape
    kind: interface
  - name: Circle
    supertypes: [Shape]
    constructor:
      params:
        - {name: r, type: Double}
aliases:
  - name: Boxes
    typeParams: [T]
    target: List<Box<T>>
functions:
  - name: sum
    returns: Int
    params:
      - {name: a, type: Int}
      - {name: b, type: Int, default: true}
    generate:
      marker: Dsl
      functionName: sum
  - name: pairs
    typeParams: ["K : Any", V]
    returns: kotlin.Pair<K, List<out V>>?
    params:
      - name: items
        type: Map<K, *>
        options:
          propertyAccessor: getter
          collectionAdder: false
          alternatives:
            - {name: mapOf, package: kotlin.collections, element: true, accessorName: entry}
`

func load(t *testing.T, src string) *Result {
	t.Helper()
	f, err := Parse([]byte(src), "demo.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := Build(map[string]*File{"demo.yaml": f})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res
}

func TestParseType(t *testing.T) {
	cases := []struct {
		src  string
		args int
		null bool
		ok   bool
	}{
		{"Int", 0, false, true},
		{"kotlin.Pair<A, List<out B>>?", 2, true, true},
		{"Map<*, in T>", 2, false, true},
		{"List<out>", 1, false, true},
		{"List<", 0, false, false},
		{"A B", 0, false, false},
		{"<T>", 0, false, false},
	}
	for _, c := range cases {
		te, err := parseType(c.src)
		if (err == nil) != c.ok {
			t.Fatalf("parseType(%q) err = %v", c.src, err)
		}
		if !c.ok {
			continue
		}
		if len(te.Args) != c.args || te.Nullable != c.null {
			t.Fatalf("parseType(%q) = %+v", c.src, te)
		}
	}
	te, _ := parseType("List<out>")
	if te.Args[0].Variance != types.Invariant || te.Args[0].Type.Name != "out" {
		t.Fatalf("`out` alone must be a type name: %+v", te.Args[0])
	}
}

func TestLoadDeclarations(t *testing.T) {
	res := load(t, demo)
	u := res.Universe

	marker, ok := u.ClassByName("demo.Dsl")
	if !ok || !marker.DslMarker || marker.Kind != types.ClassAnnotation {
		t.Fatalf("marker = %+v", marker)
	}
	box, _ := u.ClassByName("demo.Box")
	if box.Primary == nil || box.TypeParams[0].Variance != types.Covariant {
		t.Fatalf("Box = %+v", box)
	}
	if got := box.Primary.Params[0].Type.Param(); got != box.TypeParams[0] {
		t.Fatalf("Box ctor param bound to %v", got)
	}
	circle, _ := u.ClassByName("demo.Circle")
	shape, _ := u.ClassByName("demo.Shape")
	if !u.IsAssignable(types.MakeClass(circle), types.MakeClass(shape)) {
		t.Fatalf("Circle must be assignable to Shape")
	}
	if box.Loc.File != "demo.yaml" || box.Loc.Line == 0 {
		t.Fatalf("Box loc = %v", box.Loc)
	}

	alias, ok := u.AliasByName("demo.Boxes")
	if !ok || alias.Target.Class() != u.Builtins().List {
		t.Fatalf("alias = %+v", alias)
	}

	if len(res.Annotated) != 1 || res.Annotated[0].Name != "sum" {
		t.Fatalf("annotated = %v", res.Annotated)
	}
	sum := res.Annotated[0]
	g, ok := res.Options.Generation(sum)
	if !ok || g.Marker != marker || g.FunctionName != "sum" {
		t.Fatalf("generation = %+v", g)
	}
	if !sum.Params[1].HasDefault || sum.Params[0].HasDefault {
		t.Fatalf("defaults = %+v", sum.Params)
	}

	pairs := u.FindFunctions(types.Scope{Package: "demo"}, "pairs")[0]
	if got := pairs.Return.String(); !strings.Contains(got, "Pair") || !pairs.Return.Nullable {
		t.Fatalf("pairs return = %s", got)
	}
	if len(pairs.TypeParams[0].Bounds) != 1 {
		t.Fatalf("K bounds = %v", pairs.TypeParams[0].Bounds)
	}
	if pairs.Params[0].Type.Args[1].Variance != types.Star {
		t.Fatalf("items arg = %v", pairs.Params[0].Type)
	}
	opt := res.Options.Param(pairs, 0)
	if opt.PropertyAccessor != options.PropertyGetter || opt.CollectionAdder != options.False || opt.DslSetter != options.Unset {
		t.Fatalf("options = %+v", opt)
	}
	if len(opt.Alternatives) != 1 || !opt.Alternatives[0].Element || opt.Alternatives[0].Locator.Package != "kotlin.collections" {
		t.Fatalf("alternatives = %+v", opt.Alternatives)
	}
}

func TestErrorsCarryLocation(t *testing.T) {
	cases := map[string]string{
		"unknown type": `
package: demo
functions:
  - name: f
    params:
      - {name: a, type: Nope}
`,
		"arity": `
package: demo
functions:
  - name: f
    params:
      - {name: a, type: List<Int, Int>}
`,
		"duplicate param": `
package: demo
functions:
  - name: f
    params:
      - {name: a, type: Int}
      - {name: a, type: Int}
`,
	}
	for name, src := range cases {
		f, err := Parse([]byte(src), "bad.yaml")
		if err != nil {
			t.Fatalf("%s: Parse: %v", name, err)
		}
		_, err = Build(map[string]*File{"bad.yaml": f})
		if !errors.Is(err, diag.Sentinel(diag.CfgBadDeclaration)) {
			t.Fatalf("%s: err = %v", name, err)
		}
		de, _ := diag.AsError(err)
		if de.Loc.File != "bad.yaml" || de.Loc.Line < 5 {
			t.Fatalf("%s: loc = %v", name, de.Loc)
		}
	}

	_, err := Parse([]byte("package: [oops"), "broken.yaml")
	if !errors.Is(err, diag.Sentinel(diag.CfgBadDeclaration)) {
		t.Fatalf("syntax error = %v", err)
	}
}

func TestBadPropertyAccessor(t *testing.T) {
	f, err := Parse([]byte(`
package: demo
functions:
  - name: f
    params:
      - name: a
        type: Int
        options: {propertyAccessor: sideways}
`), "p.yaml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = Build(map[string]*File{"p.yaml": f})
	if !errors.Is(err, diag.Sentinel(diag.CfgBadParamOption)) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadDirAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	// a.yaml refers to a class declared in b.yaml
	write := func(name, body string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write("a.yaml", `
package: app
functions:
  - name: make
    returns: lib.Point
    params:
      - {name: p, type: lib.Point}
`)
	write("b.yml", `
package: lib
classes:
  - name: Point
    constructor:
      params: [{name: x, type: Int}]
`)
	write("notes.txt", "ignored")

	res, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(res.Files) != 2 {
		t.Fatalf("files = %v", res.Files)
	}
	fn := res.Universe.FindFunctions(types.Scope{Package: "app"}, "make")
	if len(fn) != 1 || fn[0].Return.Class().QualifiedName() != "lib.Point" {
		t.Fatalf("make = %v", fn)
	}
}

func TestLoadedDeclarationsGenerate(t *testing.T) {
	res := load(t, demo)
	mem := emit.NewMemory()
	s, err := dsl.NewSession(dsl.Config{
		Oracle:   res.Universe,
		Builtins: res.Universe.Builtins(),
		Emitter:  mem,
		Options:  res.Options,

		AllowDefaultArgs: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ProcessFunction(context.Background(), res.Annotated[0]); err != nil {
		t.Fatalf("ProcessFunction: %v", err)
	}

	prog := eval.NewProgram(mem)
	prog.LinkStdlib()
	prog.DefineDefaults("demo.sum", func(args []any, masks []int32) (any, error) {
		b := 10
		if masks[0]&2 == 0 {
			b = args[1].(int)
		}
		return args[0].(int) + b, nil
	})
	got, err := prog.Entry("demo.sum", func(in *eval.Instance) error {
		_, err := in.Call("a", 5)
		return err
	})
	if err != nil {
		t.Fatalf("sum {}: %v", err)
	}
	if got != 15 {
		t.Fatalf("sum { a(5) } = %v, want 15", got)
	}
}

const bare = `
package: demo
markers: [Dsl]
functions:
  - name: sum
    returns: Int
    params:
      - {name: a, type: Int}
    generate:
      marker: Dsl
  - name: diff
    returns: Int
    params:
      - {name: a, type: Int}
    generate:
      marker: Dsl
      makeInline: false
`

func TestGenerateDefaults(t *testing.T) {
	res := load(t, bare)
	byName := map[string]*types.Func{}
	for _, fn := range res.Annotated {
		byName[fn.ShortName()] = fn
	}
	sum, diff := byName["sum"], byName["diff"]
	if sum == nil || diff == nil {
		t.Fatalf("annotated = %v", res.Annotated)
	}

	g, ok := res.Options.Generation(sum)
	if !ok || g.FunctionName != "sum" || !g.MakeInline {
		t.Fatalf("sum generation = %+v, %v", g, ok)
	}
	if g, _ := res.Options.Generation(diff); g.MakeInline {
		t.Fatalf("diff: makeInline: false не сохранился")
	}

	mem := emit.NewMemory()
	s, err := dsl.NewSession(dsl.Config{
		Oracle:   res.Universe,
		Builtins: res.Universe.Builtins(),
		Emitter:  mem,
		Options:  res.Options,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ProcessFunction(context.Background(), sum); err != nil {
		t.Fatalf("ProcessFunction: %v", err)
	}
	var entry *emit.Func
	for _, f := range mem.Files() {
		for _, fn := range f.Funcs {
			if fn.Role == emit.RoleEntry {
				entry = fn
			}
		}
	}
	if entry == nil || entry.Name != "sum" {
		t.Fatalf("entry = %+v, want func sum", entry)
	}
	if !entry.Inline {
		t.Fatalf("entry sum is not inline")
	}
}
