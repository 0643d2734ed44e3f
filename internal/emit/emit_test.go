package emit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dslgen/internal/types"
)

func sampleFile() *File {
	u := types.NewUniverse()
	b := u.Builtins()
	intT := types.MakeClass(b.Int)
	sum := &types.Func{Package: "demo", Name: "sum", Params: []types.Param{
		{Name: "a", Type: intT}, {Name: "b", Type: intT},
	}, Return: intT}
	ctx := &types.Class{Package: "demo", Name: "$Context$00ff"}
	bitA := Bit{Word: 0, Bit: 0, Mask: "$initializationInfo$0", Param: "a"}

	setter := &Func{
		Name:     "a",
		Receiver: ctx.Self(),
		Params:   []Param{{Name: "value", Type: intT}},
		Inline:   true,
		Body: []Stmt{
			RequireUnset{bitA},
			MarkSet{bitA},
			Assign{Field: "$$a$$", Value: Ref{Name: "value"}},
		},
	}
	setter.Suppress("NOTHING_TO_INLINE", "UNCHECKED_CAST", "NOTHING_TO_INLINE")

	create := &Func{
		Name:       "$create$",
		Receiver:   ctx.Self(),
		Return:     intT,
		Visibility: PublishedAPI,
		Body: []Stmt{
			RequireSet{bitA},
			Return{Value: Call{Target: sum, Args: []Arg{{X: FieldRef{Name: "$$a$$"}}, {X: FieldRef{Name: "$$b$$"}}}}},
		},
	}
	return &File{
		Package: "demo",
		Name:    "$Dsl$00ff",
		Classes: []*Class{{
			Decl:       ctx,
			Marker:     "demo.Marker",
			Visibility: PublishedAPI,
			Fields: []*Field{
				{Name: "$$a$$", Type: intT, Init: Lit{Text: "0"}, Visibility: PublishedAPI},
				{Name: "$initializationInfo$0", Type: intT, Init: Lit{Text: "-1"}, Visibility: PublishedAPI},
			},
		}},
		Funcs: []*Func{setter, create},
	}
}

func TestRenderKotlin(t *testing.T) {
	out := string(Render(sampleFile()))
	for _, want := range []string{
		"// Code generated by dslgen. DO NOT EDIT.",
		"package demo",
		"@demo.Marker",
		"internal class `$Context$00ff` {",
		"var `$$a$$`: kotlin.Int = 0",
		`@Suppress("NOTHING_TO_INLINE", "UNCHECKED_CAST")`,
		"inline fun demo.`$Context$00ff`.a(value: kotlin.Int) {",
		`require(this.` + "`$initializationInfo$0`" + ` and (1 shl 0) != 0) { "backing property a has been already initialized" }`,
		"return demo.sum(this.`$$a$$`, this.`$$b$$`)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered output misses %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "@Suppress") != 1 {
		t.Fatalf("suppress annotations must be merged:\n%s", out)
	}
}

func TestMemoryRejectsDuplicates(t *testing.T) {
	m := NewMemory()
	f := sampleFile()
	if err := m.Emit(f); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := m.Emit(f); err == nil {
		t.Fatalf("second emission of %s should fail", f.Path())
	}
	got, ok := m.File("demo.$Dsl$00ff")
	if !ok || got != f {
		t.Fatalf("File lookup failed")
	}
	if len(m.Files()) != 1 {
		t.Fatalf("expected 1 file, got %d", len(m.Files()))
	}
}

func TestDirWritesPackagePath(t *testing.T) {
	root := t.TempDir()
	if err := (Dir{Root: root}).Emit(sampleFile()); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "demo", "$Dsl$00ff.kt"))
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	if !strings.HasPrefix(string(data), header) {
		t.Fatalf("unexpected file content: %s", data)
	}
}

func TestIdentEscaping(t *testing.T) {
	cases := map[string]string{
		"value":   "value",
		"$$a$$":   "`$$a$$`",
		"in":      "`in`",
		"élément": "élément",
	}
	for in, want := range cases {
		if got := ident(in); got != want {
			t.Errorf("ident(%q) = %q, want %q", in, got, want)
		}
	}
}
