package eval

import (
	"errors"
	"fmt"
	"testing"

	"dslgen/internal/diag"
	"dslgen/internal/emit"
	"dslgen/internal/types"
)

// wide builds a context with n Int parameters, setters p0..p{n-1} and a
// create function calling demo.wide.
func wide(t *testing.T, n int) (*Program, string) {
	t.Helper()
	u := types.NewUniverse()
	b := u.Builtins()
	intT := types.MakeClass(b.Int)
	ctx := &types.Class{Package: "demo", Name: "WideContext"}
	target := &types.Func{Package: "demo", Name: "wide", Return: intT}

	cls := &emit.Class{Decl: ctx}
	file := &emit.File{Package: "demo", Name: "Wide", Classes: []*emit.Class{cls}}
	create := &emit.Func{Name: "$create$", Role: emit.RoleCreate, Receiver: types.MakeClass(ctx)}
	call := emit.Call{Target: target}
	for i := range n {
		name := fmt.Sprintf("p%d", i)
		target.Params = append(target.Params, types.Param{Name: name, Type: intT})
		cls.Fields = append(cls.Fields, &emit.Field{Name: "$$" + name + "$$", Type: intT, Init: emit.Lit{Text: "0"}})
		bit := emit.Bit{Word: i / 32, Bit: uint(i % 32), Param: name}
		file.Funcs = append(file.Funcs, &emit.Func{
			Name:     name,
			Role:     emit.RoleSetter,
			Receiver: types.MakeClass(ctx),
			Params:   []emit.Param{{Name: "value", Type: intT}},
			Body: []emit.Stmt{
				emit.RequireUnset{Bit: bit},
				emit.MarkSet{Bit: bit},
				emit.Assign{Field: "$$" + name + "$$", Value: emit.Ref{Name: "value"}},
			},
		})
		create.Body = append(create.Body, emit.RequireSet{Bit: bit})
		call.Args = append(call.Args, emit.Arg{X: emit.FieldRef{Name: "$$" + name + "$$"}})
	}
	for w := range (n + 31) / 32 {
		cls.Fields = append(cls.Fields, &emit.Field{Name: fmt.Sprintf("$$initInfo%d$$", w), Type: intT, Init: emit.Lit{Text: "-1"}, Mask: w + 1})
	}
	create.Body = append(create.Body, emit.Return{Value: call})
	file.Funcs = append(file.Funcs, create)

	mem := emit.NewMemory()
	if err := mem.Emit(file); err != nil {
		t.Fatal(err)
	}
	p := NewProgram(mem)
	p.Define("demo.wide", func(args []any) (any, error) {
		sum := 0
		for _, a := range args {
			sum += a.(int)
		}
		return sum, nil
	})
	return p, ctx.QualifiedName()
}

func TestBitmaskAcrossWords(t *testing.T) {
	p, name := wide(t, 40)
	in, err := p.New(name)
	if err != nil {
		t.Fatal(err)
	}
	if m := in.Masks(); len(m) != 2 || m[0] != -1 || m[1] != -1 {
		t.Fatalf("fresh masks = %v", m)
	}
	for _, i := range []int{0, 31, 32, 39} {
		if _, err := in.Call(fmt.Sprintf("p%d", i), i); err != nil {
			t.Fatal(err)
		}
	}
	for i := range 40 {
		want := i == 0 || i == 31 || i == 32 || i == 39
		if in.IsSet(i) != want {
			t.Fatalf("IsSet(%d) = %v", i, in.IsSet(i))
		}
	}
	if _, err := in.Create(); !errors.Is(err, diag.Sentinel(diag.RunRequiredNotSet)) {
		t.Fatalf("create with missing parameters: %v", err)
	}
}

func TestAllParametersWritten(t *testing.T) {
	p, name := wide(t, 33)
	in, err := p.New(name)
	if err != nil {
		t.Fatal(err)
	}
	want := 0
	for i := range 33 {
		want += i
		if _, err := in.Call(fmt.Sprintf("p%d", i), i); err != nil {
			t.Fatal(err)
		}
	}
	if m := in.Masks(); m[0] != 0 || m[1] != -2 {
		t.Fatalf("masks = %b", m)
	}
	got, err := in.Create()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("wide = %v, want %d", got, want)
	}
}

func TestUnknownAccessor(t *testing.T) {
	p, name := wide(t, 1)
	in, err := p.New(name)
	if err != nil {
		t.Fatal(err)
	}
	_, err = in.Call("p0")
	e, ok := diag.AsError(err)
	if !ok || e.Code != diag.RunUnknownAccessor || len(e.Candidates) != 1 {
		t.Fatalf("err = %v", err)
	}
	if _, err := p.New("demo.Missing"); !errors.Is(err, diag.Sentinel(diag.RunUnresolvedContext)) {
		t.Fatalf("unknown context: %v", err)
	}
}

func TestMissingNative(t *testing.T) {
	p, name := wide(t, 1)
	p.natives = map[string]*native{}
	in, err := p.New(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := in.Call("p0", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := in.Create(); !errors.Is(err, diag.Sentinel(diag.RunMissingTarget)) {
		t.Fatalf("err = %v", err)
	}
}

func TestStdlibFactories(t *testing.T) {
	p := NewProgram(emit.NewMemory())
	p.LinkStdlib()
	set, err := p.natives["kotlin.collections.setOf"].fn([]any{[]any{1, 2, 1, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if s := set.([]any); len(s) != 3 || s[2] != 3 {
		t.Fatalf("setOf = %v", s)
	}
	pair, _ := p.natives["kotlin.Pair"].fn([]any{"k", 1})
	m, err := p.natives["kotlin.collections.mapOf"].fn([]any{[]any{pair}})
	if err != nil {
		t.Fatal(err)
	}
	if m.(map[any]any)["k"] != 1 {
		t.Fatalf("mapOf = %v", m)
	}
}
