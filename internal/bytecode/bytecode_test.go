package bytecode

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"dslgen/internal/diag"
)

func TestArgCount(t *testing.T) {
	cases := map[string]int{
		"()V":                                0,
		"(I)V":                               1,
		"(IJ)Ljava/lang/String;":             2,
		"(Ljava/lang/String;[[I[Ldemo/A;Z)V": 4,
		"(Ldemo/Ctx;)Ldemo/Result;":          1,
		"(BCDFIJSZ)V":                        8,
	}
	for desc, want := range cases {
		got, err := ArgCount(desc)
		if err != nil {
			t.Fatalf("%s: %v", desc, err)
		}
		if got != want {
			t.Fatalf("%s: got %d, want %d", desc, got, want)
		}
	}
	for _, bad := range []string{"", "I)V", "(I", "(Ljava/lang/String)V", "([)V", "(X)V"} {
		if _, err := ArgCount(bad); !errors.Is(err, diag.Sentinel(diag.PatBadDesc)) {
			t.Fatalf("%q: err = %v", bad, err)
		}
	}
}

func TestAppendParams(t *testing.T) {
	got, err := AppendParams("(II)I", "ILjava/lang/Object;")
	if err != nil {
		t.Fatal(err)
	}
	if got != "(IIILjava/lang/Object;)I" {
		t.Fatalf("got %s", got)
	}
}

func sample() *Method {
	return &Method{Name: "$create$", Desc: "(Ldemo/Ctx;)V", MaxStack: 3, MaxLocals: 1, Code: []Insn{
		{Op: Aload, Var: 0},
		{Op: Getfield, Owner: "demo/Ctx", Name: "x", Desc: "I"},
		{Op: Ifnull, Label: 1},
		{Op: Ldc, Const: "hello"},
		{Op: Pop},
		{Op: Label, Label: 1},
		{Op: Return},
	}}
}

func TestRecorderReplaysExactly(t *testing.T) {
	m := sample()
	rec := NewRecorder(m.Access, m.Name, m.Desc)
	if err := m.Accept(rec); err != nil {
		t.Fatal(err)
	}
	got, err := rec.Method()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Fatalf("replay differs:\n%s\nwant:\n%s", got.Listing(), m.Listing())
	}
}

func TestAcceptRejectsBadInput(t *testing.T) {
	m := sample()
	m.Code = append(m.Code, Insn{Op: Opcode(42)})
	if err := m.Accept(NewRecorder(0, "x", "()V")); !errors.Is(err, diag.Sentinel(diag.PatBadContainer)) {
		t.Fatalf("unknown opcode: %v", err)
	}
	m = sample()
	m.Code[0].Var = 1 << 20
	if err := m.Accept(NewRecorder(0, "x", "()V")); !errors.Is(err, diag.Sentinel(diag.PatBadContainer)) {
		t.Fatalf("local out of range: %v", err)
	}

	rec := NewRecorder(0, "x", "()V")
	rec.VisitMaxs(1<<17, 0)
	if _, err := rec.Method(); err == nil {
		t.Fatalf("max stack overflow accepted")
	}
}

func TestContainerRoundTrip(t *testing.T) {
	c := &Class{Name: "demo/Dsl", Methods: []Method{*sample()}}
	path := filepath.Join(t.TempDir(), "Dsl"+Ext)
	if err := WriteFile(path, c); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Fatalf("round trip differs: %+v", got)
	}
}

func TestDecodeRejectsForeignData(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte{0xc1})); !errors.Is(err, diag.Sentinel(diag.PatBadContainer)) {
		t.Fatalf("garbage: %v", err)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, &Class{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	data := bytes.Replace(buf.Bytes(), []byte("dslc"), []byte("java"), 1)
	if _, err := Decode(bytes.NewReader(data)); !errors.Is(err, diag.Sentinel(diag.PatBadContainer)) {
		t.Fatalf("bad magic: %v", err)
	}
}
