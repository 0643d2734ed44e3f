package patch

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"dslgen/internal/bytecode"
	"dslgen/internal/diag"
	"dslgen/internal/naming"
)

const ctxClass = "demo/$Context$0123456789abcdef"

func mask(w int) string { return naming.Default{}.InitializationInfoName(w) }

// createMethod is what the compiler produces for
//
//	fun Context.`$create$`() = callDefaultImplMarker().let { Result(a!!, b!!) }
func createMethod() *bytecode.Method {
	group := func(field string) []bytecode.Insn {
		return []bytecode.Insn{
			{Op: bytecode.Aload, Var: 0},
			{Op: bytecode.Getfield, Owner: ctxClass, Name: field, Desc: "Ljava/lang/String;"},
			{Op: bytecode.Dup},
			{Op: bytecode.Invokestatic, Owner: intrinsicsOwner, Name: checkNotNull, Desc: checkNotNullSig},
		}
	}
	code := []bytecode.Insn{
		{Op: bytecode.Invokestatic, Owner: MarkerOwner, Name: MarkerName, Desc: "()V"},
		{Op: bytecode.New, Owner: "demo/Result"},
		{Op: bytecode.Dup},
	}
	code = append(code, group("$$a$$")...)
	code = append(code, group("$$b$$")...)
	code = append(code,
		bytecode.Insn{Op: bytecode.Invokespecial, Owner: "demo/Result", Name: "<init>", Desc: "(Ljava/lang/String;Ljava/lang/String;)V"},
		bytecode.Insn{Op: bytecode.Areturn},
	)
	return &bytecode.Method{Name: "$create$", Desc: "(L" + ctxClass + ";)Ldemo/Result;", Code: code, MaxStack: 4, MaxLocals: 1}
}

func TestPatchScenario(t *testing.T) {
	in := createMethod()
	out, changed, err := Method(in, mask)
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatalf("marked method was not patched")
	}
	want := []bytecode.Insn{
		{Op: bytecode.New, Owner: "demo/Result"},
		{Op: bytecode.Dup},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: ctxClass, Name: "$$a$$", Desc: "Ljava/lang/String;"},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: ctxClass, Name: "$$b$$", Desc: "Ljava/lang/String;"},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: ctxClass, Name: mask(0), Desc: "I"},
		{Op: bytecode.AconstNull},
		{Op: bytecode.Invokespecial, Owner: "demo/Result", Name: "<init>", Desc: "(Ljava/lang/String;Ljava/lang/String;ILkotlin/jvm/internal/DefaultConstructorMarker;)V"},
		{Op: bytecode.Areturn},
	}
	if !reflect.DeepEqual(out.Code, want) {
		t.Fatalf("patched code:\n%s\nwant:\n%s", out.Listing(), (&bytecode.Method{Code: want}).Listing())
	}
	if out.MaxStack != in.MaxStack+2 {
		t.Fatalf("max stack = %d, want %d", out.MaxStack, in.MaxStack+2)
	}
	if out.MaxLocals != in.MaxLocals {
		t.Fatalf("max locals changed: %d", out.MaxLocals)
	}
}

func TestPatchStaticCall(t *testing.T) {
	m := &bytecode.Method{Name: "$create$", Desc: "(Ldemo/Ctx;)I", MaxStack: 2, MaxLocals: 1, Code: []bytecode.Insn{
		{Op: bytecode.Invokestatic, Owner: MarkerOwner, Name: MarkerName, Desc: "()V"},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: "demo/Ctx", Name: "$$a$$", Desc: "I"},
		{Op: bytecode.Invokestatic, Owner: "demo/SumKt", Name: "sum", Desc: "(II)I"},
		{Op: bytecode.Ireturn},
	}}
	out, changed, err := Method(m, mask)
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	call := out.Code[len(out.Code)-2]
	if call.Name != "sum$default" || call.Desc != "(IIILjava/lang/Object;)I" {
		t.Fatalf("call = %s", call)
	}
}

func TestUnmarkedMethodIsUntouched(t *testing.T) {
	m := createMethod()
	m.Code = m.Code[1:]
	out, changed, err := Method(m, mask)
	if err != nil {
		t.Fatal(err)
	}
	if changed || out != m {
		t.Fatalf("unmarked method must pass through unchanged")
	}
}

func TestManyArgumentsNeedTwoWords(t *testing.T) {
	desc := "("
	for range 33 {
		desc += "I"
	}
	desc += ")V"
	m := &bytecode.Method{Name: "$create$", Desc: "(Ldemo/Ctx;)V", MaxStack: 33, MaxLocals: 1, Code: []bytecode.Insn{
		{Op: bytecode.Invokestatic, Owner: MarkerOwner, Name: MarkerName, Desc: "()V"},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: "demo/Ctx", Name: "$$a$$", Desc: "I"},
		{Op: bytecode.Invokestatic, Owner: "demo/WideKt", Name: "wide", Desc: desc},
		{Op: bytecode.Return},
	}}
	out, _, err := Method(m, mask)
	if err != nil {
		t.Fatal(err)
	}
	if out.MaxStack != 33+3 {
		t.Fatalf("max stack = %d", out.MaxStack)
	}
	if n, _ := bytecode.ArgCount(out.Code[len(out.Code)-2].Desc); n != 33+2+1 {
		t.Fatalf("widened descriptor has %d parameters", n)
	}
}

func TestClassOnlyPatchesCreateFunctions(t *testing.T) {
	other := *createMethod()
	other.Name = "helper"
	withArgs := *createMethod()
	withArgs.Desc = "(L" + ctxClass + ";I)Ldemo/Result;"
	c := &bytecode.Class{Name: "demo/Dsl", Methods: []bytecode.Method{other, withArgs, *createMethod()}}

	out, changed, err := Class(c, Options{CreateName: "$create$", Mask: mask})
	if err != nil || !changed {
		t.Fatalf("changed=%v err=%v", changed, err)
	}
	if !reflect.DeepEqual(out.Methods[0], other) || !reflect.DeepEqual(out.Methods[1], withArgs) {
		t.Fatalf("non-candidate methods were rewritten")
	}
	if reflect.DeepEqual(out.Methods[2], c.Methods[2]) {
		t.Fatalf("create method was not rewritten")
	}
}

func TestBadDescriptor(t *testing.T) {
	m := &bytecode.Method{Name: "$create$", Code: []bytecode.Insn{
		{Op: bytecode.Invokestatic, Owner: MarkerOwner, Name: MarkerName, Desc: "()V"},
		{Op: bytecode.Aload, Var: 0},
		{Op: bytecode.Getfield, Owner: "demo/Ctx", Name: "x", Desc: "I"},
		{Op: bytecode.Invokestatic, Owner: "demo/Kt", Name: "f", Desc: "(Q)V"},
	}}
	_, _, err := Method(m, mask)
	if !errors.Is(err, diag.Sentinel(diag.PatBadDesc)) {
		t.Fatalf("err = %v", err)
	}
}

func TestDirRewritesOnlyChangedFiles(t *testing.T) {
	root := t.TempDir()
	patched := filepath.Join(root, "a", "Dsl"+bytecode.Ext)
	plain := filepath.Join(root, "Plain"+bytecode.Ext)
	if err := mkdirWrite(patched, &bytecode.Class{Name: "demo/Dsl", Methods: []bytecode.Method{*createMethod()}}); err != nil {
		t.Fatal(err)
	}
	unmarked := *createMethod()
	unmarked.Code = unmarked.Code[1:]
	if err := mkdirWrite(plain, &bytecode.Class{Name: "demo/Plain", Methods: []bytecode.Method{unmarked}}); err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 16)
	rep, err := Dir(context.Background(), root, Options{CreateName: "$create$", Mask: mask, Jobs: 2, Progress: ChannelSink{Ch: events}})
	if err != nil {
		t.Fatal(err)
	}
	close(events)
	if rep.Changed != 1 || rep.Failed != 0 || len(rep.Files) != 2 {
		t.Fatalf("report = %+v", rep)
	}
	got, err := bytecode.ReadFile(patched)
	if err != nil {
		t.Fatal(err)
	}
	if got.Methods[0].MaxStack != createMethod().MaxStack+2 {
		t.Fatalf("file was not rewritten")
	}
	done := 0
	for ev := range events {
		if ev.File != "" && ev.Status == StatusDone {
			done++
		}
	}
	if done != 2 {
		t.Fatalf("%d files reported done", done)
	}

	// второй прогон ничего не меняет
	rep, err = Dir(context.Background(), root, Options{CreateName: "$create$", Mask: mask})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Changed != 0 {
		t.Fatalf("patching is not idempotent: %+v", rep)
	}
}
