// Package testkit builds the small declaration universe shared by the
// generator tests.
package testkit

import (
	"dslgen/internal/options"
	"dslgen/internal/source"
	"dslgen/internal/types"
)

const Pkg = "demo"

// Fixture holds the declarations of package demo:
//
//	annotation class Dsl                       (DslMarker)
//	class MyClass(a: Int, b: String)
//	class Box<T>(value: T)
//	class Node(label: String, next: Node?)
//	fun sum(a: Int, b: Int): Int
//	fun holder(value: MyClass): MyClass
//	fun format(vararg items: String): String
//	fun names(items: List<String>): Int
//	fun boxed(box: Box<MyClass>): Box<MyClass>
//	fun unboxed(box: Box<MyClass>): MyClass
//	fun greet(name: String, greeting: String = ...): String
type Fixture struct {
	U *types.Universe
	B *types.Builtins

	Marker  *types.Class
	MyClass *types.Class
	Box     *types.Class
	Node    *types.Class

	Sum     *types.Func
	Holder  *types.Func
	Format  *types.Func
	Names   *types.Func
	Boxed   *types.Func
	Unboxed *types.Func
	Greet   *types.Func
}

func loc(line uint32) source.Loc { return source.Loc{File: "demo.yaml", Line: line} }

// New builds a fresh universe; fixtures are never shared between tests.
func New() *Fixture {
	u := types.NewUniverse()
	b := u.Builtins()
	f := &Fixture{U: u, B: b}
	intT, strT := types.MakeClass(b.Int), types.MakeClass(b.String)

	f.Marker = f.class(&types.Class{Package: Pkg, Name: "Dsl", Kind: types.ClassAnnotation, DslMarker: true, Loc: loc(1)})

	f.MyClass = f.class(&types.Class{Package: Pkg, Name: "MyClass", Loc: loc(2)})
	f.MyClass.Primary = f.ctor(f.MyClass, types.Param{Name: "a", Type: intT}, types.Param{Name: "b", Type: strT})

	f.Box = f.class(&types.Class{Package: Pkg, Name: "Box", Loc: loc(3)})
	t := &types.TypeParam{Name: "T", Owner: f.Box.QualifiedName()}
	f.Box.TypeParams = []*types.TypeParam{t}
	f.Box.Primary = f.ctor(f.Box, types.Param{Name: "value", Type: types.MakeParam(t)})

	f.Node = f.class(&types.Class{Package: Pkg, Name: "Node", Loc: loc(4)})
	f.Node.Primary = f.ctor(f.Node,
		types.Param{Name: "label", Type: strT},
		types.Param{Name: "next", Type: types.MakeClass(f.Node).WithNullable(true)},
	)

	my := types.MakeClass(f.MyClass)
	boxOfMy := types.MakeClass(f.Box, my)
	f.Sum = f.fn(10, "sum", intT, types.Param{Name: "a", Type: intT}, types.Param{Name: "b", Type: intT})
	f.Holder = f.fn(11, "holder", my, types.Param{Name: "value", Type: my})
	f.Format = f.fn(12, "format", strT, types.Param{Name: "items", Type: strT, Vararg: true})
	f.Names = f.fn(13, "names", intT, types.Param{Name: "items", Type: types.MakeClass(b.List, strT)})
	f.Boxed = f.fn(14, "boxed", boxOfMy, types.Param{Name: "box", Type: boxOfMy})
	f.Unboxed = f.fn(15, "unboxed", my, types.Param{Name: "box", Type: boxOfMy})
	f.Greet = f.fn(16, "greet", strT,
		types.Param{Name: "name", Type: strT},
		types.Param{Name: "greeting", Type: strT, HasDefault: true},
	)
	return f
}

func (f *Fixture) class(c *types.Class) *types.Class {
	if err := f.U.AddClass(c); err != nil {
		panic(err)
	}
	return c
}

func (f *Fixture) ctor(c *types.Class, ps ...types.Param) *types.Func {
	fn := &types.Func{Package: Pkg, Owner: c, Name: types.ConstructorName, Params: ps, Return: c.Self(), Loc: c.Loc}
	f.U.AddFunc(fn)
	return fn
}

func (f *Fixture) fn(line uint32, name string, ret *types.Type, ps ...types.Param) *types.Func {
	fn := &types.Func{Package: Pkg, Name: name, Params: ps, Return: ret, Loc: loc(line)}
	f.U.AddFunc(fn)
	return fn
}

// Generation returns options with the demo marker, makeInline on and the
// given entry function name; "" leaves the entry function out.
func (f *Fixture) Generation(entry string) options.Generation {
	return options.Generation{Marker: f.Marker, FunctionName: entry, MakeInline: true}
}

// Options annotates every fn the way a bare generate block does: default
// entry function name, makeInline on.
func (f *Fixture) Options(fns ...*types.Func) *options.Table {
	t := options.NewTable()
	for _, fn := range fns {
		t.SetGeneration(fn, f.Generation(options.EntryName(fn)))
	}
	return t
}
