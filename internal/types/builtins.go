package types

import (
	"strings"
)

// Builtins stores the classes the generator treats specially.
type Builtins struct {
	Any     *Class
	Nothing *Class
	Unit    *Class
	Boolean *Class
	Byte    *Class
	Short   *Class
	Char    *Class
	Int     *Class
	Long    *Class
	Float   *Class
	Double  *Class
	String  *Class
	Array   *Class
	Pair    *Class

	// PrimitiveArrays maps IntArray and friends to their element class.
	PrimitiveArrays map[*Class]*Class

	Iterable          *Class
	MutableIterable   *Class
	Collection        *Class
	MutableCollection *Class
	List              *Class
	MutableList       *Class
	ArrayList         *Class
	Set               *Class
	MutableSet        *Class
	HashSet           *Class
	Map               *Class
	MutableMap        *Class
	HashMap           *Class
	Sequence          *Class
}

// Well-known qualified names.
const (
	AnyName       = "kotlin.Any"
	NothingName   = "kotlin.Nothing"
	UnitName      = "kotlin.Unit"
	ArrayName     = "kotlin.Array"
	DslMarkerName = "kotlin.DslMarker"
	PkgKotlin     = "kotlin"
	PkgCollection = "kotlin.collections"
	PkgSequences  = "kotlin.sequences"
)

// params builds type parameters from specs like "out T", "in K" or "reified T".
func params(owner string, specs ...string) []*TypeParam {
	out := make([]*TypeParam, len(specs))
	for i, s := range specs {
		p := &TypeParam{Owner: owner, Index: i}
		for _, f := range strings.Fields(s) {
			switch f {
			case "out":
				p.Variance = Covariant
			case "in":
				p.Variance = Contravariant
			case "reified":
				p.Reified = true
			default:
				p.Name = f
			}
		}
		out[i] = p
	}
	return out
}

func (u *Universe) builtinClass(pkg, name string, kind ClassKind, open bool, tps ...string) *Class {
	c := &Class{Package: pkg, Name: name, Kind: kind, Open: open}
	c.TypeParams = params(c.QualifiedName(), tps...)
	if err := u.AddClass(c); err != nil {
		panic(err)
	}
	return c
}

// extends adds a supertype applying c's own type parameters positionally.
func extends(c *Class, super *Class, argIdx ...int) {
	t := &Type{Decl: super}
	for _, i := range argIdx {
		t.Args = append(t.Args, Arg{Type: MakeParam(c.TypeParams[i])})
	}
	c.Supertypes = append(c.Supertypes, t)
}

func (u *Universe) builtinFunc(pkg, name string, ret func(tps []*TypeParam) *Type, tps []string, ps ...Param) *Func {
	f := &Func{Package: pkg, Name: name}
	f.TypeParams = params(pkg+"."+name, tps...)
	for i := range ps {
		if ps[i].Type == nil {
			ps[i].Type = MakeParam(f.TypeParams[0])
		}
	}
	f.Params = ps
	f.Return = ret(f.TypeParams)
	u.AddFunc(f)
	return f
}

func (u *Universe) seed() {
	b := &u.builtins
	b.Any = u.builtinClass(PkgKotlin, "Any", ClassRegular, true)
	b.Nothing = u.builtinClass(PkgKotlin, "Nothing", ClassRegular, false)
	b.Unit = u.builtinClass(PkgKotlin, "Unit", ClassObject, false)
	b.Boolean = u.builtinClass(PkgKotlin, "Boolean", ClassRegular, false)
	b.Byte = u.builtinClass(PkgKotlin, "Byte", ClassRegular, false)
	b.Short = u.builtinClass(PkgKotlin, "Short", ClassRegular, false)
	b.Char = u.builtinClass(PkgKotlin, "Char", ClassRegular, false)
	b.Int = u.builtinClass(PkgKotlin, "Int", ClassRegular, false)
	b.Long = u.builtinClass(PkgKotlin, "Long", ClassRegular, false)
	b.Float = u.builtinClass(PkgKotlin, "Float", ClassRegular, false)
	b.Double = u.builtinClass(PkgKotlin, "Double", ClassRegular, false)
	b.String = u.builtinClass(PkgKotlin, "String", ClassRegular, false)
	b.Array = u.builtinClass(PkgKotlin, "Array", ClassRegular, false, "T")
	u.builtinClass(PkgKotlin, "DslMarker", ClassAnnotation, false)

	b.PrimitiveArrays = map[*Class]*Class{}
	for _, elem := range []*Class{b.Boolean, b.Byte, b.Short, b.Char, b.Int, b.Long, b.Float, b.Double} {
		arr := u.builtinClass(PkgKotlin, elem.Name+"Array", ClassRegular, false)
		b.PrimitiveArrays[arr] = elem
	}

	b.Pair = u.builtinClass(PkgKotlin, "Pair", ClassRegular, false, "out A", "out B")
	pairCtor := &Func{Package: PkgKotlin, Owner: b.Pair, Name: ConstructorName, Params: []Param{
		{Name: "first", Type: MakeParam(b.Pair.TypeParams[0])},
		{Name: "second", Type: MakeParam(b.Pair.TypeParams[1])},
	}, Return: b.Pair.Self()}
	b.Pair.Primary = pairCtor
	u.AddFunc(pairCtor)

	b.Iterable = u.builtinClass(PkgCollection, "Iterable", ClassInterface, true, "out T")
	b.MutableIterable = u.builtinClass(PkgCollection, "MutableIterable", ClassInterface, true, "out T")
	extends(b.MutableIterable, b.Iterable, 0)
	b.Collection = u.builtinClass(PkgCollection, "Collection", ClassInterface, true, "out E")
	extends(b.Collection, b.Iterable, 0)
	b.MutableCollection = u.builtinClass(PkgCollection, "MutableCollection", ClassInterface, true, "E")
	extends(b.MutableCollection, b.Collection, 0)
	extends(b.MutableCollection, b.MutableIterable, 0)
	b.List = u.builtinClass(PkgCollection, "List", ClassInterface, true, "out E")
	extends(b.List, b.Collection, 0)
	b.MutableList = u.builtinClass(PkgCollection, "MutableList", ClassInterface, true, "E")
	extends(b.MutableList, b.List, 0)
	extends(b.MutableList, b.MutableCollection, 0)
	b.ArrayList = u.builtinClass(PkgCollection, "ArrayList", ClassRegular, true, "E")
	extends(b.ArrayList, b.MutableList, 0)
	b.Set = u.builtinClass(PkgCollection, "Set", ClassInterface, true, "out E")
	extends(b.Set, b.Collection, 0)
	b.MutableSet = u.builtinClass(PkgCollection, "MutableSet", ClassInterface, true, "E")
	extends(b.MutableSet, b.Set, 0)
	extends(b.MutableSet, b.MutableCollection, 0)
	b.HashSet = u.builtinClass(PkgCollection, "HashSet", ClassRegular, true, "E")
	extends(b.HashSet, b.MutableSet, 0)
	b.Map = u.builtinClass(PkgCollection, "Map", ClassInterface, true, "K", "out V")
	b.MutableMap = u.builtinClass(PkgCollection, "MutableMap", ClassInterface, true, "K", "V")
	extends(b.MutableMap, b.Map, 0, 1)
	b.HashMap = u.builtinClass(PkgCollection, "HashMap", ClassRegular, true, "K", "V")
	extends(b.HashMap, b.MutableMap, 0, 1)
	b.Sequence = u.builtinClass(PkgSequences, "Sequence", ClassInterface, true, "out T")

	apply := func(c *Class) func([]*TypeParam) *Type {
		return func(tps []*TypeParam) *Type {
			t := &Type{Decl: c}
			for _, p := range tps {
				t.Args = append(t.Args, Arg{Type: MakeParam(p)})
			}
			return t
		}
	}
	vararg := func(name string) Param { return Param{Name: name, Vararg: true} }

	u.builtinFunc(PkgKotlin, "arrayOf", apply(b.Array), []string{"reified T"}, vararg("elements"))

	single := []struct {
		name string
		cls  *Class
	}{
		{"listOf", b.List},
		{"mutableListOf", b.MutableList},
		{"arrayListOf", b.ArrayList},
		{"setOf", b.Set},
		{"mutableSetOf", b.MutableSet},
		{"hashSetOf", b.HashSet},
	}
	for _, s := range single {
		u.builtinFunc(PkgCollection, s.name, apply(s.cls), []string{"T"})
		u.builtinFunc(PkgCollection, s.name, apply(s.cls), []string{"T"}, vararg("elements"))
	}
	u.builtinFunc(PkgCollection, "listOf", apply(b.List), []string{"T"}, Param{Name: "element"})
	u.builtinFunc(PkgCollection, "setOf", apply(b.Set), []string{"T"}, Param{Name: "element"})

	pairOf := func(tps []*TypeParam) *Type {
		return MakeClass(b.Pair, MakeParam(tps[0]), MakeParam(tps[1]))
	}
	for _, s := range []struct {
		name string
		cls  *Class
	}{
		{"mapOf", b.Map},
		{"mutableMapOf", b.MutableMap},
		{"hashMapOf", b.HashMap},
	} {
		u.builtinFunc(PkgCollection, s.name, apply(s.cls), []string{"K", "V"})
		f := u.builtinFunc(PkgCollection, s.name, apply(s.cls), []string{"K", "V"})
		f.Params = []Param{{Name: "pairs", Vararg: true, Type: pairOf(f.TypeParams)}}
	}
	f := u.builtinFunc(PkgCollection, "mapOf", apply(b.Map), []string{"K", "V"})
	f.Params = []Param{{Name: "pair", Type: pairOf(f.TypeParams)}}

	u.builtinFunc(PkgSequences, "sequenceOf", apply(b.Sequence), []string{"T"}, vararg("elements"))
}
