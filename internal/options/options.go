package options

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"dslgen/internal/types"
)

// Generation holds the options of a function annotated for DSL generation.
type Generation struct {
	Marker        *types.Class
	FunctionName  string // entry function name; empty only for nested DSLs, which get none
	ContextName   string // context class name; empty means derive from identifier
	MonoParameter bool
	MakeInline    bool
}

// EntryName is the entry function name used when none is given: the
// function name, or the class name with a lowercase first letter for
// constructors.
func EntryName(fn *types.Func) string {
	name := fn.ShortName()
	if !fn.IsConstructor() || name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToLower(r)) + name[size:]
}

// Child derives the options of a nested DSL reached from a parent: no entry
// function, context name chosen by the naming policy.
func (g Generation) Child() Generation {
	g.FunctionName = ""
	g.ContextName = ""
	return g
}

// PropertyAccessor selects the property-style accessor of a parameter.
type PropertyAccessor uint8

const (
	PropertyOff PropertyAccessor = iota
	PropertyGetter
	PropertyGetterSetter
)

func (p PropertyAccessor) String() string {
	switch p {
	case PropertyGetter:
		return "getter"
	case PropertyGetterSetter:
		return "getter-setter"
	}
	return "off"
}

// ParsePropertyAccessor accepts off, getter and getter-setter.
func ParsePropertyAccessor(s string) (PropertyAccessor, error) {
	switch strings.ToLower(s) {
	case "", "off", "no":
		return PropertyOff, nil
	case "getter":
		return PropertyGetter, nil
	case "getter-setter", "getter_and_setter", "gettersetter":
		return PropertyGetterSetter, nil
	}
	return PropertyOff, fmt.Errorf("invalid property accessor %q (expected: off|getter|getter-setter)", s)
}

// Locator names the function an alternative construction calls.
type Locator struct {
	Package string // package of a top-level function
	Owner   string // qualified class name of a member function or constructor
	Name    string // short name; types.ConstructorName selects constructors
	Params  []*types.Type
	Return  *types.Type // nil means "anything assignable to the target"
}

func (l Locator) String() string {
	var b strings.Builder
	if l.Owner != "" {
		b.WriteString(l.Owner)
		b.WriteByte('/')
	} else if l.Package != "" {
		b.WriteString(l.Package)
		b.WriteByte('.')
	}
	b.WriteString(l.Name)
	if l.Params != nil {
		b.WriteByte('(')
		for i, p := range l.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteByte(')')
	}
	if l.Return != nil {
		b.WriteString(": ")
		b.WriteString(l.Return.String())
	}
	return b.String()
}

// Alternative is a user supplied "use this function instead" construction.
type Alternative struct {
	Locator      Locator
	Element      bool   // targets a collection element instead of the parameter
	AccessorName string // user-facing accessor name
	DslAccessor  bool   // also emit a sub-DSL form
}

// Param holds per-parameter generation options.
type Param struct {
	FunctionGetter             Tri
	FunctionSetter             Tri
	PropertyAccessor           PropertyAccessor
	CollectionAdder            Tri
	CollectionDslAdder         Tri
	CollectionSubFunctionAdder Tri
	DslSetter                  Tri
	SubFunctionSetter          Tri
	Alternatives               []Alternative
}

// Source supplies options for functions and parameters. Functions without
// generation options return ok=false and inherit from their parent.
type Source interface {
	Generation(fn *types.Func) (Generation, bool)
	Param(fn *types.Func, index int) Param
}

// Table is a map-backed Source.
type Table struct {
	gen    map[*types.Func]Generation
	params map[*types.Func]map[int]Param
}

func NewTable() *Table {
	return &Table{
		gen:    make(map[*types.Func]Generation),
		params: make(map[*types.Func]map[int]Param),
	}
}

func (t *Table) SetGeneration(fn *types.Func, g Generation) {
	t.gen[fn] = g
}

func (t *Table) SetParam(fn *types.Func, index int, p Param) {
	m := t.params[fn]
	if m == nil {
		m = make(map[int]Param)
		t.params[fn] = m
	}
	m[index] = p
}

func (t *Table) Generation(fn *types.Func) (Generation, bool) {
	g, ok := t.gen[fn]
	return g, ok
}

func (t *Table) Param(fn *types.Func, index int) Param {
	return t.params[fn][index]
}

// Annotated lists functions with generation options.
func (t *Table) Annotated() []*types.Func {
	out := make([]*types.Func, 0, len(t.gen))
	for fn := range t.gen {
		out = append(out, fn)
	}
	return out
}
