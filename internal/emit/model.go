package emit

import (
	"slices"

	"dslgen/internal/types"
)

type Visibility uint8

const (
	Public Visibility = iota
	Internal
	// PublishedAPI is internal but reachable from public inline functions.
	PublishedAPI
)

// File is one generated source file.
type File struct {
	Package string
	Name    string
	Classes []*Class
	Funcs   []*Func
}

// Path is the package-qualified file name.
func (f *File) Path() string {
	if f.Package == "" {
		return f.Name
	}
	return f.Package + "." + f.Name
}

// Class is a generated context class with a no-arg constructor.
type Class struct {
	Decl       *types.Class // the class as seen by the type model
	Marker     string       // qualified name of the DSL marker annotation
	Visibility Visibility
	Fields     []*Field
}

func (c *Class) Name() string { return c.Decl.Name }

type Field struct {
	Name       string
	Type       *types.Type
	Init       Expr
	Visibility Visibility
	Mask       int // 1 + word index for bitmask fields, 0 otherwise
}

type FuncKind uint8

const (
	FuncPlain FuncKind = iota
	FuncPropertyGetter
	FuncPropertySetter
)

// Role tells what a generated function does for its context.
type Role uint8

const (
	RoleOther Role = iota
	RoleGetter
	RoleSetter
	RoleProperty
	RoleAdder
	RoleDslAdder
	RoleSubAdder
	RoleDslSetter
	RoleSubSetter
	RoleCreate
	RoleEntry
)

var roleNames = [...]string{"other", "getter", "setter", "property", "adder", "dsl-adder", "sub-adder", "dsl-setter", "sub-setter", "create", "entry"}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "other"
}

// TypeParam is a type parameter of a generated function.
type TypeParam struct {
	Param   *types.TypeParam
	Reified bool
}

type Param struct {
	Name     string
	Type     *types.Type // element type for vararg parameters
	Vararg   bool
	NoInline bool
	// BuilderOf turns the parameter into a `BuilderOf.() -> Unit` lambda.
	BuilderOf *types.Type
}

// Func is a generated function. Accessors are extensions on their context
// class (Receiver).
type Func struct {
	Name       string
	Kind       FuncKind
	Role       Role
	Receiver   *types.Type
	TypeParams []TypeParam
	Params     []Param
	Return     *types.Type // nil means Unit
	Inline     bool
	Visibility Visibility
	OptIn      []string
	// CallsInPlace names a lambda parameter invoked exactly once.
	CallsInPlace string
	Body         []Stmt

	suppress map[string]struct{}
}

// Suppress adds warning categories. Each category is kept once.
func (f *Func) Suppress(categories ...string) {
	if f.suppress == nil {
		f.suppress = make(map[string]struct{}, len(categories))
	}
	for _, c := range categories {
		f.suppress[c] = struct{}{}
	}
}

// Suppressed returns the merged categories, sorted.
func (f *Func) Suppressed() []string {
	out := make([]string, 0, len(f.suppress))
	for c := range f.suppress {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Stmt is a statement of a generated function body.
type Stmt interface{ stmt() }

// Bit addresses one parameter in the initialization bitmask.
type Bit struct {
	Word  int
	Bit   uint
	Mask  string // bitmask field holding Word
	Param string // logical parameter name for error messages
}

// RequireSet fails unless the parameter has been written.
type RequireSet struct{ Bit }

// RequireUnset fails if the parameter has already been written.
type RequireUnset struct{ Bit }

// MarkSet clears the parameter's bit.
type MarkSet struct{ Bit }

// Assign stores Value into a backing field of the receiver.
type Assign struct {
	Field string
	Value Expr
}

// Append adds Value to the list held by a backing field.
type Append struct {
	Field string
	Value Expr
}

// DefaultsMarker is the call the bytecode patcher rewrites.
type DefaultsMarker struct{}

type Return struct{ Value Expr }

func (RequireSet) stmt()     {}
func (RequireUnset) stmt()   {}
func (MarkSet) stmt()        {}
func (Assign) stmt()         {}
func (Append) stmt()         {}
func (DefaultsMarker) stmt() {}
func (Return) stmt()         {}

// Expr is an expression of a generated function body.
type Expr interface{ expr() }

// Lit is a literal written in target syntax, e.g. "0", "null", "0L".
type Lit struct{ Text string }

// Ref reads a parameter.
type Ref struct{ Name string }

// FieldRef reads a backing field of the receiver.
type FieldRef struct{ Name string }

// EmptyList is a fresh mutable list.
type EmptyList struct{ Elem *types.Type }

type CastKind uint8

const (
	CastNone CastKind = iota
	CastNotNull
	CastUnchecked
)

// Cast narrows a backing field value to the parameter type.
type Cast struct {
	X    Expr
	Kind CastKind
	To   *types.Type
}

// ToArray converts a list into an array. Conversion is "Typed" for
// Array<T> or the primitive element name (IntArray and friends).
type ToArray struct {
	X          Expr
	Conversion string
}

type Arg struct {
	X      Expr
	Spread bool
}

// Call invokes a declared function. Receiver parameters come first in Args.
type Call struct {
	Target   *types.Func
	TypeArgs []*types.Type
	Args     []Arg
}

// Build creates a context, applies the builder lambda Block to it and
// returns the result of its create function.
type Build struct {
	Context *types.Type
	Block   string
	Create  string
}

func (Lit) expr()       {}
func (Ref) expr()       {}
func (FieldRef) expr()  {}
func (EmptyList) expr() {}
func (Cast) expr()      {}
func (ToArray) expr()   {}
func (Call) expr()      {}
func (Build) expr()     {}
