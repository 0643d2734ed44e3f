package types

import (
	"strings"

	"dslgen/internal/source"
)

// DeclKind enumerates what a Type refers to.
type DeclKind uint8

const (
	DeclClass DeclKind = iota + 1
	DeclTypeParam
	DeclAlias
)

// Decl is a class, a type parameter or a type alias.
type Decl interface {
	DeclKind() DeclKind
	QualifiedName() string
}

// ClassKind distinguishes the flavours of class declarations.
type ClassKind uint8

const (
	ClassRegular ClassKind = iota
	ClassInterface
	ClassAnnotation
	ClassObject
)

func (k ClassKind) String() string {
	switch k {
	case ClassInterface:
		return "interface"
	case ClassAnnotation:
		return "annotation"
	case ClassObject:
		return "object"
	}
	return "class"
}

// Field is a stored property. Only previously generated context classes
// carry fields the generator looks at.
type Field struct {
	Name string
	Type *Type
}

type Class struct {
	Package      string
	Name         string
	Kind         ClassKind
	TypeParams   []*TypeParam
	Supertypes   []*Type
	Primary      *Func
	Constructors []*Func
	Functions    []*Func
	Fields       []Field
	Open         bool // may be extended; abstract classes and interfaces are open too
	DslMarker    bool // annotation class marked with DslMarker
	Loc          source.Loc
}

func (c *Class) DeclKind() DeclKind { return DeclClass }

func (c *Class) QualifiedName() string {
	if c.Package == "" {
		return c.Name
	}
	return c.Package + "." + c.Name
}

// Self returns the class applied to its own type parameters.
func (c *Class) Self() *Type {
	t := &Type{Decl: c}
	for _, p := range c.TypeParams {
		t.Args = append(t.Args, Arg{Type: MakeParam(p)})
	}
	return t
}

// StarProjected returns the class with every argument projected to `*`.
func (c *Class) StarProjected() *Type {
	t := &Type{Decl: c}
	for range c.TypeParams {
		t.Args = append(t.Args, StarArg())
	}
	return t
}

// IsFinal reports whether the class cannot be extended.
func (c *Class) IsFinal() bool {
	return !c.Open && c.Kind != ClassInterface
}

type TypeParam struct {
	Name     string
	Index    int
	Owner    string // qualified name of the declaring class, function or alias
	Variance Variance
	Bounds   []*Type
	Reified  bool
}

func (p *TypeParam) DeclKind() DeclKind { return DeclTypeParam }

func (p *TypeParam) QualifiedName() string {
	return p.Name
}

type Alias struct {
	Package    string
	Name       string
	TypeParams []*TypeParam
	Target     *Type
	Loc        source.Loc
}

func (a *Alias) DeclKind() DeclKind { return DeclAlias }

func (a *Alias) QualifiedName() string {
	if a.Package == "" {
		return a.Name
	}
	return a.Package + "." + a.Name
}

// Visibility of a function.
type Visibility uint8

const (
	Public Visibility = iota
	Internal
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Internal:
		return "internal"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// ConstructorName is the function name of constructors.
const ConstructorName = "<init>"

// Synthetic names of receiver parameters.
const (
	DispatchReceiverName = "dispatchReceiver"
	ImplicitReceiverName = "implicitReceiver0"
)

type Param struct {
	Name       string
	Type       *Type // element type for vararg parameters
	HasDefault bool
	Vararg     bool
	Receiver   bool // synthesized from a dispatch or extension receiver
}

type Func struct {
	Package    string
	Owner      *Class // nil for top-level functions
	Name       string
	TypeParams []*TypeParam
	Receiver   *Type // extension receiver
	Params     []Param
	Return     *Type
	Visibility Visibility
	Loc        source.Loc
}

func (f *Func) IsConstructor() bool {
	return f.Name == ConstructorName
}

// QualifiedName is the name used to call the function: the class name for
// constructors, pkg.Class.fn for members and pkg.fn for top-level functions.
func (f *Func) QualifiedName() string {
	if f.Owner != nil {
		if f.IsConstructor() {
			return f.Owner.QualifiedName()
		}
		return f.Owner.QualifiedName() + "." + f.Name
	}
	if f.Package == "" {
		return f.Name
	}
	return f.Package + "." + f.Name
}

// OwnerQualifier is the owner part of a canonical signature:
// pkg.fn for top-level functions and pkg.Class/fn for members.
func (f *Func) OwnerQualifier() string {
	if f.Owner != nil {
		return f.Owner.QualifiedName() + "/" + f.Name
	}
	return f.QualifiedName()
}

// ShortName is the name the user refers to the function by.
func (f *Func) ShortName() string {
	if f.IsConstructor() && f.Owner != nil {
		return f.Owner.Name
	}
	return f.Name
}

// HasDispatchReceiver reports whether calls need an owner instance.
func (f *Func) HasDispatchReceiver() bool {
	return f.Owner != nil && !f.IsConstructor() && f.Owner.Kind != ClassObject
}

// AllParams returns the value parameters preceded by synthetic receiver
// parameters, in call order.
func (f *Func) AllParams() []Param {
	out := make([]Param, 0, len(f.Params)+2)
	if f.HasDispatchReceiver() {
		out = append(out, Param{Name: DispatchReceiverName, Type: f.Owner.Self(), Receiver: true})
	}
	if f.Receiver != nil {
		out = append(out, Param{Name: ImplicitReceiverName, Type: f.Receiver, Receiver: true})
	}
	return append(out, f.Params...)
}

// AllTypeParams returns the owner's type parameters (for members) followed
// by the function's own.
func (f *Func) AllTypeParams() []*TypeParam {
	if f.Owner == nil || len(f.Owner.TypeParams) == 0 || f.Owner.Kind == ClassObject {
		return f.TypeParams
	}
	out := make([]*TypeParam, 0, len(f.Owner.TypeParams)+len(f.TypeParams))
	out = append(out, f.Owner.TypeParams...)
	return append(out, f.TypeParams...)
}

// Describe renders a short human readable signature for error messages.
func (f *Func) Describe() string {
	var b strings.Builder
	b.WriteString(f.QualifiedName())
	b.WriteByte('(')
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Vararg {
			b.WriteString("vararg ")
		}
		b.WriteString(p.Name)
		b.WriteString(": ")
		b.WriteString(p.Type.String())
	}
	b.WriteByte(')')
	if f.Return != nil {
		b.WriteString(": ")
		b.WriteString(f.Return.String())
	}
	return b.String()
}
