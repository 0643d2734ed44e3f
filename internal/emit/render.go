package emit

import (
	"strconv"
	"strings"

	"dslgen/internal/types"
)

// MarkerFunc is the zero-argument call the default-argument patcher looks for.
const MarkerFunc = "dslgen.annotations.callDefaultImplMarker"

const header = "// Code generated by dslgen. DO NOT EDIT."

// Render prints f as Kotlin source.
func Render(f *File) []byte {
	p := printer{}
	p.file(f)
	return p.w.Bytes()
}

type printer struct {
	w writer
}

func (p *printer) file(f *File) {
	p.w.Line(header)
	p.w.Blank()
	if f.Package != "" {
		p.w.Line("package " + qualified(f.Package))
		p.w.Blank()
	}
	for _, c := range f.Classes {
		p.class(c)
		p.w.Blank()
	}
	setters := map[string]*Func{}
	for _, fn := range f.Funcs {
		if fn.Kind == FuncPropertySetter {
			setters[fn.Name] = fn
		}
	}
	for _, fn := range f.Funcs {
		switch fn.Kind {
		case FuncPropertySetter:
			continue
		case FuncPropertyGetter:
			p.property(fn, setters[fn.Name])
		default:
			p.fn(fn)
		}
		p.w.Blank()
	}
}

func (p *printer) visibility(v Visibility) {
	switch v {
	case Internal:
		p.w.WriteString("internal ")
	case PublishedAPI:
		p.w.Line("@PublishedApi")
		p.w.WriteString("internal ")
	}
}

func (p *printer) class(c *Class) {
	if c.Marker != "" {
		p.w.Line("@" + qualified(c.Marker))
	}
	p.visibility(c.Visibility)
	p.w.WriteString("class " + ident(c.Name()))
	if tps := c.Decl.TypeParams; len(tps) > 0 {
		p.w.WriteString("<")
		for i, tp := range tps {
			if i > 0 {
				p.w.WriteString(", ")
			}
			p.w.WriteString(ident(tp.Name))
			p.bounds(tp)
		}
		p.w.WriteString(">")
	}
	p.w.Line(" {")
	p.w.IndentPush()
	for _, f := range c.Fields {
		p.visibility(f.Visibility)
		p.w.WriteString("var " + ident(f.Name) + ": " + typeString(f.Type))
		if f.Init != nil {
			p.w.WriteString(" = ")
			p.expr(f.Init)
		}
		p.w.Newline()
	}
	p.w.IndentPop()
	p.w.Line("}")
}

func (p *printer) bounds(tp *types.TypeParam) {
	if len(tp.Bounds) == 1 {
		p.w.WriteString(" : " + typeString(tp.Bounds[0]))
	}
}

func (p *printer) annotations(fn *Func) {
	if s := fn.Suppressed(); len(s) > 0 {
		quoted := make([]string, len(s))
		for i, c := range s {
			quoted[i] = strconv.Quote(c)
		}
		p.w.Line("@Suppress(" + strings.Join(quoted, ", ") + ")")
	}
	for _, o := range fn.OptIn {
		p.w.Line("@OptIn(" + qualified(o) + "::class)")
	}
}

func (p *printer) typeParams(fn *Func) {
	if len(fn.TypeParams) == 0 {
		return
	}
	p.w.WriteString("<")
	for i, tp := range fn.TypeParams {
		if i > 0 {
			p.w.WriteString(", ")
		}
		if tp.Reified {
			p.w.WriteString("reified ")
		}
		p.w.WriteString(ident(tp.Param.Name))
		p.bounds(tp.Param)
	}
	p.w.WriteString("> ")
}

func (p *printer) fn(fn *Func) {
	p.annotations(fn)
	p.visibility(fn.Visibility)
	if fn.Inline {
		p.w.WriteString("inline ")
	}
	p.w.WriteString("fun ")
	p.typeParams(fn)
	if fn.Receiver != nil {
		p.w.WriteString(typeString(fn.Receiver) + ".")
	}
	p.w.WriteString(ident(fn.Name) + "(")
	for i, prm := range fn.Params {
		if i > 0 {
			p.w.WriteString(", ")
		}
		p.param(prm)
	}
	p.w.WriteString(")")
	if fn.Return != nil {
		p.w.WriteString(": " + typeString(fn.Return))
	}
	p.w.Line(" {")
	p.w.IndentPush()
	if fn.CallsInPlace != "" {
		p.w.Line("kotlin.contracts.contract {")
		p.w.IndentPush()
		p.w.Line("callsInPlace(" + ident(fn.CallsInPlace) + ", kotlin.contracts.InvocationKind.EXACTLY_ONCE)")
		p.w.IndentPop()
		p.w.Line("}")
	}
	p.body(fn.Body)
	p.w.IndentPop()
	p.w.Line("}")
}

func (p *printer) param(prm Param) {
	if prm.NoInline {
		p.w.WriteString("noinline ")
	}
	if prm.Vararg {
		p.w.WriteString("vararg ")
	}
	p.w.WriteString(ident(prm.Name) + ": ")
	if prm.BuilderOf != nil {
		p.w.WriteString(typeString(prm.BuilderOf) + ".() -> kotlin.Unit")
		return
	}
	p.w.WriteString(typeString(prm.Type))
}

// property prints a getter (and its setter, if any) as one extension property.
func (p *printer) property(get, set *Func) {
	p.annotations(get)
	if set != nil {
		for _, s := range set.Suppressed() {
			get.Suppress(s)
		}
	}
	p.visibility(get.Visibility)
	if get.Inline {
		p.w.WriteString("inline ")
	}
	kw := "val "
	if set != nil {
		kw = "var "
	}
	p.w.WriteString(kw)
	p.typeParams(get)
	p.w.Line(typeString(get.Receiver) + "." + ident(get.Name) + ": " + typeString(get.Return))
	p.w.IndentPush()
	p.w.Line("get() {")
	p.w.IndentPush()
	p.body(get.Body)
	p.w.IndentPop()
	p.w.Line("}")
	if set != nil {
		p.w.Line("set(" + ident(set.Params[0].Name) + ") {")
		p.w.IndentPush()
		p.body(set.Body)
		p.w.IndentPop()
		p.w.Line("}")
	}
	p.w.IndentPop()
}

func (p *printer) body(stmts []Stmt) {
	for _, s := range stmts {
		p.stmt(s)
	}
}

func maskExpr(b Bit) string {
	return "this." + ident(b.Mask) + " and (1 shl " + strconv.FormatUint(uint64(b.Bit), 10) + ")"
}

func (p *printer) stmt(s Stmt) {
	switch s := s.(type) {
	case RequireSet:
		p.w.Line("require(" + maskExpr(s.Bit) + " == 0) { " +
			strconv.Quote("backing property "+s.Param+" hasn't been initialized") + " }")
	case RequireUnset:
		p.w.Line("require(" + maskExpr(s.Bit) + " != 0) { " +
			strconv.Quote("backing property "+s.Param+" has been already initialized") + " }")
	case MarkSet:
		p.w.Line("this." + ident(s.Mask) + " = this." + ident(s.Mask) +
			" and (1 shl " + strconv.FormatUint(uint64(s.Bit.Bit), 10) + ").inv()")
	case Assign:
		p.w.WriteString("this." + ident(s.Field) + " = ")
		p.expr(s.Value)
		p.w.Newline()
	case Append:
		p.w.WriteString("this." + ident(s.Field) + ".add(")
		p.expr(s.Value)
		p.w.Line(")")
	case DefaultsMarker:
		p.w.Line(qualified(MarkerFunc) + "()")
	case Return:
		p.w.WriteString("return ")
		p.expr(s.Value)
		p.w.Newline()
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case Lit:
		p.w.WriteString(e.Text)
	case Ref:
		p.w.WriteString(ident(e.Name))
	case FieldRef:
		p.w.WriteString("this." + ident(e.Name))
	case EmptyList:
		p.w.WriteString("java.util.LinkedList<" + typeString(e.Elem) + ">()")
	case Cast:
		switch e.Kind {
		case CastNotNull:
			p.expr(e.X)
			p.w.WriteString("!!")
		case CastUnchecked:
			p.w.WriteString("(")
			p.expr(e.X)
			p.w.WriteString(" as " + typeString(e.To) + ")")
		default:
			p.expr(e.X)
		}
	case ToArray:
		p.expr(e.X)
		p.w.WriteString(".to" + e.Conversion + "Array()")
	case Call:
		p.call(e)
	case Build:
		p.w.WriteString(typeString(e.Context) + "().apply(" + ident(e.Block) + ")." + ident(e.Create) + "()")
	}
}

func (p *printer) call(c Call) {
	fn := c.Target
	args := c.Args
	var recv []Arg
	if fn.HasDispatchReceiver() {
		recv, args = args[:1], args[1:]
	}
	if fn.Receiver != nil && len(args) > 0 {
		recv, args = append(recv, args[0]), args[1:]
	}
	switch {
	case len(recv) == 2:
		// member extension: with(dispatch) { ext.fn() }
		p.w.WriteString("with(")
		p.expr(recv[0].X)
		p.w.WriteString(") { ")
		p.expr(recv[1].X)
		p.w.WriteString("." + ident(fn.Name))
	case len(recv) == 1:
		p.expr(recv[0].X)
		p.w.WriteString("." + ident(fn.Name))
	default:
		p.w.WriteString(qualified(fn.QualifiedName()))
	}
	if len(c.TypeArgs) > 0 {
		parts := make([]string, len(c.TypeArgs))
		for i, t := range c.TypeArgs {
			parts[i] = typeString(t)
		}
		p.w.WriteString("<" + strings.Join(parts, ", ") + ">")
	}
	p.w.WriteString("(")
	for i, a := range args {
		if i > 0 {
			p.w.WriteString(", ")
		}
		if a.Spread {
			p.w.WriteString("*")
		}
		p.expr(a.X)
	}
	p.w.WriteString(")")
	if len(recv) == 2 {
		p.w.WriteString(" }")
	}
}

// typeString renders t with escaped identifiers; type parameters by name.
func typeString(t *types.Type) string {
	if t == nil {
		return "kotlin.Unit"
	}
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

func writeType(b *strings.Builder, t *types.Type) {
	if p := t.Param(); p != nil {
		b.WriteString(ident(p.Name))
	} else {
		b.WriteString(qualified(t.Decl.QualifiedName()))
	}
	if len(t.Args) > 0 {
		b.WriteByte('<')
		for i, a := range t.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			if a.Type == nil || a.Variance == types.Star {
				b.WriteByte('*')
				continue
			}
			if l := a.Variance.Label(); l != "" {
				b.WriteString(l + " ")
			}
			writeType(b, a.Type)
		}
		b.WriteByte('>')
	}
	if t.Nullable {
		b.WriteByte('?')
	}
}

var keywords = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true, "else": true,
	"false": true, "for": true, "fun": true, "if": true, "in": true, "interface": true,
	"is": true, "null": true, "object": true, "package": true, "return": true, "super": true,
	"this": true, "throw": true, "true": true, "try": true, "typealias": true, "typeof": true,
	"val": true, "var": true, "when": true, "while": true,
}

// ident escapes names that are not plain identifiers with backticks.
func ident(s string) string {
	if keywords[s] {
		return "`" + s + "`"
	}
	for i, r := range s {
		ok := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') || r > 0x7f
		if !ok {
			return "`" + s + "`"
		}
	}
	return s
}

func qualified(s string) string {
	parts := strings.Split(s, ".")
	for i, part := range parts {
		parts[i] = ident(part)
	}
	return strings.Join(parts, ".")
}
