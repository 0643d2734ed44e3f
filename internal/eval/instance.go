package eval

import (
	"fmt"
	"slices"
	"strings"

	"dslgen/internal/diag"
	"dslgen/internal/emit"
)

// Instance is one context object: backing fields plus bitmask words.
type Instance struct {
	prog   *Program
	class  *emit.Class
	fields map[string]any
	masks  []int32
}

// Context is the qualified name of the context class.
func (in *Instance) Context() string { return in.class.Decl.QualifiedName() }

// Masks returns a copy of the bitmask words.
func (in *Instance) Masks() []int32 { return slices.Clone(in.masks) }

// Field reads a backing field directly.
func (in *Instance) Field(name string) (any, bool) {
	v, ok := in.fields[name]
	if l, isList := v.(*[]any); isList {
		return slices.Clone(*l), ok
	}
	return v, ok
}

// IsSet reports whether the parameter at idx has been written.
func (in *Instance) IsSet(idx int) bool {
	w := idx / 32
	if w >= len(in.masks) {
		return false
	}
	return in.masks[w]&(int32(1)<<(idx%32)) == 0
}

// Call invokes the function accessor name. A single Block argument selects
// builder accessors; otherwise setters win over adders, getters and
// sub-function accessors of the same arity.
func (in *Instance) Call(name string, args ...any) (any, error) {
	return in.invoke(name, args, func(f *emit.Func) bool {
		return f.Kind == emit.FuncPlain && f.Role != emit.RoleCreate
	})
}

// Invoke is Call restricted to accessors with the given role.
func (in *Instance) Invoke(role emit.Role, name string, args ...any) (any, error) {
	return in.invoke(name, args, func(f *emit.Func) bool {
		return f.Kind == emit.FuncPlain && f.Role == role
	})
}

// Get reads the property name.
func (in *Instance) Get(name string) (any, error) {
	return in.invoke(name, nil, func(f *emit.Func) bool { return f.Kind == emit.FuncPropertyGetter })
}

// Set writes the property name.
func (in *Instance) Set(name string, v any) error {
	_, err := in.invoke(name, []any{v}, func(f *emit.Func) bool { return f.Kind == emit.FuncPropertySetter })
	return err
}

// Create calls the create function of the context.
func (in *Instance) Create() (any, error) {
	for _, f := range in.prog.funcs[in.class.Decl] {
		if f.Role == emit.RoleCreate {
			return in.prog.run(&frame{in: in}, f)
		}
	}
	return nil, diag.Errorf(diag.RunUnknownAccessor, "%s has no create function", in.Context())
}

func (in *Instance) invoke(name string, args []any, keep func(*emit.Func) bool) (any, error) {
	args = normalize(args)
	var named, fit []*emit.Func
	for _, f := range in.prog.funcs[in.class.Decl] {
		if f.Name != name || !keep(f) {
			continue
		}
		named = append(named, f)
		if accepts(f, args) {
			fit = append(fit, f)
		}
	}
	if len(fit) == 0 {
		descs := make([]string, len(named))
		for i, f := range named {
			descs[i] = describe(f)
		}
		return nil, diag.Errorf(diag.RunUnknownAccessor, "no accessor %s of %s takes %d argument(s)", name, in.Context(), len(args)).WithCandidates(descs)
	}
	slices.SortStableFunc(fit, func(a, b *emit.Func) int { return rank(a.Role) - rank(b.Role) })
	fn := fit[0]
	return in.prog.run(&frame{in: in, env: bind(fn, args)}, fn)
}

func normalize(args []any) []any {
	for i, a := range args {
		if f, ok := a.(func(*Instance) error); ok {
			args[i] = Block(f)
		}
	}
	return args
}

func isBuilder(f *emit.Func) bool {
	return len(f.Params) == 1 && f.Params[0].BuilderOf != nil
}

func accepts(f *emit.Func, args []any) bool {
	block := len(args) == 1
	if block {
		_, block = args[0].(Block)
	}
	if block != isBuilder(f) {
		return false
	}
	n := len(f.Params)
	if n > 0 && f.Params[n-1].Vararg {
		return len(args) >= n-1
	}
	return len(args) == n
}

func rank(r emit.Role) int {
	switch r {
	case emit.RoleSetter:
		return 0
	case emit.RoleAdder:
		return 1
	case emit.RoleGetter:
		return 2
	case emit.RoleProperty:
		return 3
	case emit.RoleDslSetter, emit.RoleDslAdder:
		return 4
	case emit.RoleSubSetter, emit.RoleSubAdder:
		return 5
	}
	return 6
}

// bind maps arguments to parameter names; trailing arguments of a vararg
// parameter are packed into one []any unless a single []any is given.
func bind(f *emit.Func, args []any) map[string]any {
	env := make(map[string]any, len(f.Params))
	for i, prm := range f.Params {
		if !prm.Vararg {
			env[prm.Name] = args[i]
			continue
		}
		rest := args[i:]
		if len(rest) == 1 {
			if l, ok := rest[0].([]any); ok {
				env[prm.Name] = l
				break
			}
		}
		env[prm.Name] = slices.Clone(rest)
		break
	}
	return env
}

func describe(f *emit.Func) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s](", f.Name, f.Role)
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Vararg {
			b.WriteString("vararg ")
		}
		b.WriteString(p.Name)
	}
	b.WriteByte(')')
	return b.String()
}
