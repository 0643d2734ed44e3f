package dsl

import (
	"strconv"

	"dslgen/internal/emit"
	"dslgen/internal/infer"
	"dslgen/internal/types"
)

// used returns the type parameters in scope that occur in any of ts.
func (st *site) used(ts ...*types.Type) []*types.TypeParam {
	var out []*types.TypeParam
	for _, p := range st.current {
		for _, t := range ts {
			if t != nil && types.Mentions(t, p) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// contextType is the context class applied to the site arguments.
func (st *site) contextType() *types.Type {
	return types.MakeClass(st.info.Context).WithArgs(append([]types.Arg(nil), st.ctxArgs...))
}

// receiver star-projects context arguments that mention type parameters
// the accessor does not declare.
func (st *site) receiver(used []*types.TypeParam) *types.Type {
	declared := make(map[*types.TypeParam]bool, len(used))
	for _, p := range used {
		declared[p] = true
	}
	args := make([]types.Arg, len(st.ctxArgs))
	for i, a := range st.ctxArgs {
		args[i] = a
		if a.Type == nil {
			continue
		}
		for _, p := range types.UsedParams(a.Type, nil) {
			if !declared[p] {
				args[i] = types.StarArg()
				break
			}
		}
	}
	return types.MakeClass(st.info.Context).WithArgs(args)
}

func (st *site) typeParams(ps []*types.TypeParam) []emit.TypeParam {
	out := make([]emit.TypeParam, len(ps))
	for i, p := range ps {
		out[i] = emit.TypeParam{Param: p, Reified: st.g.MakeInline}
	}
	return out
}

// accessor starts a function attached to the context.
func (st *site) accessor(name string, role emit.Role, used []*types.TypeParam) *emit.Func {
	fn := &emit.Func{
		Name:       name,
		Role:       role,
		Receiver:   st.receiver(used),
		TypeParams: st.typeParams(used),
		Inline:     st.g.MakeInline,
	}
	st.file.Funcs = append(st.file.Funcs, fn)
	return fn
}

func (s *Session) getter(st *site, idx int, name string, role emit.Role) error {
	p := st.info.Params[idx]
	bit, err := s.bit(st.info, idx)
	if err != nil {
		return err
	}
	fn := st.accessor(name, role, st.used(p.Type))
	if role == emit.RoleProperty {
		fn.Kind = emit.FuncPropertyGetter
	}
	if fn.Inline {
		fn.Suppress(suppressNothingToInline)
	}
	fn.Return = p.Type
	cast := emit.Cast{X: emit.FieldRef{Name: p.Backing}, To: p.Type}
	switch {
	case p.Type.Param() != nil:
		cast.Kind = emit.CastUnchecked
		fn.Suppress(suppressUncheckedCast)
	case !p.Type.Nullable && !types.IsPrimitive(p.Type):
		cast.Kind = emit.CastNotNull
	}
	fn.Body = []emit.Stmt{emit.RequireSet{Bit: bit}, emit.Return{Value: cast}}
	return nil
}

func (s *Session) setter(st *site, idx int, name string, role emit.Role) error {
	p := st.info.Params[idx]
	bit, err := s.bit(st.info, idx)
	if err != nil {
		return err
	}
	fn := st.accessor(name, role, st.used(p.Type))
	if role == emit.RoleProperty {
		fn.Kind = emit.FuncPropertySetter
	}
	if fn.Inline {
		fn.Suppress(suppressNothingToInline)
	}
	fn.Params = []emit.Param{{Name: "value", Type: p.Type}}
	fn.Body = []emit.Stmt{
		emit.RequireUnset{Bit: bit},
		emit.MarkSet{Bit: bit},
		emit.Assign{Field: p.Backing, Value: emit.Ref{Name: "value"}},
	}
	return nil
}

// adder appends one element to a collection parameter. Collections are
// never required, so there is no write-once check.
func (s *Session) adder(st *site, idx int, name string, elem *types.Type) error {
	p := st.info.Params[idx]
	bit, err := s.bit(st.info, idx)
	if err != nil {
		return err
	}
	fn := st.accessor(name, emit.RoleAdder, st.used(elem))
	if fn.Inline {
		fn.Suppress(suppressNothingToInline)
	}
	fn.Params = []emit.Param{{Name: "element", Type: elem}}
	fn.Body = []emit.Stmt{
		emit.MarkSet{Bit: bit},
		emit.Append{Field: p.Backing, Value: emit.Ref{Name: "element"}},
	}
	return nil
}

// dslAccessor sets the parameter (or adds an element when element is set)
// from a nested DSL built for ctor.
func (s *Session) dslAccessor(st *site, idx int, name string, target *types.Type, ctor *types.Func, element bool) error {
	p := st.info.Params[idx]
	target = types.Expand(s.cfg.Oracle, target)
	g := st.g
	sub, err := s.process(ctor, &g, st.current, target.Args)
	if err != nil {
		return err
	}
	bit, err := s.bit(st.info, idx)
	if err != nil {
		return err
	}

	inner := types.MakeClass(sub.Context)
	if n := len(sub.Context.TypeParams); n > 0 {
		args := make([]types.Arg, n)
		for i := range args {
			args[i] = types.StarArg()
			if i < len(target.Args) && target.Args[i].Type != nil {
				args[i] = types.InvArg(target.Args[i].Type)
			}
		}
		inner = inner.WithArgs(args)
	}

	role := emit.RoleDslSetter
	if element {
		role = emit.RoleDslAdder
	}
	fn := st.accessor(name, role, st.used(inner))
	lambda := s.cfg.Naming.BuilderLambdaName(p.Name)
	fn.Params = []emit.Param{{Name: lambda, BuilderOf: inner}}
	build := emit.Build{Context: inner, Block: lambda, Create: s.cfg.Naming.CreateFunctionName()}
	if element {
		fn.Body = []emit.Stmt{emit.MarkSet{Bit: bit}, emit.Append{Field: p.Backing, Value: build}}
	} else {
		fn.Body = []emit.Stmt{
			emit.RequireUnset{Bit: bit},
			emit.MarkSet{Bit: bit},
			emit.Assign{Field: p.Backing, Value: build},
		}
	}
	return nil
}

// subFunction sets the parameter (or adds an element) with the result of
// calling exit with the accessor's own arguments. Type parameters of exit
// are inferred against target; unresolved ones become type parameters of
// the accessor.
func (s *Session) subFunction(st *site, idx int, name string, target *types.Type, exit *types.Func, element bool) error {
	p := st.info.Params[idx]
	b := s.cfg.Builtins
	fresh, subst := freshen(exit.AllTypeParams(), st.current)

	params := exit.AllParams()
	values := make([]*types.Type, len(params))
	for i, prm := range params {
		values[i] = types.Replace(b.ValueType(prm), subst)
	}
	ret := types.Replace(exit.Return, subst)
	res, err := infer.Infer(s.cfg.Oracle, st.current, types.Expand(s.cfg.Oracle, target), fresh, values, ret)
	if err != nil {
		return err
	}
	bit, err := s.bit(st.info, idx)
	if err != nil {
		return err
	}

	args := make([]emit.Param, len(params))
	mentioned := []*types.Type{target}
	for i, prm := range params {
		t := res.Apply(types.Replace(prm.Type, subst))
		args[i] = emit.Param{Name: prm.Name, Type: t, Vararg: prm.Vararg}
		mentioned = append(mentioned, t)
	}

	role := emit.RoleSubSetter
	if element {
		role = emit.RoleSubAdder
	}
	fn := st.accessor(name, role, st.used(mentioned...))
	for _, tp := range res.Free {
		fn.TypeParams = append(fn.TypeParams, emit.TypeParam{Param: tp, Reified: st.g.MakeInline})
	}
	if fn.Inline {
		fn.Suppress(suppressNothingToInline)
	}
	fn.Params = args

	call := emit.Call{Target: exit}
	for _, a := range args {
		call.Args = append(call.Args, emit.Arg{X: emit.Ref{Name: a.Name}, Spread: a.Vararg})
	}
	if element {
		fn.Body = []emit.Stmt{emit.MarkSet{Bit: bit}, emit.Append{Field: p.Backing, Value: call}}
	} else {
		fn.Body = []emit.Stmt{
			emit.RequireUnset{Bit: bit},
			emit.MarkSet{Bit: bit},
			emit.Assign{Field: p.Backing, Value: call},
		}
	}
	return nil
}

// freshen copies type parameters so they never alias the ones in scope,
// renaming on clashes.
func freshen(ps, scope []*types.TypeParam) ([]*types.TypeParam, map[*types.TypeParam]*types.Type) {
	taken := make(map[string]bool, len(scope)+len(ps))
	for _, p := range scope {
		taken[p.Name] = true
	}
	out := make([]*types.TypeParam, len(ps))
	subst := make(map[*types.TypeParam]*types.Type, len(ps))
	for i, p := range ps {
		cp := *p
		for n := 1; taken[cp.Name]; n++ {
			cp.Name = p.Name + strconv.Itoa(n)
		}
		taken[cp.Name] = true
		out[i] = &cp
		subst[p] = types.MakeParam(&cp)
	}
	for _, p := range out {
		if len(p.Bounds) == 0 {
			continue
		}
		bounds := make([]*types.Type, len(p.Bounds))
		for j, bt := range p.Bounds {
			bounds[j] = types.Replace(bt, subst)
		}
		p.Bounds = bounds
	}
	return out, subst
}
