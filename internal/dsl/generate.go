package dsl

import (
	"fmt"

	"fortio.org/safecast"

	"dslgen/internal/construct"
	"dslgen/internal/diag"
	"dslgen/internal/emit"
	"dslgen/internal/options"
	"dslgen/internal/types"
)

const (
	suppressNothingToInline = "NOTHING_TO_INLINE"
	suppressUncheckedCast   = "UNCHECKED_CAST"
	optInContracts          = "kotlin.contracts.ExperimentalContracts"
	builderActionName       = "builderAction"
)

// site is where accessors are attached: the base DSL file or a
// specialization of it.
type site struct {
	info    *Info
	g       options.Generation
	file    *emit.File
	ctxArgs []types.Arg        // arguments of the context type
	current []*types.TypeParam // type parameters in scope
}

func (s *Session) bit(info *Info, idx int) (emit.Bit, error) {
	word := idx / 32
	b, err := safecast.Conv[uint](idx % 32)
	if err != nil {
		return emit.Bit{}, diag.Internal("bit index %d: %v", idx, err)
	}
	return emit.Bit{Word: word, Bit: b, Mask: s.cfg.Naming.InitializationInfoName(word), Param: info.Params[idx].Name}, nil
}

// generate builds the DSL file of info: context class, accessors, create
// and entry functions.
func (s *Session) generate(info *Info, g options.Generation) (*emit.File, error) {
	b := s.cfg.Builtins
	fn := info.Func
	file := &emit.File{
		Package: info.Package,
		Name:    s.cfg.Naming.DslFileName(string(info.ID), info.Context.Name, fn.ShortName()),
	}

	cls := &emit.Class{Decl: info.Context, Marker: g.Marker.QualifiedName()}
	for _, p := range info.Params {
		f := &emit.Field{Name: p.Backing, Visibility: emit.PublishedAPI}
		if b.IsArrayShaped(p.Type) {
			elem := b.ArrayElement(p.Type)
			f.Type = types.MakeClass(b.MutableList, elem)
			f.Init = emit.EmptyList{Elem: elem}
		} else {
			f.Type = types.BackingType(p.Type)
			f.Init = emit.Lit{Text: types.ZeroLiteral(p.Type)}
		}
		cls.Fields = append(cls.Fields, f)
	}
	intT := types.MakeClass(b.Int)
	for w := range info.Words() {
		cls.Fields = append(cls.Fields, &emit.Field{
			Name:       s.cfg.Naming.InitializationInfoName(w),
			Type:       intT,
			Init:       emit.Lit{Text: "-1"},
			Visibility: emit.PublishedAPI,
			Mask:       w + 1,
		})
	}
	info.Context.Fields = info.Context.Fields[:0]
	for _, f := range cls.Fields {
		info.Context.Fields = append(info.Context.Fields, types.Field{Name: f.Name, Type: f.Type})
	}
	file.Classes = append(file.Classes, cls)

	st := &site{info: info, g: g, file: file, current: info.Context.TypeParams}
	for _, tp := range info.Context.TypeParams {
		st.ctxArgs = append(st.ctxArgs, types.InvArg(types.MakeParam(tp)))
	}

	for i, p := range info.Params {
		if err := s.accessors(st, i, s.cfg.Options.Param(fn, i)); err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
	}

	create, err := s.createFunction(st)
	if err != nil {
		return nil, err
	}
	file.Funcs = append(file.Funcs, create)
	if g.FunctionName != "" {
		file.Funcs = append(file.Funcs, s.entryFunction(st))
	}
	return file, nil
}

// accessors emits every accessor of parameter idx enabled by opts.
func (s *Session) accessors(st *site, idx int, opts options.Param) error {
	b := s.cfg.Builtins
	p := st.info.Params[idx]
	t := p.Type
	array := b.IsArrayShaped(t)

	var elem *types.Type
	var elemCtor, ctor *types.Func
	var err error
	if array {
		elem = b.ArrayElement(t)
		if elemCtor, err = construct.Resolve(s.cfg.Oracle, types.Expand(s.cfg.Oracle, elem).Class()); err != nil {
			return err
		}
	} else if !types.IsPrimitive(t) {
		if ctor, err = construct.Resolve(s.cfg.Oracle, types.Expand(s.cfg.Oracle, t).Class()); err != nil {
			return err
		}
	}

	if opts.FunctionGetter.Resolve(!array) {
		if err := s.getter(st, idx, p.Name, emit.RoleGetter); err != nil {
			return err
		}
	}
	if opts.FunctionSetter.Resolve(!array) {
		if err := s.setter(st, idx, p.Name, emit.RoleSetter); err != nil {
			return err
		}
	}
	switch opts.PropertyAccessor {
	case options.PropertyGetter:
		if err := s.getter(st, idx, p.Name, emit.RoleProperty); err != nil {
			return err
		}
	case options.PropertyGetterSetter:
		if err := s.getter(st, idx, p.Name, emit.RoleProperty); err != nil {
			return err
		}
		if err := s.setter(st, idx, p.Name, emit.RoleProperty); err != nil {
			return err
		}
	}

	adderName := s.cfg.Naming.ElementAdderName(p.Name)
	if array {
		if opts.CollectionAdder.Resolve(true) {
			if err := s.adder(st, idx, adderName, elem); err != nil {
				return err
			}
		}
		if elemCtor != nil {
			if opts.CollectionDslAdder.Resolve(true) {
				if err := s.dslAccessor(st, idx, adderName, elem, elemCtor, true); err != nil {
					return err
				}
			}
			if opts.CollectionSubFunctionAdder.Resolve(true) {
				if err := s.subFunction(st, idx, adderName, elem, elemCtor, true); err != nil {
					return err
				}
			}
		}
	} else if ctor != nil {
		if opts.DslSetter.Resolve(true) {
			if err := s.dslAccessor(st, idx, p.Name, t, ctor, false); err != nil {
				return err
			}
		}
		if opts.SubFunctionSetter.Resolve(true) {
			if err := s.subFunction(st, idx, p.Name, t, ctor, false); err != nil {
				return err
			}
		}
	}

	for _, alt := range opts.Alternatives {
		target, name := t, p.Name
		if alt.Element {
			if !array {
				return diag.Errorf(diag.CfgBadParamOption, "alternative %s targets elements but %s is not a collection", alt.Locator, p.Name)
			}
			target, name = elem, adderName
		}
		if alt.AccessorName != "" {
			name = alt.AccessorName
		}
		target = types.Expand(s.cfg.Oracle, target)
		f, err := construct.Locate(s.cfg.Oracle, target, alt.Locator)
		if err != nil {
			return err
		}
		if err := s.subFunction(st, idx, name, target, f, alt.Element); err != nil {
			return err
		}
		if alt.DslAccessor {
			if err := s.dslAccessor(st, idx, name, target, f, alt.Element); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) createFunction(st *site) (*emit.Func, error) {
	b := s.cfg.Builtins
	info := st.info
	fn := &emit.Func{
		Name:       s.cfg.Naming.CreateFunctionName(),
		Role:       emit.RoleCreate,
		Receiver:   st.receiver(st.current),
		TypeParams: st.typeParams(st.current),
		Return:     info.Return,
		Inline:     st.g.MakeInline,
		Visibility: emit.PublishedAPI,
	}
	if fn.Inline {
		fn.Suppress(suppressNothingToInline)
	}

	anyDefault := false
	for i, p := range info.Params {
		defaultable := p.HasDefault && s.cfg.AllowDefaultArgs
		anyDefault = anyDefault || defaultable
		if defaultable || b.IsArrayShaped(p.Type) {
			continue
		}
		bit, err := s.bit(info, i)
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, emit.RequireSet{Bit: bit})
	}
	if anyDefault {
		fn.Body = append(fn.Body, emit.DefaultsMarker{})
	}

	call := emit.Call{Target: info.Func}
	for _, p := range info.Params {
		field := emit.FieldRef{Name: p.Backing}
		if b.IsArrayShaped(p.Type) {
			call.Args = append(call.Args, emit.Arg{
				X:      emit.ToArray{X: field, Conversion: b.ArrayConversion(p.Type)},
				Spread: p.Vararg,
			})
			continue
		}
		cast := emit.Cast{X: field, To: p.Type}
		switch {
		case p.Type.Param() != nil:
			cast.Kind = emit.CastUnchecked
			fn.Suppress(suppressUncheckedCast)
		case !p.Type.Nullable && !types.IsPrimitive(p.Type):
			cast.Kind = emit.CastNotNull
		}
		call.Args = append(call.Args, emit.Arg{X: cast})
	}
	fn.Body = append(fn.Body, emit.Return{Value: call})
	return fn, nil
}

func (s *Session) entryFunction(st *site) *emit.Func {
	ctxType := st.contextType()
	fn := &emit.Func{
		Name:         st.g.FunctionName,
		Role:         emit.RoleEntry,
		TypeParams:   st.typeParams(st.current),
		Params:       []emit.Param{{Name: builderActionName, BuilderOf: ctxType}},
		Return:       st.info.Return,
		Inline:       st.g.MakeInline,
		OptIn:        []string{optInContracts},
		CallsInPlace: builderActionName,
		Body: []emit.Stmt{emit.Return{Value: emit.Build{
			Context: ctxType,
			Block:   builderActionName,
			Create:  s.cfg.Naming.CreateFunctionName(),
		}}},
	}
	return fn
}
