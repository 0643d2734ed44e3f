package dsl

import (
	"dslgen/internal/construct"
	"dslgen/internal/diag"
	"dslgen/internal/emit"
	"dslgen/internal/options"
	"dslgen/internal/sighash"
	"dslgen/internal/types"
)

// specialize emits extra nested-DSL accessors for a context reached with
// concrete type arguments. Parameters typed by a context type parameter
// only get nested accessors once that parameter is known, which is what
// the specialization file provides. Each specialization is emitted once
// per session; one that failed half-way is forgotten by rollback.
func (s *Session) specialize(info *Info, parent *options.Generation, newParams []*types.TypeParam, returnArgs []types.Arg) error {
	if parent == nil || len(returnArgs) == 0 {
		return nil
	}
	ret := types.Expand(s.cfg.Oracle, info.Return)
	if len(ret.Args) != len(returnArgs) {
		return diag.Errorf(diag.IntBadState, "%s returns %s but is specialized with %d arguments",
			info.Func.QualifiedName(), ret, len(returnArgs))
	}

	id, desc := sighash.Specification(s.cfg.Oracle, newParams, returnArgs, info.Context.Name)
	if _, seen := s.specs[id]; seen {
		return nil
	}
	s.specs[id] = BeingProcessed
	s.point("generating specification "+string(id), desc)

	mapping := make(map[*types.TypeParam]*types.Type, len(returnArgs))
	for i, a := range ret.Args {
		if a.Type == nil || returnArgs[i].Type == nil {
			continue
		}
		if tp := a.Type.Param(); tp != nil {
			mapping[tp] = returnArgs[i].Type
		}
	}

	g := *parent
	st := &site{
		info:    info,
		g:       g,
		current: newParams,
		file: &emit.File{
			Package: info.Package,
			Name:    s.cfg.Naming.SpecificationFileName(string(id), info.Context.Name),
		},
	}
	for _, tp := range info.Context.TypeParams {
		if t, ok := mapping[tp]; ok {
			st.ctxArgs = append(st.ctxArgs, types.InvArg(t))
		} else {
			st.ctxArgs = append(st.ctxArgs, types.StarArg())
		}
	}

	b := s.cfg.Builtins
	for idx, p := range info.Params {
		t := p.Type
		parametric := t.Param() != nil
		if b.IsArrayShaped(t) {
			parametric = b.ArrayElement(t).Param() != nil
		}
		mapped := types.Expand(s.cfg.Oracle, types.Replace(t, mapping))

		if parametric && mapped.Param() == nil {
			if err := s.specializeParam(st, idx, mapped); err != nil {
				return err
			}
		}

		ctor, err := construct.Resolve(s.cfg.Oracle, mapped.Class())
		if err != nil {
			return err
		}
		if ctor == nil || types.IsPrimitive(mapped) || b.IsArrayShaped(mapped) {
			continue
		}
		if _, err := s.process(ctor, &g, newParams, mapped.Args); err != nil {
			return err
		}
	}

	if len(st.file.Funcs) > 0 {
		if err := s.cfg.Emitter.Emit(st.file); err != nil {
			return err
		}
	}
	s.specs[id] = Generated
	return nil
}

func (s *Session) specializeParam(st *site, idx int, mapped *types.Type) error {
	b := s.cfg.Builtins
	p := st.info.Params[idx]
	if b.IsArrayShaped(mapped) {
		elem := b.ArrayElement(mapped)
		ctor, err := construct.Resolve(s.cfg.Oracle, types.Expand(s.cfg.Oracle, elem).Class())
		if err != nil || ctor == nil {
			return err
		}
		name := s.cfg.Naming.ElementAdderName(p.Name)
		if err := s.dslAccessor(st, idx, name, elem, ctor, true); err != nil {
			return err
		}
		return s.subFunction(st, idx, name, elem, ctor, true)
	}
	if types.IsPrimitive(mapped) {
		return nil
	}
	ctor, err := construct.Resolve(s.cfg.Oracle, mapped.Class())
	if err != nil || ctor == nil {
		return err
	}
	if err := s.dslAccessor(st, idx, p.Name, mapped, ctor, false); err != nil {
		return err
	}
	return s.subFunction(st, idx, p.Name, mapped, ctor, false)
}
