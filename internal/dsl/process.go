package dsl

import (
	"errors"
	"strings"

	"dslgen/internal/diag"
	"dslgen/internal/options"
	"dslgen/internal/registry"
	"dslgen/internal/sighash"
	"dslgen/internal/types"
)

// generatedPackage moves DSLs of standard library functions out of the
// reserved kotlin packages.
func generatedPackage(pkg string) string {
	if pkg == types.PkgKotlin || strings.HasPrefix(pkg, types.PkgKotlin+".") {
		return "generated." + pkg
	}
	return pkg
}

// process returns the DSL of fn, generating it if needed. parent carries
// the options of the DSL that reached fn; newParams and returnArgs describe
// the concrete type arguments the caller uses, for specialization.
func (s *Session) process(fn *types.Func, parent *options.Generation, newParams []*types.TypeParam, returnArgs []types.Arg) (*Info, error) {
	id, sig := sighash.Function(s.cfg.Oracle, fn)
	if prev, ok := s.sigs[id]; ok && prev != sig {
		return nil, diag.Errorf(diag.IntHashCollision, "identifier %s is shared by %q and %q", id, prev, sig)
	}
	pkg := generatedPackage(fn.Package)

	if info, ok := s.memo[id]; ok {
		if err := s.specialize(info, parent, newParams, returnArgs); err != nil {
			return nil, err
		}
		return info, nil
	}

	info, err := s.adopt(fn, id, sig, pkg)
	if err != nil {
		return nil, err
	}
	if info != nil {
		s.memo[id] = info
		s.sigs[id] = sig
		s.state[id] = Generated
		if err := s.specialize(info, parent, newParams, returnArgs); err != nil {
			return nil, err
		}
		return info, nil
	}

	g, err := s.generation(fn, parent)
	if err != nil {
		return nil, err
	}
	ctxName := g.ContextName
	if ctxName == "" {
		ctxName = s.cfg.Naming.ContextClassName(string(id), fn.ShortName())
	}

	info = s.newInfo(fn, id, sig, pkg, ctxName)
	// регистрируем до рекурсии: циклические структуры должны находить себя
	s.memo[id] = info
	s.sigs[id] = sig
	s.state[id] = BeingProcessed

	s.point("generating dsl "+string(id), fn.QualifiedName())
	s.bodies[id]++
	file, err := s.generate(info, g)
	if err != nil {
		return nil, err
	}
	// до записи на диск: неудачная специализация откатывает и этот DSL
	if err := s.specialize(info, parent, newParams, returnArgs); err != nil {
		return nil, err
	}
	if s.cfg.Registry != nil {
		backing := make([]string, len(info.Params))
		for i, p := range info.Params {
			backing[i] = p.Backing
		}
		if err := s.cfg.Registry.Put(&registry.Entry{
			ID:        string(id),
			Signature: sig,
			Package:   info.Package,
			Context:   info.Context.Name,
			Backing:   backing,
			Session:   s.ID(),
		}); err != nil {
			return nil, err
		}
	}
	if err := s.cfg.Emitter.Emit(file); err != nil {
		if derr := s.cfg.Registry.Delete(string(id)); derr != nil {
			return nil, errors.Join(err, derr)
		}
		return nil, err
	}
	s.state[id] = Generated
	return info, nil
}

// generation reads the options of fn or derives them from the parent DSL.
func (s *Session) generation(fn *types.Func, parent *options.Generation) (options.Generation, error) {
	if g, ok := s.cfg.Options.Generation(fn); ok {
		if err := options.Validate(g, fn, s.cfg.Reporter); err != nil {
			return options.Generation{}, err
		}
		return g, nil
	}
	if parent == nil {
		return options.Generation{}, diag.Errorf(diag.CfgBadDeclaration, "%s is not annotated for DSL generation", fn.QualifiedName())
	}
	return parent.Child(), nil
}

func (s *Session) newInfo(fn *types.Func, id sighash.ID, sig, pkg, ctxName string) *Info {
	b := s.cfg.Builtins
	all := fn.AllParams()
	info := &Info{
		ID:        id,
		Signature: sig,
		Package:   pkg,
		Func:      fn,
		Return:    fn.Return,
		Context: &types.Class{
			Package:    pkg,
			Name:       ctxName,
			TypeParams: fn.AllTypeParams(),
			Loc:        fn.Loc,
		},
		Params: make([]Param, len(all)),
	}
	if info.Return == nil {
		info.Return = types.MakeClass(b.Unit)
	}
	for i, p := range all {
		info.Params[i] = Param{
			Name:       p.Name,
			Backing:    s.cfg.Naming.BackingPropertyName(p.Name),
			Index:      i,
			Type:       b.ValueType(p),
			Vararg:     p.Vararg,
			HasDefault: p.HasDefault,
		}
	}
	return info
}

// adopt looks for a context class generated by a previous build: first in
// the type model under the conventional name, then in the registry.
func (s *Session) adopt(fn *types.Func, id sighash.ID, sig, pkg string) (*Info, error) {
	name := s.cfg.Naming.ContextClassName(string(id), fn.ShortName())
	if cls, ok := s.cfg.Oracle.ClassByName(pkg + "." + name); ok {
		s.point("find DSL "+string(id), cls.QualifiedName())
		info := s.newInfo(fn, id, sig, pkg, name)
		info.Context = cls
		info.Adopted = true
		idx := 0
		for _, f := range cls.Fields {
			if s.cfg.Naming.IsInitializationInfo(f.Name) {
				continue
			}
			if idx >= len(info.Params) {
				return nil, diag.Errorf(diag.RunUnresolvedContext, "context %s has more fields than %s has parameters", cls.QualifiedName(), fn.QualifiedName())
			}
			if got, want := s.cfg.Naming.RecoverParameterName(f.Name), info.Params[idx].Name; got != want {
				return nil, diag.Errorf(diag.RunUnresolvedContext, "context %s field %s does not match parameter %s", cls.QualifiedName(), f.Name, want)
			}
			info.Params[idx].Backing = f.Name
			idx++
		}
		if idx != len(info.Params) {
			return nil, diag.Errorf(diag.RunUnresolvedContext, "context %s has %d fields, %s has %d parameters", cls.QualifiedName(), idx, fn.QualifiedName(), len(info.Params))
		}
		return info, nil
	}

	e, ok, err := s.cfg.Registry.Get(string(id))
	if err != nil || !ok {
		return nil, err
	}
	if e.Signature != sig {
		return nil, diag.Errorf(diag.IntHashCollision, "registry entry %s was generated for %q, not %q", id, e.Signature, sig)
	}
	if len(e.Backing) != len(fn.AllParams()) {
		return nil, nil
	}
	s.point("find DSL "+string(id), "registry "+e.Session)
	info := s.newInfo(fn, id, sig, e.Package, e.Context)
	for i := range info.Params {
		info.Params[i].Backing = e.Backing[i]
	}
	info.Adopted = true
	return info, nil
}
