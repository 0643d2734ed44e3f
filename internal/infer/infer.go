// Package infer solves type parameters of a construction function against
// the type a generated setter has to produce.
//
// Given the expected type (written in terms of the current DSL's type
// parameters) and the actual return type of a function (written in terms
// of that function's own type parameters), Infer walks both types in
// parallel, collecting upper and lower bounds and observed variances for
// every type parameter, then resolves each new parameter to a single type
// or leaves it free. It never guesses: more than one candidate is an error.
package infer

import (
	"dslgen/internal/diag"
	"dslgen/internal/types"
)

var (
	ErrCannotProject    = diag.Sentinel(diag.InfCannotProject)
	ErrAmbiguous        = diag.Sentinel(diag.InfAmbiguous)
	ErrVarianceConflict = diag.Sentinel(diag.InfVarianceConflict)
)

// Result of one inference call.
type Result struct {
	Subst map[*types.TypeParam]*types.Type
	Free  []*types.TypeParam // new parameters that stay generic, in declaration order
}

// Apply substitutes the inferred types into t.
func (r Result) Apply(t *types.Type) *types.Type {
	return types.Replace(t, r.Subst)
}

type bounds struct {
	upper []*types.Type
	lower []*types.Type
	seen  varianceSet
}

func (b *bounds) add(t *types.Type, upper bool) {
	if upper {
		b.upper = append(b.upper, t)
	} else {
		b.lower = append(b.lower, t)
	}
}

type engine struct {
	o        types.Oracle
	any      *types.Class
	nothing  *types.Class
	bounds   map[*types.TypeParam]*bounds
	expected *types.Type
	actual   *types.Type
}

// Infer computes a substitution for newParams such that actualReturn can be
// used where expected is required. actualValueParams are the value
// parameter types of the function; they only contribute variance
// observations.
func Infer(
	o types.Oracle,
	current []*types.TypeParam,
	expected *types.Type,
	newParams []*types.TypeParam,
	actualValueParams []*types.Type,
	actualReturn *types.Type,
) (Result, error) {
	anyCls, ok1 := o.ClassByName(types.AnyName)
	nothingCls, ok2 := o.ClassByName(types.NothingName)
	if !ok1 || !ok2 {
		return Result{}, diag.Internal("oracle does not know %s/%s", types.AnyName, types.NothingName)
	}
	e := &engine{
		o:        o,
		any:      anyCls,
		nothing:  nothingCls,
		bounds:   make(map[*types.TypeParam]*bounds, len(current)+len(newParams)),
		expected: types.Expand(o, expected),
		actual:   types.Expand(o, actualReturn),
	}
	for _, p := range current {
		e.bounds[p] = &bounds{}
	}
	for _, p := range newParams {
		e.bounds[p] = &bounds{}
	}

	if err := e.match(e.expected, e.actual, types.Covariant); err != nil {
		return Result{}, err
	}
	for _, t := range actualValueParams {
		e.harvest(types.Expand(o, t), types.Contravariant)
	}

	res := Result{Subst: make(map[*types.TypeParam]*types.Type, len(newParams))}
	for _, p := range newParams {
		t, err := e.resolve(p)
		if err != nil {
			return Result{}, err
		}
		if t == nil {
			res.Free = append(res.Free, p)
			continue
		}
		res.Subst[p] = t
	}
	return res, nil
}

// tracked returns the bounds of t if it is a type parameter under inference.
func (e *engine) tracked(t *types.Type) *bounds {
	p := t.Param()
	if p == nil {
		return nil
	}
	return e.bounds[p]
}

// record adds bounds for a parameter standing on the actual side (asActual)
// or on the expected side at variance v.
func (e *engine) record(b *bounds, other *types.Type, v types.Variance, asActual bool) {
	b.seen.add(v)
	switch v {
	case types.Covariant:
		b.add(other, asActual)
	case types.Contravariant:
		b.add(other, !asActual)
	case types.Invariant:
		b.add(other, true)
		b.add(other, false)
	}
}

func (e *engine) match(expected, actual *types.Type, v types.Variance) error {
	ab, eb := e.tracked(actual), e.tracked(expected)
	if ab != nil || eb != nil {
		if ab != nil {
			e.record(ab, expected, v, true)
		}
		if eb != nil {
			e.record(eb, actual, v, false)
		}
		return nil
	}
	if v == types.Star {
		e.harvest(actual, types.Star)
		return nil
	}

	ec, ac := expected.Class(), actual.Class()
	if ec == nil || ac == nil {
		// foreign type parameter: nothing to learn from it
		return nil
	}
	if ac == e.nothing || ec == e.any || (v == types.Contravariant && (ec == e.nothing || ac == e.any)) {
		return nil
	}

	var (
		owner         *types.Class
		eArgs, aArgs  []types.Arg
		supOK         bool
		sub, super    = ac, ec
		subT          = actual
		expectedIsSub = v == types.Contravariant
	)
	if expectedIsSub {
		sub, super, subT = ec, ac, expected
	}
	if _, supOK = e.o.SuperTypeMatching(sub.StarProjected(), super); !supOK {
		return diag.Errorf(diag.InfCannotProject,
			"can't project %s to %s: %s can't be assigned to %s",
			e.actual, e.expected, sub.QualifiedName(), super.QualifiedName())
	}
	seen, _ := e.o.SuperTypeMatching(subT, super)
	owner = super
	if expectedIsSub {
		eArgs, aArgs = seen, actual.Args
	} else {
		eArgs, aArgs = expected.Args, seen
	}

	for i, tp := range owner.TypeParams {
		if i >= len(eArgs) || i >= len(aArgs) {
			break
		}
		ea, aa := eArgs[i], aArgs[i]
		if ea.Type == nil || aa.Type == nil {
			if aa.Type != nil {
				e.harvest(aa.Type, types.Star)
			}
			continue
		}
		if crossing(ea.Variance, aa.Variance) {
			side := ea.Type
			if ea.Variance == types.Contravariant {
				side = aa.Type
			}
			e.bottom(side)
			continue
		}
		useSite, _ := Sum(ea.Variance, aa.Variance)
		site, err := Sum(tp.Variance, useSite)
		if err != nil {
			return err
		}
		if err := e.match(ea.Type, aa.Type, Mul(v, site)); err != nil {
			return err
		}
	}
	return nil
}

func crossing(a, b types.Variance) bool {
	return (a == types.Covariant && b == types.Contravariant) || (a == types.Contravariant && b == types.Covariant)
}

// bottom records "must equal Nothing" for every tracked parameter in t.
func (e *engine) bottom(t *types.Type) {
	nothing := types.MakeClass(e.nothing)
	for _, p := range types.UsedParams(t, nil) {
		if b := e.bounds[p]; b != nil {
			b.seen.add(types.Invariant)
			b.add(nothing, true)
			b.add(nothing, false)
		}
	}
}

// harvest records variance observations without bounds.
func (e *engine) harvest(t *types.Type, v types.Variance) {
	if t == nil {
		return
	}
	if b := e.tracked(t); b != nil {
		b.seen.add(v)
		return
	}
	c := t.Class()
	if c == nil {
		return
	}
	for i, a := range t.Args {
		if a.Type == nil {
			continue
		}
		declared := types.Invariant
		if i < len(c.TypeParams) {
			declared = c.TypeParams[i].Variance
		}
		site, err := Sum(declared, a.Variance)
		if err != nil {
			site = types.Invariant
		}
		e.harvest(a.Type, Mul(v, site))
	}
}

func (e *engine) isTop(t *types.Type) bool    { return t.Class() == e.any }
func (e *engine) isBottom(t *types.Type) bool { return t.Class() == e.nothing }

func (e *engine) resolve(p *types.TypeParam) (*types.Type, error) {
	b := e.bounds[p]
	switch b.seen.combined() {
	case types.Covariant:
		for _, u := range b.upper {
			if !e.isTop(u) {
				return u, nil
			}
		}
		return nil, nil
	case types.Contravariant:
		for _, l := range b.lower {
			if !e.isBottom(l) {
				return l, nil
			}
		}
		return nil, nil
	case types.Invariant:
		return e.resolveInvariant(p, b)
	}
	return types.MakeClass(e.nothing), nil
}

func (e *engine) resolveInvariant(p *types.TypeParam, b *bounds) (*types.Type, error) {
	upper := distinct(b.upper, e.isTop)
	if len(upper) == 1 {
		return upper[0], nil
	}
	if len(upper) > 1 {
		var closed []*types.Type
		for _, u := range upper {
			if c := u.Class(); c != nil && c.IsFinal() {
				closed = append(closed, u)
			}
		}
		if len(closed) == 1 {
			return closed[0], nil
		}
	}
	lower := distinct(b.lower, e.isBottom)
	var both []*types.Type
	for _, u := range distinct(b.upper, nil) {
		for _, l := range distinct(b.lower, nil) {
			if types.Equal(u, l) {
				both = append(both, u)
				break
			}
		}
	}
	if len(both) == 1 {
		return both[0], nil
	}
	if len(upper) > 1 || len(lower) > 1 || len(both) > 1 {
		cands := append(append([]*types.Type{}, upper...), lower...)
		return nil, diag.Errorf(diag.InfAmbiguous,
			"ambiguous inference of %s while projecting %s to %s", p.Name, e.actual, e.expected).
			WithCandidates(describe(distinct(cands, nil)))
	}
	if len(lower) == 1 {
		return lower[0], nil
	}
	return nil, nil
}

// distinct drops duplicates (structurally) and types rejected by skip.
func distinct(ts []*types.Type, skip func(*types.Type) bool) []*types.Type {
	var out []*types.Type
	for _, t := range ts {
		if skip != nil && skip(t) {
			continue
		}
		dup := false
		for _, o := range out {
			if types.Equal(o, t) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, t)
		}
	}
	return out
}

func describe(ts []*types.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

// Replace substitutes type parameters in t.
func Replace(t *types.Type, subst map[*types.TypeParam]*types.Type) *types.Type {
	return types.Replace(t, subst)
}

// ExpandAliases resolves aliases at every nesting level of t.
func ExpandAliases(o types.Oracle, t *types.Type) *types.Type {
	return types.Expand(o, t)
}
