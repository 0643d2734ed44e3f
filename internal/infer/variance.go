package infer

import (
	"dslgen/internal/diag"
	"dslgen/internal/types"
)

// Sum combines two variances describing the same nesting level (declared
// and use-site). Star wins, invariant is neutral, equal variances stay and
// opposite ones conflict.
func Sum(a, b types.Variance) (types.Variance, error) {
	switch {
	case a == types.Star || b == types.Star:
		return types.Star, nil
	case a == types.Invariant:
		return b, nil
	case b == types.Invariant:
		return a, nil
	case a == b:
		return a, nil
	}
	return types.Invariant, diag.Errorf(diag.InfVarianceConflict, "cannot combine %s with %s at one position", a, b)
}

// Mul composes the variance of an enclosing position with a nested one.
// Star wins, invariant absorbs, equal variances give covariant and
// different ones contravariant.
func Mul(a, b types.Variance) types.Variance {
	switch {
	case a == types.Star || b == types.Star:
		return types.Star
	case a == types.Invariant || b == types.Invariant:
		return types.Invariant
	case a == b:
		return types.Covariant
	}
	return types.Contravariant
}

// varianceSet records which variances a type parameter was observed at.
type varianceSet uint8

func (s *varianceSet) add(v types.Variance) { *s |= 1 << v }

func (s varianceSet) has(v types.Variance) bool { return s&(1<<v) != 0 }

// combined folds the observations: nothing or only star means star,
// invariant or both directions mean invariant.
func (s varianceSet) combined() types.Variance {
	co, contra := s.has(types.Covariant), s.has(types.Contravariant)
	switch {
	case s.has(types.Invariant) || (co && contra):
		return types.Invariant
	case co:
		return types.Covariant
	case contra:
		return types.Contravariant
	}
	return types.Star
}
