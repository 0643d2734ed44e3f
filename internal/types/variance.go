package types

import "fmt"

// Variance describes how a type argument may vary, either as declared on a
// type parameter or as a use-site projection.
type Variance uint8

const (
	Invariant Variance = iota
	Covariant
	Contravariant
	Star
)

func (v Variance) String() string {
	switch v {
	case Invariant:
		return "invariant"
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	case Star:
		return "star"
	default:
		return fmt.Sprintf("Variance(%d)", v)
	}
}

// Label is the source keyword for the variance ("" for invariant).
func (v Variance) Label() string {
	switch v {
	case Covariant:
		return "out"
	case Contravariant:
		return "in"
	case Star:
		return "*"
	}
	return ""
}

// Name is the upper-case form used in canonical signatures.
func (v Variance) Name() string {
	switch v {
	case Invariant:
		return "INVARIANT"
	case Covariant:
		return "COVARIANT"
	case Contravariant:
		return "CONTRAVARIANT"
	case Star:
		return "STAR"
	}
	return "UNKNOWN"
}

// ParseVariance accepts the source keywords "", "out", "in" and "*".
func ParseVariance(s string) (Variance, error) {
	switch s {
	case "", "invariant":
		return Invariant, nil
	case "out":
		return Covariant, nil
	case "in":
		return Contravariant, nil
	case "*":
		return Star, nil
	}
	return Invariant, fmt.Errorf("invalid variance %q (expected: out|in|*)", s)
}
