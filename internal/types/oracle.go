package types

// Scope narrows a function lookup to a package or to a class.
type Scope struct {
	Package string
	Class   *Class
}

// Oracle answers the semantic questions the generator asks about types.
// Implementations must be side-effect free: the same question always gets
// the same answer within a session.
type Oracle interface {
	// ResolveAlias expands top-level aliases until t no longer refers to one.
	ResolveAlias(t *Type) *Type
	// IsAssignable reports whether a value of type from can be stored in to.
	IsAssignable(from, to *Type) bool
	// SuperTypeMatching returns the arguments target is applied to when t is
	// seen as target, or false if t is not a subtype of target.
	SuperTypeMatching(t *Type, target *Class) ([]Arg, bool)
	// FindFunctions returns functions with the given short name in scope.
	// For a class scope, ConstructorName selects constructors.
	FindFunctions(scope Scope, name string) []*Func
	ConstructorsOf(c *Class) []*Func
	// ClassByName looks a class up by qualified name.
	ClassByName(qualified string) (*Class, bool)
}

// Expand resolves aliases at every nesting level.
func Expand(o Oracle, t *Type) *Type {
	if t == nil {
		return nil
	}
	t = o.ResolveAlias(t)
	if len(t.Args) == 0 {
		return t
	}
	changed := false
	args := make([]Arg, len(t.Args))
	for i, a := range t.Args {
		args[i] = a
		if a.Type == nil {
			continue
		}
		if nt := Expand(o, a.Type); nt != a.Type {
			args[i].Type = nt
			changed = true
		}
	}
	if !changed {
		return t
	}
	return t.WithArgs(args)
}
