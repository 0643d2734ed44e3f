package options

import "fmt"

// Tri is an optional boolean: unset flags resolve against a computed default.
type Tri uint8

const (
	Unset Tri = iota
	True
	False
)

// TriOf converts a plain boolean.
func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

// Resolve returns the flag value, or def when the flag is unset.
func (t Tri) Resolve(def bool) bool {
	switch t {
	case True:
		return true
	case False:
		return false
	}
	return def
}

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	}
	return "unset"
}

// UnmarshalYAML accepts booleans; absence leaves the flag unset.
func (t *Tri) UnmarshalYAML(unmarshal func(any) error) error {
	var b bool
	if err := unmarshal(&b); err != nil {
		return fmt.Errorf("expected a boolean: %w", err)
	}
	*t = TriOf(b)
	return nil
}
