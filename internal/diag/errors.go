package diag

import (
	"errors"
	"fmt"
	"strings"

	"dslgen/internal/source"
)

// Kind separates user mistakes from engine bugs. Callers may recover from
// KindUser errors; KindInternal errors are always fatal.
type Kind uint8

const (
	KindUser Kind = iota
	KindInternal
)

func (k Kind) String() string {
	if k == KindInternal {
		return "internal"
	}
	return "user"
}

// Error is the single error type produced by generation and patching.
type Error struct {
	Code       Code
	Kind       Kind
	Msg        string
	Loc        source.Loc
	Candidates []string
	Err        error
}

// Errorf builds an Error whose kind is derived from the code.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Kind: code.Kind(), Msg: fmt.Sprintf(format, args...)}
}

// Internal reports an engine bug.
func Internal(format string, args ...any) *Error {
	return &Error{Code: IntUnreachable, Kind: KindInternal, Msg: fmt.Sprintf(format, args...)}
}

// WithCandidates attaches the enumerated alternatives of an ambiguity.
func (e *Error) WithCandidates(c []string) *Error {
	e.Candidates = append(e.Candidates[:0:0], c...)
	return e
}

func (e *Error) Error() string {
	var b strings.Builder
	if !e.Loc.IsZero() {
		b.WriteString(e.Loc.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Code.ID())
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if len(e.Candidates) > 0 {
		b.WriteString(" (candidates: ")
		b.WriteString(strings.Join(e.Candidates, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors by code so sentinel values can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Code == e.Code
}

// Sentinel returns a value usable with errors.Is for the given code.
func Sentinel(code Code) *Error {
	return &Error{Code: code, Kind: code.Kind()}
}

// AsError finds the outermost *Error in the chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsInternal reports whether err carries an engine-bug error anywhere in its chain.
func IsInternal(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindInternal {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// Located wraps err once with loc. An error that already carries a location
// is returned unchanged.
func Located(loc source.Loc, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		if !e.Loc.IsZero() {
			return err
		}
		cp := *e
		cp.Loc = loc
		return &cp
	}
	out := &Error{Code: UnknownCode, Kind: KindUser, Msg: "generation failed", Loc: loc, Err: err}
	if inner, ok := AsError(err); ok {
		if !inner.Loc.IsZero() {
			return err
		}
		out.Code, out.Kind = inner.Code, inner.Kind
	}
	return out
}
