package diag

import (
	"dslgen/internal/source"
)

type Note struct {
	Loc source.Loc
	Msg string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Loc
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Loc, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Loc, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func (d Diagnostic) WithNote(loc source.Loc, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Loc: loc, Msg: msg})
	return d
}

// FromError converts a generation error into an error diagnostic.
// Candidates become notes.
func FromError(err error) Diagnostic {
	e, ok := AsError(err)
	if !ok {
		return NewError(UnknownCode, source.NoLoc, err.Error())
	}
	d := NewError(e.Code, e.Loc, e.Msg)
	if e.Err != nil {
		d.Message += ": " + e.Err.Error()
	}
	for _, c := range e.Candidates {
		d = d.WithNote(e.Loc, "candidate: "+c)
	}
	return d
}
