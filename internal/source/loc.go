package source

import (
	"fmt"
)

// Loc points at a declaration inside a declaration file.
type Loc struct {
	File string
	Line uint32 // 1-based, 0 when unknown
	Col  uint32 // 1-based, 0 when unknown
}

// NoLoc is used for synthetic declarations (builtins, generated code).
var NoLoc = Loc{}

func (l Loc) IsZero() bool {
	return l == NoLoc
}

func (l Loc) String() string {
	switch {
	case l.File == "" && l.Line == 0:
		return "<synthetic>"
	case l.Line == 0:
		return l.File
	case l.Col == 0:
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Less orders locations by file, then line, then column.
func (l Loc) Less(other Loc) bool {
	if l.File != other.File {
		return l.File < other.File
	}
	if l.Line != other.Line {
		return l.Line < other.Line
	}
	return l.Col < other.Col
}
