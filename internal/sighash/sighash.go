// Package sighash computes structural identifiers of function signatures.
//
// Two functions get the same identifier when they have the same owner and
// the same signature up to type-parameter names and alias spelling: type
// parameters are written by ordinal and aliases are expanded first.
package sighash

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"dslgen/internal/types"
)

// Size is the number of digest bytes kept in an identifier.
const Size = 8

// ID is a truncated hex-encoded SHA-256 digest.
type ID string

// Hash digests s.
func Hash(s string) ID {
	sum := sha256.Sum256([]byte(s))
	return ID(hex.EncodeToString(sum[:Size]))
}

// Function returns the identifier of fn together with its canonical signature.
func Function(o types.Oracle, fn *types.Func) (ID, string) {
	sig := Signature(o, fn)
	return Hash(sig), sig
}

// Signature renders the canonical pre-hash form of fn:
// owner ":" <type params> (params) return.
func Signature(o types.Oracle, fn *types.Func) string {
	tps := fn.AllTypeParams()
	w := writer{o: o, ordinals: ordinals(tps)}

	w.b.WriteString(fn.OwnerQualifier())
	w.b.WriteByte(':')

	w.b.WriteByte('<')
	for i, p := range tps {
		if i > 0 {
			w.b.WriteByte(';')
		}
		if p.Reified {
			w.b.WriteString("reified")
		}
		w.b.WriteByte('<')
		for j, bound := range p.Bounds {
			if j > 0 {
				w.b.WriteByte(';')
			}
			w.typ(bound)
		}
		w.b.WriteByte('>')
	}
	w.b.WriteByte('>')

	w.b.WriteByte('(')
	for i, p := range fn.AllParams() {
		if i > 0 {
			w.b.WriteByte(';')
		}
		if p.Vararg {
			w.b.WriteByte('*')
		}
		w.typ(p.Type)
	}
	w.b.WriteByte(')')

	w.typ(fn.Return)
	return w.b.String()
}

// Specification returns the identifier of a specialization of contextName
// for the given return-type arguments, written in terms of newParams.
func Specification(o types.Oracle, newParams []*types.TypeParam, returnArgs []types.Arg, contextName string) (ID, string) {
	w := writer{o: o, ordinals: ordinals(newParams)}
	w.b.WriteString(contextName)
	w.b.WriteString(" with <")
	for i, a := range returnArgs {
		if i > 0 {
			w.b.WriteByte(',')
		}
		w.b.WriteString(a.Variance.Label())
		w.b.WriteByte(' ')
		if a.Type != nil {
			w.typ(a.Type)
		}
	}
	w.b.WriteByte('>')
	s := w.b.String()
	return Hash(s), s
}

func ordinals(tps []*types.TypeParam) map[*types.TypeParam]int {
	m := make(map[*types.TypeParam]int, len(tps))
	for i, p := range tps {
		m[p] = i
	}
	return m
}

type writer struct {
	o        types.Oracle
	ordinals map[*types.TypeParam]int
	b        strings.Builder
}

func (w *writer) typ(t *types.Type) {
	if t == nil {
		w.b.WriteString("?")
		return
	}
	t = w.o.ResolveAlias(t)
	switch d := t.Decl.(type) {
	case *types.TypeParam:
		w.b.WriteByte('T')
		if idx, ok := w.ordinals[d]; ok {
			w.b.WriteString(strconv.Itoa(idx))
		} else {
			// foreign parameter: keep its name so distinct owners stay distinct
			w.b.WriteString("?" + d.Owner + "#" + d.Name)
		}
	default:
		w.b.WriteString(d.QualifiedName())
	}
	w.b.WriteByte('<')
	for i, a := range t.Args {
		if i > 0 {
			w.b.WriteByte(';')
		}
		w.b.WriteString(a.Variance.Name())
		w.b.WriteByte(' ')
		if a.Type == nil {
			w.b.WriteByte('*')
			continue
		}
		w.typ(a.Type)
	}
	w.b.WriteByte('>')
	if t.Nullable {
		w.b.WriteByte('?')
	}
}
