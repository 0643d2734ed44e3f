// Package patch rewrites generated create functions so that calls guarded
// by the defaults marker go to the default-arguments variant of their
// target, passing the context's initialization bitmask.
//
// The rewrite relies on the shape the generator emits after the marker:
//
//	INVOKESTATIC  marker ()V
//	[NEW result; DUP]
//	{ALOAD ctx; GETFIELD ctx.arg; DUP; INVOKESTATIC checkNotNull}*
//	INVOKESTATIC/INVOKESPECIAL target
//
// Anything else after a marker produces undefined output.
package patch

import (
	"strings"

	"dslgen/internal/bytecode"
	"dslgen/internal/diag"
	"dslgen/internal/emit"
)

const (
	// MarkerOwner is the class holding the marker function.
	MarkerOwner = "dslgen/annotations/PostProcessorTargetMarkerKt"
	markerDesc  = "()V"

	intrinsicsOwner = "kotlin/jvm/internal/Intrinsics"
	checkNotNull    = "checkNotNull"
	checkNotNullSig = "(Ljava/lang/Object;)V"

	defaultsSuffix     = "$default"
	defaultCtorMarker  = "Lkotlin/jvm/internal/DefaultConstructorMarker;"
	defaultsMarkerType = "Ljava/lang/Object;"
	wordBits           = 32
)

// MarkerName is the short name of the marker function.
var MarkerName = emit.MarkerFunc[strings.LastIndexByte(emit.MarkerFunc, '.')+1:]

type state uint8

const (
	idle state = iota
	armed
)

// MaskName names the bitmask field of word w in the context class.
type MaskName func(w int) string

// patcher is the Idle/Armed state machine over one method body.
type patcher struct {
	bytecode.Forward
	mask MaskName

	state    state
	justNew  bool
	local    int    // last ALOAD index
	owner    string // last GETFIELD owner
	maxWords int
	changed  bool
	err      error
}

func (p *patcher) VisitInsn(op bytecode.Opcode) {
	if p.state == armed && op == bytecode.Dup {
		if !p.justNew {
			return // dup of a null check
		}
		p.justNew = false
	}
	p.Forward.VisitInsn(op)
}

func (p *patcher) VisitVarInsn(op bytecode.Opcode, index int) {
	if p.state == armed && op == bytecode.Aload {
		p.local = index
	}
	p.Forward.VisitVarInsn(op, index)
}

func (p *patcher) VisitFieldInsn(op bytecode.Opcode, owner, name, desc string) {
	if p.state == armed && op == bytecode.Getfield {
		p.owner = owner
	}
	p.Forward.VisitFieldInsn(op, owner, name, desc)
}

func (p *patcher) VisitTypeInsn(op bytecode.Opcode, typ string) {
	if p.state == armed {
		p.justNew = op == bytecode.New
	}
	p.Forward.VisitTypeInsn(op, typ)
}

func (p *patcher) VisitMethodInsn(op bytecode.Opcode, owner, name, desc string, itf bool) {
	if p.state == idle {
		if op == bytecode.Invokestatic && owner == MarkerOwner && name == MarkerName && desc == markerDesc {
			p.state = armed
			return
		}
		p.Forward.VisitMethodInsn(op, owner, name, desc, itf)
		return
	}

	if op == bytecode.Invokestatic && owner == intrinsicsOwner && name == checkNotNull && desc == checkNotNullSig {
		return
	}
	if op != bytecode.Invokestatic && op != bytecode.Invokespecial {
		p.Forward.VisitMethodInsn(op, owner, name, desc, itf)
		return
	}

	n, err := bytecode.ArgCount(desc)
	if err != nil {
		p.fail(err)
		return
	}
	words := max(1, (n+wordBits-1)/wordBits)
	ctor := name == "<init>"
	extra := strings.Repeat("I", words)
	if ctor {
		extra += defaultCtorMarker
	} else {
		extra += defaultsMarkerType
		name += defaultsSuffix
	}
	widened, err := bytecode.AppendParams(desc, extra)
	if err != nil {
		p.fail(err)
		return
	}
	if p.owner == "" || p.local < 0 {
		p.fail(diag.Errorf(diag.PatBadContainer, "defaults call to %s.%s without a context read", owner, name))
		return
	}

	for w := range words {
		p.Forward.VisitVarInsn(bytecode.Aload, p.local)
		p.Forward.VisitFieldInsn(bytecode.Getfield, p.owner, p.mask(w), "I")
	}
	p.Forward.VisitInsn(bytecode.AconstNull)
	p.Forward.VisitMethodInsn(op, owner, name, widened, itf)

	p.state = idle
	p.justNew = false
	p.local = -1
	p.owner = ""
	p.changed = true
	p.maxWords = max(p.maxWords, words)
}

func (p *patcher) VisitMaxs(maxStack, maxLocals int) {
	if p.changed {
		// bitmask words plus the trailing null; locals are untouched
		maxStack += p.maxWords + 1
	}
	p.Forward.VisitMaxs(maxStack, maxLocals)
}

func (p *patcher) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Method patches one method body. An unchanged method is returned as is.
func Method(m *bytecode.Method, mask MaskName) (*bytecode.Method, bool, error) {
	rec := bytecode.NewRecorder(m.Access, m.Name, m.Desc)
	p := &patcher{Forward: bytecode.Forward{Next: rec}, mask: mask, local: -1}
	if err := m.Accept(p); err != nil {
		return nil, false, err
	}
	if p.err != nil {
		return nil, false, wrapMethod(m, p.err)
	}
	if !p.changed {
		return m, false, nil
	}
	out, err := rec.Method()
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

func wrapMethod(m *bytecode.Method, err error) error {
	return &diag.Error{Code: diag.PatBadContainer, Kind: diag.KindUser, Msg: "method " + m.Name + m.Desc, Err: err}
}
