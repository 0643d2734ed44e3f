package bytecode

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"dslgen/internal/diag"
)

// Insn is one instruction. Only the operands of its shape are meaningful.
type Insn struct {
	Op    Opcode `msgpack:"op"`
	Var   int    `msgpack:"var,omitempty"`
	Owner string `msgpack:"owner,omitempty"`
	Name  string `msgpack:"name,omitempty"`
	Desc  string `msgpack:"desc,omitempty"`
	Itf   bool   `msgpack:"itf,omitempty"`
	Const any    `msgpack:"const,omitempty"`
	Label int    `msgpack:"label,omitempty"`
}

func (in Insn) String() string {
	switch in.Op.Shape() {
	case ShapeVar:
		return fmt.Sprintf("%s %d", in.Op, in.Var)
	case ShapeField, ShapeMethod:
		return fmt.Sprintf("%s %s.%s:%s", in.Op, in.Owner, in.Name, in.Desc)
	case ShapeType:
		return fmt.Sprintf("%s %s", in.Op, in.Owner)
	case ShapeLdc:
		return fmt.Sprintf("%s %v", in.Op, in.Const)
	case ShapeJump, ShapeLabel:
		return fmt.Sprintf("%s L%d", in.Op, in.Label)
	}
	return in.Op.String()
}

// Method is a method body.
type Method struct {
	Access    uint16 `msgpack:"access"`
	Name      string `msgpack:"name"`
	Desc      string `msgpack:"desc"`
	Code      []Insn `msgpack:"code"`
	MaxStack  uint16 `msgpack:"max_stack"`
	MaxLocals uint16 `msgpack:"max_locals"`
}

// Listing renders the code one instruction per line.
func (m *Method) Listing() string {
	var b strings.Builder
	for _, in := range m.Code {
		b.WriteString(in.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// MethodVisitor receives a method body instruction by instruction.
type MethodVisitor interface {
	VisitInsn(op Opcode)
	VisitVarInsn(op Opcode, index int)
	VisitFieldInsn(op Opcode, owner, name, desc string)
	VisitTypeInsn(op Opcode, typ string)
	VisitMethodInsn(op Opcode, owner, name, desc string, itf bool)
	VisitLdc(v any)
	VisitJump(op Opcode, label int)
	VisitLabel(label int)
	VisitMaxs(maxStack, maxLocals int)
	VisitEnd()
}

// Accept replays the body through v. Local indices are checked against
// the 16-bit range of the class format.
func (m *Method) Accept(v MethodVisitor) error {
	for i, in := range m.Code {
		switch in.Op.Shape() {
		case ShapePlain:
			v.VisitInsn(in.Op)
		case ShapeVar:
			if _, err := safecast.Conv[uint16](in.Var); err != nil {
				return diag.Errorf(diag.PatBadContainer, "%s: instruction %d: local index %d: %v", m.Name, i, in.Var, err)
			}
			v.VisitVarInsn(in.Op, in.Var)
		case ShapeField:
			v.VisitFieldInsn(in.Op, in.Owner, in.Name, in.Desc)
		case ShapeType:
			v.VisitTypeInsn(in.Op, in.Owner)
		case ShapeMethod:
			v.VisitMethodInsn(in.Op, in.Owner, in.Name, in.Desc, in.Itf)
		case ShapeLdc:
			v.VisitLdc(in.Const)
		case ShapeJump:
			v.VisitJump(in.Op, in.Label)
		case ShapeLabel:
			v.VisitLabel(in.Label)
		default:
			return diag.Errorf(diag.PatBadContainer, "%s: instruction %d: unknown opcode %s", m.Name, i, in.Op)
		}
	}
	v.VisitMaxs(int(m.MaxStack), int(m.MaxLocals))
	v.VisitEnd()
	return nil
}

// Recorder is a MethodVisitor that rebuilds a Method.
type Recorder struct {
	m   Method
	err error
}

// NewRecorder starts recording a method with the given header.
func NewRecorder(access uint16, name, desc string) *Recorder {
	return &Recorder{m: Method{Access: access, Name: name, Desc: desc}}
}

// Method returns the recorded method, or the first error hit while
// recording (max values out of range).
func (r *Recorder) Method() (*Method, error) {
	if r.err != nil {
		return nil, r.err
	}
	m := r.m
	return &m, nil
}

func (r *Recorder) add(in Insn) { r.m.Code = append(r.m.Code, in) }

func (r *Recorder) VisitInsn(op Opcode)               { r.add(Insn{Op: op}) }
func (r *Recorder) VisitVarInsn(op Opcode, index int) { r.add(Insn{Op: op, Var: index}) }
func (r *Recorder) VisitFieldInsn(op Opcode, owner, name, desc string) {
	r.add(Insn{Op: op, Owner: owner, Name: name, Desc: desc})
}
func (r *Recorder) VisitTypeInsn(op Opcode, typ string) { r.add(Insn{Op: op, Owner: typ}) }
func (r *Recorder) VisitMethodInsn(op Opcode, owner, name, desc string, itf bool) {
	r.add(Insn{Op: op, Owner: owner, Name: name, Desc: desc, Itf: itf})
}
func (r *Recorder) VisitLdc(v any)                 { r.add(Insn{Op: Ldc, Const: v}) }
func (r *Recorder) VisitJump(op Opcode, label int) { r.add(Insn{Op: op, Label: label}) }
func (r *Recorder) VisitLabel(label int)           { r.add(Insn{Op: Label, Label: label}) }

func (r *Recorder) VisitMaxs(maxStack, maxLocals int) {
	stack, err := safecast.Conv[uint16](maxStack)
	if err != nil {
		r.err = diag.Errorf(diag.PatBadContainer, "%s: max stack %d: %v", r.m.Name, maxStack, err)
		return
	}
	locals, err := safecast.Conv[uint16](maxLocals)
	if err != nil {
		r.err = diag.Errorf(diag.PatBadContainer, "%s: max locals %d: %v", r.m.Name, maxLocals, err)
		return
	}
	r.m.MaxStack, r.m.MaxLocals = stack, locals
}

func (r *Recorder) VisitEnd() {}

// Forward passes every call to Next. Embed it to override single methods.
type Forward struct {
	Next MethodVisitor
}

func (f Forward) VisitInsn(op Opcode)               { f.Next.VisitInsn(op) }
func (f Forward) VisitVarInsn(op Opcode, index int) { f.Next.VisitVarInsn(op, index) }
func (f Forward) VisitFieldInsn(op Opcode, owner, name, desc string) {
	f.Next.VisitFieldInsn(op, owner, name, desc)
}
func (f Forward) VisitTypeInsn(op Opcode, typ string) { f.Next.VisitTypeInsn(op, typ) }
func (f Forward) VisitMethodInsn(op Opcode, owner, name, desc string, itf bool) {
	f.Next.VisitMethodInsn(op, owner, name, desc, itf)
}
func (f Forward) VisitLdc(v any)                    { f.Next.VisitLdc(v) }
func (f Forward) VisitJump(op Opcode, label int)    { f.Next.VisitJump(op, label) }
func (f Forward) VisitLabel(label int)              { f.Next.VisitLabel(label) }
func (f Forward) VisitMaxs(maxStack, maxLocals int) { f.Next.VisitMaxs(maxStack, maxLocals) }
func (f Forward) VisitEnd()                         { f.Next.VisitEnd() }
