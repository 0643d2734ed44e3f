// Package bytecode is an abstract JVM-style instruction stream: methods are
// flat instruction lists replayed through a MethodVisitor, stored in .dslc
// class containers.
package bytecode

import "fmt"

// Opcode values follow the JVM specification.
type Opcode uint8

const (
	Nop             Opcode = 0
	AconstNull      Opcode = 1
	Iconst0         Opcode = 3
	Ldc             Opcode = 18
	Iload           Opcode = 21
	Aload           Opcode = 25
	Istore          Opcode = 54
	Astore          Opcode = 58
	Pop             Opcode = 87
	Dup             Opcode = 89
	Goto            Opcode = 167
	Ireturn         Opcode = 172
	Areturn         Opcode = 176
	Return          Opcode = 177
	Getstatic       Opcode = 178
	Putstatic       Opcode = 179
	Getfield        Opcode = 180
	Putfield        Opcode = 181
	Invokevirtual   Opcode = 182
	Invokespecial   Opcode = 183
	Invokestatic    Opcode = 184
	Invokeinterface Opcode = 185
	New             Opcode = 187
	Checkcast       Opcode = 192
	Ifnull          Opcode = 198
	Ifnonnull       Opcode = 199

	// Label is a pseudo instruction marking a jump target.
	Label Opcode = 255
)

// Shape groups opcodes by operand layout, i.e. by visitor method.
type Shape uint8

const (
	ShapeUnknown Shape = iota
	ShapePlain
	ShapeVar
	ShapeField
	ShapeType
	ShapeMethod
	ShapeLdc
	ShapeJump
	ShapeLabel
)

var opcodeNames = map[Opcode]string{
	Nop: "NOP", AconstNull: "ACONST_NULL", Iconst0: "ICONST_0", Ldc: "LDC",
	Iload: "ILOAD", Aload: "ALOAD", Istore: "ISTORE", Astore: "ASTORE",
	Pop: "POP", Dup: "DUP", Goto: "GOTO",
	Ireturn: "IRETURN", Areturn: "ARETURN", Return: "RETURN",
	Getstatic: "GETSTATIC", Putstatic: "PUTSTATIC", Getfield: "GETFIELD", Putfield: "PUTFIELD",
	Invokevirtual: "INVOKEVIRTUAL", Invokespecial: "INVOKESPECIAL", Invokestatic: "INVOKESTATIC", Invokeinterface: "INVOKEINTERFACE",
	New: "NEW", Checkcast: "CHECKCAST", Ifnull: "IFNULL", Ifnonnull: "IFNONNULL",
	Label: "LABEL",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("OP(%d)", uint8(op))
}

// Shape reports the operand layout of op.
func (op Opcode) Shape() Shape {
	switch op {
	case Nop, AconstNull, Iconst0, Pop, Dup, Ireturn, Areturn, Return:
		return ShapePlain
	case Iload, Aload, Istore, Astore:
		return ShapeVar
	case Getstatic, Putstatic, Getfield, Putfield:
		return ShapeField
	case New, Checkcast:
		return ShapeType
	case Invokevirtual, Invokespecial, Invokestatic, Invokeinterface:
		return ShapeMethod
	case Ldc:
		return ShapeLdc
	case Goto, Ifnull, Ifnonnull:
		return ShapeJump
	case Label:
		return ShapeLabel
	}
	return ShapeUnknown
}
