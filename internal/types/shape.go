package types

// Primitive classes are stored unboxed and never get a nested DSL.
var primitiveNames = map[string]string{
	"kotlin.Boolean": "false",
	"kotlin.Byte":    "0.toByte()",
	"kotlin.UByte":   "0.toUByte()",
	"kotlin.Short":   "0.toShort()",
	"kotlin.UShort":  "0.toUShort()",
	"kotlin.Char":    "0.toChar()",
	"kotlin.Int":     "0",
	"kotlin.UInt":    "0u",
	"kotlin.Float":   "0f",
	"kotlin.Long":    "0L",
	"kotlin.ULong":   "0uL",
	"kotlin.Double":  "0.0",
}

// IsPrimitive reports whether t is a non-null primitive.
func IsPrimitive(t *Type) bool {
	if t == nil || t.Nullable {
		return false
	}
	c := t.Class()
	if c == nil {
		return false
	}
	_, ok := primitiveNames[c.QualifiedName()]
	return ok
}

// ZeroLiteral is the initializer of a backing field holding t.
func ZeroLiteral(t *Type) string {
	if t == nil || t.Nullable || t.Class() == nil {
		return "null"
	}
	if lit, ok := primitiveNames[t.Class().QualifiedName()]; ok {
		return lit
	}
	return "null"
}

// BackingType is the type of the field storing a value of type t:
// primitives as-is, everything else nullable.
func BackingType(t *Type) *Type {
	if IsPrimitive(t) {
		return t
	}
	return t.WithNullable(true)
}

// IsArrayShaped reports whether t is Array<...> or a primitive array.
func (b *Builtins) IsArrayShaped(t *Type) bool {
	if t == nil || t.Nullable {
		return false
	}
	c := t.Class()
	if c == nil {
		return false
	}
	if c == b.Array {
		return true
	}
	_, ok := b.PrimitiveArrays[c]
	return ok
}

// ArrayElement returns the element type of an array-shaped type, or nil.
func (b *Builtins) ArrayElement(t *Type) *Type {
	if !b.IsArrayShaped(t) {
		return nil
	}
	c := t.Class()
	if c == b.Array {
		if len(t.Args) == 0 || t.Args[0].Type == nil {
			return MakeClass(b.Any).WithNullable(true)
		}
		return t.Args[0].Type
	}
	return MakeClass(b.PrimitiveArrays[c])
}

// ArrayConversion names the conversion turning a list into t:
// "Typed" for Array<T>, the element name for primitive arrays.
func (b *Builtins) ArrayConversion(t *Type) string {
	c := t.Class()
	if c == b.Array {
		return "Typed"
	}
	if elem, ok := b.PrimitiveArrays[c]; ok {
		return elem.Name
	}
	return ""
}

// ArrayOf returns Array<elem>.
func (b *Builtins) ArrayOf(elem *Type) *Type {
	return MakeClass(b.Array, elem)
}

// ValueType is the declared type of a parameter as seen by callers:
// Array<T> for `vararg p: T`.
func (b *Builtins) ValueType(p Param) *Type {
	if p.Vararg {
		return b.ArrayOf(p.Type)
	}
	return p.Type
}

func (b *Builtins) IsAny(t *Type) bool     { return t != nil && t.Class() == b.Any }
func (b *Builtins) IsNothing(t *Type) bool { return t != nil && t.Class() == b.Nothing }
