package eval

import (
	"slices"
	"strconv"

	"dslgen/internal/diag"
	"dslgen/internal/emit"
)

// frame is one running function. patched is set once the defaults marker
// has executed: from then on the call goes to the defaults variant and
// not-null casts let unset values through, like the patched bytecode.
type frame struct {
	in      *Instance
	env     map[string]any
	patched bool
}

func (p *Program) run(fr *frame, fn *emit.Func) (any, error) {
	for _, st := range fn.Body {
		switch st := st.(type) {
		case emit.RequireSet:
			if fr.in.bitSet(st.Bit) {
				return nil, diag.Errorf(diag.RunRequiredNotSet, "backing property %s hasn't been initialized", st.Param)
			}
		case emit.RequireUnset:
			if !fr.in.bitSet(st.Bit) {
				return nil, diag.Errorf(diag.RunAlreadyAssigned, "backing property %s has been already initialized", st.Param)
			}
		case emit.MarkSet:
			fr.in.clearBit(st.Bit)
		case emit.Assign:
			v, err := p.eval(fr, st.Value)
			if err != nil {
				return nil, err
			}
			fr.in.fields[st.Field] = v
		case emit.Append:
			v, err := p.eval(fr, st.Value)
			if err != nil {
				return nil, err
			}
			l, ok := fr.in.fields[st.Field].(*[]any)
			if !ok {
				return nil, diag.Internal("field %s of %s is not a list", st.Field, fr.in.Context())
			}
			*l = append(*l, v)
		case emit.DefaultsMarker:
			fr.patched = true
		case emit.Return:
			return p.eval(fr, st.Value)
		default:
			return nil, diag.Internal("unexpected statement %T", st)
		}
	}
	return nil, nil
}

func (in *Instance) bitSet(b emit.Bit) bool {
	if b.Word >= len(in.masks) {
		return false
	}
	return in.masks[b.Word]&(int32(1)<<b.Bit) != 0
}

func (in *Instance) clearBit(b emit.Bit) {
	if b.Word < len(in.masks) {
		in.masks[b.Word] &^= int32(1) << b.Bit
	}
}

func (p *Program) eval(fr *frame, x emit.Expr) (any, error) {
	switch x := x.(type) {
	case emit.Lit:
		return literal(x.Text)
	case emit.Ref:
		v, ok := fr.env[x.Name]
		if !ok {
			return nil, diag.Internal("unbound parameter %s", x.Name)
		}
		return v, nil
	case emit.FieldRef:
		v, ok := fr.in.fields[x.Name]
		if !ok {
			return nil, diag.Internal("%s has no field %s", fr.in.Context(), x.Name)
		}
		if l, isList := v.(*[]any); isList {
			return slices.Clone(*l), nil
		}
		return v, nil
	case emit.EmptyList:
		return &[]any{}, nil
	case emit.Cast:
		v, err := p.eval(fr, x.X)
		if err != nil {
			return nil, err
		}
		if x.Kind == emit.CastNotNull && v == nil && !fr.patched {
			return nil, diag.Errorf(diag.RunRequiredNotSet, "null cannot be cast to non-null type %s", x.To)
		}
		return v, nil
	case emit.ToArray:
		v, err := p.eval(fr, x.X)
		if err != nil {
			return nil, err
		}
		l, ok := v.([]any)
		if !ok {
			return nil, diag.Internal("toArray of %T", v)
		}
		return slices.Clone(l), nil
	case emit.Call:
		return p.call(fr, x)
	case emit.Build:
		return p.build(fr, x)
	}
	return nil, diag.Internal("unexpected expression %T", x)
}

func (p *Program) call(fr *frame, c emit.Call) (any, error) {
	args := make([]any, 0, len(c.Args))
	for _, a := range c.Args {
		v, err := p.eval(fr, a.X)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	name := c.Target.QualifiedName()
	n := p.natives[name]
	if fr.patched {
		if n == nil || n.defaults == nil {
			return nil, diag.Errorf(diag.RunNotDefaultable, "%s has no defaults variant", name)
		}
		return n.defaults(args, fr.in.Masks())
	}
	if n == nil || n.fn == nil {
		return nil, diag.Errorf(diag.RunMissingTarget, "%s is not linked", name)
	}
	return n.fn(args)
}

func (p *Program) build(fr *frame, b emit.Build) (any, error) {
	c, ok := p.classes[b.Context.Class()]
	if !ok {
		return nil, diag.Errorf(diag.RunUnresolvedContext, "context %s is not generated", b.Context)
	}
	v, ok := fr.env[b.Block]
	if !ok {
		return nil, diag.Internal("unbound builder %s", b.Block)
	}
	block, ok := v.(Block)
	if !ok {
		return nil, diag.Internal("builder %s is %T", b.Block, v)
	}
	in, err := p.instantiate(c)
	if err != nil {
		return nil, err
	}
	if block != nil {
		if err := block(in); err != nil {
			return nil, err
		}
	}
	return in.Create()
}

var literals = map[string]any{
	"null":         nil,
	"false":        false,
	"true":         true,
	"0.toByte()":   int8(0),
	"0.toUByte()":  uint8(0),
	"0.toShort()":  int16(0),
	"0.toUShort()": uint16(0),
	"0.toChar()":   rune(0),
	"0u":           uint32(0),
	"0L":           int64(0),
	"0uL":          uint64(0),
	"0f":           float32(0),
	"0.0":          float64(0),
}

func literal(text string) (any, error) {
	if v, ok := literals[text]; ok {
		return v, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, diag.Internal("unsupported literal %q", text)
	}
	return n, nil
}
