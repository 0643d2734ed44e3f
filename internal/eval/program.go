// Package eval executes emitted DSL declarations in-process. Values are
// plain Go values: Kotlin Int is int, lists and arrays are []any, null is
// nil and a builder lambda is a Block.
package eval

import (
	"fmt"

	"dslgen/internal/diag"
	"dslgen/internal/emit"
	"dslgen/internal/types"
)

// Func is a native implementation of a declared function. Receiver
// arguments come first; a vararg parameter arrives as one []any.
type Func func(args []any) (any, error)

// DefaultsFunc is the default-arguments variant of a function. masks holds
// the context's bitmask words: a set bit means the argument was not given.
type DefaultsFunc func(args []any, masks []int32) (any, error)

// Block is a builder lambda applied to a fresh context.
type Block func(*Instance) error

// Pair is the value of kotlin.Pair.
type Pair struct {
	First, Second any
}

type native struct {
	fn       Func
	defaults DefaultsFunc
}

// Program indexes the generated files and the linked natives.
type Program struct {
	classes map[*types.Class]*emit.Class
	byName  map[string]*emit.Class
	funcs   map[*types.Class][]*emit.Func
	entries map[string]*emit.Func
	natives map[string]*native
}

// NewProgram indexes every file emitted into m.
func NewProgram(m *emit.Memory) *Program {
	p := &Program{
		classes: make(map[*types.Class]*emit.Class),
		byName:  make(map[string]*emit.Class),
		funcs:   make(map[*types.Class][]*emit.Func),
		entries: make(map[string]*emit.Func),
		natives: make(map[string]*native),
	}
	for _, f := range m.Files() {
		p.add(f)
	}
	return p
}

func (p *Program) add(f *emit.File) {
	for _, c := range f.Classes {
		p.classes[c.Decl] = c
		p.byName[c.Decl.QualifiedName()] = c
	}
	for _, fn := range f.Funcs {
		if fn.Role == emit.RoleEntry {
			name := fn.Name
			if f.Package != "" {
				name = f.Package + "." + fn.Name
			}
			p.entries[name] = fn
			continue
		}
		if fn.Receiver == nil || fn.Receiver.Class() == nil {
			continue
		}
		c := fn.Receiver.Class()
		p.funcs[c] = append(p.funcs[c], fn)
	}
}

// Define links a declared function (by qualified name) to its implementation.
func (p *Program) Define(qualified string, fn Func) {
	p.native(qualified).fn = fn
}

// DefineDefaults links the default-arguments variant of a function.
func (p *Program) DefineDefaults(qualified string, fn DefaultsFunc) {
	p.native(qualified).defaults = fn
}

func (p *Program) native(name string) *native {
	n, ok := p.natives[name]
	if !ok {
		n = &native{}
		p.natives[name] = n
	}
	return n
}

// New creates an empty context instance.
func (p *Program) New(context string) (*Instance, error) {
	c, ok := p.byName[context]
	if !ok {
		return nil, diag.Errorf(diag.RunUnresolvedContext, "context %s is not generated", context)
	}
	return p.instantiate(c)
}

// Entry calls the entry function name (package-qualified) with block.
func (p *Program) Entry(name string, block Block) (any, error) {
	fn, ok := p.entries[name]
	if !ok {
		return nil, diag.Errorf(diag.RunUnknownAccessor, "no entry function %s", name)
	}
	env := make(map[string]any, len(fn.Params))
	for _, prm := range fn.Params {
		env[prm.Name] = block
	}
	return p.run(&frame{env: env}, fn)
}

// Build creates a context, applies block and returns the created value.
func (p *Program) Build(context string, block Block) (any, error) {
	in, err := p.New(context)
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

func (p *Program) instantiate(c *emit.Class) (*Instance, error) {
	in := &Instance{prog: p, class: c, fields: make(map[string]any, len(c.Fields))}
	for _, f := range c.Fields {
		if f.Mask > 0 {
			for len(in.masks) < f.Mask {
				in.masks = append(in.masks, 0)
			}
			in.masks[f.Mask-1] = -1
			continue
		}
		v, err := p.eval(&frame{in: in}, f.Init)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		in.fields[f.Name] = v
	}
	return in, nil
}
