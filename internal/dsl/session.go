// Package dsl generates builder DSLs for annotated functions.
//
// For every function it emits a context class holding one backing field per
// parameter plus an initialization bitmask, accessors that fill the fields,
// a create function calling the original function, and optionally an entry
// function. Parameters whose types have construction functions get nested
// DSLs, generated recursively. Generated DSLs are memoized per session by
// the structural identifier of the function signature.
//
// A Session is owned by one goroutine. Parallel builds create one Session
// per independent unit of work and never share them.
package dsl

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"dslgen/internal/diag"
	"dslgen/internal/emit"
	"dslgen/internal/naming"
	"dslgen/internal/options"
	"dslgen/internal/registry"
	"dslgen/internal/sighash"
	"dslgen/internal/trace"
	"dslgen/internal/types"
)

// State of one identifier within a session.
type State uint8

const (
	Unseen State = iota
	BeingProcessed
	Generated
)

func (s State) String() string {
	switch s {
	case BeingProcessed:
		return "being-processed"
	case Generated:
		return "generated"
	}
	return "unseen"
}

// Param describes one parameter of a generated context.
type Param struct {
	Name       string
	Backing    string
	Index      int
	Type       *types.Type // value type: vararg parameters are arrays
	Vararg     bool
	HasDefault bool
}

// Info describes a generated (or adopted) DSL.
type Info struct {
	ID        sighash.ID
	Signature string
	Package   string
	Context   *types.Class
	Params    []Param
	Return    *types.Type
	Func      *types.Func
	Adopted   bool // reused from a previous build
}

// Words is the number of bitmask words of the context.
func (i *Info) Words() int { return (len(i.Params) + 31) / 32 }

// Handle references a context class.
type Handle struct {
	ID      sighash.ID
	Package string
	Name    string
	Info    *Info
}

func (h Handle) QualifiedName() string {
	if h.Package == "" {
		return h.Name
	}
	return h.Package + "." + h.Name
}

// Config wires a Session to its collaborators.
type Config struct {
	Oracle   types.Oracle
	Builtins *types.Builtins
	Emitter  emit.Emitter
	Naming   naming.Policy  // defaults to naming.Default
	Options  options.Source // required for top-level functions
	Registry *registry.Registry
	Reporter diag.Reporter // warnings; defaults to the session bag
	Tracer   trace.Tracer

	AllowDefaultArgs bool
}

// Session holds memo tables of one generation run.
type Session struct {
	cfg    Config
	id     uuid.UUID
	bag    *diag.Bag
	tracer trace.Tracer
	span   uint64

	memo   map[sighash.ID]*Info
	sigs   map[sighash.ID]string
	state  map[sighash.ID]State
	specs  map[sighash.ID]State
	bodies map[sighash.ID]int // how many times a DSL body was generated
}

// NewSession validates cfg and returns an empty session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Oracle == nil || cfg.Builtins == nil {
		return nil, fmt.Errorf("dsl: oracle and builtins are required")
	}
	if cfg.Emitter == nil {
		return nil, fmt.Errorf("dsl: emitter is required")
	}
	if cfg.Naming == nil {
		cfg.Naming = naming.Default{}
	}
	if cfg.Options == nil {
		cfg.Options = options.NewTable()
	}
	s := &Session{
		cfg:    cfg,
		id:     uuid.New(),
		bag:    diag.NewBag(256),
		tracer: cfg.Tracer,
		memo:   make(map[sighash.ID]*Info),
		sigs:   make(map[sighash.ID]string),
		state:  make(map[sighash.ID]State),
		specs:  make(map[sighash.ID]State),
		bodies: make(map[sighash.ID]int),
	}
	if s.tracer == nil {
		s.tracer = trace.Nop
	}
	if s.cfg.Reporter == nil {
		s.cfg.Reporter = s.bag
	}
	s.cfg.Reporter = diag.Once(s.cfg.Reporter)
	return s, nil
}

// ID identifies the session in traces and registry entries.
func (s *Session) ID() string { return s.id.String() }

// Diagnostics returns warnings collected by the session.
func (s *Session) Diagnostics() *diag.Bag { return s.bag }

// State reports the state of an identifier.
func (s *Session) State(id sighash.ID) State { return s.state[id] }

// Lookup returns a memoized DSL.
func (s *Session) Lookup(id sighash.ID) (*Info, bool) {
	info, ok := s.memo[id]
	return info, ok
}

// Generations reports how many times the body of a DSL was generated.
func (s *Session) Generations(id sighash.ID) int { return s.bodies[id] }

// ProcessFunction generates the DSL of an annotated function and every
// nested DSL it needs. Errors are wrapped once with the function location;
// DSLs and specializations that were still being generated when the error
// happened are forgotten, completed ones stay memoized.
func (s *Session) ProcessFunction(ctx context.Context, fn *types.Func) (Handle, error) {
	if t := trace.FromContext(ctx); t != nil && t != trace.Nop {
		s.tracer = t
	}
	span := trace.Begin(s.tracer, trace.ScopeFunction, "process "+fn.QualifiedName(), trace.CurrentSpan(ctx).SpanID)
	span.WithExtra("session", s.ID())
	prev := s.span
	s.span = span.ID()
	defer func() { s.span = prev }()

	info, err := s.process(fn, nil, nil, nil)
	if err != nil {
		s.rollback()
		span.End("failed")
		return Handle{}, diag.Located(fn.Loc, err)
	}
	span.End(string(info.ID))
	return Handle{ID: info.ID, Package: info.Package, Name: info.Context.Name, Info: info}, nil
}

func (s *Session) rollback() {
	for id, st := range s.state {
		if st != BeingProcessed {
			continue
		}
		delete(s.memo, id)
		delete(s.sigs, id)
		delete(s.state, id)
	}
	for id, st := range s.specs {
		if st == BeingProcessed {
			delete(s.specs, id)
		}
	}
}

func (s *Session) point(name, detail string) {
	trace.Point(s.tracer, trace.ScopeFunction, s.span, name, detail)
}
