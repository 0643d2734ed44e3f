// Package model loads the declarations the generator works on from YAML
// documents and builds a types.Universe from them.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"dslgen/internal/diag"
	"dslgen/internal/options"
	"dslgen/internal/source"
	"dslgen/internal/types"
)

// Exts are the file extensions LoadDir picks up.
var Exts = []string{".yaml", ".yml"}

// Result is a loaded declaration set.
type Result struct {
	Universe *types.Universe
	Options  *options.Table
	// Annotated lists functions carrying generation options in declaration order.
	Annotated []*types.Func
	Files     []string
}

// Parse decodes one declaration document.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &diag.Error{Code: diag.CfgBadDeclaration, Kind: diag.KindUser,
			Msg: "parsing declarations", Loc: source.Loc{File: path}, Err: err}
	}
	return &f, nil
}

// LoadFiles reads and resolves every file as one declaration set.
func LoadFiles(paths ...string) (*Result, error) {
	l := newLoader()
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		f, err := Parse(data, p)
		if err != nil {
			return nil, err
		}
		l.add(p, f)
	}
	return l.build()
}

// LoadDir loads every declaration file below root.
func LoadDir(root string) (*Result, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range Exts {
			if ext == e {
				paths = append(paths, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no declaration files under %s", root)
	}
	sort.Strings(paths)
	return LoadFiles(paths...)
}

// Build resolves already parsed documents; keys of files are used as file
// names in locations.
func Build(files map[string]*File) (*Result, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	l := newLoader()
	for _, name := range names {
		l.add(name, files[name])
	}
	return l.build()
}

type unit struct {
	path string
	file *File
}

type loader struct {
	u     *types.Universe
	opts  *options.Table
	units []unit
	out   []*types.Func
}

func newLoader() *loader {
	return &loader{u: types.NewUniverse(), opts: options.NewTable()}
}

func (l *loader) add(path string, f *File) {
	l.units = append(l.units, unit{path: path, file: f})
}

func loc(path string, p pos) source.Loc {
	out := source.Loc{File: path}
	// positions beyond uint32 are dropped, not truncated
	if line, err := safecast.Conv[uint32](p.line); err == nil {
		out.Line = line
	}
	if col, err := safecast.Conv[uint32](p.col); err == nil {
		out.Col = col
	}
	return out
}

func (l *loader) errorf(path string, p pos, format string, args ...any) error {
	e := diag.Errorf(diag.CfgBadDeclaration, format, args...)
	e.Loc = loc(path, p)
	return e
}

// wrap attaches a location to a type-expression error.
func (l *loader) wrap(path string, p pos, what string, err error) error {
	if err == nil {
		return nil
	}
	var de *diag.Error
	if errors.As(err, &de) && !de.Loc.IsZero() {
		return err
	}
	return &diag.Error{Code: diag.CfgBadDeclaration, Kind: diag.KindUser, Msg: what, Loc: loc(path, p), Err: err}
}

func (l *loader) build() (*Result, error) {
	// declare first so that declarations may refer to each other in any order
	classes := make(map[*classDecl]*types.Class)
	aliases := make(map[*aliasDecl]*types.Alias)
	for _, un := range l.units {
		f := un.file
		for _, m := range f.Markers {
			c := &types.Class{Package: f.Package, Name: m, Kind: types.ClassAnnotation, DslMarker: true, Loc: source.Loc{File: un.path}}
			if err := l.u.AddClass(c); err != nil {
				return nil, l.errorf(un.path, pos{}, "%v", err)
			}
		}
		for i := range f.Classes {
			d := &f.Classes[i]
			c, err := l.declareClass(un, d)
			if err != nil {
				return nil, err
			}
			classes[d] = c
		}
		for i := range f.Aliases {
			d := &f.Aliases[i]
			a := &types.Alias{Package: f.Package, Name: d.Name, Loc: loc(un.path, d.pos)}
			a.TypeParams = typeParams(a.QualifiedName(), d.TypeParams)
			if err := l.u.AddAlias(a); err != nil {
				return nil, l.errorf(un.path, d.pos, "%v", err)
			}
			aliases[d] = a
		}
	}

	for _, un := range l.units {
		f := un.file
		for i := range f.Aliases {
			d := &f.Aliases[i]
			a := aliases[d]
			sc := newScope(f.Package, nil, a.TypeParams)
			if err := l.bounds(un, d.pos, sc, a.TypeParams, d.TypeParams); err != nil {
				return nil, err
			}
			t, err := l.typeOf(un, d.pos, sc, d.Target)
			if err != nil {
				return nil, err
			}
			a.Target = t
		}
		for i := range f.Classes {
			if err := l.resolveClass(un, &f.Classes[i], classes[&f.Classes[i]]); err != nil {
				return nil, err
			}
		}
		for i := range f.Functions {
			if _, err := l.function(un, &f.Functions[i], nil); err != nil {
				return nil, err
			}
		}
	}

	files := make([]string, len(l.units))
	for i, un := range l.units {
		files[i] = un.path
	}
	return &Result{Universe: l.u, Options: l.opts, Annotated: l.out, Files: files}, nil
}

func (l *loader) declareClass(un unit, d *classDecl) (*types.Class, error) {
	if d.Name == "" {
		return nil, l.errorf(un.path, d.pos, "class without a name")
	}
	c := &types.Class{Package: un.file.Package, Name: d.Name, Open: d.Open, Loc: loc(un.path, d.pos)}
	switch strings.ToLower(d.Kind) {
	case "", "class":
		c.Kind = types.ClassRegular
	case "interface":
		c.Kind = types.ClassInterface
	case "annotation":
		c.Kind = types.ClassAnnotation
	case "object":
		c.Kind = types.ClassObject
	default:
		return nil, l.errorf(un.path, d.pos, "class %s: unknown kind %q (expected: class|interface|annotation|object)", d.Name, d.Kind)
	}
	c.TypeParams = typeParams(c.QualifiedName(), d.TypeParams)
	if err := l.u.AddClass(c); err != nil {
		return nil, l.errorf(un.path, d.pos, "%v", err)
	}
	return c, nil
}

func (l *loader) resolveClass(un unit, d *classDecl, c *types.Class) error {
	sc := newScope(un.file.Package, nil, c.TypeParams)
	if err := l.bounds(un, d.pos, sc, c.TypeParams, d.TypeParams); err != nil {
		return err
	}
	for _, s := range d.Supertypes {
		t, err := l.typeOf(un, d.pos, sc, s)
		if err != nil {
			return err
		}
		if t.Class() == nil {
			return l.errorf(un.path, d.pos, "supertype %s of %s is not a class", s, c.Name)
		}
		c.Supertypes = append(c.Supertypes, t)
	}
	if d.Constructor != nil {
		fn, err := l.constructor(un, d.Constructor, c, sc)
		if err != nil {
			return err
		}
		c.Primary = fn
	}
	for i := range d.Constructors {
		if _, err := l.constructor(un, &d.Constructors[i], c, sc); err != nil {
			return err
		}
	}
	for i := range d.Functions {
		if _, err := l.function(un, &d.Functions[i], c); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) constructor(un unit, d *ctorDecl, c *types.Class, sc *scope) (*types.Func, error) {
	vis, err := visibility(d.Visibility)
	if err != nil {
		return nil, l.errorf(un.path, d.pos, "constructor of %s: %v", c.Name, err)
	}
	fn := &types.Func{Package: c.Package, Owner: c, Name: types.ConstructorName, Return: c.Self(), Visibility: vis, Loc: loc(un.path, d.pos)}
	if fn.Params, err = l.params(un, sc, d.Params); err != nil {
		return nil, err
	}
	l.u.AddFunc(fn)
	return fn, nil
}

func (l *loader) function(un unit, d *funcDecl, owner *types.Class) (*types.Func, error) {
	if d.Name == "" {
		return nil, l.errorf(un.path, d.pos, "function without a name")
	}
	vis, err := visibility(d.Visibility)
	if err != nil {
		return nil, l.errorf(un.path, d.pos, "function %s: %v", d.Name, err)
	}
	fn := &types.Func{Package: un.file.Package, Owner: owner, Name: d.Name, Visibility: vis, Loc: loc(un.path, d.pos)}
	fn.TypeParams = typeParams(fn.QualifiedName(), d.TypeParams)

	var outer []*types.TypeParam
	if owner != nil && owner.Kind != types.ClassObject {
		outer = owner.TypeParams
	}
	sc := newScope(un.file.Package, outer, fn.TypeParams)
	if err := l.bounds(un, d.pos, sc, fn.TypeParams, d.TypeParams); err != nil {
		return nil, err
	}
	if d.Receiver != "" {
		if fn.Receiver, err = l.typeOf(un, d.pos, sc, d.Receiver); err != nil {
			return nil, err
		}
	}
	ret := d.Returns
	if ret == "" {
		ret = types.UnitName
	}
	if fn.Return, err = l.typeOf(un, d.pos, sc, ret); err != nil {
		return nil, err
	}
	if fn.Params, err = l.params(un, sc, d.Params); err != nil {
		return nil, err
	}
	l.u.AddFunc(fn)

	for i, p := range d.Params {
		if p.Options == nil {
			continue
		}
		opt, err := l.paramOptions(un, p, sc)
		if err != nil {
			return nil, err
		}
		l.opts.SetParam(fn, i, opt)
	}
	if d.Generate != nil {
		g, err := l.generation(un, d.Generate, fn)
		if err != nil {
			return nil, err
		}
		l.opts.SetGeneration(fn, g)
		l.out = append(l.out, fn)
	}
	return fn, nil
}

func (l *loader) params(un unit, sc *scope, ds []paramDecl) ([]types.Param, error) {
	out := make([]types.Param, 0, len(ds))
	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		if d.Name == "" {
			return nil, l.errorf(un.path, d.pos, "parameter without a name")
		}
		if seen[d.Name] {
			return nil, l.errorf(un.path, d.pos, "parameter %s declared twice", d.Name)
		}
		seen[d.Name] = true
		t, err := l.typeOf(un, d.pos, sc, d.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, types.Param{Name: d.Name, Type: t, HasDefault: d.Default, Vararg: d.Vararg})
	}
	return out, nil
}

func (l *loader) generation(un unit, d *generateDecl, fn *types.Func) (options.Generation, error) {
	g := options.Generation{
		FunctionName:  d.FunctionName,
		ContextName:   d.ContextName,
		MonoParameter: d.MonoParameter,
		MakeInline:    d.MakeInline,
	}
	if g.FunctionName == "" {
		g.FunctionName = options.EntryName(fn)
	}
	if d.Marker == "" {
		// validated later, with a proper diagnostic code
		return g, nil
	}
	c, err := l.classNamed(un.file.Package, d.Marker)
	if err != nil {
		return g, l.wrap(un.path, d.pos, "generation marker", err)
	}
	g.Marker = c
	return g, nil
}

func tri(b *bool) options.Tri {
	if b == nil {
		return options.Unset
	}
	return options.TriOf(*b)
}

func (l *loader) paramOptions(un unit, p paramDecl, sc *scope) (options.Param, error) {
	d := p.Options
	out := options.Param{
		FunctionGetter:             tri(d.FunctionGetter),
		FunctionSetter:             tri(d.FunctionSetter),
		CollectionAdder:            tri(d.CollectionAdder),
		CollectionDslAdder:         tri(d.CollectionDslAdder),
		CollectionSubFunctionAdder: tri(d.CollectionSubFunctionAdder),
		DslSetter:                  tri(d.DslSetter),
		SubFunctionSetter:          tri(d.SubFunctionSetter),
	}
	pa, err := options.ParsePropertyAccessor(d.PropertyAccessor)
	if err != nil {
		return out, &diag.Error{Code: diag.CfgBadParamOption, Kind: diag.KindUser,
			Msg: "parameter " + p.Name, Loc: loc(un.path, p.pos), Err: err}
	}
	out.PropertyAccessor = pa
	for _, a := range d.Alternatives {
		alt, err := l.alternative(un, a, sc)
		if err != nil {
			return out, err
		}
		out.Alternatives = append(out.Alternatives, alt)
	}
	return out, nil
}

func (l *loader) alternative(un unit, d alternativeDecl, sc *scope) (options.Alternative, error) {
	out := options.Alternative{Element: d.Element, AccessorName: d.AccessorName, DslAccessor: d.Dsl}
	if d.Name == "" {
		return out, l.errorf(un.path, d.pos, "alternative construction without a name")
	}
	if d.Package != "" && d.Owner != "" {
		return out, l.errorf(un.path, d.pos, "alternative %s: package and owner are mutually exclusive", d.Name)
	}
	out.Locator = options.Locator{Package: d.Package, Owner: d.Owner, Name: d.Name}
	if d.Owner == "" && d.Package == "" {
		out.Locator.Package = un.file.Package
	}
	if d.Owner != "" && !strings.Contains(d.Owner, ".") && un.file.Package != "" {
		out.Locator.Owner = un.file.Package + "." + d.Owner
	}
	if d.Name == "constructor" {
		out.Locator.Name = types.ConstructorName
	}
	if d.Params != nil {
		out.Locator.Params = make([]*types.Type, 0, len(*d.Params))
		for _, s := range *d.Params {
			t, err := l.typeOf(un, d.pos, sc, s)
			if err != nil {
				return out, err
			}
			out.Locator.Params = append(out.Locator.Params, t)
		}
	}
	if d.Returns != "" {
		t, err := l.typeOf(un, d.pos, sc, d.Returns)
		if err != nil {
			return out, err
		}
		out.Locator.Return = t
	}
	return out, nil
}

func visibility(s string) (types.Visibility, error) {
	switch strings.ToLower(s) {
	case "", "public":
		return types.Public, nil
	case "internal":
		return types.Internal, nil
	case "protected":
		return types.Protected, nil
	case "private":
		return types.Private, nil
	}
	return types.Public, fmt.Errorf("unknown visibility %q", s)
}

// typeParams builds type parameters from specs like "out T", "reified T"
// or "T : Comparable<T>". Bounds are resolved separately.
func typeParams(owner string, specs []string) []*types.TypeParam {
	out := make([]*types.TypeParam, len(specs))
	for i, s := range specs {
		head, _, _ := strings.Cut(s, ":")
		p := &types.TypeParam{Owner: owner, Index: i}
		for _, f := range strings.Fields(head) {
			switch f {
			case "out":
				p.Variance = types.Covariant
			case "in":
				p.Variance = types.Contravariant
			case "reified":
				p.Reified = true
			default:
				p.Name = f
			}
		}
		out[i] = p
	}
	return out
}

func (l *loader) bounds(un unit, p pos, sc *scope, tps []*types.TypeParam, specs []string) error {
	for i, s := range specs {
		_, bound, ok := strings.Cut(s, ":")
		if tps[i].Name == "" {
			return l.errorf(un.path, p, "type parameter %q without a name", s)
		}
		if !ok {
			continue
		}
		for _, b := range strings.Split(bound, "&") {
			t, err := l.typeOf(un, p, sc, strings.TrimSpace(b))
			if err != nil {
				return err
			}
			tps[i].Bounds = append(tps[i].Bounds, t)
		}
	}
	return nil
}
