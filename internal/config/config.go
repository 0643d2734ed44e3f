// Package config reads dslgen.toml, the project file of a generation run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"dslgen/internal/bytecode"
	"dslgen/internal/naming"
)

// FileName is the project file looked up by Find.
const FileName = "dslgen.toml"

const noConfigMessage = "no " + FileName + " found\nplease pass declaration files explicitly, e.g.:\n  dslgen generate decls.yaml"

// ErrNotFound is returned by Discover when no project file exists.
var ErrNotFound = errors.New(noConfigMessage)

// Project is a loaded project file. Relative paths are resolved against Root.
type Project struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Generate Generate `toml:"generate"`
	Patch    Patch    `toml:"patch"`
}

type Generate struct {
	Declarations     []string `toml:"declarations"`
	Out              string   `toml:"out"`
	Naming           string   `toml:"naming"`
	AllowDefaultArgs bool     `toml:"allow-default-args"`
	Registry         bool     `toml:"registry"`
	RegistryDir      string   `toml:"registry-dir"`
}

type Patch struct {
	Dirs []string `toml:"dirs"`
	Jobs int      `toml:"jobs"`
	Ext  string   `toml:"ext"`
}

// Default returns the configuration used without a project file.
func Default() Config {
	return Config{
		Generate: Generate{Out: "generated", Naming: "default"},
		Patch:    Patch{Ext: bytecode.Ext},
	}
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the project file above startDir.
func Discover(startDir string) (*Project, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return Load(path)
}

// Load reads the project file at path.
func Load(path string) (*Project, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("generate") && !meta.IsDefined("patch") {
		return nil, fmt.Errorf("%s: missing [generate] or [patch]", path)
	}
	if meta.IsDefined("generate") && !meta.IsDefined("generate", "declarations") {
		return nil, fmt.Errorf("%s: missing [generate].declarations", path)
	}
	if meta.IsDefined("patch") && !meta.IsDefined("patch", "dirs") {
		return nil, fmt.Errorf("%s: missing [patch].dirs", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p := &Project{Path: path, Root: filepath.Dir(path), Config: cfg}
	p.resolve()
	return p, nil
}

func (c *Config) validate() error {
	if _, err := naming.ByName(c.Generate.Naming); err != nil {
		return fmt.Errorf("[generate].naming: %w", err)
	}
	if c.Patch.Jobs < 0 {
		return fmt.Errorf("[patch].jobs must not be negative, got %d", c.Patch.Jobs)
	}
	if c.Patch.Ext != "" && !strings.HasPrefix(c.Patch.Ext, ".") {
		c.Patch.Ext = "." + c.Patch.Ext
	}
	if c.Patch.Ext == "" {
		c.Patch.Ext = bytecode.Ext
	}
	for i, d := range c.Generate.Declarations {
		if strings.TrimSpace(d) == "" {
			return fmt.Errorf("[generate].declarations[%d] is empty", i)
		}
	}
	return nil
}

func (p *Project) abs(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.Root, filepath.FromSlash(path))
}

func (p *Project) resolve() {
	g := &p.Config.Generate
	for i, d := range g.Declarations {
		g.Declarations[i] = p.abs(d)
	}
	g.Out = p.abs(g.Out)
	g.RegistryDir = p.abs(g.RegistryDir)
	for i, d := range p.Config.Patch.Dirs {
		p.Config.Patch.Dirs[i] = p.abs(d)
	}
}
