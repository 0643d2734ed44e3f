package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Emitter persists generated files.
type Emitter interface {
	Emit(f *File) error
}

// Memory keeps emitted files in order. Safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	files []*File
	index map[string]int
}

func NewMemory() *Memory {
	return &Memory{index: make(map[string]int)}
}

func (m *Memory) Emit(f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.index[f.Path()]; dup {
		return fmt.Errorf("file %s emitted twice", f.Path())
	}
	m.index[f.Path()] = len(m.files)
	m.files = append(m.files, f)
	return nil
}

// Files returns emitted files in emission order.
func (m *Memory) Files() []*File {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.files)
}

// File looks a file up by package-qualified name.
func (m *Memory) File(path string) (*File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.index[path]
	if !ok {
		return nil, false
	}
	return m.files[i], true
}

// Dir renders files as Kotlin sources under Root/<package path>/<name>.kt.
type Dir struct {
	Root string
}

func (d Dir) Emit(f *File) error {
	dir := filepath.Join(d.Root, filepath.FromSlash(strings.ReplaceAll(f.Package, ".", "/")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, f.Name+".kt")
	tmp, err := os.CreateTemp(dir, ".emit-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	_, werr := tmp.Write(Render(f))
	if cerr := tmp.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, werr)
	}
	// половинчатых .kt после сбоя не остаётся
	return os.Rename(tmp.Name(), path)
}

// Multi emits into every emitter in order and stops at the first error.
type Multi []Emitter

func (m Multi) Emit(f *File) error {
	for _, e := range m {
		if err := e.Emit(f); err != nil {
			return err
		}
	}
	return nil
}
