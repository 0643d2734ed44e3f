// Package registry persists descriptors of generated DSLs between sessions
// so that a later build can adopt an existing context class instead of
// generating it again.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Entry format changes
const schemaVersion uint16 = 1

// Registry хранит описания сгенерированных DSL по идентификатору сигнатуры.
// Thread-safe for concurrent access.
type Registry struct {
	mu  sync.RWMutex
	dir string
}

// Entry describes one generated context class.
type Entry struct {
	Schema uint16

	ID        string
	Signature string // canonical signature the ID was hashed from
	Package   string
	Context   string   // context class name
	Backing   []string // backing field names in parameter order
	Session   string   // session that generated it
	Created   int64    // unix seconds
}

// Open returns a registry rooted at dir, creating it if needed.
func Open(dir string) (*Registry, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create registry dir: %w", err)
	}
	return &Registry{dir: dir}, nil
}

// OpenDefault opens the registry at the user cache location.
func OpenDefault(app string) (*Registry, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return Open(filepath.Join(base, app, "dsl"))
}

// Dir is the directory entries are stored in.
func (r *Registry) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

func (r *Registry) pathFor(id string) string {
	// подкаталог по первым двум символам, чтобы не держать всё в одной папке
	sub := "00"
	if len(id) >= 2 {
		sub = id[:2]
	}
	return filepath.Join(r.dir, sub, id+".mp")
}

// Put serializes and writes an entry, replacing any previous one.
func (r *Registry) Put(e *Entry) error {
	if r == nil {
		return nil
	}
	if e.ID == "" {
		return errors.New("registry: entry without id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e.Schema = schemaVersion
	if e.Created == 0 {
		e.Created = time.Now().Unix()
	}
	p := r.pathFor(e.ID)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if err := msgpack.NewEncoder(f).Encode(e); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode %s: %w", e.ID, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads an entry. Entries written with another schema are ignored.
func (r *Registry) Get(id string) (*Entry, bool, error) {
	if r == nil {
		return nil, false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, err := os.Open(r.pathFor(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var e Entry
	if err := msgpack.NewDecoder(f).Decode(&e); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", id, err)
	}
	if e.Schema != schemaVersion || e.ID != id {
		return nil, false, nil
	}
	return &e, true, nil
}

// Delete removes an entry. A missing entry is not an error.
func (r *Registry) Delete(id string) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.pathFor(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// DropAll removes every entry.
func (r *Registry) DropAll() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	old := r.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(r.dir, old); err != nil {
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(r.dir, 0o755)
}
