package patch

import (
	"context"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"dslgen/internal/bytecode"
)

// Options configure a patch run.
type Options struct {
	// CreateName is the name of generated create functions; only those are
	// patched.
	CreateName string
	Mask       MaskName
	Ext        string // container extension, bytecode.Ext by default
	Jobs       int    // parallel files, GOMAXPROCS by default
	DryRun     bool   // report changes without writing
	Progress   Sink
}

// Class patches every create method of c that takes nothing but its
// context receiver. The input is left untouched.
func Class(c *bytecode.Class, opts Options) (*bytecode.Class, bool, error) {
	out := &bytecode.Class{Name: c.Name, Methods: make([]bytecode.Method, len(c.Methods))}
	changed := false
	for i := range c.Methods {
		m := &c.Methods[i]
		out.Methods[i] = *m
		if m.Name != opts.CreateName {
			continue
		}
		n, err := bytecode.ArgCount(m.Desc)
		if err != nil {
			return nil, false, err
		}
		if n > 1 {
			continue
		}
		pm, ok, err := Method(m, opts.Mask)
		if err != nil {
			return nil, false, err
		}
		if ok {
			out.Methods[i] = *pm
			changed = true
		}
	}
	if !changed {
		return c, false, nil
	}
	return out, true, nil
}

// File patches the container at path, rewriting it only when changed.
func File(path string, opts Options) (bool, error) {
	c, err := bytecode.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, changed, err := Class(c, opts)
	if err != nil {
		return false, err
	}
	if !changed || opts.DryRun {
		return changed, nil
	}
	return true, bytecode.WriteFile(path, out)
}

// Result of one file.
type Result struct {
	Path    string
	Changed bool
	Err     error
}

// Report summarizes a directory run.
type Report struct {
	Files   []Result
	Changed int
	Failed  int
	Elapsed time.Duration
}

// List returns the container files under root, sorted.
func List(root, ext string) ([]string, error) {
	if ext == "" {
		ext = bytecode.Ext
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Dir patches every container under root in parallel. Per-file failures
// are collected in the report; only walking errors and cancellation stop
// the run.
func Dir(ctx context.Context, root string, opts Options) (*Report, error) {
	files, err := List(root, opts.Ext)
	if err != nil {
		return nil, err
	}
	return Files(ctx, files, opts)
}

// Files patches the given containers in parallel.
func Files(ctx context.Context, files []string, opts Options) (*Report, error) {
	start := time.Now()
	sink := opts.Progress
	if sink == nil {
		sink = nopSink{}
	}
	for _, f := range files {
		sink.OnEvent(Event{File: f, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]Result, len(files))
	var mu sync.Mutex // sink may not be safe for concurrent use

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			t0 := time.Now()
			mu.Lock()
			sink.OnEvent(Event{File: path, Status: StatusWorking})
			mu.Unlock()

			changed, err := File(path, opts)
			results[i] = Result{Path: path, Changed: changed, Err: err}

			ev := Event{File: path, Status: StatusDone, Changed: changed, Elapsed: time.Since(t0)}
			if err != nil {
				ev.Status, ev.Err = StatusError, err
			}
			mu.Lock()
			sink.OnEvent(ev)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{Files: results, Elapsed: time.Since(start)}
	for _, r := range results {
		switch {
		case r.Err != nil:
			rep.Failed++
		case r.Changed:
			rep.Changed++
		}
	}
	sink.OnEvent(Event{Status: StatusDone, Elapsed: rep.Elapsed})
	return rep, nil
}
