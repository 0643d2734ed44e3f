package diag

import (
	"sync"

	"dslgen/internal/source"
)

// Reporter receives non-fatal diagnostics from the generator.
type Reporter interface {
	Report(d Diagnostic)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(d Diagnostic)

func (f ReporterFunc) Report(d Diagnostic) { f(d) }

// NopReporter drops everything.
var NopReporter Reporter = ReporterFunc(func(Diagnostic) {})

// Warn reports a warning at loc. A nil reporter is ignored.
func Warn(r Reporter, code Code, loc source.Loc, msg string, notes ...Note) {
	if r == nil {
		return
	}
	d := New(SevWarning, code, loc, msg)
	d.Notes = notes
	r.Report(d)
}

type dedupKey struct {
	code Code
	sev  Severity
	loc  source.Loc
	msg  string
}

func keyOf(d Diagnostic) dedupKey {
	return dedupKey{code: d.Code, sev: d.Severity, loc: d.Primary, msg: d.Message}
}

// Once forwards each distinct diagnostic to next a single time. A function
// visited twice during generation reports its warnings only once.
func Once(next Reporter) Reporter {
	var (
		mu   sync.Mutex
		seen = map[dedupKey]struct{}{}
	)
	return ReporterFunc(func(d Diagnostic) {
		k := keyOf(d)
		mu.Lock()
		_, dup := seen[k]
		seen[k] = struct{}{}
		mu.Unlock()
		if !dup && next != nil {
			next.Report(d)
		}
	})
}
