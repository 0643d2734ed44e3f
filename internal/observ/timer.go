// Package observ measures the phases of a generate or patch run.
package observ

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type phase struct {
	name  string
	start time.Time
	dur   time.Duration
	note  string
	done  bool
}

// Timer records run phases in start order. Not safe for concurrent use.
type Timer struct {
	phases []phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase and returns a handle for End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, phase{name: name, start: t.now()})
	return len(t.phases) - 1
}

// End closes phase h. Unknown or already closed handles are ignored.
func (t *Timer) End(h int, note string) {
	if h < 0 || h >= len(t.phases) || t.phases[h].done {
		return
	}
	p := &t.phases[h]
	p.dur, p.note, p.done = t.now().Sub(p.start), note, true
}

// Track opens a phase and returns the closure that ends it.
func (t *Timer) Track(name string) func(note string) {
	h := t.Begin(name)
	return func(note string) { t.End(h, note) }
}

// PhaseReport is one finished phase; Share is its fraction of the total.
type PhaseReport struct {
	Name   string  `json:"name"`
	Millis float64 `json:"ms"`
	Share  float64 `json:"share"`
	Note   string  `json:"note,omitempty"`
}

type Report struct {
	TotalMillis float64       `json:"total_ms"`
	Phases      []PhaseReport `json:"phases"`
}

// Report summarizes finished phases; open ones are skipped.
func (t *Timer) Report() Report {
	var r Report
	var total time.Duration
	for _, p := range t.phases {
		if p.done {
			total += p.dur
		}
	}
	for _, p := range t.phases {
		if !p.done {
			continue
		}
		pr := PhaseReport{Name: p.name, Millis: millis(p.dur), Note: p.note}
		if total > 0 {
			pr.Share = float64(p.dur) / float64(total)
		}
		r.Phases = append(r.Phases, pr)
	}
	r.TotalMillis = millis(total)
	return r
}

// Summary renders the report as an aligned table for --timings=text.
func (t *Timer) Summary() string {
	r := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range r.Phases {
		line := fmt.Sprintf("  %-12s %9.2f ms %5.1f%%", p.Name, p.Millis, p.Share*100)
		if p.Note != "" {
			line += "  (" + p.Note + ")"
		}
		b.WriteString(line + "\n")
	}
	fmt.Fprintf(&b, "  %-12s %9.2f ms\n", "total", r.TotalMillis)
	return b.String()
}

// JSON renders the report for --timings=json.
func (t *Timer) JSON() ([]byte, error) {
	return json.MarshalIndent(t.Report(), "", "  ")
}

// округляем до микросекунд, чтобы JSON был стабильным
func millis(d time.Duration) float64 {
	return float64(d.Round(time.Microsecond)) / float64(time.Millisecond)
}
