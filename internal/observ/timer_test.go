package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	clock := time.Unix(0, 0)
	tm := NewTimer()
	tm.now = func() time.Time { return clock }

	endLoad := tm.Track("load")
	clock = clock.Add(2 * time.Millisecond)
	endLoad("3 files")
	endLoad("again") // second End is ignored

	gen := tm.Begin("generate")
	clock = clock.Add(6 * time.Millisecond)
	tm.End(gen, "")
	tm.End(42, "ignored")
	tm.Begin("never ended")

	r := tm.Report()
	if len(r.Phases) != 2 || r.TotalMillis != 8 {
		t.Fatalf("report = %+v", r)
	}
	if r.Phases[0].Note != "3 files" || r.Phases[1].Millis != 6 || r.Phases[1].Share != 0.75 {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if s := tm.Summary(); !strings.Contains(s, "load") || !strings.Contains(s, "(3 files)") || !strings.Contains(s, "75.0%") {
		t.Fatalf("summary:\n%s", s)
	}
	data, err := tm.JSON()
	if err != nil || !strings.Contains(string(data), `"total_ms": 8`) {
		t.Fatalf("json = %s, %v", data, err)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMillis != 0 || r.Phases != nil {
		t.Fatalf("report = %+v", r)
	}
}
