package ui

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"dslgen/internal/patch"
)

func TestProgressCountsChangedFiles(t *testing.T) {
	events := make(chan patch.Event)
	m := NewProgressModel("patching", []string{"a.dslc", "b.dslc", "c.dslc"}, events).(*progressModel)

	for _, ev := range []patch.Event{
		{File: "a.dslc", Status: patch.StatusWorking},
		{File: "a.dslc", Status: patch.StatusDone, Changed: true},
		{File: "b.dslc", Status: patch.StatusDone},
		{File: "c.dslc", Status: patch.StatusError},
		{File: "unknown.dslc", Status: patch.StatusDone, Changed: true},
		{Status: patch.StatusDone},
	} {
		m.Update(eventMsg(ev))
	}
	if m.changed != 1 || m.failed != 1 {
		t.Fatalf("changed=%d failed=%d", m.changed, m.failed)
	}
	m.Update(doneMsg{})
	view := m.View()
	for _, want := range []string{"done: patching (1 changed, 1 failed)", "unchanged", "error"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestTruncateKeepsTail(t *testing.T) {
	got := truncate("/very/long/path/to/classes/Main.dslc", 20)
	if runewidth.StringWidth(got) > 20 || !strings.HasSuffix(got, "Main.dslc") || !strings.HasPrefix(got, "...") {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
}

func TestLongListHidesFinishedFiles(t *testing.T) {
	files := make([]string, maxRows+5)
	for i := range files {
		files[i] = fmt.Sprintf("f%02d.dslc", i)
	}
	m := NewProgressModel("patching", files, nil).(*progressModel)
	for _, f := range files[:8] {
		m.Update(eventMsg{File: f, Status: patch.StatusDone})
	}
	m.Update(eventMsg{File: files[0], Status: patch.StatusError})

	rows, hidden := m.visibleRows()
	if len(rows) != maxRows || hidden != 5 {
		t.Fatalf("rows=%d hidden=%d", len(rows), hidden)
	}
	if rows[0].path != files[0] {
		t.Fatalf("failed file must stay visible, first row = %s", rows[0].path)
	}
	if view := m.View(); !strings.Contains(view, "5 more finished") {
		t.Fatalf("view:\n%s", view)
	}
}
