package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// progressView selects how patch reports per-file progress.
type progressView int

const (
	viewNone  progressView = iota // --quiet or nothing to patch
	viewLines                     // one line per finished file
	viewTUI                       // bubbletea progress bar
)

var uiValues = map[string]string{"": "auto", "auto": "auto", "on": "on", "off": "off"}

// pickProgressView resolves --ui against --quiet and the output writer.
// "auto" enables the TUI only when out is a terminal.
func pickProgressView(ui string, quiet bool, files int, out io.Writer) (progressView, error) {
	mode, ok := uiValues[strings.ToLower(strings.TrimSpace(ui))]
	if !ok {
		return viewNone, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", ui)
	}
	if quiet || files == 0 {
		return viewNone, nil
	}
	switch mode {
	case "on":
		return viewTUI, nil
	case "off":
		return viewLines, nil
	}
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		return viewTUI, nil
	}
	return viewLines, nil
}
