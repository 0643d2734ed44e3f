package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"dslgen/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	locColor     = color.New(color.Bold)
	noteColor    = color.New(color.Faint)
)

type diagnosticJSON struct {
	Severity string     `json:"severity"`
	Code     string     `json:"code"`
	Title    string     `json:"title"`
	Location string     `json:"location,omitempty"`
	Message  string     `json:"message"`
	Notes    []noteJSON `json:"notes,omitempty"`
}

type noteJSON struct {
	Location string `json:"location,omitempty"`
	Message  string `json:"message"`
}

func readFormat(value string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(value)); f {
	case "", "pretty":
		return "pretty", nil
	case "short", "json":
		return f, nil
	}
	return "", fmt.Errorf("unsupported format %q (must be pretty, short or json)", value)
}

// printDiagnostics renders the bag sorted and deduplicated, at most max items.
func printDiagnostics(out io.Writer, bag *diag.Bag, format string, max int) error {
	bag.Sort()
	bag.Dedup()
	items := bag.Items()
	if max > 0 && len(items) > max {
		items = items[:max]
	}
	switch format {
	case "json":
		payload := make([]diagnosticJSON, 0, len(items))
		for _, d := range items {
			j := diagnosticJSON{
				Severity: d.Severity.Label(),
				Code:     d.Code.ID(),
				Title:    d.Code.Title(),
				Message:  d.Message,
			}
			if !d.Primary.IsZero() {
				j.Location = d.Primary.String()
			}
			for _, n := range d.Notes {
				nj := noteJSON{Message: n.Msg}
				if !n.Loc.IsZero() {
					nj.Location = n.Loc.String()
				}
				j.Notes = append(j.Notes, nj)
			}
			payload = append(payload, j)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "short":
		if s := diag.FormatShort(items, true); s != "" {
			fmt.Fprintln(out, s)
		}
		return nil
	}
	for _, d := range items {
		sev := severityColor(d.Severity).Sprint(d.Severity.Label())
		if !d.Primary.IsZero() {
			fmt.Fprintf(out, "%s: ", locColor.Sprint(d.Primary.String()))
		}
		fmt.Fprintf(out, "%s[%s]: %s\n", sev, d.Code.ID(), d.Message)
		for _, n := range d.Notes {
			fmt.Fprintf(out, "  %s\n", noteColor.Sprint("note: "+n.Msg))
		}
	}
	if dropped := bag.Len() + bag.Dropped() - len(items); dropped > 0 {
		fmt.Fprintf(out, "... %d more diagnostics not shown\n", dropped)
	}
	return nil
}

func severityColor(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	}
	return infoColor
}
