package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[generate]
declarations = ["decls/app.yaml"]
naming = "legacy"
allow-default-args = true

[patch]
dirs = ["build/classes"]
jobs = 4
ext = "dslc"
`)
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	p, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	g := p.Config.Generate
	if g.Declarations[0] != filepath.Join(root, "decls", "app.yaml") {
		t.Fatalf("declarations = %v", g.Declarations)
	}
	if g.Out != filepath.Join(root, "generated") {
		t.Fatalf("out default = %q", g.Out)
	}
	if g.Naming != "legacy" || !g.AllowDefaultArgs {
		t.Fatalf("generate = %+v", g)
	}
	if p.Config.Patch.Jobs != 4 || p.Config.Patch.Ext != ".dslc" {
		t.Fatalf("patch = %+v", p.Config.Patch)
	}
}

func TestDiscoverWithoutFile(t *testing.T) {
	_, err := Discover(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"empty":         "",
		"no decls":      "[generate]\nout = \"x\"\n",
		"no dirs":       "[patch]\njobs = 2\n",
		"bad naming":    "[generate]\ndeclarations = [\"a.yaml\"]\nnaming = \"fancy\"\n",
		"negative jobs": "[patch]\ndirs = [\"x\"]\njobs = -1\n",
		"unknown key":   "[generate]\ndeclarations = [\"a.yaml\"]\nflavour = 1\n",
		"syntax":        "[generate\n",
	}
	for name, body := range cases {
		path := writeConfig(t, t.TempDir(), body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected an error", name)
		} else if !strings.Contains(err.Error(), path) {
			t.Fatalf("%s: error must name the file: %v", name, err)
		}
	}
}
