package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dslgen/internal/bytecode"
	"dslgen/internal/patch"
)

const decls = `
package: demo
markers: [Dsl]
classes:
  - name: Point
    constructor:
      params:
        - {name: x, type: Int}
        - {name: y, type: Int}
functions:
  - name: shape
    returns: Point
    params:
      - {name: origin, type: Point}
      - {name: label, type: String, default: true}
    generate: {marker: Dsl, functionName: shape}
  - name: other
    returns: Point
    params:
      - {name: at, type: Point}
      - {name: title, type: String}
`

// run executes the CLI with fresh flag values.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestPickProgressView(t *testing.T) {
	var buf bytes.Buffer
	cases := []struct {
		ui    string
		quiet bool
		files int
		want  progressView
	}{
		{"", false, 3, viewLines}, // buffer is not a terminal
		{" AUTO ", false, 3, viewLines},
		{"on", false, 3, viewTUI},
		{"on", true, 3, viewNone},
		{"off", false, 0, viewNone},
		{"off", false, 1, viewLines},
	}
	for _, tc := range cases {
		got, err := pickProgressView(tc.ui, tc.quiet, tc.files, &buf)
		if err != nil || got != tc.want {
			t.Fatalf("pickProgressView(%q, %v, %d) = %d, %v", tc.ui, tc.quiet, tc.files, got, err)
		}
	}
	if _, err := pickProgressView("sometimes", false, 1, &buf); err == nil {
		t.Fatal("expected an error")
	}
}

func TestGenerateWritesSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decls.yaml")
	writeFile(t, path, decls)
	out := filepath.Join(dir, "gen")

	stdout, err := run(t, "generate", "--out", out, "--allow-default-args", path)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "wrote") {
		t.Fatalf("output:\n%s", stdout)
	}
	var kt []string
	_ = filepath.WalkDir(out, func(p string, d os.DirEntry, err error) error {
		if err == nil && strings.HasSuffix(p, ".kt") {
			kt = append(kt, p)
		}
		return nil
	})
	if len(kt) == 0 {
		t.Fatalf("no sources under %s", out)
	}
	src, err := os.ReadFile(kt[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), "package demo") {
		t.Fatalf("unexpected source:\n%s", src)
	}
}

func TestGenerateDryRunWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decls.yaml")
	writeFile(t, path, decls)
	out := filepath.Join(dir, "gen")

	stdout, err := run(t, "generate", "--dry-run", "--out", out, path)
	if err != nil {
		t.Fatalf("generate: %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "would write") {
		t.Fatalf("output:\n%s", stdout)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dry run created %s", out)
	}
}

func TestGenerateReportsBadMarker(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decls.yaml")
	writeFile(t, path, decls+`
  - name: broken
    returns: Int
    params: [{name: a, type: Int}]
    generate: {marker: Point}
`)
	stdout, err := run(t, "generate", "--dry-run", "--format", "short", path)
	if err == nil {
		t.Fatalf("expected failure:\n%s", stdout)
	}
	if !strings.Contains(stdout, "CFG1001") {
		t.Fatalf("marker diagnostic missing:\n%s", stdout)
	}
	// the valid function is still generated
	if !strings.Contains(stdout, "would write") {
		t.Fatalf("output:\n%s", stdout)
	}
}

func TestHashCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "decls.yaml")
	writeFile(t, path, decls)

	stdout, err := run(t, "hash", "--signature", path, "demo.shape", "demo.Point")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 2 {
		t.Fatalf("output:\n%s", stdout)
	}
	if id := strings.Fields(lines[0])[0]; len(id) != 16 {
		t.Fatalf("identifier %q is not 8 hex-encoded bytes", id)
	}
	if !strings.Contains(lines[0], "demo.shape:<>(") {
		t.Fatalf("signature missing:\n%s", stdout)
	}
	if _, err := run(t, "hash", path, "demo.missing"); err == nil {
		t.Fatal("expected an error for an unknown function")
	}
}

func TestPatchCommand(t *testing.T) {
	dir := t.TempDir()
	ctx := "demo/$Context$00"
	c := &bytecode.Class{Name: ctx, Methods: []bytecode.Method{{
		Name: "$create$", Desc: "(L" + ctx + ";)I", MaxStack: 2, MaxLocals: 1,
		Code: []bytecode.Insn{
			{Op: bytecode.Invokestatic, Owner: patch.MarkerOwner, Name: patch.MarkerName, Desc: "()V"},
			{Op: bytecode.Aload, Var: 0},
			{Op: bytecode.Getfield, Owner: ctx, Name: "$$a$$", Desc: "I"},
			{Op: bytecode.Invokestatic, Owner: "demo/DemoKt", Name: "sum", Desc: "(I)I"},
			{Op: bytecode.Ireturn},
		},
	}}}
	path := filepath.Join(dir, "classes", "Ctx"+bytecode.Ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := bytecode.WriteFile(path, c); err != nil {
		t.Fatal(err)
	}

	stdout, err := run(t, "patch", "--ui", "off", "--dry-run", dir)
	if err != nil || !strings.Contains(stdout, "would patch 1 of 1") {
		t.Fatalf("dry run: %v\n%s", err, stdout)
	}
	stdout, err = run(t, "patch", "--ui", "off", dir)
	if err != nil || !strings.Contains(stdout, "patched 1 of 1") {
		t.Fatalf("patch: %v\n%s", err, stdout)
	}
	got, err := bytecode.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	last := got.Methods[0].Code[len(got.Methods[0].Code)-2]
	if last.Name != "sum$default" {
		t.Fatalf("call not rewritten:\n%s", got.Methods[0].Listing())
	}
	stdout, err = run(t, "patch", "--ui", "off", dir)
	if err != nil || !strings.Contains(stdout, "patched 0 of 1") {
		t.Fatalf("second run must be a no-op: %v\n%s", err, stdout)
	}
}

func TestVersionJSON(t *testing.T) {
	stdout, err := run(t, "version", "--format", "json")
	if err != nil || !strings.Contains(stdout, `"tool": "dslgen"`) {
		t.Fatalf("version: %v\n%s", err, stdout)
	}
}
