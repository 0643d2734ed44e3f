package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"dslgen/internal/naming"
	"dslgen/internal/observ"
	"dslgen/internal/patch"
	"dslgen/internal/trace"
	"dslgen/internal/ui"
)

var patchCmd = &cobra.Command{
	Use:   "patch [flags] [dir...]",
	Short: "Rewrite create functions to call default-argument variants",
	Long: `Walks the given directories (or [patch].dirs of dslgen.toml) for compiled
containers and rewrites every marked create function so that it calls the
"$default" variant of its target with the context's initialization masks.`,
	RunE: runPatch,
}

func init() {
	patchCmd.Flags().Int("jobs", 0, "max parallel files (0=auto)")
	patchCmd.Flags().String("ext", "", "container file extension (default .dslc)")
	patchCmd.Flags().String("naming", "", "naming policy the containers were generated with (default|legacy)")
	patchCmd.Flags().String("ui", "auto", "user interface mode (auto|on|off)")
	patchCmd.Flags().Bool("dry-run", false, "report what would change without writing")
}

func runPatch(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err) }()

	project, err := loadProject(cmd, len(args) == 0)
	if err != nil {
		return err
	}
	cfg := project.Config
	dirs := cfg.Patch.Dirs
	if len(args) > 0 {
		dirs = args
	}
	if len(dirs) == 0 {
		return fmt.Errorf("no directories: pass them as arguments or set [patch].dirs")
	}

	flags := cmd.Flags()
	jobs := cfg.Patch.Jobs
	if flags.Changed("jobs") {
		jobs, _ = flags.GetInt("jobs")
	}
	ext := cfg.Patch.Ext
	if flags.Changed("ext") {
		ext, _ = flags.GetString("ext")
	}
	policyName := cfg.Generate.Naming
	if flags.Changed("naming") {
		policyName, _ = flags.GetString("naming")
	}
	policy, err := naming.ByName(policyName)
	if err != nil {
		return err
	}
	uiValue, _ := flags.GetString("ui")
	if _, err := pickProgressView(uiValue, false, 0, nil); err != nil {
		return err
	}
	dryRun, _ := flags.GetBool("dry-run")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	timer := observ.NewTimer()
	endList := timer.Track("list")
	var files []string
	for _, d := range dirs {
		found, err := patch.List(d, ext)
		if err != nil {
			endList("failed")
			return fmt.Errorf("listing %s: %w", d, err)
		}
		files = append(files, found...)
	}
	endList(fmt.Sprintf("%d files", len(files)))

	opts := patch.Options{
		CreateName: policy.CreateFunctionName(),
		Mask:       policy.InitializationInfoName,
		Ext:        ext,
		Jobs:       jobs,
		DryRun:     dryRun,
	}

	ctx := cmd.Context()
	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDriver, "patch", 0)
	endPatch := timer.Track("patch")
	view, _ := pickProgressView(uiValue, quiet, len(files), cmd.OutOrStdout())
	var rep *patch.Report
	switch view {
	case viewTUI:
		rep, err = runPatchWithUI(ctx, "patching", files, opts)
	case viewLines:
		opts.Progress = lineSink{out: cmd.OutOrStdout()}
		fallthrough
	default:
		rep, err = patch.Files(ctx, files, opts)
	}
	if err != nil {
		endPatch("failed")
		span.End("failed")
		return err
	}
	note := fmt.Sprintf("%d changed, %d failed", rep.Changed, rep.Failed)
	endPatch(note)
	span.End(note)

	for _, r := range rep.Files {
		if r.Err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", errorColor.Sprint("error"), r.Path, r.Err)
		}
	}
	if !quiet {
		verb := "patched"
		if dryRun {
			verb = "would patch"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d of %d files in %s\n", verb, rep.Changed, len(rep.Files), rep.Elapsed.Round(time.Millisecond))
	}
	if err := printTimings(cmd, timer); err != nil {
		return err
	}
	if rep.Failed > 0 {
		return fmt.Errorf("%d files failed to patch", rep.Failed)
	}
	return nil
}

type patchOutcome struct {
	report *patch.Report
	err    error
}

func runPatchWithUI(ctx context.Context, title string, files []string, opts patch.Options) (*patch.Report, error) {
	events := make(chan patch.Event, 256)
	outcomeCh := make(chan patchOutcome, 1)

	go func() {
		opts.Progress = patch.ChannelSink{Ch: events}
		rep, err := patch.Files(ctx, files, opts)
		outcomeCh <- patchOutcome{report: rep, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, files, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	// a failed UI stops reading; keep the patcher from blocking on the channel
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.report, uiErr
	}
	return outcome.report, outcome.err
}

// lineSink prints one line per finished file.
type lineSink struct {
	out io.Writer
}

func (s lineSink) OnEvent(ev patch.Event) {
	if ev.File == "" {
		return
	}
	switch ev.Status {
	case patch.StatusDone:
		if ev.Changed {
			fmt.Fprintf(s.out, "%s %s\n", infoColor.Sprint("patched"), ev.File)
		}
	case patch.StatusError:
		fmt.Fprintf(s.out, "%s %s\n", errorColor.Sprint("failed "), ev.File)
	}
}
