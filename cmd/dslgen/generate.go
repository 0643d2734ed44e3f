package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dslgen/internal/config"
	"dslgen/internal/diag"
	"dslgen/internal/dsl"
	"dslgen/internal/emit"
	"dslgen/internal/model"
	"dslgen/internal/naming"
	"dslgen/internal/observ"
	"dslgen/internal/registry"
	"dslgen/internal/trace"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] [decls.yaml...]",
	Short: "Generate builder DSLs for annotated functions",
	Long: `Loads declaration files (or the [generate] section of dslgen.toml),
generates a DSL for every function carrying generation options and writes
the generated Kotlin sources below --out.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().String("out", "", "output directory (default from dslgen.toml, else ./generated)")
	generateCmd.Flags().String("naming", "", "naming policy (default|legacy)")
	generateCmd.Flags().Bool("allow-default-args", false, "let parameters with defaults be left unset")
	generateCmd.Flags().Bool("registry", false, "memoize generated DSLs across runs")
	generateCmd.Flags().String("registry-dir", "", "registry location (default: user cache directory)")
	generateCmd.Flags().Bool("dry-run", false, "generate without writing files")
	generateCmd.Flags().String("format", "pretty", "diagnostics format (pretty|short|json)")
}

// generateSettings are the config values after CLI overrides.
type generateSettings struct {
	files    []string
	out      string
	naming   string
	defaults bool
	registry bool
	regDir   string
	dryRun   bool
}

func readGenerateSettings(cmd *cobra.Command, args []string, g config.Generate) (generateSettings, error) {
	s := generateSettings{
		files:    g.Declarations,
		out:      g.Out,
		naming:   g.Naming,
		defaults: g.AllowDefaultArgs,
		registry: g.Registry,
		regDir:   g.RegistryDir,
	}
	if len(args) > 0 {
		s.files = args
	}
	flags := cmd.Flags()
	if flags.Changed("out") {
		s.out, _ = flags.GetString("out")
	}
	if flags.Changed("naming") {
		s.naming, _ = flags.GetString("naming")
	}
	if flags.Changed("allow-default-args") {
		s.defaults, _ = flags.GetBool("allow-default-args")
	}
	if flags.Changed("registry") {
		s.registry, _ = flags.GetBool("registry")
	}
	if flags.Changed("registry-dir") {
		s.regDir, _ = flags.GetString("registry-dir")
		s.registry = true
	}
	s.dryRun, _ = flags.GetBool("dry-run")
	if len(s.files) == 0 {
		return s, fmt.Errorf("no declaration files: pass them as arguments or set [generate].declarations")
	}
	if s.out == "" {
		s.out = "generated"
	}
	return s, nil
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer func() { cleanup(err) }()

	format, err := readFormat(mustString(cmd, "format"))
	if err != nil {
		return err
	}
	project, err := loadProject(cmd, len(args) == 0)
	if err != nil {
		return err
	}
	settings, err := readGenerateSettings(cmd, args, project.Config.Generate)
	if err != nil {
		return err
	}
	policy, err := naming.ByName(settings.naming)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	timer := observ.NewTimer()

	endLoad := timer.Track("load")
	res, err := model.LoadFiles(settings.files...)
	if err != nil {
		endLoad("failed")
		return err
	}
	endLoad(fmt.Sprintf("%d files, %d annotated", len(res.Files), len(res.Annotated)))

	var reg *registry.Registry
	if settings.registry {
		if settings.regDir != "" {
			reg, err = registry.Open(settings.regDir)
		} else {
			reg, err = registry.OpenDefault("dslgen")
		}
		if err != nil {
			return err
		}
	}

	mem := emit.NewMemory()
	var emitter emit.Emitter = mem
	if !settings.dryRun {
		emitter = emit.Multi{mem, emit.Dir{Root: settings.out}}
	}
	session, err := dsl.NewSession(dsl.Config{
		Oracle:   res.Universe,
		Builtins: res.Universe.Builtins(),
		Emitter:  emitter,
		Naming:   policy,
		Options:  res.Options,
		Registry: reg,
		Tracer:   tracer,

		AllowDefaultArgs: settings.defaults,
	})
	if err != nil {
		return err
	}

	endGen := timer.Track("generate")
	bag := diag.NewBag(1024)
	var handles []dsl.Handle
	for _, fn := range res.Annotated {
		h, err := session.ProcessFunction(ctx, fn)
		if err != nil {
			if diag.IsInternal(err) {
				endGen("internal error")
				return err
			}
			// committed DSLs survive, move on to the next function
			bag.Add(diag.FromError(err))
			continue
		}
		handles = append(handles, h)
	}
	endGen(fmt.Sprintf("%d functions, %d files", len(handles), len(mem.Files())))
	bag.Merge(session.Diagnostics())

	out := cmd.OutOrStdout()
	maxDiags, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if bag.Len() > 0 {
		if err := printDiagnostics(cmd.ErrOrStderr(), bag, format, maxDiags); err != nil {
			return err
		}
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		for _, h := range handles {
			fmt.Fprintf(out, "%s %s\n", h.ID, h.QualifiedName())
		}
		verb := "wrote"
		if settings.dryRun {
			verb = "would write"
		}
		fmt.Fprintf(out, "%s %d files to %s\n", verb, len(mem.Files()), settings.out)
	}
	if err := printTimings(cmd, timer); err != nil {
		return err
	}
	if bag.HasErrors() {
		return fmt.Errorf("generation failed for %d of %d functions", len(res.Annotated)-len(handles), len(res.Annotated))
	}
	return nil
}

func mustString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(err)
	}
	return v
}
