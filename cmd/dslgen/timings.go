package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dslgen/internal/observ"
)

// printTimings writes the timer to stderr when --timings was given.
func printTimings(cmd *cobra.Command, t *observ.Timer) error {
	format, err := cmd.Root().PersistentFlags().GetString("timings")
	if err != nil || format == "" {
		return err
	}
	out := cmd.ErrOrStderr()
	switch format {
	case "json":
		data, err := t.JSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "text":
		_, err := fmt.Fprint(out, t.Summary())
		return err
	}
	return fmt.Errorf("invalid --timings value %q (expected text|json)", format)
}
