package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dslgen/internal/config"
)

// loadProject reads --config, or searches for dslgen.toml upwards. A missing
// file is not an error when required is false: defaults are returned.
func loadProject(cmd *cobra.Command, required bool) (*config.Project, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return config.Load(path)
	}
	p, err := config.Discover(".")
	if errors.Is(err, config.ErrNotFound) && !required {
		return &config.Project{Config: config.Default()}, nil
	}
	return p, err
}
