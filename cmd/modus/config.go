// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mayhemheroes/modus/internal/config"
)

// newConfigCommand creates the `modus config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage modus configuration",
		Long: `Manage modus configuration.

Configuration is stored in:
  - Linux: ~/.config/modus/config.cue
  - macOS: ~/Library/Application Support/modus/config.cue
  - Windows: %APPDATA%\modus\config.cue

A config.cue in the current directory is used when the configuration
directory has none. MODUS_* environment variables override both, for
example MODUS_MAX_DEPTH=128 or MODUS_DOCKERFILE_SYNTAX=docker/dockerfile:1.7.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			app.showConfig()
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		RunE: func(_ *cobra.Command, _ []string) error {
			return app.initConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := defaultConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprint(app.stdout, config.GenerateCUE(app.cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig() {
	key, value := a.out.cmd, a.out.success
	cfg := a.cfg

	fmt.Fprintln(a.stdout, a.out.title.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if path := a.Config.Path(); path != "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("Config file"), path)
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("Config file"), a.out.subtitle.Render("(using defaults)"))
	}
	fmt.Fprintln(a.stdout)

	fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("max_depth"), value.Render(fmt.Sprint(cfg.MaxDepth)))
	fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("output_format"), value.Render(string(cfg.OutputFormat)))
	fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("concurrency"), value.Render(fmt.Sprint(cfg.Concurrency)))
	fmt.Fprintf(a.stdout, "%s: %s\n", key.Render("log_level"), value.Render(string(cfg.LogLevel)))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", key.Render("dockerfile"))
	syntax := cfg.Dockerfile.Syntax
	if syntax == "" {
		syntax = "(no header)"
	}
	fmt.Fprintf(a.stdout, "  syntax: %s\n", value.Render(syntax))

	fmt.Fprintln(a.stdout)
	fmt.Fprintf(a.stdout, "%s:\n", key.Render("ui"))
	fmt.Fprintf(a.stdout, "  color: %s\n", value.Render(fmt.Sprint(cfg.UI.Color)))
	fmt.Fprintf(a.stdout, "  verbose: %s\n", value.Render(fmt.Sprint(cfg.UI.Verbose)))
}

func (a *App) initConfig() error {
	path, err := defaultConfigPath()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		fmt.Fprintf(a.stdout, "Configuration file already exists: %s\n", path)
		return nil
	}
	if _, err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	fmt.Fprintf(a.stdout, "%s Created configuration file: %s\n", a.out.success.Render("✓"), path)
	return nil
}

func defaultConfigPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}
