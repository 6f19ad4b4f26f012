// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mayhemheroes/modus/internal/config"
	"github.com/mayhemheroes/modus/pkg/modus"
	"github.com/mayhemheroes/modus/pkg/modusfile"
)

type (
	// App wires the CLI services. Every command handler receives an App and
	// reads the effective configuration from it after the root command has
	// run its persistent pre-run hook.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		cfg    *config.Config
		logger *log.Logger

		// out styles what goes to stdout, diag what goes to stderr. Each
		// stream gets color only when it is a terminal itself.
		out        styles
		diag       styles
		isTerminal func(io.Writer) bool
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config config.Provider
		Stdout io.Writer
		Stderr io.Writer
		// IsTerminal reports whether a writer is an interactive terminal.
		IsTerminal func(io.Writer) bool
	}

	rootFlagValues struct {
		verbose    bool
		configPath string
		maxDepth   int
		noColor    bool
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		cfg:    config.DefaultConfig(),

		isTerminal: deps.IsTerminal,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	if app.isTerminal == nil {
		app.isTerminal = isTerminal
	}
	app.out = newStyles(app.isTerminal(app.stdout))
	app.diag = newStyles(app.isTerminal(app.stderr))
	app.logger = log.New(app.stderr)
	return app
}

// configure loads the configuration and applies the global flags over it.
// A configuration that fails to load is reported and replaced by defaults.
func (a *App) configure(ctx context.Context, flags *rootFlagValues) error {
	if flags.maxDepth < 0 {
		return usageError(fmt.Errorf("--max-depth must be positive, got %d", flags.maxDepth))
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		fmt.Fprintln(a.stderr, a.diag.warning.Render("Warning: ")+formatErrorForDisplay(err, flags.verbose))
		cfg = config.DefaultConfig()
	}
	if flags.maxDepth > 0 {
		cfg.MaxDepth = flags.maxDepth
	}
	if flags.verbose {
		cfg.UI.Verbose = true
		cfg.LogLevel = config.LogLevelDebug
	}
	if flags.noColor {
		cfg.UI.Color = false
	}
	a.cfg = cfg

	a.out = newStyles(cfg.UI.Color && a.isTerminal(a.stdout))
	a.diag = newStyles(cfg.UI.Color && a.isTerminal(a.stderr))
	level, err := log.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		level = log.WarnLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{Level: level})
	a.logger.Debug("configuration", "file", a.Config.Path(), "max_depth", cfg.MaxDepth,
		"concurrency", cfg.Concurrency, "format", cfg.OutputFormat)
	return nil
}

func (a *App) compileOptions() []modus.Option {
	return []modus.Option{
		modus.WithConcurrency(a.cfg.Concurrency),
		modus.WithMaxDepth(a.cfg.MaxDepth),
		modus.WithLogger(a.logger),
	}
}

// loadModusfile reads and parses file, mapping failures to actionable errors.
func (a *App) loadModusfile(file string) (*modusfile.Database, error) {
	db, err := modus.LoadFile(file)
	if err != nil {
		return nil, compileError(file, err)
	}
	a.logger.Debug("parsed", "file", file, "clauses", db.Len())
	return db, nil
}
