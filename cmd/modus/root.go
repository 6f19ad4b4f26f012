// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the modus command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/mayhemheroes/modus/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}
	root := &cobra.Command{
		Use:   "modus",
		Short: "Compile Datalog build specifications into container build plans",
		Long: TitleStyle.Render("modus") + SubtitleStyle.Render(" - Datalog build specifications for container images") + `

A Modusfile describes images and layers as Datalog rules. modus resolves a
query against those rules and compiles every proof into a multi-stage
Dockerfile, sharing the stages that different proofs have in common.

` + SubtitleStyle.Render("Examples:") + `
  modus proof Modusfile                    Parse and count clauses
  modus proof Modusfile 'app("prod")'      Show the proofs of a query
  modus transpile Modusfile 'app(X)'       Write a Dockerfile for every X
  modus transpile Modusfile 'app("prod")' --format json
  modus check Modusfile                    Lint the run commands`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.configure(cmd.Context(), flags)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output and debug logging")
	pf.StringVar(&flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/modus/config.cue)")
	pf.IntVar(&flags.maxDepth, "max-depth", 0, "maximum resolution depth (default from config)")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable colored output")

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newTranspileCommand(app),
		newProofCommand(app),
		newCheckCommand(app),
		newConfigCommand(app),
	)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the command line and exits the process. It is called by
// main.main().
func Execute() {
	os.Exit(int(Run(context.Background(), NewApp(Dependencies{}), os.Args[1:])))
}

// Run executes the command line with args and returns the exit code.
func Run(ctx context.Context, app *App, args []string) ExitCode {
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			fmt.Fprintln(w, app.diag.err.Render("Error: ")+formatErrorForDisplay(err, app.cfg.UI.Verbose))
			app.renderIssue(w, err)
		}),
	)
	if err == nil {
		return ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCompile
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// carry their suggestions; in verbose mode the full chain follows.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// renderIssue appends the issue page of err in verbose mode.
func (a *App) renderIssue(w io.Writer, err error) {
	var ae *issue.ActionableError
	if !a.cfg.UI.Verbose || !errors.As(err, &ae) {
		return
	}
	page := issue.Get(ae.Issue)
	if page == nil {
		return
	}
	style := "notty"
	if a.cfg.UI.Color && isTerminal(w) {
		style = "dark"
	}
	rendered, renderErr := page.Render(style)
	if renderErr != nil {
		a.logger.Debug("render issue page", "err", renderErr)
		return
	}
	fmt.Fprint(w, rendered)
}

// usageError marks err as a command line misuse.
func usageError(err error) error {
	return &ExitError{
		Code: ExitUsage,
		Err: issue.NewErrorContext().
			WithOperation("parse command line").
			WithSuggestion("Run 'modus --help' for usage").
			Wrap(err).
			BuildError(),
	}
}

// usageArgs wraps a positional argument validator so that its failures exit
// with ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
