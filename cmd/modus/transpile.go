// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/mayhemheroes/modus/internal/config"
	"github.com/mayhemheroes/modus/internal/issue"
	"github.com/mayhemheroes/modus/pkg/dockerfile"
	"github.com/mayhemheroes/modus/pkg/modus"
)

type transpileFlagValues struct {
	output string
	format string
	proof  bool
	watch  bool
}

func newTranspileCommand(app *App) *cobra.Command {
	flags := &transpileFlagValues{}
	cmd := &cobra.Command{
		Use:   "transpile FILE QUERY...",
		Short: "Compile queries into a Dockerfile or build plan",
		Long: `Resolve every QUERY against the Modusfile FILE and compile all proofs into
one build plan. Stages shared between proofs are emitted once; each proven
goal becomes a named target.

Formats:
  dockerfile  multi-stage Dockerfile (default)
  tree        proof trees
  json, yaml, toml
              stages with their instructions, parallel levels and outputs`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := app.outputFormat(flags.format)
			if err != nil {
				return err
			}
			if flags.watch {
				return app.watchTranspile(cmd.Context(), args[0], args[1:], format, flags)
			}
			return app.transpile(cmd.Context(), args[0], args[1:], format, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "write the artifact to `FILE` instead of stdout")
	f.StringVar(&flags.format, "format", "", "output format: dockerfile, tree, json, yaml or toml (default from config)")
	f.BoolVar(&flags.proof, "proof", false, "also print the proof trees to stderr")
	f.BoolVar(&flags.watch, "watch", false, "recompile whenever the Modusfile changes")

	formats := make([]string, 0, len(config.OutputFormats()))
	for _, of := range config.OutputFormats() {
		formats = append(formats, string(of))
	}
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(formats, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// outputFormat resolves the --format flag against the configured default.
func (a *App) outputFormat(flag string) (config.OutputFormat, error) {
	if flag == "" {
		return a.cfg.OutputFormat, nil
	}
	f := config.OutputFormat(flag)
	if ok, errs := f.IsValid(); !ok {
		return "", &ExitError{
			Code: ExitUsage,
			Err: issue.NewErrorContext().
				WithOperation("select output format").
				WithResource(flag).
				WithSuggestion("Use one of: dockerfile, tree, json, yaml, toml").
				WithIssue(issue.InvalidOutputFormatId).
				Wrap(errs[0]).
				BuildError(),
		}
	}
	return f, nil
}

// transpile compiles queries and writes the artifact. Output is rendered in
// full before anything is written, so a failure leaves no partial artifact.
func (a *App) transpile(ctx context.Context, file string, queries []string, format config.OutputFormat, flags *transpileFlagValues) error {
	db, err := a.loadModusfile(file)
	if err != nil {
		return err
	}
	result, err := modus.Compile(ctx, db, queries, a.compileOptions()...)
	if err != nil {
		return compileError(file, err)
	}

	if flags.proof {
		if err := a.writeTrees(a.stderr, result, a.diag.treeOptions()); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	switch format {
	case config.FormatDockerfile:
		err = dockerfile.Write(&buf, result.Plan, dockerfile.WithSyntax(a.cfg.Dockerfile.Syntax))
	case config.FormatTree:
		var opts []dockerfile.TreeOption
		if flags.output == "" {
			opts = a.out.treeOptions()
		}
		err = a.writeTrees(&buf, result, opts)
	default:
		err = dockerfile.Encode(&buf, result.Plan, dockerfile.Format(format))
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}

	if flags.output == "" {
		_, err = a.stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(flags.output, buf.Bytes(), 0o644); err != nil {
		ec := issue.NewErrorContext().
			WithOperation("write output").
			WithResource(flags.output).
			WithSuggestion("Check that the directory exists").
			Wrap(err)
		if errors.Is(err, fs.ErrPermission) {
			ec.WithIssue(issue.PermissionDeniedId)
		}
		return &ExitError{Code: ExitCompile, Err: ec.BuildError()}
	}
	a.logger.Info("wrote", "file", flags.output, "format", format,
		"stages", len(result.Plan.Stages), "targets", len(result.Plan.Outputs))
	return nil
}

// writeTrees draws the proof of every derivation, separated by blank lines.
func (a *App) writeTrees(w io.Writer, result *modus.Result, opts []dockerfile.TreeOption) error {
	first := true
	for _, q := range result.Queries {
		for _, d := range q.Derivations {
			if !first {
				fmt.Fprintln(w)
			}
			first = false
			if err := dockerfile.Tree(w, d, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}
