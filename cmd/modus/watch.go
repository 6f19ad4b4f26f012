// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/mayhemheroes/modus/internal/config"
	"github.com/mayhemheroes/modus/internal/watch"
)

// watchTranspile compiles once, then again after every change of the
// Modusfile until ctx is done. Compile failures are reported and watching
// continues, so the user can fix the file and save again.
func (a *App) watchTranspile(ctx context.Context, file string, queries []string, format config.OutputFormat, flags *transpileFlagValues) error {
	arrow := a.diag.cmd.Render("→")
	recompile := func(ctx context.Context) {
		if err := a.transpile(ctx, file, queries, format, flags); err != nil {
			fmt.Fprintln(a.stderr, a.diag.warning.Render("!")+" "+formatErrorForDisplay(err, a.cfg.UI.Verbose))
		}
	}

	fmt.Fprintf(a.stderr, "%s Watch mode: initial compile of %s\n", arrow, file)
	recompile(ctx)

	w, err := watch.New(watch.Config{
		Paths:       []string{file},
		ClearScreen: flags.output == "" && a.isTerminal(a.stdout),
		Stdout:      a.stdout,
		Logger:      a.logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stderr, "%s Detected %d change(s). Recompiling...\n", arrow, len(changed))
			recompile(ctx)
			fmt.Fprintf(a.stderr, "\n%s Watching for changes...\n\n", arrow)
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(a.stderr, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", arrow)
	return w.Run(ctx)
}
