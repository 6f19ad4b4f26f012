// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mayhemheroes/modus/internal/lint"
)

func newCheckCommand(app *App) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Parse a Modusfile and lint its run commands",
		Long: `Parse FILE, check predicate kinds and parse every run command as a POSIX
shell script. Findings are reported as warnings; with --strict, commands that
fail to parse make the check fail.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			return app.check(args[0], strict)
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail when a run command has a shell syntax error")
	return cmd
}

func (a *App) check(file string, strict bool) error {
	db, err := a.loadModusfile(file)
	if err != nil {
		return err
	}

	findings := lint.Check(db)
	for _, f := range findings {
		label := a.out.warning.Render(string(f.Severity))
		if f.Severity == lint.SeverityError {
			label = a.out.err.Render(string(f.Severity))
		}
		fmt.Fprintf(a.stdout, "%s:%s: %s: %s\n", a.out.cmd.Render(f.File), f.Pos, label, f.Message)
		a.logger.Debug("finding", "command", f.Command)
	}

	if len(findings) == 0 {
		fmt.Fprintf(a.stdout, "%s %s: %d clauses, no findings\n", a.out.success.Render("✓"), file, db.Len())
	} else {
		fmt.Fprintf(a.stdout, "%s: %d clauses, %d finding(s)\n", file, db.Len(), len(findings))
	}

	if strict && lint.HasErrors(findings) {
		return &ExitError{Code: ExitCompile, Err: errors.New("run commands with shell syntax errors")}
	}
	return nil
}
