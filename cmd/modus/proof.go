// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mayhemheroes/modus/pkg/dockerfile"
	"github.com/mayhemheroes/modus/pkg/modus"
	"github.com/mayhemheroes/modus/pkg/sld"
)

func newProofCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "proof FILE [QUERY]",
		Short: "Parse a Modusfile and print the proofs of a query",
		Long: `Without QUERY, parse FILE and report the number of clauses.
With QUERY, resolve it and draw every proof found, image steps with '══',
layer steps with '──' and logical steps with '┄┄'.`,
		Args: usageArgs(cobra.RangeArgs(1, 2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return app.parseOnly(args[0])
			}
			return app.proof(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *App) parseOnly(file string) error {
	db, err := a.loadModusfile(file)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Parsed %s successfully. Found %d clauses.\n", file, db.Len())
	return nil
}

func (a *App) proof(ctx context.Context, file, query string) error {
	db, err := a.loadModusfile(file)
	if err != nil {
		return err
	}
	q, err := modus.Derive(ctx, db, query, a.compileOptions()...)
	if err != nil {
		if errors.Is(err, sld.ErrNoSolutions) {
			fmt.Fprintf(a.stdout, "0 proof(s) found for query %s\n", query)
		}
		return compileError(file, err)
	}

	fmt.Fprintf(a.stdout, "%d proof(s) found for query %s\n", len(q.Derivations), query)
	for _, d := range q.Derivations {
		fmt.Fprintln(a.stdout)
		if err := dockerfile.Tree(a.stdout, d, a.out.treeOptions()...); err != nil {
			return err
		}
	}
	return nil
}
