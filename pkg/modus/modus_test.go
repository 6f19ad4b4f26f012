// SPDX-License-Identifier: MPL-2.0

package modus_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/mayhemheroes/modus/internal/testutil/modusfiletest"
	"github.com/mayhemheroes/modus/pkg/modus"
	"github.com/mayhemheroes/modus/pkg/modusfile"
	"github.com/mayhemheroes/modus/pkg/sld"
)

func TestCompile_SharesStagesAcrossQueries(t *testing.T) {
	t.Parallel()

	db := modusfiletest.MustParse(t, modusfiletest.App)
	res, err := modus.Compile(context.Background(), db, []string{
		`app("ubuntu:18.04", "1.2.5", "production")`,
		`app("ubuntu:18.04", "1.2.5", "development")`,
		`library_python("ubuntu:18.04", "1.2.5", "3.7")`,
	}, modus.WithConcurrency(2))
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}

	if len(res.Queries) != 3 {
		t.Fatalf("queries = %d, want 3", len(res.Queries))
	}
	for _, q := range res.Queries {
		if len(q.Derivations) != 1 {
			t.Errorf("%s: %d derivations, want 1", q.Source, len(q.Derivations))
		}
	}

	var outputs []string
	for _, o := range res.Plan.Outputs {
		outputs = append(outputs, o.Stage)
	}
	want := []string{"app_5", "app_6", "library_python_1"}
	if !slices.Equal(outputs, want) {
		t.Errorf("outputs = %v, want %v", outputs, want)
	}
	if len(res.Plan.Stages) != 7 {
		t.Errorf("stages = %d, want 7", len(res.Plan.Stages))
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	db := modusfiletest.MustParse(t, modusfiletest.App)

	tests := []struct {
		name    string
		queries []string
		target  error
	}{
		{"no queries", nil, modus.ErrNoQueries},
		{"no solutions", []string{`app("debian:12", "1.2.5", "production")`}, sld.ErrNoSolutions},
		{"unknown predicate", []string{`deploy("x")`}, modusfile.ErrUnknownPredicate},
		{"malformed query", []string{`app(`}, modusfile.ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := modus.Compile(context.Background(), db, tt.queries)
			if !errors.Is(err, tt.target) {
				t.Fatalf("Compile() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestCompile_QueryErrorNamesQuery(t *testing.T) {
	t.Parallel()

	db := modusfiletest.MustParse(t, modusfiletest.App)
	q := `app("debian:12", "1.2.5", mode)`
	_, err := modus.Compile(context.Background(), db, []string{q})
	var qerr *modus.QueryError
	if !errors.As(err, &qerr) {
		t.Fatalf("Compile() error = %v, want *QueryError", err)
	}
	if qerr.Query != q {
		t.Errorf("QueryError.Query = %q, want %q", qerr.Query, q)
	}
}

func TestCompile_Cancelled(t *testing.T) {
	t.Parallel()

	db := modusfiletest.MustParse(t, modusfiletest.App)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := modus.Compile(ctx, db, []string{`app("ubuntu:18.04", "1.2.5", mode)`})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Compile() error = %v, want context.Canceled", err)
	}
}

func TestDerive(t *testing.T) {
	t.Parallel()

	db := modusfiletest.MustParse(t, modusfiletest.App)
	q, err := modus.Derive(context.Background(), db, `app("ubuntu:18.04", "1.2.5", mode)`)
	if err != nil {
		t.Fatalf("Derive() error: %v", err)
	}
	if len(q.Derivations) != 2 {
		t.Errorf("derivations = %d, want 2", len(q.Derivations))
	}
	if q.Goal.Predicate != "app" {
		t.Errorf("goal = %s", q.Goal)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Modusfile")
	if err := os.WriteFile(path, []byte(modusfiletest.App), 0o644); err != nil {
		t.Fatal(err)
	}
	db, err := modus.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if db.File() != path {
		t.Errorf("File() = %q, want %q", db.File(), path)
	}

	if _, err := modus.LoadFile(filepath.Join(dir, "missing")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v, want os.ErrNotExist", err)
	}
}
