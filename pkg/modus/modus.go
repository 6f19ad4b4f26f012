// SPDX-License-Identifier: MPL-2.0

package modus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/mayhemheroes/modus/pkg/buildplan"
	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/modusfile"
	"github.com/mayhemheroes/modus/pkg/sld"
)

// DefaultConcurrency bounds the number of queries resolved at once.
const DefaultConcurrency = 4

// ErrNoQueries is returned by Compile when no query is given.
var ErrNoQueries = errors.New("no query given")

type (
	// Option configures Compile.
	Option func(*options)

	options struct {
		concurrency int
		maxDepth    int
		logger      *log.Logger
	}

	// QueryError attaches the query text to a resolution failure.
	QueryError struct {
		Query string
		Err   error
	}

	// Query is the resolution of one query.
	Query struct {
		Source      string
		Goal        logic.Atom
		Derivations []*sld.Derivation
	}

	// Result is the outcome of Compile.
	Result struct {
		Plan    *buildplan.Plan
		Queries []Query
	}
)

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// WithConcurrency bounds the number of queries resolved in parallel. Values
// below 1 keep the default.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithMaxDepth sets the resolution depth bound.
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

// WithLogger sets the logger for compile and resolution tracing.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// LoadFile reads and parses a Modusfile.
func LoadFile(path string) (*modusfile.Database, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read Modusfile: %w", err)
	}
	return modusfile.Parse(path, string(src))
}

// Derive resolves a single query and returns all of its derivations.
func Derive(ctx context.Context, db *modusfile.Database, query string, opts ...Option) (Query, error) {
	o := newOptions(opts)
	return derive(ctx, newEngine(db, o), db, query)
}

// Compile resolves queries concurrently and reduces their derivations, in
// query order, into one plan. The first failing query cancels the others.
func Compile(ctx context.Context, db *modusfile.Database, queries []string, opts ...Option) (*Result, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}
	o := newOptions(opts)
	logger := o.logger.WithPrefix("modus")
	engine := newEngine(db, o)

	start := time.Now()
	results := make([]Query, len(queries))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			res, err := derive(gCtx, engine, db, q)
			if err != nil {
				return err
			}
			results[i] = res
			logger.Debug("resolved", "query", q, "derivations", len(res.Derivations))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := buildplan.NewReducer()
	for _, q := range results {
		for _, d := range q.Derivations {
			if err := r.Add(d); err != nil {
				return nil, &QueryError{Query: q.Source, Err: err}
			}
		}
	}
	plan, err := r.Plan()
	if err != nil {
		return nil, err
	}
	logger.Debug("compiled", "queries", len(queries), "stages", len(plan.Stages), "elapsed", time.Since(start))
	return &Result{Plan: plan, Queries: results}, nil
}

func newOptions(opts []Option) options {
	o := options{concurrency: DefaultConcurrency, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func newEngine(db *modusfile.Database, o options) *sld.Engine {
	return sld.NewEngine(db, sld.WithMaxDepth(o.maxDepth), sld.WithLogger(o.logger))
}

func derive(ctx context.Context, e *sld.Engine, db *modusfile.Database, query string) (Query, error) {
	goal, err := db.Query(query)
	if err != nil {
		return Query{}, &QueryError{Query: query, Err: err}
	}
	ds, err := e.Collect(ctx, goal)
	if err != nil {
		return Query{}, &QueryError{Query: query, Err: err}
	}
	return Query{Source: query, Goal: goal, Derivations: ds}, nil
}
