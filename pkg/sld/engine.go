// SPDX-License-Identifier: MPL-2.0

package sld

import (
	"context"
	"io"
	"iter"

	"github.com/charmbracelet/log"

	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/modusfile"
)

// DefaultMaxDepth bounds the nesting of user predicate calls.
const DefaultMaxDepth = 64

// maxCauses caps the number of distinct failure causes kept per query.
const maxCauses = 16

type (
	// Option configures an Engine.
	Option func(*Engine)

	// Engine resolves queries against one Database. It holds no per-query state
	// and may be used from several goroutines at once.
	Engine struct {
		db       *modusfile.Database
		maxDepth int
		logger   *log.Logger
	}
)

// WithMaxDepth sets the depth bound. Values below 1 keep the default.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithPrefix("sld")
		}
	}
}

// NewEngine creates an engine over db.
func NewEngine(db *modusfile.Database, opts ...Option) *Engine {
	e := &Engine{
		db:       db,
		maxDepth: DefaultMaxDepth,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxDepth returns the configured depth bound.
func (e *Engine) MaxDepth() int { return e.maxDepth }

// Derivations enumerates the derivations of goal lazily, in clause order.
//
// Every range over the returned sequence replays the search from the start.
// Derivations whose ground goal equals an earlier one are skipped. When the
// search finds nothing the sequence yields a single *NoSolutionsError; when
// ctx is done it yields ctx.Err(). A goal the database does not define yields
// the modusfile error.
func (e *Engine) Derivations(ctx context.Context, goal logic.Atom) iter.Seq2[*Derivation, error] {
	return func(yield func(*Derivation, error) bool) {
		goal, err := e.db.CheckQuery(goal)
		if err != nil {
			yield(nil, err)
			return
		}

		s := newSearch(ctx, e)
		seen := make(map[string]bool)
		count := 0
		stopped := false

		e.logger.Debug("query", "goal", goal, "max_depth", e.maxDepth)
		s.solveGoal(goal, 0, func(root *Node) bool {
			d, err := s.finalize(goal, root)
			if err != nil {
				s.record(err)
				return true
			}
			key := d.Goal.String()
			if seen[key] {
				e.logger.Debug("duplicate solution skipped", "goal", key)
				return true
			}
			seen[key] = true
			d.Index = count
			count++
			e.logger.Debug("derivation", "index", d.Index, "goal", key)
			if !yield(d, nil) {
				stopped = true
				return false
			}
			return true
		})

		switch {
		case stopped:
		case s.err != nil:
			yield(nil, s.err)
		case count == 0:
			yield(nil, &NoSolutionsError{Goal: goal, Causes: s.causes})
		}
	}
}

// Collect runs the search to completion and returns every derivation.
func (e *Engine) Collect(ctx context.Context, goal logic.Atom) ([]*Derivation, error) {
	var out []*Derivation
	for d, err := range e.Derivations(ctx, goal) {
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
