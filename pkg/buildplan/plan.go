// SPDX-License-Identifier: MPL-2.0

package buildplan

import (
	"slices"
)

// Instruction opcodes.
const (
	OpRun        Op = "RUN"
	OpCopy       Op = "COPY"
	OpWorkdir    Op = "WORKDIR"
	OpEnv        Op = "ENV"
	OpArg        Op = "ARG"
	OpLabel      Op = "LABEL"
	OpUser       Op = "USER"
	OpEntrypoint Op = "ENTRYPOINT"
	OpCmd        Op = "CMD"
)

type (
	// Op is a build instruction keyword.
	Op string

	// Instruction is one layer of a stage.
	Instruction struct {
		Op   Op       `json:"op" yaml:"op" toml:"op"`
		Args []string `json:"args" yaml:"args" toml:"args"`
		// From names the stage or image a COPY reads from. It is empty for copies
		// from the build context.
		From string `json:"from,omitempty" yaml:"from,omitempty" toml:"from,omitempty"`
	}

	// Stage is one image of the plan.
	Stage struct {
		ID string `json:"id" yaml:"id" toml:"id"`
		// Key is the ground relation, or expression, the stage was reduced from.
		Key       string   `json:"key" yaml:"key" toml:"key"`
		Predicate string   `json:"predicate,omitempty" yaml:"predicate,omitempty" toml:"predicate,omitempty"`
		Args      []string `json:"args,omitempty" yaml:"args,omitempty" toml:"args,omitempty"`
		// From is the parent stage ID or an image reference.
		From string `json:"from" yaml:"from" toml:"from"`
		// Parent is the parent stage ID, empty when From is an image reference.
		Parent       string        `json:"parent,omitempty" yaml:"parent,omitempty" toml:"parent,omitempty"`
		Instructions []Instruction `json:"instructions" yaml:"instructions" toml:"instructions"`
		// Level groups stages that can be built in parallel. Every dependency of a
		// stage sits on a lower level.
		Level  int  `json:"level" yaml:"level" toml:"level"`
		Output bool `json:"output,omitempty" yaml:"output,omitempty" toml:"output,omitempty"`
	}

	// Output is the stage built for one derivation.
	Output struct {
		Goal  string `json:"goal" yaml:"goal" toml:"goal"`
		Stage string `json:"stage" yaml:"stage" toml:"stage"`
	}

	// Plan is the reduced build graph in dependency order.
	Plan struct {
		Stages  []*Stage `json:"stages" yaml:"stages" toml:"stages"`
		Outputs []Output `json:"outputs" yaml:"outputs" toml:"outputs"`
	}
)

// Stage returns the stage with the given ID.
func (p *Plan) Stage(id string) (*Stage, bool) {
	i := slices.IndexFunc(p.Stages, func(s *Stage) bool { return s.ID == id })
	if i < 0 {
		return nil, false
	}
	return p.Stages[i], true
}

// Levels groups stage IDs by level.
func (p *Plan) Levels() [][]string {
	var levels [][]string
	for _, s := range p.Stages {
		for len(levels) <= s.Level {
			levels = append(levels, nil)
		}
		levels[s.Level] = append(levels[s.Level], s.ID)
	}
	return levels
}

// Dependencies returns the IDs of the stages s builds on or copies from, in
// instruction order and without duplicates.
func (s *Stage) Dependencies(p *Plan) []string {
	var deps []string
	if s.Parent != "" {
		deps = append(deps, s.Parent)
	}
	for _, in := range s.Instructions {
		if in.From == "" || slices.Contains(deps, in.From) {
			continue
		}
		if _, ok := p.Stage(in.From); ok {
			deps = append(deps, in.From)
		}
	}
	return deps
}
