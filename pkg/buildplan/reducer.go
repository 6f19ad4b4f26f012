// SPDX-License-Identifier: MPL-2.0

package buildplan

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/mayhemheroes/modus/internal/dag"
	"github.com/mayhemheroes/modus/pkg/builtin"
	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/sld"
)

type (
	// Reducer merges derivations into one Plan. Stages are shared across every
	// derivation added to the same Reducer. A Reducer is not safe for concurrent
	// use.
	Reducer struct {
		stages  map[string]*stage
		order   []*stage
		outputs []output
	}

	stage struct {
		key       string
		predicate string
		args      []string
		// base is the image reference of a from() stage.
		base   string
		parent *stage
		instrs []instr
		output bool
	}

	instr struct {
		op   Op
		args []string
		from *stage
	}

	output struct {
		goal  string
		stage *stage
	}
)

// NewReducer creates an empty Reducer.
func NewReducer() *Reducer {
	return &Reducer{stages: make(map[string]*stage)}
}

// Add reduces one derivation. Its root must be an image.
func (r *Reducer) Add(d *sld.Derivation) error {
	if d.Root.Kind != logic.KindImage {
		return &StageError{Key: d.Goal.String(), Reason: fmt.Sprintf("query is %s, not an image", d.Root.Kind)}
	}
	st, err := r.image(d.Root)
	if err != nil {
		return err
	}
	goal := d.Goal.String()
	for _, o := range r.outputs {
		if o.goal == goal {
			return nil
		}
	}
	st.output = true
	r.outputs = append(r.outputs, output{goal: goal, stage: st})
	return nil
}

// Plan orders the stages reduced so far. Parents and copy sources come before
// the stages using them; otherwise stages keep the order they were first
// reduced in.
func (r *Reducer) Plan() (*Plan, error) {
	emitted := func(s *stage) bool { return s.base == "" || s.output }

	g := dag.New()
	for _, s := range r.order {
		if emitted(s) {
			g.AddNode(s.key)
		}
	}
	for _, s := range r.order {
		if !emitted(s) {
			continue
		}
		if s.parent != nil && emitted(s.parent) {
			g.AddEdge(s.parent.key, s.key)
		}
		for _, in := range s.instrs {
			if in.from != nil && emitted(in.from) {
				g.AddEdge(in.from.key, s.key)
			}
		}
	}
	levels, err := g.Levels()
	if err != nil {
		return nil, fmt.Errorf("ordering stages: %w", err)
	}

	ids := make(map[*stage]string, g.Len())
	plan := &Plan{}
	for level, keys := range levels {
		for _, key := range keys {
			s := r.stages[key]
			ids[s] = stageName(s) + "_" + strconv.Itoa(len(plan.Stages))
			plan.Stages = append(plan.Stages, &Stage{
				ID:        ids[s],
				Key:       s.key,
				Predicate: s.predicate,
				Args:      s.args,
				Level:     level,
				Output:    s.output,
			})
		}
	}

	ref := func(s *stage) string {
		if id, ok := ids[s]; ok {
			return id
		}
		return s.base
	}
	for _, ps := range plan.Stages {
		s := r.stages[ps.Key]
		switch {
		case s.parent == nil:
			ps.From = s.base
		case emitted(s.parent):
			ps.From = ids[s.parent]
			ps.Parent = ps.From
		default:
			ps.From = s.parent.base
		}
		ps.Instructions = make([]Instruction, len(s.instrs))
		for i, in := range s.instrs {
			ps.Instructions[i] = Instruction{Op: in.op, Args: in.args}
			if in.from != nil {
				ps.Instructions[i].From = ref(in.from)
			}
		}
	}
	for _, o := range r.outputs {
		plan.Outputs = append(plan.Outputs, Output{Goal: o.goal, Stage: ids[o.stage]})
	}
	return plan, nil
}

func stageName(s *stage) string {
	if s.predicate == "" {
		return "image"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + 'a' - 'A'
		}
		return '_'
	}, s.predicate)
}

// register returns the stage already known under st.key, after checking that
// it matches st, or records st.
func (r *Reducer) register(st *stage) (*stage, error) {
	if prev, ok := r.stages[st.key]; ok {
		if a, b := prev.signature(), st.signature(); a != b {
			return nil, &InconsistentMergeError{Key: st.key, Existing: a, Got: b}
		}
		return prev, nil
	}
	r.stages[st.key] = st
	r.order = append(r.order, st)
	return st, nil
}

func (s *stage) signature() string {
	var sb strings.Builder
	switch {
	case s.base != "":
		sb.WriteString("FROM " + s.base)
	case s.parent != nil:
		sb.WriteString("FROM " + s.parent.key)
	}
	for _, in := range s.instrs {
		sb.WriteString("; ")
		sb.WriteString(string(in.op))
		if in.from != nil {
			sb.WriteString(" --from=" + in.from.key)
		}
		for _, a := range in.args {
			sb.WriteString(" " + strconv.Quote(a))
		}
	}
	return sb.String()
}

// image reduces an image node to its stage.
func (r *Reducer) image(n *sld.Node) (*stage, error) {
	key := exprKey(n)
	if n.Builtin {
		return r.register(&stage{key: key, predicate: n.Atom.Predicate, base: constants(n.Atom)[0]})
	}

	parent, instrs, err := r.sequence(key, n.Children)
	if err != nil {
		return nil, err
	}
	st := &stage{key: key, parent: parent, instrs: instrs}
	if n.Operator {
		in, err := imageOperator(n.Atom)
		if err != nil {
			return nil, err
		}
		st.instrs = append(st.instrs, in)
	} else {
		st.predicate = n.Atom.Predicate
		st.args = constants(n.Atom)
	}
	return r.register(st)
}

// sequence reads nodes as one image followed by layers.
func (r *Reducer) sequence(owner string, nodes []*sld.Node) (*stage, []instr, error) {
	var parent *stage
	var instrs []instr
	for _, c := range nodes {
		switch c.Kind {
		case logic.KindLogical:
			continue
		case logic.KindImage:
			if parent != nil {
				return nil, nil, &StageError{Key: owner, Reason: fmt.Sprintf("image %s follows image %s", c, parent.key)}
			}
			p, err := r.image(c)
			if err != nil {
				return nil, nil, err
			}
			parent = p
		case logic.KindLayer:
			if parent == nil {
				return nil, nil, &StageError{Key: owner, Reason: fmt.Sprintf("layer %s has no image to apply to", c)}
			}
			var err error
			if instrs, err = r.layer(instrs, c, ""); err != nil {
				return nil, nil, err
			}
		}
	}
	if parent == nil {
		return nil, nil, &StageError{Key: owner, Reason: "no image to build on"}
	}
	return parent, instrs, nil
}

// layer appends the instructions of a layer node. dir is the working
// directory set by enclosing ::in_workdir operators.
func (r *Reducer) layer(dst []instr, n *sld.Node, dir string) ([]instr, error) {
	if n.Kind == logic.KindLogical {
		return dst, nil
	}
	args := constants(n.Atom)

	switch {
	case n.Operator && n.Atom.Predicate == builtin.OpCopy:
		src, err := r.copySource(n)
		if err != nil {
			return nil, err
		}
		return append(dst, instr{op: OpCopy, args: []string{args[0], within(dir, args[1])}, from: src}), nil

	case n.Operator && n.Atom.Predicate == builtin.OpInWorkdir:
		inner := within(dir, args[0])
		var err error
		for _, c := range n.Children {
			if dst, err = r.layer(dst, c, inner); err != nil {
				return nil, err
			}
		}
		return dst, nil

	case n.Operator:
		return nil, &StageError{Key: n.String(), Reason: "operator does not apply to layers"}

	case n.Builtin:
		switch n.Atom.Predicate {
		case "run":
			cmd := args[0]
			if dir != "" {
				cmd = "cd " + shellQuote(dir) + " && " + cmd
			}
			return append(dst, instr{op: OpRun, args: []string{cmd}}), nil
		case "workdir":
			return append(dst, instr{op: OpWorkdir, args: []string{within(dir, args[0])}}), nil
		case "copy":
			return append(dst, instr{op: OpCopy, args: []string{args[0], within(dir, args[1])}}), nil
		case "env":
			return append(dst, instr{op: OpEnv, args: args}), nil
		case "arg":
			return append(dst, instr{op: OpArg, args: args}), nil
		}
		return nil, &StageError{Key: n.String(), Reason: "unknown build primitive"}
	}

	var err error
	for _, c := range n.Children {
		if dst, err = r.layer(dst, c, dir); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// copySource returns the stage a ::copy reads from. A lone image is used
// directly; an image with layers becomes an anonymous stage.
func (r *Reducer) copySource(n *sld.Node) (*stage, error) {
	var built []*sld.Node
	for _, c := range n.Children {
		if c.Kind != logic.KindLogical {
			built = append(built, c)
		}
	}
	if len(built) == 1 && built[0].Kind == logic.KindImage {
		return r.image(built[0])
	}
	key := innerKey(n.Children)
	parent, instrs, err := r.sequence(key, n.Children)
	if err != nil {
		return nil, err
	}
	return r.register(&stage{key: key, parent: parent, instrs: instrs})
}

func imageOperator(a logic.Atom) (instr, error) {
	args := constants(a)
	switch a.Predicate {
	case builtin.OpSetWorkdir:
		return instr{op: OpWorkdir, args: args}, nil
	case builtin.OpSetEnv:
		return instr{op: OpEnv, args: args}, nil
	case builtin.OpSetLabel:
		return instr{op: OpLabel, args: args}, nil
	case builtin.OpSetUser:
		return instr{op: OpUser, args: args}, nil
	case builtin.OpSetEntrypoint:
		return instr{op: OpEntrypoint, args: args}, nil
	case builtin.OpSetCmd:
		return instr{op: OpCmd, args: args}, nil
	case builtin.OpAppendPath:
		return instr{op: OpEnv, args: []string{"PATH", "$PATH:" + args[0]}}, nil
	}
	return instr{}, &StageError{Key: "::" + a.String(), Reason: "operator does not apply to images"}
}

// exprKey identifies the image or layer built by n. Operator applications are
// keyed by their whole expression since they have no name of their own.
func exprKey(n *sld.Node) string {
	if !n.Operator {
		return n.Atom.String()
	}
	return innerKey(n.Children) + "::" + n.Atom.String()
}

func innerKey(children []*sld.Node) string {
	var keys []string
	for _, c := range children {
		if c.Kind != logic.KindLogical {
			keys = append(keys, exprKey(c))
		}
	}
	return "(" + strings.Join(keys, ", ") + ")"
}

// constants returns the arguments of a ground atom.
func constants(a logic.Atom) []string {
	out := make([]string, len(a.Args))
	for i, t := range a.Args {
		if c, ok := t.(logic.Constant); ok {
			out[i] = string(c)
		}
	}
	return out
}

// within resolves p against dir. Absolute paths and an empty dir leave p
// unchanged, and a trailing slash is kept.
func within(dir, p string) string {
	if dir == "" || path.IsAbs(p) {
		return p
	}
	joined := path.Join(dir, p)
	if strings.HasSuffix(p, "/") && joined != "/" {
		joined += "/"
	}
	return joined
}

func shellQuote(s string) string {
	q, err := syntax.Quote(s, syntax.LangPOSIX)
	if err != nil {
		return s
	}
	return q
}
