// SPDX-License-Identifier: MPL-2.0

package dockerfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/mayhemheroes/modus/pkg/buildplan"
)

// DefaultSyntax is the frontend named in the "# syntax=" header.
const DefaultSyntax = "docker/dockerfile:1"

type (
	// Option configures Write.
	Option func(*options)

	options struct {
		syntax string
	}
)

// WithSyntax sets the frontend of the "# syntax=" header. An empty value
// omits the header.
func WithSyntax(s string) Option {
	return func(o *options) { o.syntax = s }
}

// Write emits plan as a Dockerfile. Each output is announced by a comment
// naming its stage, which is the --target to build it.
func Write(w io.Writer, plan *buildplan.Plan, opts ...Option) error {
	o := options{syntax: DefaultSyntax}
	for _, opt := range opts {
		opt(&o)
	}

	bw := bufio.NewWriter(w)
	if o.syntax != "" {
		fmt.Fprintf(bw, "# syntax=%s\n\n", o.syntax)
	}
	for _, out := range plan.Outputs {
		fmt.Fprintf(bw, "# %s: %s\n", out.Stage, out.Goal)
	}
	for _, s := range plan.Stages {
		bw.WriteString("\n")
		fmt.Fprintf(bw, "FROM %s AS %s\n", s.From, s.ID)
		for _, in := range s.Instructions {
			bw.WriteString(Instruction(in))
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}

// Instruction renders one instruction line.
func Instruction(in buildplan.Instruction) string {
	switch in.Op {
	case buildplan.OpRun:
		return run(in.Args[0])
	case buildplan.OpCopy:
		var sb strings.Builder
		sb.WriteString("COPY ")
		if in.From != "" {
			sb.WriteString("--from=" + in.From + " ")
		}
		sb.WriteString(paths(in.Args))
		return sb.String()
	case buildplan.OpEnv, buildplan.OpArg, buildplan.OpLabel:
		return string(in.Op) + " " + keyValue(in.Args)
	case buildplan.OpEntrypoint, buildplan.OpCmd:
		if fields, ok := execForm(in.Args[0]); ok {
			return string(in.Op) + " " + jsonArray(fields)
		}
		return string(in.Op) + " " + in.Args[0]
	}
	return string(in.Op) + " " + strings.Join(in.Args, " ")
}

// run uses a heredoc for multi-line commands since a plain RUN would split
// them into separate instructions.
func run(cmd string) string {
	if !strings.Contains(cmd, "\n") {
		return "RUN " + cmd
	}
	delim := "EOF"
	for strings.Contains(cmd, delim) {
		delim += "_"
	}
	return "RUN <<" + delim + "\n" + strings.TrimSuffix(cmd, "\n") + "\n" + delim
}

// paths uses the JSON form when a path contains whitespace.
func paths(args []string) string {
	for _, a := range args {
		if strings.ContainsAny(a, " \t") {
			return jsonArray(args)
		}
	}
	return strings.Join(args, " ")
}

func keyValue(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return quoteIfNeeded(args[0]) + "=" + quoteIfNeeded(args[1])
}

func quoteIfNeeded(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

func jsonArray(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(s)
		quoted[i] = strings.TrimSuffix(buf.String(), "\n")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// execForm splits a command into its words when it is a single simple command
// made only of literal words, so that it can be run without a shell.
func execForm(cmd string) ([]string, bool) {
	f, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil || len(f.Stmts) != 1 {
		return nil, false
	}
	st := f.Stmts[0]
	call, ok := st.Cmd.(*syntax.CallExpr)
	if !ok || st.Negated || st.Background || len(st.Redirs) > 0 || len(call.Assigns) > 0 {
		return nil, false
	}
	fields := make([]string, 0, len(call.Args))
	for _, w := range call.Args {
		s, ok := literal(w.Parts)
		if !ok {
			return nil, false
		}
		fields = append(fields, s)
	}
	return fields, len(fields) > 0
}

func literal(parts []syntax.WordPart) (string, bool) {
	var sb strings.Builder
	for _, part := range parts {
		switch p := part.(type) {
		case *syntax.Lit:
			if strings.ContainsAny(p.Value, `\*?[~{`) {
				return "", false
			}
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			if p.Dollar {
				return "", false
			}
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			s, ok := literal(p.Parts)
			if !ok {
				return "", false
			}
			sb.WriteString(s)
		default:
			return "", false
		}
	}
	return sb.String(), true
}
