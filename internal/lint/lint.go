// SPDX-License-Identifier: MPL-2.0

// Package lint checks the shell commands of a Modusfile.
package lint

import (
	"fmt"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/modusfile"
)

// placeholder stands in for interpolated variables while parsing.
const placeholder = "MODUS_VALUE"

const (
	// SeverityError marks commands that cannot run.
	SeverityError Severity = "error"
	// SeverityWarning marks commands that run but could be written better.
	SeverityWarning Severity = "warning"
)

type (
	// Severity ranks a finding.
	Severity string

	// Finding is one problem found in a run command.
	Finding struct {
		File     string
		Pos      logic.Position
		Severity Severity
		Command  string
		Message  string
	}
)

// String formats the finding as "file:line:col: severity: message".
func (f Finding) String() string {
	return fmt.Sprintf("%s:%s: %s: %s", f.File, f.Pos, f.Severity, f.Message)
}

// Check parses every run command of db as a POSIX shell script. Variables
// interpolated into f-strings are replaced by a plain word first.
func Check(db *modusfile.Database) []Finding {
	var findings []Finding
	for _, c := range db.Clauses() {
		if c.Body == nil {
			continue
		}
		logic.Walk(c.Body, func(a logic.Atom) {
			if !a.Builtin || a.Predicate != "run" || len(a.Args) != 1 {
				return
			}
			cmd, ok := commandText(a.Args[0])
			if !ok {
				return
			}
			for _, f := range checkCommand(cmd) {
				f.File, f.Pos = db.File(), a.Pos
				findings = append(findings, f)
			}
		})
	}
	return findings
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func commandText(t logic.Term) (string, bool) {
	switch x := t.(type) {
	case logic.Constant:
		return string(x), true
	case logic.FString:
		var sb strings.Builder
		for _, p := range x.Parts {
			if p.Var != nil {
				sb.WriteString(placeholder)
				continue
			}
			sb.WriteString(p.Text)
		}
		return sb.String(), true
	}
	return "", false
}

func checkCommand(cmd string) []Finding {
	if strings.TrimSpace(cmd) == "" {
		return []Finding{{Severity: SeverityError, Command: cmd, Message: "empty command"}}
	}
	f, err := syntax.NewParser(syntax.Variant(syntax.LangPOSIX)).Parse(strings.NewReader(cmd), "")
	if err != nil {
		return []Finding{{Severity: SeverityError, Command: cmd, Message: fmt.Sprintf("shell syntax: %v", err)}}
	}

	var findings []Finding
	syntax.Walk(f, func(node syntax.Node) bool {
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		if call.Args[0].Lit() == "cd" {
			findings = append(findings, Finding{
				Severity: SeverityWarning,
				Command:  cmd,
				Message:  "cd inside run; use ::in_workdir to set the directory",
			})
			return false
		}
		return true
	})
	return findings
}
