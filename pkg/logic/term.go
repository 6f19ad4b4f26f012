// SPDX-License-Identifier: MPL-2.0

package logic

import (
	"strconv"
	"strings"
)

// AnonymousName is the surface name of the anonymous variable.
const AnonymousName = "_"

// anonymousPrefix starts the name of every anonymous occurrence. '#' opens a
// comment in source, so no identifier can collide with it.
const anonymousPrefix = AnonymousName + "#"

type (
	// Term is a constant, a variable or an interpolated string.
	Term interface {
		String() string
		// IsGround reports whether the term mentions no variables.
		IsGround() bool
		isTerm()
	}

	// Constant is a string value. Modus has no other constant type.
	Constant string

	// Variable is a named logic variable. Gen distinguishes renamed copies of the
	// same source variable: variables read from source have Gen 0 and every clause
	// invocation renames them to a fresh generation.
	Variable struct {
		Name string
		Gen  int
	}

	// Fragment is one piece of an FString: literal text when Var is nil,
	// otherwise an embedded variable.
	Fragment struct {
		Text string
		Var  *Variable
	}

	// FString is an interpolated string such as f"python:${version}-slim".
	FString struct {
		Parts []Fragment
	}
)

func (Constant) isTerm() {}
func (Variable) isTerm() {}
func (FString) isTerm()  {}

// String returns the quoted form of the constant.
func (c Constant) String() string { return Quote(string(c)) }

// IsGround is always true for constants.
func (Constant) IsGround() bool { return true }

// String returns the variable name. Renamed variables carry their generation.
func (v Variable) String() string {
	if v.Gen == 0 {
		return v.displayName()
	}
	return v.displayName() + "#" + strconv.Itoa(v.Gen)
}

func (v Variable) displayName() string {
	if v.IsAnonymous() {
		return AnonymousName
	}
	return v.Name
}

// Anonymous returns the n-th anonymous variable of a clause. Distinct n never
// unify with each other by name.
func Anonymous(n int) Variable {
	return Variable{Name: anonymousPrefix + strconv.Itoa(n)}
}

// IsAnonymous reports whether the variable was written as "_" in source.
func (v Variable) IsAnonymous() bool {
	return v.Name == AnonymousName || strings.HasPrefix(v.Name, anonymousPrefix)
}

// IsGround is always false for variables.
func (Variable) IsGround() bool { return false }

// NewFString builds an FString, merging adjacent literal fragments and dropping
// empty ones.
func NewFString(parts ...Fragment) FString {
	merged := make([]Fragment, 0, len(parts))
	for _, p := range parts {
		if p.Var == nil {
			if p.Text == "" {
				continue
			}
			if n := len(merged); n > 0 && merged[n-1].Var == nil {
				merged[n-1].Text += p.Text
				continue
			}
		}
		merged = append(merged, p)
	}
	return FString{Parts: merged}
}

// Literal returns a literal fragment.
func Literal(text string) Fragment { return Fragment{Text: text} }

// Embed returns a fragment that embeds v.
func Embed(v Variable) Fragment { return Fragment{Var: &v} }

// IsGround reports whether the f-string embeds no variables.
func (f FString) IsGround() bool {
	for _, p := range f.Parts {
		if p.Var != nil {
			return false
		}
	}
	return true
}

// Variables returns the embedded variables in order of appearance.
func (f FString) Variables() []Variable {
	var vars []Variable
	for _, p := range f.Parts {
		if p.Var != nil {
			vars = append(vars, *p.Var)
		}
	}
	return vars
}

// String renders the f-string in source syntax.
func (f FString) String() string {
	var sb strings.Builder
	sb.WriteString(`f"`)
	for _, p := range f.Parts {
		if p.Var != nil {
			sb.WriteString("${")
			sb.WriteString(p.Var.String())
			sb.WriteString("}")
			continue
		}
		sb.WriteString(strings.ReplaceAll(escape(p.Text), "$", `\$`))
	}
	sb.WriteString(`"`)
	return sb.String()
}

// Quote renders s as a Modusfile string literal.
func Quote(s string) string {
	return `"` + escape(s) + `"`
}

func escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		case 0:
			sb.WriteString(`\0`)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// TermVariables appends the variables of t to dst.
func TermVariables(dst []Variable, t Term) []Variable {
	switch x := t.(type) {
	case Variable:
		return append(dst, x)
	case FString:
		return append(dst, x.Variables()...)
	}
	return dst
}
