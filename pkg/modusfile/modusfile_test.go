// SPDX-License-Identifier: MPL-2.0

package modusfile

import (
	"errors"
	"strings"
	"testing"

	"github.com/mayhemheroes/modus/pkg/logic"
)

func mustParse(t *testing.T, src string) *Database {
	t.Helper()
	db, err := Parse("Modusfile", src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return db
}

func TestParse_ClauseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"fact", `l1.`, `l1.`},
		{"fact with args", `pair("a", "b").`, `pair("a", "b").`},
		{"conjunction", "l2.\nl3.\nl1 :- l2,\n\tl3.", `l1 :- l2, l3.`},
		{"disjunction", "l1.\nl2.\nfoo :- l1; l2.", `foo :- l1; l2.`},
		{"operator", `foo :- (from("alpine"))::copy("/x", "/y").`, `foo :- (from("alpine"))::copy("/x", "/y").`},
		{"chained operators", `foo :- (from("alpine"))::set_workdir("/app")::set_user("app").`, `foo :- ((from("alpine"))::set_workdir("/app"))::set_user("app").`},
		{"equality sugar", `v(x) :- x = "1".`, `v(x) :- eq(x, "1").`},
		{"inequality sugar", `v(x, y) :- x != y.`, `v(x, y) :- neq(x, y).`},
		{"f-string", `r(x) :- run(f"echo ${x} \$HOME").`, `r(x) :- run(f"echo ${x} \$HOME").`},
		{"ground f-string becomes a constant", `r :- run(f"echo hi").`, `r :- run("echo hi").`},
		{"comments", "# leading\nl1. # trailing\n# done\n", `l1.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := mustParse(t, tt.src)
			clauses := db.Clauses()
			got := clauses[len(clauses)-1].String()
			if got != tt.want {
				t.Errorf("clause = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParse_Precedence(t *testing.T) {
	t.Parallel()

	db := mustParse(t, "a. b. c. d.\nfoo :- a, b; c, d.")
	body := db.Clauses()[4].Body
	d, ok := body.(logic.Disjunction)
	if !ok {
		t.Fatalf("body is %T, want Disjunction", body)
	}
	if len(d.Branches) != 2 {
		t.Fatalf("got %d branches, want 2", len(d.Branches))
	}
	for i, b := range d.Branches {
		if c, ok := b.(logic.Conjunction); !ok || len(c.Items) != 2 {
			t.Errorf("branch %d = %#v, want a two item conjunction", i, b)
		}
	}
}

func TestParse_StringEscapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"newline", `"Hello\nWorld"`, "Hello\nWorld"},
		{"tabs", `"Tabs\tare\tbetter\tthan\tspaces"`, "Tabs\tare\tbetter\tthan\tspaces"},
		{"quote", `"say \"hi\""`, `say "hi"`},
		{"continuation", "\"Testing \\\n                       multiline.\"", "Testing multiline."},
		{"unknown escape kept", `"a\qb"`, `a\qb`},
		{"dollar in plain string", `"cost $5"`, "cost $5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := mustParse(t, "s("+tt.src+").")
			got := db.Clauses()[0].Head.Args[0]
			if got != logic.Constant(tt.want) {
				t.Errorf("constant = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParse_FStringParts(t *testing.T) {
	t.Parallel()

	db := mustParse(t, `r(ver) :- run(f"python${ver}-slim \${literal}").`)
	run := db.Clauses()[0].Body.(logic.Atom)
	f, ok := run.Args[0].(logic.FString)
	if !ok {
		t.Fatalf("argument is %T, want FString", run.Args[0])
	}
	if len(f.Parts) != 3 {
		t.Fatalf("got %d parts, want 3: %#v", len(f.Parts), f.Parts)
	}
	if f.Parts[0].Text != "python" || f.Parts[1].Var == nil || f.Parts[1].Var.Name != "ver" || f.Parts[2].Text != "-slim ${literal}" {
		t.Errorf("unexpected parts %#v", f.Parts)
	}
}

func TestParse_AnonymousVariablesAreDistinct(t *testing.T) {
	t.Parallel()

	db := mustParse(t, `p(_, _).`)
	args := db.Clauses()[0].Head.Args
	a, b := args[0].(logic.Variable), args[1].(logic.Variable)
	if a == b {
		t.Errorf("anonymous variables share the name %q", a.Name)
	}
	if !a.IsAnonymous() || a.String() != "_" {
		t.Errorf("anonymous variable prints as %s", a)
	}
}

func TestParse_UnderscoreIdentifiersAreNamed(t *testing.T) {
	t.Parallel()

	db := mustParse(t, `p(_1, _, _tag).`)
	args := db.Clauses()[0].Head.Args
	named, anon, tag := args[0].(logic.Variable), args[1].(logic.Variable), args[2].(logic.Variable)
	if named.IsAnonymous() || named.String() != "_1" {
		t.Errorf("_1 parsed as %#v, want a named variable", named)
	}
	if named == anon {
		t.Errorf("_1 and _ share the name %q", named.Name)
	}
	if tag.IsAnonymous() || tag.String() != "_tag" {
		t.Errorf("_tag prints as %s", tag)
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantMsg string
		line    int
		col     int
	}{
		{"redefine built-in", `run("x").`, "cannot redefine built-in", 1, 1},
		{"reserved operator name", `set_user("x").`, "reserved for the ::set_user operator", 1, 1},
		{"arity mismatch", "a(\"x\").\na(\"x\", \"y\").", "already defined with arity 1", 2, 1},
		{"undefined predicate", `a :- b.`, "undefined predicate b/0", 1, 6},
		{"called with wrong arity", "b(\"x\").\na :- b.", "called with 0 arguments", 2, 6},
		{"built-in wrong arity", `a :- from("x", "y").`, "does not take 2 arguments", 1, 6},
		{"f-string in head", `a(f"${x}") :- from(x).`, "not allowed in the head", 1, 1},
		{"unterminated string", `a :- from("x).`, "unterminated string", 1, 11},
		{"unknown operator", `a :- (from("x"))::frobnicate.`, "unknown operator ::frobnicate/0", 1, 19},
		{"missing period", `a :- from("x")`, "expected '.' at end of rule", 1, 15},
		{"missing head terminator", `a b.`, "expected '.' or ':-'", 1, 3},
		{"compound argument", `a(b(c)).`, "compound term", 1, 3},
		{"stray character", `a :- from("x") & run("y").`, "unexpected character", 1, 16},
		{"bad interpolation", `a :- run(f"${not valid}").`, "invalid variable name", 1, 10},
		{"interpolated anonymous", `a :- run(f"${_}").`, "anonymous variable", 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse("Modusfile", tt.src)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("expected ErrSyntax, got %v", err)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if !strings.Contains(se.Msg, tt.wantMsg) {
				t.Errorf("message %q does not contain %q", se.Msg, tt.wantMsg)
			}
			if se.Pos.Line != tt.line || se.Pos.Column != tt.col {
				t.Errorf("position = %s, want %d:%d", se.Pos, tt.line, tt.col)
			}
		})
	}
}

func TestParse_KindInference(t *testing.T) {
	t.Parallel()

	src := `
final :- base, run("make").
base :- from("golang:1.22").
setup :- run("apt-get update"), run("apt-get install -y git").
version("1.0").
tagged(v) :- version(v), base.
with_setup :- base, setup.
copied :- (base)::copy("/go/bin", "/usr/local/bin").
renamed :- (base)::set_workdir("/src").
`
	db := mustParse(t, src)

	want := map[string]logic.Kind{
		"final":      logic.KindImage,
		"base":       logic.KindImage,
		"setup":      logic.KindLayer,
		"version":    logic.KindLogical,
		"tagged":     logic.KindImage,
		"with_setup": logic.KindImage,
		"copied":     logic.KindLayer,
		"renamed":    logic.KindImage,
	}
	for name, kind := range want {
		p, ok := db.Predicate(name)
		if !ok {
			t.Fatalf("predicate %s missing", name)
		}
		if p.Kind != kind {
			t.Errorf("%s kind = %s, want %s", name, p.Kind, kind)
		}
	}

	// Calls carry their kind and built-in tag.
	final := db.Clauses()[0]
	items := final.Body.(logic.Conjunction).Items
	if a := items[0].(logic.Atom); a.Kind != logic.KindImage || a.Builtin {
		t.Errorf("base call tagged %s builtin=%v", a.Kind, a.Builtin)
	}
	if a := items[1].(logic.Atom); a.Kind != logic.KindLayer || !a.Builtin {
		t.Errorf("run call tagged %s builtin=%v", a.Kind, a.Builtin)
	}
	if final.Head.Kind != logic.KindImage {
		t.Errorf("head tagged %s", final.Head.Kind)
	}
}

func TestParse_KindConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"image after layer", `a :- run("x"), from("y").`, "cannot follow a layer"},
		{"two images", `a :- from("x"), from("y").`, "cannot follow a image"},
		{"clauses disagree", "a :- from(\"x\").\na :- run(\"y\").", "is layer here but image elsewhere"},
		{"fact and image rule", "a.\na :- from(\"x\").", "is logical here but image elsewhere"},
		{"disjunction branches disagree", `a :- from("x"); run("y").`, "disjunction branch"},
		{"copy needs an image", `a :- (run("x"))::copy("/a", "/b").`, "expects image on its left"},
		{"in_workdir needs layers", `a :- (from("x"))::in_workdir("/a").`, "expects layer on its left"},
		{"transitive conflict", "b :- from(\"x\").\nc :- run(\"y\").\na :- c, b.", "cannot follow a layer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse("Modusfile", tt.src)
			if !errors.Is(err, ErrKindConflict) {
				t.Fatalf("expected ErrKindConflict, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query   string
		want    string
		wantErr bool
	}{
		{`app("ubuntu:18.04", "1.2.5", mode)`, `app("ubuntu:18.04", "1.2.5", mode)`, false},
		{`app("ubuntu:18.04", "1.2.5", "production").`, `app("ubuntu:18.04", "1.2.5", "production")`, false},
		{`final`, `final`, false},
		{`app(f"${x}")`, "", true},
		{`app("a") extra`, "", true},
		{`("a")`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			goal, err := ParseQuery(tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && goal.String() != tt.want {
				t.Errorf("goal = %s, want %s", goal, tt.want)
			}
		})
	}
}

func TestDatabase_CheckQuery(t *testing.T) {
	t.Parallel()

	db := mustParse(t, `base(v) :- from(v).`)

	goal, err := db.Query(`base("alpine")`)
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if goal.Kind != logic.KindImage || goal.Builtin {
		t.Errorf("goal tagged %s builtin=%v", goal.Kind, goal.Builtin)
	}

	_, err = db.Query(`base("alpine", "extra")`)
	var upe *UnknownPredicateError
	if !errors.As(err, &upe) {
		t.Fatalf("expected *UnknownPredicateError, got %v", err)
	}
	if len(upe.Defined) != 1 || upe.Defined[0] != "base/1" {
		t.Errorf("Defined = %v, want [base/1]", upe.Defined)
	}

	if _, err := db.Query(`missing`); !errors.Is(err, ErrUnknownPredicate) {
		t.Errorf("expected ErrUnknownPredicate, got %v", err)
	}

	if goal, err := db.Query(`version_lt("1", "2")`); err != nil || !goal.Builtin {
		t.Errorf("built-in query: goal=%v err=%v", goal, err)
	}
}

func TestDatabase_Predicates(t *testing.T) {
	t.Parallel()

	db := mustParse(t, "b :- from(\"x\").\na :- b, run(\"y\").\nb :- from(\"z\").")
	preds := db.Predicates()
	if len(preds) != 2 || preds[0].Name != "b" || preds[1].Name != "a" {
		t.Fatalf("unexpected predicate order %v", preds)
	}
	if len(preds[0].Clauses) != 2 {
		t.Errorf("b has %d clauses, want 2", len(preds[0].Clauses))
	}
	if db.Len() != 3 {
		t.Errorf("Len() = %d, want 3", db.Len())
	}
	if c := db.Clauses()[2]; c.Head.Predicate != "b" || c.Head.Kind != logic.KindImage {
		t.Errorf("third clause = %s (kind %s)", c, c.Head.Kind)
	}
}
