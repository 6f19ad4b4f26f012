// SPDX-License-Identifier: MPL-2.0

package modusfiletest

import (
	"strings"
	"testing"

	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/modusfile"
)

// InstallPython defines install_python/2 with three clauses: alpine images,
// ubuntu from 16.04 on, and older ubuntu releases.
const InstallPython = `# Python from the distribution package manager.
install_python(img, py) :-
    string_concat("alpine:", _, img),
    from(img),
    run(f"apk add --no-cache python${py}").

install_python(img, py) :-
    string_concat("ubuntu:", tag, img),
    version_geq(tag, "16.04"),
    from(img),
    run("apt-get update"),
    run(f"apt-get install -y python${py}").

install_python(img, py) :-
    string_concat("ubuntu:", tag, img),
    version_lt(tag, "16.04"),
    from(img),
    run("add-apt-repository ppa:deadsnakes/ppa"),
    run(f"apt-get install -y python${py}").
`

// App extends InstallPython into five relations. build and dependencies both
// start from the same library_python image, and mode selects a build recipe.
const App = InstallPython + `
library_python(img, cdk, py) :-
    install_python(img, py),
    run(f"pip install aws-cdk-lib==${cdk}").

dependencies(img, cdk) :-
    library_python(img, cdk, "3.7"),
    copy("requirements.txt", "/app/requirements.txt"),
    run("pip install -r /app/requirements.txt").

build(img, cdk, mode) :-
    library_python(img, cdk, "3.7"),
    copy(".", "/src"),
    (
        mode = "development",
        run("make -C /src build-dev")
    ;
        mode = "production",
        run("make -C /src build")
    ).

app(img, cdk, mode) :-
    dependencies(img, cdk),
    (build(img, cdk, mode))::copy("/src/dist", "/app/dist"),
    run("chmod +x /app/dist/app").
`

type (
	// Option adds content to a generated Modusfile.
	Option func(*strings.Builder)
)

// New joins the given fragments into a Modusfile source.
//
// Usage:
//
//	src := modusfiletest.New(
//	    modusfiletest.WithClause(`base :- from("alpine:3.19").`),
//	    modusfiletest.WithClause(`app :- base, run("make").`),
//	)
func New(opts ...Option) string {
	var sb strings.Builder
	for _, opt := range opts {
		opt(&sb)
	}
	return sb.String()
}

// WithClause appends one clause.
func WithClause(clause string) Option {
	return func(sb *strings.Builder) {
		sb.WriteString(clause)
		sb.WriteByte('\n')
	}
}

// WithComment appends a comment line.
func WithComment(text string) Option {
	return func(sb *strings.Builder) {
		sb.WriteString("# ")
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
}

// WithSource appends a complete source such as App.
func WithSource(src string) Option {
	return func(sb *strings.Builder) {
		sb.WriteString(src)
		if !strings.HasSuffix(src, "\n") {
			sb.WriteByte('\n')
		}
	}
}

// MustParse parses src. The test fails immediately on error.
func MustParse(t testing.TB, src string) *modusfile.Database {
	t.Helper()
	db, err := modusfile.Parse("Modusfile", src)
	if err != nil {
		t.Fatalf("failed to parse Modusfile: %v", err)
	}
	return db
}

// MustQuery parses and checks a query against db. The test fails immediately
// on error.
func MustQuery(t testing.TB, db *modusfile.Database, query string) logic.Atom {
	t.Helper()
	goal, err := db.Query(query)
	if err != nil {
		t.Fatalf("failed to parse query %q: %v", query, err)
	}
	return goal
}
