// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Issue identifiers. Zero means no issue.
const (
	ModusfileNotFoundId Id = iota + 1
	SyntaxErrorId
	KindConflictId
	UnknownPredicateId
	NoSolutionsId
	InstantiationId
	InconsistentMergeId
	ConfigLoadFailedId
	InvalidOutputFormatId
	PermissionDeniedId
)

type (
	// Id identifies an Issue.
	Id int

	// MarkdownMsg is the Markdown body of an Issue.
	MarkdownMsg string

	// HttpLink is a documentation link.
	HttpLink string

	// Issue is a Markdown page explaining one class of failure.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the page for a terminal with the given glamour style
// ("dark", "light", "notty" or a path to a JSON style).
func (i *Issue) Render(style string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), style)
}

var (
	render = glamour.Render

	readmeLink = HttpLink("https://github.com/modus-continens/modus#readme")

	issues = map[Id]*Issue{
		ModusfileNotFoundId: {
			id: ModusfileNotFoundId,
			mdMsg: `
# Modusfile not found

The file passed to modus does not exist or is not readable.

## Things you can try
- Check the path, it is relative to the current directory
- Run from the directory holding your Modusfile:
~~~
$ modus transpile ./Modusfile 'app("alpine:3.19")'
~~~`,
			docLinks: []HttpLink{readmeLink},
		},
		SyntaxErrorId: {
			id: SyntaxErrorId,
			mdMsg: `
# Modusfile syntax error

Every clause is a head followed by ':-' and a body, ending with a period.
Facts have no body. Strings use double quotes, and f-strings interpolate
variables with ${name}.

~~~
base(img) :- from(img), run("apk add --no-cache make").
app :- base("alpine:3.19"), copy(".", "/src").
~~~`,
			docLinks: []HttpLink{readmeLink},
		},
		KindConflictId: {
			id: KindConflictId,
			mdMsg: `
# Predicate kind conflict

A predicate builds an image, adds layers to an image or does neither. All of
its clauses must agree, an image can only start a conjunction, and the
branches of a disjunction must be of the same kind.

## Things you can try
- Split the predicate in two, one per kind
- Move from() to the front of the clause body`,
			docLinks: []HttpLink{readmeLink},
		},
		UnknownPredicateId: {
			id: UnknownPredicateId,
			mdMsg: `
# Unknown predicate

The query or a clause calls a predicate that is neither defined in the
Modusfile nor built in, or calls it with the wrong number of arguments.

## Things you can try
- List the defined predicates with 'modus proof FILE'
- Check the spelling and the number of arguments`,
		},
		NoSolutionsId: {
			id: NoSolutionsId,
			mdMsg: `
# No solutions

No clause could prove the query. Each alternative failed to unify or hit a
failing built-in such as a version comparison.

## Things you can try
- Run 'modus proof FILE QUERY -v' to trace the search
- Leave an argument unbound to see which values are derivable`,
		},
		InstantiationId: {
			id: InstantiationId,
			mdMsg: `
# Unbound argument

A built-in predicate, an interpolated string or a build instruction needs a
value but the variable was still unbound when it was reached.

## Things you can try
- Bind the variable earlier in the clause body
- Pass a concrete value in the query`,
		},
		InconsistentMergeId: {
			id: InconsistentMergeId,
			mdMsg: `
# Inconsistent stage merge

The same image was derived twice with different instructions. Resolution is
deterministic, so this is a bug in modus. Please report it together with
the Modusfile and the query.`,
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: `
# Configuration could not be loaded

The configuration file must be valid CUE matching the #Config schema.

~~~cue
max_depth:     64
output_format: "dockerfile"
concurrency:   4
log_level:     "warn"
dockerfile: syntax: "docker/dockerfile:1"
ui: {color: true, verbose: false}
~~~

## Things you can try
- Run 'modus config show' to print the effective configuration
- Run 'modus config init' to write a default file`,
		},
		InvalidOutputFormatId: {
			id: InvalidOutputFormatId,
			mdMsg: `
# Invalid output format

Supported formats are dockerfile, tree, json, yaml and toml.`,
		},
		PermissionDeniedId: {
			id: PermissionDeniedId,
			mdMsg: `
# Permission denied

modus could not read the Modusfile or write the output file.

## Things you can try
- Check the file permissions
- Write to stdout and redirect instead of using -o`,
		},
	}
)

// Values returns every issue ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the issue with the given Id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
