// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"strings"

	"github.com/mayhemheroes/modus/pkg/logic"
	"golang.org/x/mod/semver"
)

func init() {
	comparisons := []struct {
		suffix string
		test   func(c int) bool
	}{
		{"lt", func(c int) bool { return c < 0 }},
		{"leq", func(c int) bool { return c <= 0 }},
		{"gt", func(c int) bool { return c > 0 }},
		{"geq", func(c int) bool { return c >= 0 }},
		{"eq", func(c int) bool { return c == 0 }},
	}
	for _, prefix := range []string{"version_", "semver_"} {
		for _, cmp := range comparisons {
			name := prefix + cmp.suffix
			test := cmp.test
			register(&Builtin{
				Name:  name,
				Arity: 2,
				Kind:  logic.KindLogical,
				eval: check(name, 2, func(vals []string) bool {
					return test(CompareVersions(vals[0], vals[1]))
				}),
			})
		}
	}
}

// CompareVersions orders dotted version strings such as "18.04", "3.7" or
// "1.3.0-alpha". It returns -1, 0 or +1.
//
// Build metadata after "+" is ignored. Release components are compared one by
// one, numerically when both are numeric and lexically otherwise; a missing
// component counts as "0". A pre-release sorts below the release it precedes.
func CompareVersions(a, b string) int {
	relA, preA := splitVersion(a)
	relB, preB := splitVersion(b)

	if c := compareDotted(relA, relB); c != 0 {
		return c
	}
	switch {
	case preA == "" && preB == "":
		return 0
	case preA == "":
		return 1
	case preB == "":
		return -1
	}
	va, vb := "v0.0.0-"+preA, "v0.0.0-"+preB
	if semver.IsValid(va) && semver.IsValid(vb) {
		return semver.Compare(va, vb)
	}
	return compareDotted(preA, preB)
}

func splitVersion(s string) (release, prerelease string) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '-'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

func compareDotted(a, b string) int {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	n := max(len(pa), len(pb))
	for i := range n {
		ca, cb := "0", "0"
		if i < len(pa) && pa[i] != "" {
			ca = pa[i]
		}
		if i < len(pb) && pb[i] != "" {
			cb = pb[i]
		}
		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

func compareComponent(a, b string) int {
	na, nb := isNumeric(a), isNumeric(b)
	switch {
	case na && nb:
		a, b = strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
		if len(a) != len(b) {
			if len(a) < len(b) {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	case na:
		return -1
	case nb:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
