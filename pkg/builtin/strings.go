// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"strconv"
	"strings"

	"github.com/mayhemheroes/modus/pkg/logic"
)

func init() {
	register(&Builtin{Name: "string_concat", Arity: 3, Kind: logic.KindLogical, eval: stringConcat})
	register(&Builtin{Name: "string_length", Arity: 2, Kind: logic.KindLogical, eval: stringLength})
	register(&Builtin{Name: "string_replace", Arity: 4, Kind: logic.KindLogical, eval: stringReplace})
	register(&Builtin{Name: "interpolate", Arity: 2, Kind: logic.KindLogical, RawArgs: true, eval: interpolate})
	register(&Builtin{Name: "eq", Arity: 2, Kind: logic.KindLogical, eval: equal})
	register(&Builtin{Name: "neq", Arity: 2, Kind: logic.KindLogical, eval: check("neq", 2, func(vals []string) bool {
		return vals[0] != vals[1]
	})})
}

// stringConcat relates a ++ b = c. Any two bound arguments determine the third.
func stringConcat(args []logic.Term) ([]logic.Term, bool, error) {
	a, b, c := args[0], args[1], args[2]
	switch {
	case isBound(a) && isBound(b):
		vals, _ := requireBound("string_concat", args, 0, 1)
		return constants(vals[0], vals[1], vals[0]+vals[1]), true, nil
	case isBound(a) && isBound(c):
		vals, _ := requireBound("string_concat", args, 0, 2)
		rest, ok := strings.CutPrefix(vals[1], vals[0])
		if !ok {
			return nil, false, nil
		}
		return constants(vals[0], rest, vals[1]), true, nil
	case isBound(b) && isBound(c):
		vals, _ := requireBound("string_concat", args, 1, 2)
		rest, ok := strings.CutSuffix(vals[1], vals[0])
		if !ok {
			return nil, false, nil
		}
		return constants(rest, vals[0], vals[1]), true, nil
	}
	unbound := 0
	if isBound(a) {
		unbound = 1
	}
	return nil, false, &InstantiationError{Goal: logic.NewAtom("string_concat", args...).String(), Arg: unbound}
}

func stringLength(args []logic.Term) ([]logic.Term, bool, error) {
	vals, err := requireBound("string_length", args, 0)
	if err != nil {
		return nil, false, err
	}
	return constants(vals[0], strconv.Itoa(len([]rune(vals[0])))), true, nil
}

func stringReplace(args []logic.Term) ([]logic.Term, bool, error) {
	vals, err := requireBound("string_replace", args, 0, 1, 2)
	if err != nil {
		return nil, false, err
	}
	out := strings.ReplaceAll(vals[0], vals[1], vals[2])
	return constants(vals[0], vals[1], vals[2], out), true, nil
}

// interpolate renders its first argument into the second. The engine hands
// over f-strings unrendered, so an embedded variable that is still unbound
// surfaces as logic.UnboundInterpolationVariableError.
func interpolate(args []logic.Term) ([]logic.Term, bool, error) {
	switch t := args[0].(type) {
	case logic.Constant:
		return []logic.Term{t, t}, true, nil
	case logic.FString:
		rendered, err := logic.NewBindings().Interpolate(t)
		if err != nil {
			return nil, false, err
		}
		return constants(rendered, rendered), true, nil
	default:
		return nil, false, &InstantiationError{Goal: logic.NewAtom("interpolate", args...).String(), Arg: 0}
	}
}

// equal unifies its arguments: the call unifies (a, b) with (b, a).
func equal(args []logic.Term) ([]logic.Term, bool, error) {
	return []logic.Term{args[1], args[0]}, true, nil
}
