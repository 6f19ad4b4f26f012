// SPDX-License-Identifier: MPL-2.0

package builtin

import (
	"fmt"
	"slices"

	"github.com/mayhemheroes/modus/pkg/logic"
)

// Operators that may follow a parenthesized expression.
const (
	OpCopy          = "copy"
	OpInWorkdir     = "in_workdir"
	OpSetWorkdir    = "set_workdir"
	OpSetEnv        = "set_env"
	OpSetEntrypoint = "set_entrypoint"
	OpSetCmd        = "set_cmd"
	OpSetLabel      = "set_label"
	OpSetUser       = "set_user"
	OpAppendPath    = "append_path"
)

// Operator describes a ::operator: the kind it accepts on its left-hand side
// and the kind of the whole application.
type Operator struct {
	Name   string
	Arity  int
	Inner  logic.Kind
	Result logic.Kind
}

var operators = map[key]*Operator{}

func registerOperator(op *Operator) {
	operators[key{op.Name, op.Arity}] = op
}

func init() {
	register(&Builtin{Name: "from", Arity: 1, Kind: logic.KindImage, eval: check("from", 1, nonEmpty)})
	register(&Builtin{Name: "run", Arity: 1, Kind: logic.KindLayer, eval: check("run", 1, nonEmpty)})
	register(&Builtin{Name: "workdir", Arity: 1, Kind: logic.KindLayer, eval: check("workdir", 1, nonEmpty)})
	register(&Builtin{Name: "copy", Arity: 2, Kind: logic.KindLayer, eval: check("copy", 2, nonEmpty)})
	register(&Builtin{Name: "env", Arity: 2, Kind: logic.KindLayer, eval: check("env", 2, firstNonEmpty)})
	register(&Builtin{Name: "arg", Arity: 1, Kind: logic.KindLayer, eval: check("arg", 1, nonEmpty)})
	register(&Builtin{Name: "arg", Arity: 2, Kind: logic.KindLayer, eval: check("arg", 2, firstNonEmpty)})

	registerOperator(&Operator{Name: OpCopy, Arity: 2, Inner: logic.KindImage, Result: logic.KindLayer})
	registerOperator(&Operator{Name: OpInWorkdir, Arity: 1, Inner: logic.KindLayer, Result: logic.KindLayer})
	registerOperator(&Operator{Name: OpSetWorkdir, Arity: 1, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpSetEnv, Arity: 2, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpSetEntrypoint, Arity: 1, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpSetCmd, Arity: 1, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpSetLabel, Arity: 2, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpSetUser, Arity: 1, Inner: logic.KindImage, Result: logic.KindImage})
	registerOperator(&Operator{Name: OpAppendPath, Arity: 1, Inner: logic.KindImage, Result: logic.KindImage})
}

// LookupOperator returns the ::operator with the given name and arity.
func LookupOperator(name string, arity int) (*Operator, bool) {
	op, ok := operators[key{name, arity}]
	return op, ok
}

// OperatorNames returns the sorted operator names.
func OperatorNames() []string {
	names := make([]string, 0, len(operators))
	for k := range operators {
		names = append(names, k.name)
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// CheckOperatorArgs verifies that every operator argument is a constant.
func (op *Operator) CheckOperatorArgs(args []logic.Term) error {
	if len(args) != op.Arity {
		return fmt.Errorf("operator ::%s expects %d arguments, got %d", op.Name, op.Arity, len(args))
	}
	for i, a := range args {
		if _, ok := a.(logic.Constant); !ok {
			return &InstantiationError{Goal: "::" + logic.NewAtom(op.Name, args...).String(), Arg: i}
		}
	}
	return nil
}

func nonEmpty(vals []string) bool {
	for _, v := range vals {
		if v == "" {
			return false
		}
	}
	return true
}

func firstNonEmpty(vals []string) bool {
	return vals[0] != ""
}
