// internal/spec/op.go
package spec

import (
	"fmt"

	"github.com/solatis/vizconf/internal/types"
)

// Op is a per-field merge operator.
type Op int

const (
	// OpReplace sets the target field to a deep clone of the source value.
	OpReplace Op = iota
	// OpMerge merges a source record into a target record field by field.
	OpMerge
	// OpAdd appends deep clones of source elements to a target array.
	OpAdd
)

// Operation wrapper keys: {"$op": "add", "value": [...]}.
const (
	OpKey    = "$op"
	ValueKey = "value"
)

func (o Op) String() string {
	switch o {
	case OpReplace:
		return "replace"
	case OpMerge:
		return "merge"
	case OpAdd:
		return "add"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// ParseOp maps an operator name to its Op.
// Returns ErrOperationInvalid naming the operator for anything else.
func ParseOp(name string) (Op, error) {
	switch name {
	case "replace":
		return OpReplace, nil
	case "merge":
		return OpMerge, nil
	case "add":
		return OpAdd, nil
	default:
		return OpReplace, fmt.Errorf("merge operation '%s' is not defined: %w", name, types.ErrOperationInvalid)
	}
}

// operation resolves the operator and effective value for one source field.
// Plain records default to merge, everything else to replace. A wrapper's
// operator is downgraded to replace when its value cannot take part in it.
func operation(sourceValue any) (Op, any, error) {
	rec, ok := asRecord(sourceValue)
	if !ok {
		return OpReplace, sourceValue, nil
	}

	rawOp, wrapped := rec[OpKey]
	if !wrapped || rawOp == nil || rawOp == "" {
		return OpMerge, sourceValue, nil
	}

	value := rec[ValueKey]

	name, ok := rawOp.(string)
	if !ok {
		return OpReplace, nil, fmt.Errorf("merge operation '%v' is not defined: %w", rawOp, types.ErrOperationInvalid)
	}
	op, err := ParseOp(name)
	if err != nil {
		return OpReplace, nil, err
	}

	switch {
	case op == OpMerge && !IsRecord(value):
		op = OpReplace
	case op == OpAdd && !IsArray(value):
		op = OpReplace
	}
	return op, value, nil
}
