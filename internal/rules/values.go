// internal/rules/values.go
package rules

import (
	"encoding/json"
	"reflect"

	"github.com/spf13/cast"

	"github.com/solatis/vizconf/internal/types"
)

/*
 * Criteria matching.
 *
 * A rule constraint is satisfied when it is undeclared, or when the criteria
 * value for its key equals one of the constraint's values. A criteria map
 * without the key never satisfies a declared constraint.
 *
 * Equality is strict by kind: "1" does not equal 1. Numeric kinds compare
 * numerically so that criteria built in Go (int) match constraints decoded
 * from JSON (float64). Uncomparable values (slices, maps) never match.
 */

// matches reports whether every declared constraint of sel accepts criteria.
// A nil or empty select is universal.
func matches(sel *types.Select, criteria types.Criteria) bool {
	if sel == nil {
		return true
	}
	for _, key := range types.CriteriaKeys {
		constraint := sel.Constraint(key)
		if constraint == nil {
			continue
		}
		value, ok := criteria[key]
		if !ok || !containsValue(constraint, value) {
			return false
		}
	}
	return true
}

// containsValue is a membership test, not a subset test.
func containsValue(set types.Values, value any) bool {
	for _, elem := range set {
		if equalValues(elem, value) {
			return true
		}
	}
	return false
}

// equalValues compares two scalars with numeric normalization.
func equalValues(a, b any) bool {
	if isNumeric(a) && isNumeric(b) {
		na, errA := cast.ToFloat64E(a)
		nb, errB := cast.ToFloat64E(b)
		return errA == nil && errB == nil && na == nb
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	default:
		return false
	}
}

func isComparable(v any) bool {
	return v == nil || reflect.TypeOf(v).Comparable()
}

// specificity is the presence vector of declared criteria keys.
type specificity [len(types.CriteriaKeys)]bool

func specificityOf(sel *types.Select) specificity {
	var s specificity
	for i, key := range types.CriteriaKeys {
		s[i] = sel.Constraint(key) != nil
	}
	return s
}

// compare orders presence vectors lexicographically over the fixed key order.
// The first key declared by only one side decides; the declaring side is
// more specific and sorts later.
func (s specificity) compare(o specificity) int {
	for i := range s {
		if s[i] != o[i] {
			if s[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}
