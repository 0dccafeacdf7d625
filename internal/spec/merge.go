// internal/spec/merge.go
package spec

import (
	"fmt"
	"maps"
	"slices"
)

/*
 * Structural merge algebra for specification fragments.
 *
 * MergeInto combines a source fragment into a target fragment field by field.
 * Each field is handled by one of three operators:
 *   - replace: target[field] = Clone(source value)
 *   - merge:   recurse when both sides are records, else replace
 *   - add:     append clones of source elements when both sides are arrays,
 *              else replace
 *
 * Operator selection per field: a record carrying "$op" is an operation
 * wrapper and names its operator explicitly; other records merge; all other
 * values (scalars, arrays, foreign objects) replace.
 *
 * The source is never mutated. Every value written into the target is a fresh
 * clone, so later merges into the target cannot reach back into a rule payload.
 *
 * Fields are visited in sorted key order so that the first reported invalid
 * operator is deterministic. On error the target may already hold fields
 * merged before the failure; callers that need atomicity merge into a
 * scratch accumulator and discard it on error (see rules.Engine.Select).
 */

// MergeInto merges source into target and returns target.
// A nil target is replaced by a fresh map.
// Returns ErrOperationInvalid for unknown "$op" operators at any depth.
func MergeInto(target, source map[string]any) (map[string]any, error) {
	if target == nil {
		target = make(map[string]any, len(source))
	}
	for _, name := range slices.Sorted(maps.Keys(source)) {
		if err := mergeField(target, name, source[name]); err != nil {
			return target, err
		}
	}
	return target, nil
}

// mergeField dispatches a single source field to its operator.
func mergeField(target map[string]any, name string, sourceValue any) error {
	op, value, err := operation(sourceValue)
	if err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}

	switch op {
	case OpReplace:
		replaceField(target, name, value)
		return nil
	case OpMerge:
		return mergeRecordField(target, name, value)
	case OpAdd:
		addField(target, name, value)
		return nil
	default:
		return fmt.Errorf("field %q: unhandled operator %v", name, op)
	}
}

func replaceField(target map[string]any, name string, value any) {
	target[name] = Clone(value)
}

func mergeRecordField(target map[string]any, name string, value any) error {
	src, _ := asRecord(value)
	dst, ok := asRecord(target[name])
	if !ok {
		replaceField(target, name, value)
		return nil
	}
	if _, err := MergeInto(dst, src); err != nil {
		return fmt.Errorf("field %q: %w", name, err)
	}
	return nil
}

func addField(target map[string]any, name string, value any) {
	src, srcOK := value.([]any)
	dst, dstOK := target[name].([]any)
	if !srcOK || !dstOK {
		replaceField(target, name, value)
		return
	}
	for _, item := range src {
		dst = append(dst, Clone(item))
	}
	target[name] = dst
}
