package spec

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomFragment builds a nested fragment mixing records, arrays, scalars and
// operation wrappers with valid operators.
func randomFragment(r *rand.Rand, depth int) map[string]any {
	out := make(map[string]any)
	fields := r.Intn(4) + 1
	for i := 0; i < fields; i++ {
		key := fmt.Sprintf("k%d", r.Intn(5))
		out[key] = randomValue(r, depth)
	}
	return out
}

func randomValue(r *rand.Rand, depth int) any {
	choice := r.Intn(7)
	if depth <= 0 {
		choice = r.Intn(3)
	}
	switch choice {
	case 0:
		return float64(r.Intn(10))
	case 1:
		return fmt.Sprintf("s%d", r.Intn(10))
	case 2:
		return r.Intn(2) == 0
	case 3:
		return []any{randomValue(r, depth-1), randomValue(r, depth-1)}
	case 4:
		return randomFragment(r, depth-1)
	case 5:
		ops := []string{"merge", "replace", "add"}
		return map[string]any{OpKey: ops[r.Intn(len(ops))], ValueKey: randomValue(r, depth-1)}
	default:
		return map[string]any{OpKey: "add", ValueKey: []any{randomValue(r, depth-1)}}
	}
}

// Property-based test: sources are never mutated
func TestMergeInto_PropertySourceUnchanged(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("merge never mutates source fragments", prop.ForAll(
		func(seed int64, depth int) bool {
			r := rand.New(rand.NewSource(seed))
			target := randomFragment(r, depth)
			first := randomFragment(r, depth)
			second := randomFragment(r, depth)

			firstBefore := Clone(first)
			secondBefore := Clone(second)

			if _, err := MergeInto(target, first); err != nil {
				return false
			}
			if _, err := MergeInto(target, second); err != nil {
				return false
			}
			return reflect.DeepEqual(firstBefore, first) && reflect.DeepEqual(secondBefore, second)
		},
		gen.Int64(),
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}

// Property-based test: folding is deterministic
func TestMergeInto_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("same inputs fold to equal results", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			layers := []map[string]any{randomFragment(r, 3), randomFragment(r, 3), randomFragment(r, 3)}

			fold := func() map[string]any {
				acc := map[string]any{}
				for _, layer := range layers {
					if _, err := MergeInto(acc, layer); err != nil {
						return nil
					}
				}
				return acc
			}

			a := fold()
			b := fold()
			return a != nil && reflect.DeepEqual(a, b)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}

// Property-based test: clones are structurally equal and never share records
func TestClone_PropertyIndependent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("clone equals original and is detached", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			original := randomFragment(r, 3)
			snapshot := Clone(original)

			cloned := Clone(original).(map[string]any)
			if !reflect.DeepEqual(original, cloned) {
				return false
			}
			for k := range cloned {
				cloned[k] = "overwritten"
			}
			return reflect.DeepEqual(snapshot, original)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
