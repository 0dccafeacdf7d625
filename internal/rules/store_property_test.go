package rules

import (
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/vizconf/internal/types"
)

func randomRule(r *rand.Rand) *types.Rule {
	sel := &types.Select{}
	if r.Intn(2) == 0 {
		sel.User = types.Values{"u"}
	}
	if r.Intn(2) == 0 {
		sel.Theme = types.Values{"t"}
	}
	if r.Intn(2) == 0 {
		sel.Locale = types.Values{"en", "pt"}
	}
	if r.Intn(2) == 0 {
		sel.Application = types.Values{"a"}
	}
	return &types.Rule{Select: sel, Priority: float64(r.Intn(3) - 1)}
}

// Property-based test: sequences are strictly ordered
func TestStore_PropertySequenceSorted(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every type sequence is strictly ascending", prop.ForAll(
		func(seed int64, count int, batched bool) bool {
			r := rand.New(rand.NewSource(seed))
			s := NewStore(DefaultNamespace())

			batch := make([]*types.Rule, count)
			for i := range batch {
				batch[i] = randomRule(r)
			}
			if batched {
				if err := s.AddRules(batch); err != nil {
					return false
				}
			} else {
				for _, rule := range batch {
					if err := s.AddRule(rule); err != nil {
						return false
					}
				}
			}

			seq := s.byType[types.DefaultRootType]
			if len(seq) != count {
				return false
			}
			for i := 1; i < len(seq); i++ {
				if compareEntries(seq[i-1], seq[i]) >= 0 {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(0, 40),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// Property-based test: selection preserves store order
func TestSelect_PropertySubsequence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("selected rules are an ordered subsequence of the store", prop.ForAll(
		func(seed int64) bool {
			r := rand.New(rand.NewSource(seed))
			s := NewStore(DefaultNamespace())
			for i := 0; i < 20; i++ {
				if err := s.AddRule(randomRule(r)); err != nil {
					return false
				}
			}

			all := s.Rules(types.DefaultRootType)
			selected, err := s.Select("value", types.Criteria{"user": "u", "locale": "pt"})
			if err != nil {
				return false
			}

			j := 0
			for _, rule := range all {
				if j < len(selected) && selected[j] == rule {
					j++
				}
			}
			return j == len(selected)
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
