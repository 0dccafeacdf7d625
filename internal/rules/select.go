package rules

import (
	"fmt"

	"github.com/solatis/vizconf/internal/types"
)

// Select returns the rules for typeID whose constraints accept criteria,
// in store order. An unknown type yields an empty result, not an error.
func (s *Store) Select(typeID string, criteria types.Criteria) ([]*types.Rule, error) {
	rules, _, err := s.selectAt(typeID, criteria)
	return rules, err
}

// selectAt is Select plus the store generation the result was taken at.
func (s *Store) selectAt(typeID string, criteria types.Criteria) ([]*types.Rule, uint64, error) {
	if typeID == "" {
		return nil, 0, fmt.Errorf("type id: %w", types.ErrArgumentRequired)
	}
	abs := s.ns.Qualify(typeID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.byType[abs]
	out := make([]*types.Rule, 0, len(seq))
	for _, e := range seq {
		if matches(e.rule.Select, criteria) {
			out = append(out, e.rule)
		}
	}
	return out, s.generation, nil
}
