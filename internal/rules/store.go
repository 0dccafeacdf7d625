// internal/rules/store.go
package rules

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/solatis/vizconf/internal/types"
)

/*
 * Rule store: rules indexed by absolute type identifier.
 *
 * Each type's sequence is kept sorted ascending by generality:
 *   1. priority (lower first)
 *   2. specificity presence vector over user, theme, locale, application
 *      (undeclared first, first differing key decides)
 *   3. ordinal (insertion order)
 *
 * Later entries win when payloads are folded left to right, so the most
 * specific, highest priority, most recent rule takes precedence without a
 * separate winner computation.
 *
 * Ordinals come from a per-store counter. A rule is identified by pointer;
 * adding the same *types.Rule again reuses its ordinal and does not insert it
 * twice into the same sequence. A rule declaring several types shares one
 * entry across their sequences.
 *
 * Priority and specificity are captured at first insertion. Rules are treated
 * as immutable once added.
 */

// entry wraps a caller-owned rule with engine-owned ordering data.
type entry struct {
	rule        *types.Rule
	ordinal     uint64
	priority    float64
	specificity specificity
}

func compareEntries(a, b *entry) int {
	if c := cmp.Compare(a.priority, b.priority); c != 0 {
		return c
	}
	if c := a.specificity.compare(b.specificity); c != 0 {
		return c
	}
	return cmp.Compare(a.ordinal, b.ordinal)
}

// Store holds rules per absolute type identifier.
// Safe for concurrent use: adds are exclusive, reads are shared.
type Store struct {
	ns Namespace

	mu         sync.RWMutex
	byType     map[string][]*entry
	entries    map[*types.Rule]*entry
	nextOrd    uint64
	generation uint64
}

// NewStore creates an empty store using ns to qualify type identifiers.
func NewStore(ns Namespace) *Store {
	return &Store{
		ns:      ns,
		byType:  make(map[string][]*entry),
		entries: make(map[*types.Rule]*entry),
	}
}

// Namespace returns the namespace used to qualify type identifiers.
func (s *Store) Namespace() Namespace {
	return s.ns
}

// AddRule indexes a rule under each of its resolved type identifiers.
func (s *Store) AddRule(rule *types.Rule) error {
	return s.AddRules([]*types.Rule{rule})
}

// AddRules indexes a batch of rules in order, so ordinals follow batch order.
// The batch is validated before anything is inserted: on error the store is
// unchanged.
func (s *Store) AddRules(batch []*types.Rule) error {
	resolved, err := s.resolve(batch)
	if err != nil {
		return err
	}

	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rule := range batch {
		e := s.entryFor(rule)
		for _, typeID := range resolved[i] {
			s.insert(typeID, e)
		}
	}
	s.generation++
	return nil
}

// Validate reports whether AddRules would accept batch, without adding it.
func (s *Store) Validate(batch []*types.Rule) error {
	_, err := s.resolve(batch)
	return err
}

func (s *Store) resolve(batch []*types.Rule) ([][]string, error) {
	resolved := make([][]string, len(batch))
	for i, rule := range batch {
		if rule == nil {
			return nil, fmt.Errorf("rule %d: %w", i, types.ErrArgumentRequired)
		}
		ids, err := s.ns.resolveTypeIDs(rule)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		resolved[i] = ids
	}
	return resolved, nil
}

// entryFor returns the existing entry for rule or assigns a new ordinal.
// Caller must hold s.mu for writing.
func (s *Store) entryFor(rule *types.Rule) *entry {
	if e, ok := s.entries[rule]; ok {
		return e
	}
	e := &entry{
		rule:        rule,
		ordinal:     s.nextOrd,
		priority:    rule.Priority,
		specificity: specificityOf(rule.Select),
	}
	s.nextOrd++
	s.entries[rule] = e
	return e
}

// insert places e into typeID's sequence after every entry that does not
// sort after it. Caller must hold s.mu for writing.
func (s *Store) insert(typeID string, e *entry) {
	seq := s.byType[typeID]
	if slices.Contains(seq, e) {
		return
	}
	idx := sort.Search(len(seq), func(i int) bool {
		return compareEntries(seq[i], e) > 0
	})
	s.byType[typeID] = slices.Insert(seq, idx, e)
}

// Rules returns the ordered rules indexed under typeID (qualified first).
func (s *Store) Rules(typeID string) []*types.Rule {
	abs := s.ns.Qualify(typeID)

	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.byType[abs]
	out := make([]*types.Rule, len(seq))
	for i, e := range seq {
		out[i] = e.rule
	}
	return out
}

// TypeIDs returns the absolute type identifiers that have rules, sorted.
func (s *Store) TypeIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.byType))
	for id := range s.byType {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of distinct rules in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Generation changes whenever rules are added.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}
