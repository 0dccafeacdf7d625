// internal/types/rule.go
package types

import (
	"encoding/json"
	"fmt"
)

/*
 * Rule and document types.
 *
 * A Rule is a conditional configuration fragment: Select restricts when it
 * applies, Priority orders it against other rules of the same type, and Apply
 * is merged into the selection result.
 *
 * Select values accept either a JSON scalar or an array of scalars. Both
 * decode to Values; a scalar becomes a one-element slice, which has the same
 * matching semantics as equality. A nil Values means "not declared"; JSON
 * null decodes to nil.
 */

// Values is a selection constraint: any of the listed scalars.
type Values []any

// UnmarshalJSON accepts a scalar, an array of scalars, or null.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = ValuesOf(raw)
	return nil
}

// MarshalJSON writes single values as scalars and everything else as arrays.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	if len(v) == 1 {
		return json.Marshal(v[0])
	}
	return json.Marshal([]any(v))
}

// ValuesOf converts a decoded scalar or []any into Values.
func ValuesOf(raw any) Values {
	switch r := raw.(type) {
	case nil:
		return nil
	case Values:
		return r
	case []any:
		return Values(append([]any{}, r...))
	case []string:
		out := make(Values, len(r))
		for i, s := range r {
			out[i] = s
		}
		return out
	default:
		return Values{r}
	}
}

// Select restricts when a rule applies. Fields are written even when nil:
// an empty list is a declared constraint that matches nothing.
type Select struct {
	Type        Values `json:"type"`
	User        Values `json:"user"`
	Theme       Values `json:"theme"`
	Locale      Values `json:"locale"`
	Application Values `json:"application"`
}

// Constraint returns the constraint declared for a criteria key, or nil.
func (s *Select) Constraint(key string) Values {
	if s == nil {
		return nil
	}
	switch key {
	case KeyUser:
		return s.User
	case KeyTheme:
		return s.Theme
	case KeyLocale:
		return s.Locale
	case KeyApplication:
		return s.Application
	default:
		return nil
	}
}

// TypeIDs returns the declared type identifiers as strings.
// Returns ErrArgumentInvalid for non-string or empty entries.
func (s *Select) TypeIDs() ([]string, error) {
	if s == nil || s.Type == nil {
		return nil, nil
	}
	ids := make([]string, 0, len(s.Type))
	for _, t := range s.Type {
		id, ok := t.(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("select.type entry %v: %w", t, ErrArgumentInvalid)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Rule is a configuration fragment with a selection predicate and priority.
type Rule struct {
	Select   *Select `json:"select,omitempty"`
	Priority float64 `json:"priority,omitempty"`
	Apply    Spec    `json:"apply,omitempty"`
}

// Document is a batch of rules as submitted by a configuration source.
type Document struct {
	Rules []*Rule `json:"rules,omitempty"`
}

// ParseDocument decodes a JSON configuration document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid configuration document: %w", err)
	}
	return &doc, nil
}
