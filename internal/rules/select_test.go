package rules

import (
	"errors"
	"testing"

	"github.com/solatis/vizconf/internal/types"
)

func TestSelect_Membership(t *testing.T) {
	s := NewStore(DefaultNamespace())
	r := rule(&types.Select{Locale: types.Values{"en", "pt"}}, 0, nil)
	if err := s.AddRule(r); err != nil {
		t.Fatalf("AddRule() error = %v, want nil", err)
	}

	tests := []struct {
		name     string
		criteria types.Criteria
		want     int
	}{
		{"listed locale", types.Criteria{"locale": "pt"}, 1},
		{"other listed locale", types.Criteria{"locale": "en"}, 1},
		{"unlisted locale", types.Criteria{"locale": "fr"}, 0},
		{"missing locale", types.Criteria{"user": "u1"}, 0},
		{"nil criteria", nil, 0},
		{"uncomparable criteria value", types.Criteria{"locale": []any{"pt"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Select("value", tt.criteria)
			if err != nil {
				t.Fatalf("Select() error = %v, want nil", err)
			}
			if len(got) != tt.want {
				t.Errorf("len(Select()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestSelect_ScalarConstraint(t *testing.T) {
	s := NewStore(DefaultNamespace())
	r := rule(&types.Select{User: types.Values{"u1"}, Theme: types.Values{"ruby"}}, 0, nil)
	if err := s.AddRule(r); err != nil {
		t.Fatalf("AddRule() error = %v, want nil", err)
	}

	if got, _ := s.Select("value", types.Criteria{"user": "u1", "theme": "ruby"}); len(got) != 1 {
		t.Errorf("all constraints satisfied: len = %d, want 1", len(got))
	}
	if got, _ := s.Select("value", types.Criteria{"user": "u1", "theme": "sapphire"}); len(got) != 0 {
		t.Errorf("one constraint unsatisfied: len = %d, want 0", len(got))
	}
}

func TestSelect_UniversalRulesAlwaysMatch(t *testing.T) {
	s := NewStore(DefaultNamespace())
	noSelect := rule(nil, 0, nil)
	emptySelect := rule(&types.Select{}, 0, nil)
	if err := s.AddRules([]*types.Rule{noSelect, emptySelect}); err != nil {
		t.Fatalf("AddRules() error = %v, want nil", err)
	}

	got, err := s.Select("value", types.Criteria{"user": "anyone", "locale": "fr"})
	if err != nil {
		t.Fatalf("Select() error = %v, want nil", err)
	}
	if len(got) != 2 {
		t.Errorf("len(Select()) = %d, want 2", len(got))
	}
}

func TestSelect_NumericEquality(t *testing.T) {
	s := NewStore(DefaultNamespace())
	// JSON numbers decode to float64; Go callers often pass int.
	r := rule(&types.Select{Application: types.Values{float64(7)}}, 0, nil)
	if err := s.AddRule(r); err != nil {
		t.Fatalf("AddRule() error = %v, want nil", err)
	}

	if got, _ := s.Select("value", types.Criteria{"application": 7}); len(got) != 1 {
		t.Errorf("int criteria vs float64 constraint: len = %d, want 1", len(got))
	}
	if got, _ := s.Select("value", types.Criteria{"application": "7"}); len(got) != 0 {
		t.Errorf("string criteria vs numeric constraint: len = %d, want 0", len(got))
	}
}

func TestSelect_UnknownTypeIsEmpty(t *testing.T) {
	s := NewStore(DefaultNamespace())
	got, err := s.Select("unknown/type", types.Criteria{})
	if err != nil {
		t.Fatalf("Select() error = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("len(Select()) = %d, want 0", len(got))
	}
}

func TestSelect_EmptyTypeID(t *testing.T) {
	s := NewStore(DefaultNamespace())
	if _, err := s.Select("", nil); !errors.Is(err, types.ErrArgumentRequired) {
		t.Errorf("Select(\"\") error = %v, want ErrArgumentRequired", err)
	}
}

func TestEqualValues(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{"x", "x", true},
		{"x", "y", false},
		{1, float64(1), true},
		{int64(2), uint8(2), true},
		{"1", 1, false},
		{true, true, true},
		{nil, nil, true},
		{[]any{1}, []any{1}, false},
		{map[string]any{}, "x", false},
	}
	for _, tt := range tests {
		if got := equalValues(tt.a, tt.b); got != tt.want {
			t.Errorf("equalValues(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
