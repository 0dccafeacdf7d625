package rules

import (
	"strings"

	"github.com/solatis/vizconf/internal/types"
)

// Namespace qualifies bare type identifiers.
type Namespace struct {
	// Base is prefixed to identifiers that contain no separator.
	Base string
	// Root is the type a rule applies to when it declares no select.type.
	Root string
}

// DefaultNamespace returns the pentaho/type namespace.
func DefaultNamespace() Namespace {
	return Namespace{Base: types.DefaultBaseNamespace, Root: types.DefaultRootType}
}

// Qualify returns the absolute form of a type identifier.
// Identifiers already containing a separator are returned unchanged.
func (n Namespace) Qualify(id string) string {
	if strings.Contains(id, types.TypeSeparator) {
		return id
	}
	return n.Base + id
}

// resolveTypeIDs returns the absolute type identifiers a rule is indexed under.
func (n Namespace) resolveTypeIDs(rule *types.Rule) ([]string, error) {
	ids, err := rule.Select.TypeIDs()
	if err != nil {
		return nil, err
	}
	// An explicit empty list indexes the rule nowhere
	if ids == nil {
		return []string{n.Root}, nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, n.Qualify(id))
	}
	return out, nil
}
