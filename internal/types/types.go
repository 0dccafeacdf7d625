// Package types provides domain models shared across vizconf components.
//
// Rules, criteria and configuration documents are plain data. Callers build
// them (or decode them from JSON/YAML) and hand them to internal/rules, which
// treats them as read-only. Engine-owned state such as rule ordinals never
// appears on these types.
package types

// Spec is a specification fragment: a plain record whose values are nested
// records (map[string]any or Spec), []any sequences, or scalars.
type Spec map[string]any

// Criteria keys in fixed specificity order.
const (
	KeyUser        = "user"
	KeyTheme       = "theme"
	KeyLocale      = "locale"
	KeyApplication = "application"
)

// CriteriaKeys is the order in which selection keys are compared and filtered.
// A rule declaring an earlier key is more specific than one declaring only
// later keys, regardless of how many keys each declares.
var CriteriaKeys = [...]string{KeyUser, KeyTheme, KeyLocale, KeyApplication}

// Criteria is the runtime context a selection is evaluated against.
// Keys outside CriteriaKeys are ignored.
type Criteria map[string]any

// Type identifier defaults. Identifiers without TypeSeparator are bare names
// qualified against the base namespace.
const (
	TypeSeparator        = "/"
	DefaultBaseNamespace = "pentaho/type/"
	DefaultRootType      = "pentaho/type/value"
)

// Resource limits for documents accepted over the API.
const (
	// MaxDocumentRules bounds a single AddDocument request.
	MaxDocumentRules = 10000

	// MaxDocumentBytes bounds the encoded size of a stored document.
	MaxDocumentBytes = 4 * 1024 * 1024
)
