package types

import "errors"

// Sentinel errors for vizconf operations. Callers wrap them with context
// using fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrArgumentRequired indicates a mandatory input was nil or empty.
	ErrArgumentRequired = errors.New("argument required")

	// ErrArgumentInvalid indicates an input has the wrong shape, e.g. a
	// non-string type identifier in select.type.
	ErrArgumentInvalid = errors.New("argument invalid")

	// ErrOperationInvalid indicates an unknown merge operator in a
	// specification fragment.
	ErrOperationInvalid = errors.New("operation invalid")

	// ErrDocumentTooLarge indicates a document exceeds MaxDocumentRules or
	// MaxDocumentBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")
)
