package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentID identifies a stored configuration document.
// UUIDv7 keeps IDs time-ordered, so ORDER BY document_id replays documents
// in the order they were added.
type DocumentID string

// NewDocumentID generates a UUIDv7 document identifier.
// Panics on clock regression (uuid.Must).
func NewDocumentID() DocumentID {
	return DocumentID(uuid.Must(uuid.NewV7()).String())
}

// ParseDocumentID validates and converts a string to DocumentID.
func ParseDocumentID(s string) (DocumentID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return DocumentID(s), nil
}

// DocumentIDTime extracts the timestamp embedded in a UUIDv7 document ID.
// Returns zero time for invalid IDs.
func DocumentIDTime(id DocumentID) time.Time {
	u, err := uuid.Parse(string(id))
	if err != nil {
		return time.Time{}
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec)
}
