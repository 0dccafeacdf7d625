package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/vizconf/internal/types"
)

// ErrDocumentNotFound is returned when a document ID has no stored row.
var ErrDocumentNotFound = errors.New("document not found")

// StoredDocument is a persisted configuration document.
type StoredDocument struct {
	ID        types.DocumentID `db:"document_id"`
	Source    string           `db:"source"`
	Body      string           `db:"body"`
	RuleCount int              `db:"rule_count"`
	CreatedAt time.Time        `db:"created_at"`
}

// Document decodes the stored body.
func (s StoredDocument) Document() (*types.Document, error) {
	doc, err := types.ParseDocument([]byte(s.Body))
	if err != nil {
		return nil, fmt.Errorf("document %s: %w", s.ID, err)
	}
	return doc, nil
}

// Documents is the repository of published configuration documents.
type Documents struct {
	queries *Queries
}

// NewDocuments creates a document repository over loaded queries.
func NewDocuments(queries *Queries) *Documents {
	return &Documents{queries: queries}
}

// Insert stores doc under a new time-ordered ID.
func (d *Documents) Insert(ctx context.Context, source string, doc *types.Document) (types.DocumentID, error) {
	if doc == nil {
		return "", fmt.Errorf("document: %w", types.ErrArgumentRequired)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	if len(body) > types.MaxDocumentBytes {
		return "", fmt.Errorf("%d bytes: %w", len(body), types.ErrDocumentTooLarge)
	}

	id := types.NewDocumentID()
	_, err = d.queries.Exec(ctx, "insert-document",
		string(id), source, string(body), len(doc.Rules), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert document: %w", err)
	}
	return id, nil
}

// List returns all documents in insertion order.
func (d *Documents) List(ctx context.Context) ([]StoredDocument, error) {
	var docs []StoredDocument
	if err := d.queries.Select(ctx, "list-documents", &docs); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Get returns a single document.
func (d *Documents) Get(ctx context.Context, id types.DocumentID) (*StoredDocument, error) {
	var doc StoredDocument
	err := d.queries.Get(ctx, "get-document", &doc, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// Delete removes a document. Rules already loaded into a running engine
// are unaffected until the next restart.
func (d *Documents) Delete(ctx context.Context, id types.DocumentID) error {
	res, err := d.queries.Exec(ctx, "delete-document", string(id))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
