package api

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/vizconf/internal/core/auth"
	"github.com/solatis/vizconf/internal/types"
)

// AddDocument validates, stores, and loads a rule document.
// The document is persisted before it reaches the engine; a storage failure
// leaves the engine unchanged.
func (s *ConfigService) AddDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.documents == nil {
		return nil, status.Error(codes.FailedPrecondition, "publishing requires a configured database")
	}

	doc, source, err := decodeDocument(req)
	if err != nil {
		return nil, toStatus(err)
	}

	publisher := auth.PublisherFromContext(ctx)
	if source == "" {
		source = publisher
	}

	if n := len(doc.Rules); n > s.cfg.MaxDocumentRules {
		err := fmt.Errorf("%d rules, limit %d: %w", n, s.cfg.MaxDocumentRules, types.ErrDocumentTooLarge)
		return nil, toStatus(err)
	}
	if err := s.engine.Validate(doc); err != nil {
		return nil, toStatus(err)
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	id, err := s.documents.Insert(ctx, source, doc)
	if err != nil {
		return nil, storageStatus(err)
	}

	if err := s.engine.Add(doc); err != nil {
		// Validated above; only reachable if validation and add disagree
		s.logger.Error("stored document rejected by engine",
			zap.String("document_id", string(id)),
			zap.Error(err))
		return nil, toStatus(err)
	}

	s.logger.Info("configuration document published",
		zap.String("document_id", string(id)),
		zap.String("publisher", publisher),
		zap.String("source", source),
		zap.Int("rules", len(doc.Rules)))

	return encodeAddDocument(id, len(doc.Rules)), nil
}
