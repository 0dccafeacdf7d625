// Package api implements the vizconf.v1.ConfigService gRPC service.
package api

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/solatis/vizconf/internal/core/config"
	"github.com/solatis/vizconf/internal/core/db"
	"github.com/solatis/vizconf/internal/rules"
)

// ConfigService serves configuration selections and accepts published
// documents. Thin orchestration over the rule engine and document store.
type ConfigService struct {
	engine    *rules.Engine
	documents *db.Documents
	cfg       *config.ServerConfig
	logger    *zap.Logger

	// publishMu keeps stored document order equal to engine add order, so a
	// restart replays the same rule ordinals.
	publishMu sync.Mutex
}

// NewConfigService creates the service. documents may be nil, in which case
// AddDocument is rejected.
func NewConfigService(engine *rules.Engine, documents *db.Documents, cfg *config.ServerConfig, logger *zap.Logger) (*ConfigService, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if cfg == nil {
		return nil, fmt.Errorf("cfg cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConfigService{
		engine:    engine,
		documents: documents,
		cfg:       cfg,
		logger:    logger,
	}, nil
}
