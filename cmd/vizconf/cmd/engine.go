package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/solatis/vizconf/internal/core/config"
	"github.com/solatis/vizconf/internal/core/db"
	"github.com/solatis/vizconf/internal/core/loader"
	"github.com/solatis/vizconf/internal/rules"
	"github.com/solatis/vizconf/internal/types"
)

// newEngine builds an engine from the engine configuration.
func newEngine(cfg *config.EngineConfig, logger *zap.Logger) *rules.Engine {
	return rules.NewEngine(
		rules.WithNamespace(rules.Namespace{Base: cfg.BaseNamespace, Root: cfg.RootType}),
		rules.WithCacheSize(cfg.CacheSize),
		rules.WithLogger(logger),
	)
}

// loadPaths adds documents from files and directories, in argument order.
func loadPaths(engine *rules.Engine, paths []string, logger *zap.Logger) error {
	for _, path := range paths {
		sources, err := readPath(path)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if err := engine.Add(src.Document); err != nil {
				return fmt.Errorf("%s: %w", src.Path, err)
			}
			logger.Debug("loaded rule document",
				zap.String("path", src.Path),
				zap.Int("rules", len(src.Document.Rules)))
		}
	}
	return nil
}

// readPath reads a single document file or every document in a directory.
func readPath(path string) ([]loader.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if info.IsDir() {
		return loader.LoadDir(path)
	}
	doc, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return []loader.Source{{Path: path, Document: doc}}, nil
}

// loadStored replays published documents in publication order.
func loadStored(ctx context.Context, engine *rules.Engine, database *sqlx.DB, logger *zap.Logger) (int, error) {
	queries, err := db.LoadQueries(database)
	if err != nil {
		return 0, fmt.Errorf("failed to load queries: %w", err)
	}

	stored, err := db.NewDocuments(queries).List(ctx)
	if err != nil {
		return 0, err
	}

	for _, s := range stored {
		doc, err := s.Document()
		if err != nil {
			return 0, err
		}
		if err := engine.Add(doc); err != nil {
			return 0, fmt.Errorf("document %s: %w", s.ID, err)
		}
		logger.Debug("replayed stored document",
			zap.String("document_id", string(s.ID)),
			zap.String("source", s.Source),
			zap.Time("published_at", types.DocumentIDTime(s.ID)))
	}
	return len(stored), nil
}

// openDatabase opens the configured database and checks that the schema is
// current.
func openDatabase(cfg *config.Config) (*sqlx.DB, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database URL required (--db-url or VZ_DATABASE_URL)")
	}
	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	statuses, err := db.MigrateStatus(database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to check migrations: %w", err)
	}
	for _, s := range statuses {
		if !s.Applied {
			database.Close()
			return nil, fmt.Errorf("migration %s not applied - run 'vizconf migrate' first", s.ID)
		}
	}
	return database, nil
}
