package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/vizconf/internal/core/api"
	"github.com/solatis/vizconf/internal/core/auth"
	"github.com/solatis/vizconf/internal/core/config"
	"github.com/solatis/vizconf/internal/core/db"
	"github.com/solatis/vizconf/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gRPC configuration service",
	Long: `Start the gRPC configuration service.

Rule files from the rules directory are loaded first, followed by documents
published to the database in publication order. Publishing over gRPC requires
a database and at least one HMAC secret (VZ_HMAC_SECRET).`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50061, "gRPC server port")
	serveCmd.Flags().String("rules-dir", "", "directory of rule documents to load at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("rules-dir") {
		cfg.Engine.RulesDir, _ = cmd.Flags().GetString("rules-dir")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := newEngine(&cfg.Engine, logger)
	if cfg.Engine.RulesDir != "" {
		if err := loadPaths(engine, []string{cfg.Engine.RulesDir}, logger); err != nil {
			return fmt.Errorf("failed to load rules: %w", err)
		}
	}

	var (
		documents     *db.Documents
		authenticator *auth.Authenticator
	)
	if cfg.Database.URL != "" {
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := loadStored(ctx, engine, database, logger)
		if err != nil {
			return fmt.Errorf("failed to load stored documents: %w", err)
		}
		logger.Info("stored documents loaded", zap.Int("documents", n))

		documents, authenticator, err = publishing(database)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("no database configured, publishing disabled")
	}

	service, err := api.NewConfigService(engine, documents, &cfg.Server, logger)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(&cfg.Server, service, authenticator, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting vizconf",
		zap.String("version", Version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("rules", engine.RuleCount()),
		zap.Int("types", len(engine.TypeIDs())))

	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		logger.Info("shutting down gracefully")
		return grpcServer.Shutdown(ctx)
	}
}

// publishing wires the document store and publisher authentication.
func publishing(database *sqlx.DB) (*db.Documents, *auth.Authenticator, error) {
	queries, err := db.LoadQueries(database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return nil, nil, fmt.Errorf("no HMAC secrets configured (set VZ_HMAC_SECRET environment variable)")
	}

	return db.NewDocuments(queries), auth.NewAuthenticator(secrets, queries), nil
}
