package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/vizconf/internal/core/db"
	"github.com/solatis/vizconf/internal/types"
)

var importCmd = &cobra.Command{
	Use:   "import PATH...",
	Short: "Store rule documents in the database",
	Long: `Store rule documents from files or directories in the database.

Documents are validated before anything is stored and are imported in
argument order, directories in file name order. A running service picks
them up on its next start.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := newEngine(&cfg.Engine, logger)

	type pending struct {
		path string
		doc  *types.Document
	}
	var batch []pending
	for _, path := range args {
		sources, err := readPath(path)
		if err != nil {
			return err
		}
		for _, src := range sources {
			if n := len(src.Document.Rules); n > cfg.Server.MaxDocumentRules {
				return fmt.Errorf("%s: %d rules, limit %d: %w", src.Path, n, cfg.Server.MaxDocumentRules, types.ErrDocumentTooLarge)
			}
			if err := engine.Validate(src.Document); err != nil {
				return fmt.Errorf("%s: %w", src.Path, err)
			}
			batch = append(batch, pending{path: src.Path, doc: src.Document})
		}
	}

	database, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}
	documents := db.NewDocuments(queries)

	for _, p := range batch {
		id, err := documents.Insert(cmd.Context(), p.path, p.doc)
		if err != nil {
			return fmt.Errorf("%s: %w", p.path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d rules\n", id, p.path, len(p.doc.Rules))
	}
	return nil
}
