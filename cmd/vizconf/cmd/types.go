package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List type identifiers that have rules",
	RunE:  runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
	typesCmd.Flags().StringSlice("rules", nil, "rule document files or directories")
}

func runTypes(cmd *cobra.Command, args []string) error {
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
	paths, _ := cmd.Flags().GetStringSlice("rules")
	if cfg.Engine.RulesDir != "" {
		paths = append([]string{cfg.Engine.RulesDir}, paths...)
	}
	if err := loadPaths(engine, paths, logger); err != nil {
		return err
	}
	if cfg.Database.URL != "" {
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()
		if _, err := loadStored(cmd.Context(), engine, database, logger); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tRULES")
	for _, id := range engine.TypeIDs() {
		fmt.Fprintf(w, "%s\t%d\n", id, len(engine.Store().Rules(id)))
	}
	return w.Flush()
}
