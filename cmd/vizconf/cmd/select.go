package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/solatis/vizconf/internal/core/api"
	"github.com/solatis/vizconf/internal/spec"
	"github.com/solatis/vizconf/internal/types"
)

var selectCmd = &cobra.Command{
	Use:   "select TYPE",
	Short: "Print the merged configuration for a type",
	Long: `Print the merged configuration for a type as JSON, or null when no rule applies.

Without --server, rules are read from --rules paths, the configured rules
directory, and the configured database. With --server, a running service is
queried instead.`,
	Example: `  vizconf select pentaho/visual/models/bar --rules ./rules --criteria locale=pt
  vizconf select bar --rules ./rules --field props.colors
  vizconf select bar --server localhost:50061 --criteria-json '{"user":"admin"}'`,
	Args: cobra.ExactArgs(1),
	RunE: runSelect,
}

func init() {
	rootCmd.AddCommand(selectCmd)
	selectCmd.Flags().StringSlice("rules", nil, "rule document files or directories")
	selectCmd.Flags().StringToString("criteria", nil, "criteria key=value pairs (user, theme, locale, application)")
	selectCmd.Flags().String("criteria-json", "", "criteria as a JSON object")
	selectCmd.Flags().String("server", "", "query a running service at host:port")
	selectCmd.Flags().Duration("timeout", 10*time.Second, "request timeout with --server")
	selectCmd.Flags().String("field", "", "print only the value at a dotted path, e.g. props.colors.0")
}

func runSelect(cmd *cobra.Command, args []string) error {
	typeID := args[0]

	pairs, _ := cmd.Flags().GetStringToString("criteria")
	raw, _ := cmd.Flags().GetString("criteria-json")
	criteria, err := parseCriteria(pairs, raw)
	if err != nil {
		return err
	}

	var result types.Spec
	if addr, _ := cmd.Flags().GetString("server"); addr != "" {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		result, err = selectRemote(cmd.Context(), addr, timeout, typeID, criteria)
	} else {
		paths, _ := cmd.Flags().GetStringSlice("rules")
		result, err = selectLocal(cmd.Context(), paths, typeID, criteria)
	}
	if err != nil {
		return err
	}

	var value any = result
	if field, _ := cmd.Flags().GetString("field"); field != "" && result != nil {
		if value, err = spec.Lookup(result, field); err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func selectLocal(ctx context.Context, paths []string, typeID string, criteria types.Criteria) (types.Spec, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	defer logger.Sync()

	engine := newEngine(&cfg.Engine, logger)
	if cfg.Engine.RulesDir != "" {
		paths = append([]string{cfg.Engine.RulesDir}, paths...)
	}
	if err := loadPaths(engine, paths, logger); err != nil {
		return nil, err
	}

	if cfg.Database.URL != "" {
		database, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		if _, err := loadStored(ctx, engine, database, logger); err != nil {
			return nil, err
		}
	}

	return engine.Select(typeID, criteria)
}

func selectRemote(ctx context.Context, addr string, timeout time.Duration, typeID string, criteria types.Criteria) (types.Spec, error) {
	client, closeConn, err := dial(addr)
	if err != nil {
		return nil, err
	}
	defer closeConn()

	req, err := api.NewSelectRequest(typeID, criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := client.Select(ctx, req)
	if err != nil {
		return nil, err
	}
	return api.ConfigFromResponse(resp), nil
}

// dial connects to a vizconf service without transport security.
func dial(addr string) (api.ConfigServiceClient, func() error, error) {
	cc, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return api.NewConfigServiceClient(cc), cc.Close, nil
}
