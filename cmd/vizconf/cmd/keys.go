package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/solatis/vizconf/internal/core/auth"
	"github.com/solatis/vizconf/internal/core/config"
	"github.com/solatis/vizconf/internal/core/db"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage publisher API keys",
}

var keysCreateCmd = &cobra.Command{
	Use:   "create PUBLISHER",
	Short: "Issue an API key for a publisher",
	Long: `Issue an API key for a publisher. The key is printed once; only its HMAC is
stored. With several VZ_HMAC_SECRET_N values configured, --secret-id picks
the signing secret.`,
	Args: cobra.ExactArgs(1),
	RunE: runKeysCreate,
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke API_KEY_ID",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysRevoke,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysCreateCmd, keysRevokeCmd)
	keysCreateCmd.Flags().String("secret-id", "", "secret ID to sign the key with")
}

func newKeyAuthenticator() (*auth.Authenticator, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	database, err := openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	secrets, err := config.HMACSecrets()
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	return auth.NewAuthenticator(secrets, queries), database.Close, nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	authenticator, closeDB, err := newKeyAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	secretID, _ := cmd.Flags().GetString("secret-id")
	id, key, err := authenticator.IssueKey(cmd.Context(), args[0], secretID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\napi_key:    %s\n", id, key)
	return nil
}

func runKeysRevoke(cmd *cobra.Command, args []string) error {
	authenticator, closeDB, err := newKeyAuthenticator()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := authenticator.RevokeKey(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}
