package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/metadata"

	"github.com/solatis/vizconf/internal/core/api"
	"github.com/solatis/vizconf/internal/core/auth"
	"github.com/solatis/vizconf/internal/core/loader"
)

var publishCmd = &cobra.Command{
	Use:   "publish FILE...",
	Short: "Publish rule documents to a running service",
	Long: `Publish rule documents to a running service over gRPC.

The API key is read from --api-key or the VZ_API_KEY environment variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().String("server", "localhost:50061", "service address host:port")
	publishCmd.Flags().String("api-key", "", "publisher API key")
	publishCmd.Flags().Duration("timeout", 30*time.Second, "request timeout per document")
}

func runPublish(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("server")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("VZ_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("API key required (--api-key or VZ_API_KEY)")
	}

	client, closeConn, err := dial(addr)
	if err != nil {
		return err
	}
	defer closeConn()

	ctx := metadata.AppendToOutgoingContext(cmd.Context(), auth.MetadataKey, apiKey)
	for _, path := range args {
		doc, err := loader.LoadFile(path)
		if err != nil {
			return err
		}
		req, err := api.NewAddDocumentRequest(filepath.Base(path), doc)
		if err != nil {
			return err
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		resp, err := client.AddDocument(callCtx, req)
		cancel()
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d rules\n", api.DocumentIDFromResponse(resp), path, len(doc.Rules))
	}
	return nil
}
