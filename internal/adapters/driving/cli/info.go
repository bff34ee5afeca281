package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show collection statistics and configuration",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if systemService == nil {
		return errors.New("system service not configured")
	}

	info, err := systemService.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to read system info: %w", err)
	}

	cmd.Printf("Collection: %s\n", info.CollectionName)
	cmd.Printf("  Indexed chunks: %d\n", info.DocumentCount)
	cmd.Printf("  Location: %s\n", info.PersistDirectory)
	cmd.Println("Pipeline:")
	cmd.Printf("  Chunk size: %d\n", info.ChunkSize)
	cmd.Printf("  Chunk overlap: %d\n", info.ChunkOverlap)
	cmd.Printf("  Top K results: %d\n", info.TopKResults)
	return nil
}
