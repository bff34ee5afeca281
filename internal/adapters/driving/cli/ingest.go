package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the collection",
	Long: `Copies the file into the documents directory, extracts its text,
chunks and embeds it, and indexes the chunks for retrieval.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// ingestTitle is a flag for the ingest command.
var ingestTitle string

func init() {
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "Display title (default: file name without extension)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	rec, err := ingestService.IngestFile(cmd.Context(), args[0], ingestTitle)
	if err != nil {
		return fmt.Errorf("failed to ingest document: %w", err)
	}

	cmd.Printf("Ingested %s\n", rec.FileName)
	cmd.Printf("  ID: %s\n", rec.ID)
	cmd.Printf("  Title: %s\n", rec.Title)
	cmd.Printf("  Chunks: %d\n", rec.ChunkCount)
	return nil
}
