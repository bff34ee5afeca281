package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage ingested documents",
	Long:  `List ingested documents or delete one along with its indexed chunks.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	recs, err := ingestService.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(recs) == 0 {
		cmd.Println("No documents ingested.")
		return nil
	}

	for _, rec := range recs {
		cmd.Printf("  %s\n", rec.ID)
		cmd.Printf("    Title: %s\n", rec.Title)
		cmd.Printf("    File: %s (%s)\n", rec.FileName, rec.FileType)
		cmd.Printf("    Uploaded: %s\n", rec.UploadDate.Format("2006-01-02 15:04"))
		cmd.Printf("    Chunks: %d\n", rec.ChunkCount)
		cmd.Println()
	}
	cmd.Printf("Total: %d documents\n", len(recs))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if err := ingestService.DeleteDocument(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Deleted document %s\n", args[0])
	return nil
}
