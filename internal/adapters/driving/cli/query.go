package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the most relevant chunks for the question and generates a
grounded answer with citations. With --sources-only the generation step
is skipped and only the ranked sources are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// sourcesOnly is a flag for the query command.
var sourcesOnly bool

func init() {
	queryCmd.Flags().BoolVarP(&sourcesOnly, "sources-only", "s", false, "Retrieve sources without generating an answer")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	var answer *domain.Answer
	var err error
	if sourcesOnly {
		answer, err = queryService.Sources(cmd.Context(), args[0])
	} else {
		answer, err = queryService.Query(cmd.Context(), args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to answer query: %w", err)
	}

	if answer.Response != "" {
		cmd.Println(answer.Response)
		cmd.Println()
	}

	if len(answer.Sources) == 0 {
		cmd.Println("No sources found.")
		return nil
	}

	cmd.Printf("Sources (%d):\n", len(answer.Sources))
	for i, src := range answer.Sources {
		cmd.Printf("\n  [%d] %s\n", i+1, sourceLabel(src.Metadata))
		cmd.Printf("      %s\n", src.Content)
	}
	return nil
}

// sourceLabel builds a short citation line from chunk metadata.
func sourceLabel(metadata map[string]any) string {
	name, _ := metadata["filename"].(string)
	if name == "" {
		name = "Unknown"
	}
	label := name
	if page, ok := metadata["page_num"]; ok {
		label += fmt.Sprintf(", page %v", page)
	}
	if idx, ok := metadata["chunk_index"]; ok {
		label += fmt.Sprintf(", chunk %v", idx)
	}
	return label
}
