package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past queries and answers",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	recs, err := queryService.History(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(recs) == 0 {
		cmd.Println("No queries yet.")
		return nil
	}

	for _, rec := range recs {
		cmd.Printf("[%s] %s\n", rec.CreatedAt.Format("2006-01-02 15:04"), rec.QueryText)
		cmd.Printf("  %s\n", rec.ResponseText)
		if len(rec.DocumentIDs) > 0 {
			cmd.Printf("  Documents: %d\n", len(rec.DocumentIDs))
		}
		cmd.Println()
	}
	return nil
}
