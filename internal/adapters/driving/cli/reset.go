package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the vector collection",
	Long: `Removes all indexed chunks from the vector collection. With --all the
document records and query history are cleared as well. Asks for
confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

// Flags for the reset command.
var (
	resetYes bool
	resetAll bool
)

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Also clear document records and query history")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, _ []string) error {
	if systemService == nil {
		return errors.New("system service not configured")
	}

	if !resetYes {
		what := "the vector collection"
		if resetAll {
			what = "the vector collection, document records and query history"
		}
		cmd.Printf("This will clear %s. Continue? [y/N] ", what)

		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			cmd.Println("Aborted.")
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
		default:
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := systemService.Reset(cmd.Context(), resetAll); err != nil {
		return fmt.Errorf("failed to reset: %w", err)
	}

	cmd.Println("Collection cleared.")
	return nil
}
