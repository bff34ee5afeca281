package cli

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new documents",
	Long: `Watches the directory and ingests files as they appear or change.
Unsupported file types are skipped. Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

// watchSettle is how long a file must stay quiet before it is ingested,
// so half-written files are not picked up. Variable so tests can shrink
// the window.
var watchSettle = 2 * time.Second

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	svc := ingestService
	if svc == nil {
		return errors.New("ingest service not configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(args[0]); err != nil {
		return fmt.Errorf("watching %s: %w", args[0], err)
	}
	cmd.Printf("Watching %s (ctrl-c to stop)\n", args[0])

	// One timer per path; each event pushes the deadline out again.
	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	ingest := func(path string) {
		mu.Lock()
		delete(timers, path)
		mu.Unlock()

		rec, err := svc.IngestFile(cmd.Context(), path, "")
		switch {
		case errors.Is(err, domain.ErrUnsupportedType):
			logger.Debug("skipping unsupported file %s", path)
		case err != nil:
			logger.Error("ingesting %s: %v", path, err)
		default:
			cmd.Printf("Ingested %s (%d chunks)\n", rec.FileName, rec.ChunkCount)
		}
	}

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			mu.Lock()
			if t, exists := timers[path]; exists {
				t.Reset(watchSettle)
			} else {
				timers[path] = time.AfterFunc(watchSettle, func() { ingest(path) })
			}
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error: %v", err)
		}
	}
}
