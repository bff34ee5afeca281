// Package cli implements the docqa command line interface.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/ai"
	storagesqlite "github.com/custodia-labs/docqa-cli/internal/adapters/driven/storage/sqlite"
	vectorsqlite "github.com/custodia-labs/docqa-cli/internal/adapters/driven/vectorstore/sqlite"
	"github.com/custodia-labs/docqa-cli/internal/chunker"
	"github.com/custodia-labs/docqa-cli/internal/config"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docqa-cli/internal/core/services"
	"github.com/custodia-labs/docqa-cli/internal/loaders"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Persistent flags.
var (
	verbose    bool
	configPath string
)

// Services wired for the command handlers. Tests inject mocks here;
// production wiring happens in initServices.
var (
	ingestService driving.IngestService
	queryService  driving.QueryService
	systemService driving.SystemService
)

// closers holds resources to release after the command finishes.
var closers []io.Closer

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Question answering over your documents",
	Long: `docqa indexes local documents (PDF, DOCX, TXT and more) into a
vector collection and answers natural-language questions about them,
citing the source passages the answer came from.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if skipWiring(cmd) {
			return nil
		}
		return initServices()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		for _, c := range closers {
			c.Close()
		}
		closers = nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.docqa/config.toml)")
}

// skipWiring reports whether a command runs without any services, so the
// configuration does not need to be valid for it.
func skipWiring(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion":
		return true
	}
	return false
}

// initServices builds the full pipeline from configuration. Already-set
// services (injected by tests) are left alone.
func initServices() error {
	if ingestService != nil && queryService != nil && systemService != nil {
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	loader, err := loaders.New(cfg.LoaderVariant)
	if err != nil {
		return err
	}
	chk, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return err
	}
	embedder, err := ai.CreateEmbeddingService(cfg)
	if err != nil {
		return err
	}
	llm, err := ai.CreateLLMService(cfg)
	if err != nil {
		return err
	}

	vectors, err := vectorsqlite.NewStore(cfg.VectorDBPath(), cfg.CollectionName)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	closers = append(closers, vectors)

	store, err := storagesqlite.NewStore(cfg.MetadataDBPath())
	if err != nil {
		return fmt.Errorf("opening metadata store: %w", err)
	}
	closers = append(closers, store)

	docs := store.DocumentStore()
	queries := store.QueryStore()

	ingestService = services.NewIngestService(loader, chk, embedder, vectors, docs, cfg.DocumentsDir())
	queryService = services.NewQueryService(embedder, vectors, llm, docs, queries, cfg.TopKResults)
	systemService = services.NewSystemService(vectors, docs, queries, services.PipelineSettings{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		TopKResults:  cfg.TopKResults,
	})
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
