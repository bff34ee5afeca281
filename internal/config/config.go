// Package config loads and validates the docqa configuration.
// Settings come from a TOML file plus API keys from the environment, and
// are collected into a single Config struct constructed once at startup.
// Components receive the struct through their constructors; nothing reads
// ambient global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Environment variables holding provider API keys.
const (
	EnvCohereAPIKey = "COHERE_API_KEY"
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// Default pipeline settings.
const (
	DefaultChunkSize           = 1000
	DefaultChunkOverlap        = 200
	DefaultTopKResults         = 5
	DefaultCollectionName      = "documents"
	DefaultEmbeddingProvider   = "cohere"
	DefaultEmbeddingModel      = "embed-english-v3.0"
	DefaultEmbeddingDimensions = 1024
	DefaultEmbeddingBatchSize  = 96
	DefaultEmbeddingMaxRetries = 5
	DefaultGenerationProvider  = "gemini"
	DefaultLoaderVariant       = "rich"
)

// Config is the full docqa configuration.
type Config struct {
	// DataDir is the root for all persisted state: the vector
	// collection database, the metadata database and stored documents.
	DataDir string `toml:"data_dir"`

	// CollectionName names the vector collection.
	CollectionName string `toml:"collection_name"`

	// ChunkSize is the chunk window in characters.
	ChunkSize int `toml:"chunk_size"`

	// ChunkOverlap is the overlap between consecutive chunks in
	// characters. Must be smaller than ChunkSize.
	ChunkOverlap int `toml:"chunk_overlap"`

	// TopKResults is the default number of search results.
	TopKResults int `toml:"top_k_results"`

	// LoaderVariant selects the document loader: "rich" or "baseline".
	LoaderVariant string `toml:"loader_variant"`

	// Embedding configures the embedding provider.
	Embedding EmbeddingConfig `toml:"embedding"`

	// Generation configures the generation provider.
	Generation GenerationConfig `toml:"generation"`

	// APIKeys are read from the environment, never from the file.
	CohereAPIKey string `toml:"-"`
	GeminiAPIKey string `toml:"-"`
	OpenAIAPIKey string `toml:"-"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is "cohere" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions is the vector size; it is also the length of degraded
	// zero vectors, so it must match the model.
	Dimensions int `toml:"dimensions"`

	// BatchSize caps texts per embedding request.
	BatchSize int `toml:"batch_size"`

	// MaxRetries bounds retries of transient failures per batch.
	MaxRetries int `toml:"max_retries"`

	// BaseURL overrides the provider endpoint (for compatible APIs).
	BaseURL string `toml:"base_url"`
}

// GenerationConfig selects and tunes the generation provider.
type GenerationConfig struct {
	// Provider is "gemini" or "openai".
	Provider string `toml:"provider"`

	// Model is the generation model name. Empty selects the provider
	// default.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`
}

// Load reads the config file at path and merges environment API keys.
// A missing file yields the defaults; a malformed file is an error.
// If path is empty, ~/.docqa/config.toml is used.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".docqa", "config.toml")
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file yet, defaults apply
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		// cfg starts from defaults(), so unmarshalling overwrites only
		// the keys present in the file. An explicit zero (for instance
		// chunk_overlap = 0) is kept, not re-defaulted.
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.CohereAPIKey = os.Getenv(EnvCohereAPIKey)
	cfg.GeminiAPIKey = os.Getenv(EnvGeminiAPIKey)
	cfg.OpenAIAPIKey = os.Getenv(EnvOpenAIAPIKey)

	return cfg, nil
}

// Validate checks that the configuration is usable: sane chunk sizing and
// an API key for each selected provider. Called once at startup; a failure
// here aborts the process before any pipeline work starts.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.ChunkOverlap)
	}
	if c.TopKResults <= 0 {
		return fmt.Errorf("top_k_results must be positive, got %d", c.TopKResults)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive, got %d", c.Embedding.Dimensions)
	}

	switch c.Embedding.Provider {
	case "cohere":
		if c.CohereAPIKey == "" {
			return fmt.Errorf("%s is required for the cohere embedding provider", EnvCohereAPIKey)
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%s is required for the openai embedding provider", EnvOpenAIAPIKey)
		}
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	switch c.Generation.Provider {
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%s is required for the gemini generation provider", EnvGeminiAPIKey)
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%s is required for the openai generation provider", EnvOpenAIAPIKey)
		}
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}

	if c.LoaderVariant != "rich" && c.LoaderVariant != "baseline" {
		return fmt.Errorf("unknown loader variant %q", c.LoaderVariant)
	}

	return nil
}

// EnsureDirs creates the data directory layout.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.DocumentsDir()} {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// DocumentsDir is where ingested source files are stored.
func (c *Config) DocumentsDir() string {
	return filepath.Join(c.DataDir, "documents")
}

// VectorDBPath is the vector collection database file.
func (c *Config) VectorDBPath() string {
	return filepath.Join(c.DataDir, "vectors.db")
}

// MetadataDBPath is the relational log database file.
func (c *Config) MetadataDBPath() string {
	return filepath.Join(c.DataDir, "metadata.db")
}

func defaults() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir:        filepath.Join(home, ".docqa"),
		CollectionName: DefaultCollectionName,
		ChunkSize:      DefaultChunkSize,
		ChunkOverlap:   DefaultChunkOverlap,
		TopKResults:    DefaultTopKResults,
		LoaderVariant:  DefaultLoaderVariant,
		Embedding: EmbeddingConfig{
			Provider:   DefaultEmbeddingProvider,
			Model:      DefaultEmbeddingModel,
			Dimensions: DefaultEmbeddingDimensions,
			BatchSize:  DefaultEmbeddingBatchSize,
			MaxRetries: DefaultEmbeddingMaxRetries,
		},
		Generation: GenerationConfig{
			Provider: DefaultGenerationProvider,
		},
	}
}

