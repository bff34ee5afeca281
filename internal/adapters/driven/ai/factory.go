// Package ai provides factory functions for creating the embedding and
// generation service adapters from configuration.
package ai

import (
	"fmt"

	cohereembed "github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding/cohere"
	openaiembed "github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding/openai"
	geminillm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/gemini"
	openaillm "github.com/custodia-labs/docqa-cli/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/docqa-cli/internal/config"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// CreateEmbeddingService creates the embedding service named by the
// configuration.
func CreateEmbeddingService(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "cohere":
		svc, err := cohereembed.NewEmbeddingService(cohereembed.Config{
			APIKey:     cfg.CohereAPIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BatchSize:  cfg.Embedding.BatchSize,
			MaxRetries: cfg.Embedding.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	case "openai":
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			BatchSize:  cfg.Embedding.BatchSize,
			MaxRetries: cfg.Embedding.MaxRetries,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s",
			domain.ErrEmbeddingUnavailable, cfg.Embedding.Provider)
	}
}

// CreateLLMService creates the generation service named by the
// configuration.
func CreateLLMService(cfg *config.Config) (driven.LLMService, error) {
	switch cfg.Generation.Provider {
	case "gemini":
		svc, err := geminillm.NewLLMService(geminillm.Config{
			APIKey:  cfg.GeminiAPIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil

	case "openai":
		svc, err := openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.Generation.BaseURL,
			Model:   cfg.Generation.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: unsupported generation provider: %s",
			domain.ErrLLMUnavailable, cfg.Generation.Provider)
	}
}
