// Package cohere provides an embedding service adapter using the Cohere
// embed API.
package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docqa-cli/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.cohere.com/v1"
	DefaultModel      = "embed-english-v3.0"
	DefaultDimensions = 1024
	DefaultBatchSize  = 96
	DefaultMaxRetries = 5
	DefaultTimeout    = 60 * time.Second
)

// Input types distinguishing document and query embeddings.
const (
	inputSearchDocument = "search_document"
	inputSearchQuery    = "search_query"
)

// Config holds configuration for the Cohere embedding service.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com/v1).
	BaseURL string

	// Model is the embedding model (default: embed-english-v3.0).
	Model string

	// Dimensions is the vector size; also the length of degraded zero
	// vectors (default: 1024 for embed-english-v3.0).
	Dimensions int

	// BatchSize caps texts per request (default: 96, Cohere's
	// recommended batch size).
	BatchSize int

	// MaxRetries bounds retries of transient failures (default: 5).
	MaxRetries int

	// Timeout is the per-request timeout (default: 60s).
	Timeout time.Duration
}

// EmbeddingService generates embeddings using the Cohere API.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int
	maxRetries int
	limiter    *rate.Limiter

	// sleep is swappable so tests do not wait out real backoff.
	sleep func(time.Duration)
}

// embedRequest is the Cohere /embed request format.
type embedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

// embedResponse is the Cohere /embed response format.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Message    string      `json:"message,omitempty"`
}

// NewEmbeddingService creates a new Cohere embedding service.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
		maxRetries: cfg.MaxRetries,
		// Stay under Cohere's per-minute request limits.
		limiter: rate.NewLimiter(rate.Every(600*time.Millisecond), 1),
		sleep:   time.Sleep,
	}, nil
}

// Embed generates an embedding for a single document text. Transient
// failures are retried; a permanent failure propagates to the caller.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.callWithRetry(ctx, []string{text}, inputSearchDocument)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("cohere: no embedding returned")
	}
	return vecs[0], nil
}

// EmbedBatch generates embeddings for multiple texts in batches. A batch
// that fails permanently is assigned zero vectors instead of aborting, so
// the output always has exactly one vector per input text.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vecs, err := s.callWithRetry(ctx, batch, inputSearchDocument)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("embedding batch %d-%d failed permanently (%v), using zero vectors",
				start, end, err)
			vecs = embedding.ZeroVectors(len(batch), s.dimensions)
		}
		all = append(all, vecs...)
	}

	return all, nil
}

// EmbedQuery generates an embedding for a search query, degrading to a
// zero vector on permanent failure so the query itself still runs.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := s.callWithRetry(ctx, []string{query}, inputSearchQuery)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("query embedding failed permanently (%v), using zero vector", err)
		return embedding.ZeroVector(s.dimensions), nil
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("cohere: no embedding returned")
	}
	return vecs[0], nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// callWithRetry performs one embed call, retrying transient failures with
// exponential backoff (2^attempt seconds) up to maxRetries attempts.
// Non-transient failures propagate immediately.
func (s *EmbeddingService) callWithRetry(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	var lastErr error

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		vecs, err := s.call(ctx, texts, inputType)
		if err == nil {
			return vecs, nil
		}
		if !embedding.Transient(err) {
			return nil, err
		}

		lastErr = err
		wait := embedding.Backoff(attempt)
		logger.Warn("transient embedding error on attempt %d/%d: %v (retrying in %s)",
			attempt, s.maxRetries, err, wait)
		s.sleep(wait)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("cohere: failed after %d attempts: %w", s.maxRetries, lastErr)
}

// call performs a single /embed request.
func (s *EmbeddingService) call(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	reqBody := embedRequest{
		Model:     s.model,
		Texts:     texts,
		InputType: inputType,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if embedding.TransientStatus(resp.StatusCode) {
		return nil, &embedding.StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Message != "" {
			return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, parsed.Message)
		}
		return nil, fmt.Errorf("cohere error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf("cohere returned %d embeddings for %d texts",
			len(parsed.Embeddings), len(texts))
	}

	vecs := make([][]float32, len(parsed.Embeddings))
	for i, emb := range parsed.Embeddings {
		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		vecs[i] = vec
	}
	return vecs, nil
}
