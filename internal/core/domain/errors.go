package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist:
	// a missing file or directory, a missing vector entry, or a missing
	// document record. Never retried.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input, including a
	// rejected chunker configuration (overlap >= size).
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file extension no loader handles.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Ingestion and querying are impossible without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the generation service is not
	// configured. Sources-only queries still work without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)
