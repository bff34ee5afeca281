// Package chunker splits normalised documents into fixed-size overlapping
// text chunks, the atomic retrieval units of the pipeline.
package chunker

import (
	"fmt"
	"math"
	"strings"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// DefaultChunkSize is the default chunk window in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default overlap between chunks in characters.
const DefaultChunkOverlap = 200

// excerptLen caps the excerpt preview stored in chunk metadata.
const excerptLen = 100

// Chunker produces overlapping fixed-size chunks with positional metadata.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a Chunker. The configuration is rejected when the stride
// (size - overlap) would be non-positive, since the sliding window could
// not advance.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d",
			domain.ErrInvalidInput, chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d",
			domain.ErrInvalidInput, overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// ChunkSize returns the configured window size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk slides a fixed window over the document content and returns the
// resulting chunks. Chunks whose trimmed content is empty are dropped, so
// no empty chunk ever reaches the index. Surviving chunks index
// contiguously from 0 with strictly increasing start offsets.
func (c *Chunker) Chunk(doc domain.RawDocument) []domain.Chunk {
	// Window over runes, not bytes: offsets are character offsets and a
	// boundary must never split a multibyte rune.
	content := []rune(doc.Content)
	total := len(content)

	var chunks []domain.Chunk
	stride := c.chunkSize - c.overlap

	for start := 0; start < total; start += stride {
		end := start + c.chunkSize
		if end > total {
			end = total
		}
		text := string(content[start:end])
		if strings.TrimSpace(text) == "" {
			continue
		}

		meta := domain.CopyMetadata(doc.Metadata)
		if meta == nil {
			meta = make(map[string]any)
		}
		meta["chunk_index"] = len(chunks)
		meta["chunk_start_char"] = start
		meta["chunk_end_char"] = end
		meta["excerpt"] = excerpt(text)
		// A zero-length document has no meaningful position, so the key
		// is omitted rather than set to a degenerate 0.
		if total > 0 {
			meta["position_percent"] = round2(float64(start) / float64(total) * 100)
		}

		chunks = append(chunks, domain.Chunk{Content: text, Metadata: meta})
	}

	return chunks
}

// ChunkAll chunks every document and returns the flattened result in
// input order.
func (c *Chunker) ChunkAll(docs []domain.RawDocument) []domain.Chunk {
	var all []domain.Chunk
	for _, doc := range docs {
		all = append(all, c.Chunk(doc)...)
	}
	return all
}

// excerpt returns a newline-flattened preview of at most excerptLen
// characters, with a trailing ellipsis when truncated.
func excerpt(text string) string {
	s := text
	if runes := []rune(s); len(runes) > excerptLen {
		s = string(runes[:excerptLen]) + "..."
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
