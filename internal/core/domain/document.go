package domain

// RawDocument is the normalised output of a document loader: the extracted
// text of one unit (a whole file, or a single PDF page) plus its metadata.
//
// Metadata always carries "source" (origin path), "filename" and "file_type".
// Paginated sources additionally carry "page_num" and "total_pages".
// A RawDocument is immutable after the loader produces it; downstream stages
// copy and extend the metadata rather than mutating it.
type RawDocument struct {
	// Content is the full extracted text.
	Content string

	// Metadata contains loader-provided key-value pairs.
	Metadata map[string]any
}

// Chunk is a bounded, overlapping slice of a RawDocument's text.
// It is the atomic retrieval unit.
//
// Chunk metadata extends the parent document's metadata with
// "chunk_index", "chunk_start_char", "chunk_end_char", "excerpt" and
// "position_percent".
type Chunk struct {
	// Content is the chunk text.
	Content string

	// Metadata contains the parent metadata plus chunk positioning keys.
	Metadata map[string]any
}

// EmbeddedBatch holds chunks ready for the vector store as parallel slices.
// All four slices have equal length; IDs[i], Embeddings[i], Metadatas[i] and
// Documents[i] describe the same chunk.
type EmbeddedBatch struct {
	IDs        []string
	Embeddings [][]float32
	Metadatas  []map[string]any
	Documents  []string
}

// Len returns the number of chunks in the batch.
func (b EmbeddedBatch) Len() int {
	return len(b.IDs)
}

// CopyMetadata creates a shallow copy of a metadata map.
// Returns nil for nil input.
func CopyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
