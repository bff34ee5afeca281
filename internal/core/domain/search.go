package domain

// SearchResult is one ranked hit from a vector similarity search.
type SearchResult struct {
	// Document is the stored chunk text.
	Document string

	// Metadata is the stored chunk metadata.
	Metadata map[string]any

	// Distance is the vector distance to the query; lower means more
	// similar. Results are ordered by ascending distance.
	Distance float64
}

// Source describes one retrieved chunk in a query answer, with the chunk
// content truncated for display.
type Source struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// Answer is the result of a full query: the generated response plus the
// retrieved sources that grounded it.
type Answer struct {
	Query    string   `json:"query"`
	Response string   `json:"response,omitempty"`
	Sources  []Source `json:"sources"`
}

// CollectionStats describes the state of the vector collection.
type CollectionStats struct {
	Count int
	Name  string
	Path  string
}

// CollectionDump is a full export of the vector collection as parallel
// slices, mirroring EmbeddedBatch.
type CollectionDump struct {
	IDs        []string
	Documents  []string
	Metadatas  []map[string]any
	Embeddings [][]float32
}

// SystemInfo is the system-information payload: collection state plus the
// effective pipeline configuration.
type SystemInfo struct {
	DocumentCount    int    `json:"document_count"`
	CollectionName   string `json:"collection_name"`
	PersistDirectory string `json:"persist_directory"`
	ChunkSize        int    `json:"chunk_size"`
	ChunkOverlap     int    `json:"chunk_overlap"`
	TopKResults      int    `json:"top_k_results"`
}
