package services

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatForGeneration renders ranked search results as numbered context
// documents for the generation prompt. Each entry carries a citation
// header built from the chunk metadata, a relevance score of
// 1 - distance (deliberately unclamped so degraded zero-vector queries
// remain visible as implausible scores), the stored excerpt when
// present, and the full chunk text.
func FormatForGeneration(documents []string, metadatas []map[string]any, distances []float64) []string {
	formatted := make([]string, 0, len(documents))
	for i, doc := range documents {
		var metadata map[string]any
		if i < len(metadatas) {
			metadata = metadatas[i]
		}
		var distance float64
		if i < len(distances) {
			distance = distances[i]
		}

		var citation strings.Builder
		citation.WriteString("Source: ")
		citation.WriteString(metadataFileName(metadata))
		if page, ok := metadataNumber(metadata, "page_num"); ok {
			citation.WriteString(fmt.Sprintf(", Page %s", formatNumber(page)))
		}
		if pos, ok := metadataNumber(metadata, "position_percent"); ok {
			citation.WriteString(fmt.Sprintf(", Position %s%%", formatNumber(pos)))
		}
		if idx, ok := metadataNumber(metadata, "chunk_index"); ok {
			citation.WriteString(fmt.Sprintf(", Chunk %s", formatNumber(idx)))
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Document %d (%s, Relevance: %.2f)", i+1, citation.String(), 1-distance)
		if excerpt, ok := metadata["excerpt"].(string); ok && excerpt != "" {
			b.WriteString("\nExcerpt: ")
			b.WriteString(excerpt)
		}
		b.WriteString("\n\n")
		b.WriteString(doc)

		formatted = append(formatted, b.String())
	}
	return formatted
}

// metadataFileName resolves the display name of a result: the stored
// filename, the base of the source path, or "Unknown".
func metadataFileName(metadata map[string]any) string {
	if name, ok := metadata["filename"].(string); ok && name != "" {
		return name
	}
	if source, ok := metadata["source"].(string); ok && source != "" {
		if i := strings.LastIndexAny(source, `/\`); i >= 0 {
			return source[i+1:]
		}
		return source
	}
	return "Unknown"
}

// metadataNumber reads a numeric metadata value. JSON round-trips turn
// ints into float64, so both arrive here.
func metadataNumber(metadata map[string]any, key string) (float64, bool) {
	switch v := metadata[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// formatNumber renders a metadata number without a trailing ".0" for
// whole values.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
