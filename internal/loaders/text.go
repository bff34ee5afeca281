package loaders

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// loadText reads a plain text file. Bytes that are not valid UTF-8 are
// replaced rather than failing the load.
func loadText(path string, base map[string]any) ([]domain.RawDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	content := string(data)
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, string(utf8.RuneError))
	}

	return []domain.RawDocument{{Content: content, Metadata: domain.CopyMetadata(base)}}, nil
}
