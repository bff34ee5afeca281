package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoCmd_Executes(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "info")
	assert.NoError(t, err)
	assert.Contains(t, out, "Collection: documents")
	assert.Contains(t, out, "Indexed chunks: 42")
	assert.Contains(t, out, "Chunk size: 1000")
	assert.Contains(t, out, "Chunk overlap: 200")
	assert.Contains(t, out, "Top K results: 5")
}
