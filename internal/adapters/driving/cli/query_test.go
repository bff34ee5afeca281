package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [question]", queryCmd.Use)
}

func TestQueryCmd_Executes(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := execute(t, "query", "what happened?")
	assert.NoError(t, err)
	assert.Equal(t, 1, query.queryCalls)
	assert.Equal(t, 0, query.sourceCalls)
	assert.Contains(t, out, "An answer [Document 1].")
	assert.Contains(t, out, "Sources (1):")
	assert.Contains(t, out, "report.pdf, page 2")
	assert.Contains(t, out, "chunk text")
}

func TestQueryCmd_SourcesOnly(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	query.answer.Response = ""

	out, err := execute(t, "query", "--sources-only", "what happened?")
	defer func() { sourcesOnly = false }()
	assert.NoError(t, err)
	assert.Equal(t, 0, query.queryCalls)
	assert.Equal(t, 1, query.sourceCalls)
	assert.NotContains(t, out, "An answer")
	assert.Contains(t, out, "Sources (1):")
}

func TestQueryCmd_NoSources(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	query.answer.Sources = nil

	out, err := execute(t, "query", "what happened?")
	assert.NoError(t, err)
	assert.Contains(t, out, "No sources found.")
}

func TestQueryCmd_SurfacesServiceError(t *testing.T) {
	_, query, _, cleanup := setupTestServices()
	defer cleanup()
	query.err = errors.New("embedding service unavailable")
	query.answer = nil

	_, err := execute(t, "query", "what happened?")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service unavailable")
}
