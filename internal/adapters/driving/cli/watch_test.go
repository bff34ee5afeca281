package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa-cli/internal/core/domain"
)

// watchIngestStub records ingested paths; the watch debounce fires from
// timer goroutines, so access is locked.
type watchIngestStub struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (s *watchIngestStub) IngestFile(ctx context.Context, path, title string) (*domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.DocumentRecord{ID: "rec-1", FileName: filepath.Base(path), ChunkCount: 3}, nil
}

func (s *watchIngestStub) ListDocuments(ctx context.Context) ([]domain.DocumentRecord, error) {
	return nil, nil
}

func (s *watchIngestStub) DeleteDocument(ctx context.Context, id string) error {
	return nil
}

func (s *watchIngestStub) ingested() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// runWatchInBackground starts the watch command against dir and returns
// a stop function that cancels it and waits for it to exit.
func runWatchInBackground(t *testing.T, dir string) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", dir})
	// Cobra inherits the root context only when the subcommand has none,
	// so clear the canceled context left by a previous test's run.
	watchCmd.SetContext(nil)

	go func() {
		done <- rootCmd.ExecuteContext(ctx)
	}()

	return func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("watch command did not stop after cancellation")
		}
		rootCmd.SetArgs(nil)
	}
}

func withFastSettle(t *testing.T) {
	t.Helper()
	old := watchSettle
	watchSettle = 20 * time.Millisecond
	t.Cleanup(func() { watchSettle = old })
}

func TestWatchCmd_Use(t *testing.T) {
	assert.Equal(t, "watch [directory]", watchCmd.Use)
}

func TestWatchCmd_IngestsNewFileAfterSettle(t *testing.T) {
	withFastSettle(t)
	stub := &watchIngestStub{}
	_, _, _, cleanup := setupTestServices()
	defer cleanup()
	ingestService = stub

	dir := t.TempDir()
	stop := runWatchInBackground(t, dir)
	defer stop()

	// Let the watcher register before the write lands.
	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	assert.Eventually(t, func() bool {
		return len(stub.ingested()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, path, stub.ingested()[0])
}

func TestWatchCmd_DebouncesRapidWrites(t *testing.T) {
	// The settle window must comfortably exceed the write spacing, or
	// scheduling jitter could let the timer fire between writes.
	old := watchSettle
	watchSettle = 150 * time.Millisecond
	t.Cleanup(func() { watchSettle = old })

	stub := &watchIngestStub{}
	_, _, _, cleanup := setupTestServices()
	defer cleanup()
	ingestService = stub

	dir := t.TempDir()
	stop := runWatchInBackground(t, dir)
	defer stop()

	time.Sleep(100 * time.Millisecond)
	path := filepath.Join(dir, "growing.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("more content\n")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	assert.Eventually(t, func() bool {
		return len(stub.ingested()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	// Give a second settle window a chance to fire wrongly.
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, stub.ingested(), 1)
}

func TestWatchCmd_ContinuesPastUnsupportedFiles(t *testing.T) {
	withFastSettle(t)
	stub := &watchIngestStub{err: domain.ErrUnsupportedType}
	_, _, _, cleanup := setupTestServices()
	defer cleanup()
	ingestService = stub

	dir := t.TempDir()
	stop := runWatchInBackground(t, dir)
	defer stop()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.png"), []byte{0x89}, 0600))

	assert.Eventually(t, func() bool {
		return len(stub.ingested()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// The skip is silent and the watcher keeps running; stop() asserts
	// a clean exit.
}
