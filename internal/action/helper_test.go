package action

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/require"

	pkggenkit "github.com/Zereker/chatbot/pkg/genkit"
	"github.com/Zereker/chatbot/pkg/vector"
)

const (
	testLLM      = "gpt-3.5-turbo"
	testEmbedder = "text-embedding-3-small"
)

// newTestGenkit registers mock models under the same names the defaults use
func newTestGenkit(t *testing.T) (*genkit.Genkit, *pkggenkit.MockPlugin) {
	t.Helper()
	mock := pkggenkit.InitForTest(context.Background(), pkggenkit.MockConfig{
		Provider: pkggenkit.ProviderOpenAI,
		Models:   pkggenkit.DefaultOpenAIModels(),
	})
	return pkggenkit.Genkit(), mock
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(dataFile string) Config {
	cfg := Config{DataFile: dataFile}
	cfg.ApplyDefaults()
	return cfg
}

// recordingStore records every Upsert call and delegates to a MemoryStore
type recordingStore struct {
	*vector.MemoryStore

	mu      sync.Mutex
	upserts [][]vector.Record
	queries []vector.Query
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: vector.NewMemoryStore()}
}

func (s *recordingStore) Upsert(ctx context.Context, records []vector.Record) error {
	s.mu.Lock()
	s.upserts = append(s.upserts, records)
	s.mu.Unlock()
	return s.MemoryStore.Upsert(ctx, records)
}

func (s *recordingStore) Search(ctx context.Context, query vector.Query) ([]vector.Match, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	return s.MemoryStore.Search(ctx, query)
}
