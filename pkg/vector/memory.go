package vector

import (
	"context"
	"maps"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process Store using brute-force cosine similarity.
// It backs local development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]Record // namespace -> id -> record
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]Record)}
}

// Upsert stores copies of records, replacing any with the same namespace and ID
func (s *MemoryStore) Upsert(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		ns, ok := s.records[r.Namespace]
		if !ok {
			ns = make(map[string]Record)
			s.records[r.Namespace] = ns
		}
		r.Metadata = maps.Clone(r.Metadata)
		r.Embedding = append([]float32(nil), r.Embedding...)
		ns[r.ID] = r
	}
	return nil
}

// Search ranks the namespace's records that satisfy the filter
func (s *MemoryStore) Search(ctx context.Context, query Query) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []Match
	for _, r := range s.records[query.Namespace] {
		if !matchesFilter(r.Metadata, query.Filter) {
			continue
		}
		matches = append(matches, Match{
			ID:       r.ID,
			Content:  r.Content,
			Metadata: maps.Clone(r.Metadata),
			Score:    cosineSimilarity(r.Embedding, query.Embedding),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if limit := limitOf(query); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Len returns the number of records stored in namespace
func (s *MemoryStore) Len(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[namespace])
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

func matchesFilter(meta, filter map[string]string) bool {
	for k, v := range filter {
		if meta[k] != v {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
