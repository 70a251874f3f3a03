package vector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore counts calls and tracks how many Upserts run at once.
type recordingStore struct {
	mu       sync.Mutex
	batches  [][]Record
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
	failOn   int
	calls    atomic.Int32
}

func (s *recordingStore) Upsert(ctx context.Context, records []Record) error {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		cur := s.maxSeen.Load()
		if n <= cur || s.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	call := int(s.calls.Add(1))
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if s.failOn > 0 && call == s.failOn {
		return errors.New("boom")
	}

	s.mu.Lock()
	s.batches = append(s.batches, records)
	s.mu.Unlock()
	return nil
}

func (s *recordingStore) Search(context.Context, Query) ([]Match, error) { return nil, nil }
func (s *recordingStore) Close() error                                  { return nil }

func makeRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{ID: fmt.Sprintf("r-%d", i), Namespace: "data1", Embedding: []float32{1}}
	}
	return records
}

func TestBatcher_LimitsSizeAndConcurrency(t *testing.T) {
	store := &recordingStore{delay: 20 * time.Millisecond}
	b := NewBatcher(store, DefaultBatchSize, DefaultBatchConcurrency)

	require.NoError(t, b.Upsert(context.Background(), makeRecords(12500)))

	assert.Len(t, store.batches, 13)
	total := 0
	for _, batch := range store.batches {
		assert.LessOrEqual(t, len(batch), DefaultBatchSize)
		total += len(batch)
	}
	assert.Equal(t, 12500, total)
	assert.LessOrEqual(t, store.maxSeen.Load(), int32(DefaultBatchConcurrency))
	assert.Greater(t, store.maxSeen.Load(), int32(1))
}

func TestBatcher_SmallInputIsOneCall(t *testing.T) {
	store := &recordingStore{}
	b := NewBatcher(store, 0, 0)

	require.NoError(t, b.Upsert(context.Background(), makeRecords(2)))

	require.Len(t, store.batches, 1)
	assert.Len(t, store.batches[0], 2)
}

func TestBatcher_EmptyInput(t *testing.T) {
	store := &recordingStore{}
	b := NewBatcher(store, 10, 2)

	require.NoError(t, b.Upsert(context.Background(), nil))
	assert.Zero(t, store.calls.Load())
}

func TestBatcher_PropagatesFailure(t *testing.T) {
	store := &recordingStore{failOn: 2}
	b := NewBatcher(store, 10, 1)

	err := b.Upsert(context.Background(), makeRecords(50))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "upsert batch")
}

func TestChunk(t *testing.T) {
	tests := []struct {
		name  string
		items []int
		size  int
		want  [][]int
	}{
		{name: "even", items: []int{1, 2, 3, 4}, size: 2, want: [][]int{{1, 2}, {3, 4}}},
		{name: "remainder", items: []int{1, 2, 3}, size: 2, want: [][]int{{1, 2}, {3}}},
		{name: "larger than input", items: []int{1}, size: 5, want: [][]int{{1}}},
		{name: "empty", items: nil, size: 3, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunk(tt.items, tt.size))
		})
	}
}
