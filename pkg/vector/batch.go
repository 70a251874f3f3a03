package vector

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Default batching limits for Batcher.
const (
	DefaultBatchSize        = 1000
	DefaultBatchConcurrency = 5
)

// Batcher splits large upserts into batches of at most Size records and keeps
// at most Concurrency batches in flight.
type Batcher struct {
	store       Store
	size        int
	concurrency int
}

// NewBatcher creates a Batcher. Non-positive limits fall back to the defaults.
func NewBatcher(store Store, size, concurrency int) *Batcher {
	if size <= 0 {
		size = DefaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	return &Batcher{store: store, size: size, concurrency: concurrency}
}

// Upsert writes all records. The first failing batch cancels the rest.
func (b *Batcher) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	batches := Chunk(records, b.size)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, batch := range batches {
		g.Go(func() error {
			if err := b.store.Upsert(ctx, batch); err != nil {
				return fmt.Errorf("upsert batch %d/%d (%d records): %w", i+1, len(batches), len(batch), err)
			}
			return nil
		})
	}

	return g.Wait()
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
