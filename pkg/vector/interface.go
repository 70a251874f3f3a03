package vector

import "context"

// Record is one vector with the text and metadata it was computed from.
type Record struct {
	ID        string
	Namespace string
	Embedding []float32
	Content   string
	Metadata  map[string]string
}

// Query is a similarity search restricted to one namespace.
type Query struct {
	Namespace string

	// Embedding vector for k-NN search
	Embedding []float32

	// Filter for exact metadata match (key -> value)
	Filter map[string]string

	// Limit on results; DefaultLimit when <= 0
	Limit int
}

// Match is a search hit, ordered by descending Score.
type Match struct {
	ID       string
	Content  string
	Metadata map[string]string
	Score    float64
}

// DefaultLimit is the number of matches returned when Query.Limit is unset.
const DefaultLimit = 4

// Store defines the interface for vector storage backends.
type Store interface {
	// Upsert inserts or replaces records keyed by ID
	Upsert(ctx context.Context, records []Record) error

	// Search returns the records nearest to query.Embedding
	Search(ctx context.Context, query Query) ([]Match, error)

	// Close releases the client connection
	Close() error
}

func limitOf(q Query) int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}
