package vector

import (
	"fmt"
)

// Supported backends
const (
	BackendOpenSearch = "opensearch"
	BackendQdrant     = "qdrant"
	BackendMemory     = "memory"
)

// DefaultOpenSearchAddress is used when no address is configured
const DefaultOpenSearchAddress = "http://localhost:9200"

// Package-level singleton instance
var storeInstance Store

// Config selects and configures the vector backend
type Config struct {
	Backend    string           `toml:"backend"`
	OpenSearch OpenSearchConfig `toml:"opensearch"`
	Qdrant     QdrantConfig     `toml:"qdrant"`
}

// ApplyDefaults fills unset fields
func (c *Config) ApplyDefaults() {
	if c.Backend == "" {
		c.Backend = BackendOpenSearch
	}
	if len(c.OpenSearch.Addresses) == 0 {
		c.OpenSearch.Addresses = []string{DefaultOpenSearchAddress}
	}
	if c.OpenSearch.EmbeddingDim == 0 {
		c.OpenSearch.EmbeddingDim = 1536
	}
	if c.Qdrant.EmbeddingDim == 0 {
		c.Qdrant.EmbeddingDim = c.OpenSearch.EmbeddingDim
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = c.OpenSearch.IndexName
	}
}

// Validate checks the selected backend's configuration only
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOpenSearch:
		if err := c.OpenSearch.Validate(); err != nil {
			return fmt.Errorf("opensearch: %w", err)
		}
	case BackendQdrant:
		if err := c.Qdrant.Validate(); err != nil {
			return fmt.Errorf("qdrant: %w", err)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// New creates the Store for the configured backend
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendOpenSearch:
		return NewOpenSearchStore(cfg.OpenSearch)
	case BackendQdrant:
		return NewQdrantStore(cfg.Qdrant)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// Init initializes the store singleton with config.
func Init(cfg Config) error {
	store, err := New(cfg)
	if err != nil {
		return err
	}
	storeInstance = store
	return nil
}

// NewStore returns the singleton store instance.
func NewStore() Store {
	return storeInstance
}

// Close closes the singleton store if initialized.
func Close() error {
	if storeInstance == nil {
		return nil
	}
	return storeInstance.Close()
}
