package vector

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"
)

// OpenSearchConfig holds OpenSearch configuration
type OpenSearchConfig struct {
	Addresses    []string `toml:"addresses"`
	Username     string   `toml:"username"`
	Password     string   `toml:"password"`
	IndexName    string   `toml:"index"`
	EmbeddingDim int      `toml:"embedding_dim"`
	InsecureSSL  bool     `toml:"insecure_ssl"`
}

// Validate checks OpenSearch configuration
func (c *OpenSearchConfig) Validate() error {
	if len(c.Addresses) == 0 {
		return fmt.Errorf("addresses is required")
	}
	if c.IndexName == "" {
		return fmt.Errorf("index is required")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive")
	}
	return nil
}

// indexedDoc is the _source layout of one vector in the index.
// The index is expected to map metadata.* as keyword and embedding as knn_vector.
type indexedDoc struct {
	ID        string            `json:"id" mapstructure:"id"`
	Namespace string            `json:"namespace" mapstructure:"namespace"`
	Content   string            `json:"content" mapstructure:"content"`
	Metadata  map[string]string `json:"metadata,omitempty" mapstructure:"metadata"`
	Embedding []float32         `json:"embedding,omitempty" mapstructure:"-"`
}

// OpenSearchStore implements Store using OpenSearch k-NN
type OpenSearchStore struct {
	client       *opensearchapi.Client
	indexName    string
	embeddingDim int
}

var _ Store = (*OpenSearchStore)(nil)

// NewOpenSearchStore creates a new OpenSearch store
func NewOpenSearchStore(cfg OpenSearchConfig) (*OpenSearchStore, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureSSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses: cfg.Addresses,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Transport: transport,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSearch client: %w", err)
	}

	return &OpenSearchStore{
		client:       client,
		indexName:    cfg.IndexName,
		embeddingDim: cfg.EmbeddingDim,
	}, nil
}

// Upsert indexes records with one bulk request; documents with an existing ID are replaced
func (s *OpenSearchStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	body, err := s.bulkBody(records)
	if err != nil {
		return err
	}

	resp, err := s.client.Bulk(ctx, opensearchapi.BulkReq{
		Index:  s.indexName,
		Body:   bytes.NewReader(body),
		Params: opensearchapi.BulkParams{Refresh: "true"},
	})
	if err != nil {
		return fmt.Errorf("bulk index %d documents: %w", len(records), err)
	}
	if resp.Errors {
		return fmt.Errorf("bulk index reported item errors for %d documents", len(records))
	}

	return nil
}

func (s *OpenSearchStore) bulkBody(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	for _, r := range records {
		if s.embeddingDim > 0 && len(r.Embedding) != s.embeddingDim {
			return nil, fmt.Errorf("record %s: embedding has %d dimensions, index expects %d", r.ID, len(r.Embedding), s.embeddingDim)
		}

		action := map[string]any{"index": map[string]any{"_id": r.ID}}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("failed to marshal bulk action: %w", err)
		}

		doc := indexedDoc{
			ID:        r.ID,
			Namespace: r.Namespace,
			Content:   r.Content,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("failed to marshal document %s: %w", r.ID, err)
		}
	}

	return buf.Bytes(), nil
}

// Search runs a k-NN query restricted to the namespace and metadata filter
func (s *OpenSearchStore) Search(ctx context.Context, query Query) ([]Match, error) {
	queryBody, err := json.Marshal(s.buildKNNQuery(query))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	searchResp, err := s.client.Search(ctx, &opensearchapi.SearchReq{
		Indices: []string{s.indexName},
		Body:    bytes.NewReader(queryBody),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	matches := make([]Match, 0, len(searchResp.Hits.Hits))
	for _, hit := range searchResp.Hits.Hits {
		doc, err := decodeHit(hit.Source)
		if err != nil {
			return nil, fmt.Errorf("decode hit %s: %w", hit.ID, err)
		}

		id := doc.ID
		if id == "" {
			id = hit.ID
		}

		matches = append(matches, Match{
			ID:       id,
			Content:  doc.Content,
			Metadata: doc.Metadata,
			Score:    float64(hit.Score),
		})
	}

	return matches, nil
}

// buildKNNQuery builds a bool query with a knn clause and term filters
func (s *OpenSearchStore) buildKNNQuery(query Query) map[string]any {
	k := limitOf(query)

	filters := []map[string]any{
		{"term": map[string]any{"namespace": query.Namespace}},
	}
	for field, value := range query.Filter {
		filters = append(filters, map[string]any{"term": map[string]any{"metadata." + field: value}})
	}

	return map[string]any{
		"size":    k,
		"_source": map[string]any{"excludes": []string{"embedding"}},
		"query": map[string]any{
			"bool": map[string]any{
				"must":   map[string]any{"knn": map[string]any{"embedding": map[string]any{"vector": query.Embedding, "k": k}}},
				"filter": filters,
			},
		},
	}
}

// decodeHit converts a hit _source into indexedDoc; metadata values of any
// JSON scalar type are accepted
func decodeHit(source json.RawMessage) (indexedDoc, error) {
	var raw map[string]any
	if err := json.Unmarshal(source, &raw); err != nil {
		return indexedDoc{}, err
	}

	var doc indexedDoc
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return indexedDoc{}, err
	}

	if err := decoder.Decode(raw); err != nil {
		return indexedDoc{}, err
	}

	return doc, nil
}

// Close closes the OpenSearch connection
func (s *OpenSearchStore) Close() error {
	return nil
}
