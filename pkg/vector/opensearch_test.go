package vector

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSearchStore_BulkBody(t *testing.T) {
	s := &OpenSearchStore{indexName: "cars", embeddingDim: 2}

	body, err := s.bulkBody([]Record{
		{ID: "a", Namespace: "data1", Embedding: []float32{1, 2}, Content: "make: VW", Metadata: map[string]string{"line": "1"}},
		{ID: "b", Namespace: "data1", Embedding: []float32{3, 4}, Content: "make: BMW"},
	})
	require.NoError(t, err)

	var lines []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)

	assert.Equal(t, map[string]any{"index": map[string]any{"_id": "a"}}, lines[0])
	assert.Equal(t, "data1", lines[1]["namespace"])
	assert.Equal(t, "make: VW", lines[1]["content"])
	assert.Equal(t, map[string]any{"line": "1"}, lines[1]["metadata"])
	assert.Equal(t, map[string]any{"index": map[string]any{"_id": "b"}}, lines[2])
}

func TestOpenSearchStore_BulkBodyRejectsWrongDimension(t *testing.T) {
	s := &OpenSearchStore{indexName: "cars", embeddingDim: 3}

	_, err := s.bulkBody([]Record{{ID: "a", Embedding: []float32{1}}})
	assert.Error(t, err)
}

func TestOpenSearchStore_BuildKNNQuery(t *testing.T) {
	s := &OpenSearchStore{indexName: "cars"}

	q := s.buildKNNQuery(Query{
		Namespace: "data1",
		Embedding: []float32{0.5},
		Filter:    map[string]string{"namespace": "data1"},
	})

	assert.Equal(t, DefaultLimit, q["size"])
	boolQuery := q["query"].(map[string]any)["bool"].(map[string]any)
	filters := boolQuery["filter"].([]map[string]any)
	require.Len(t, filters, 2)
	assert.Equal(t, map[string]any{"term": map[string]any{"namespace": "data1"}}, filters[0])
	assert.Equal(t, map[string]any{"term": map[string]any{"metadata.namespace": "data1"}}, filters[1])
}

func TestDecodeHit(t *testing.T) {
	doc, err := decodeHit(json.RawMessage(`{"id":"a","namespace":"data1","content":"x","metadata":{"line":3,"source":"data.csv"}}`))
	require.NoError(t, err)

	assert.Equal(t, "a", doc.ID)
	assert.Equal(t, "x", doc.Content)
	assert.Equal(t, "3", doc.Metadata["line"])
	assert.Equal(t, "data.csv", doc.Metadata["source"])
}

func TestOpenSearchConfig_Validate(t *testing.T) {
	cfg := OpenSearchConfig{Addresses: []string{"http://localhost:9200"}, IndexName: "cars", EmbeddingDim: 1536}
	assert.NoError(t, cfg.Validate())

	cfg.IndexName = ""
	assert.Error(t, cfg.Validate())
}
