package vector

import (
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
)

func TestRecordPayloadRoundTrip(t *testing.T) {
	r := Record{
		ID:        "3f1c1c1e-0000-4000-8000-000000000001",
		Namespace: "data1",
		Content:   "make: VW",
		Metadata:  map[string]string{"source": "data.csv", "line": "1"},
	}

	payload := recordPayload(r)
	assert.Equal(t, "data1", payload[payloadNamespace].GetStringValue())

	m := pointMatch(&pb.ScoredPoint{
		Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID}},
		Payload: payload,
		Score:   0.5,
	})
	assert.Equal(t, r.ID, m.ID)
	assert.Equal(t, r.Content, m.Content)
	assert.Equal(t, r.Metadata, m.Metadata)
	assert.InDelta(t, 0.5, m.Score, 1e-6)
}

func TestFieldMatch(t *testing.T) {
	c := fieldMatch("metadata.namespace", "data1")
	assert.Equal(t, "metadata.namespace", c.GetField().GetKey())
	assert.Equal(t, "data1", c.GetField().GetMatch().GetKeyword())
}
