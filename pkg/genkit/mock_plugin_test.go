package genkit

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockPlugin_DefaultBehavior(t *testing.T) {
	ctx := context.Background()

	mockPlugin := InitForTest(ctx, DefaultMockConfig())

	g := Genkit()
	require.NotNil(t, g)

	embedder := genkit.LookupEmbedder(g, "mock/test-embedding")
	require.NotNil(t, embedder, "mock embedder should be registered")

	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText("hello", nil)},
	})
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 1)
	assert.Len(t, resp.Embeddings[0].Embedding, 1536)

	model := genkit.LookupModel(g, "mock/test-llm")
	require.NotNil(t, model, "mock model should be registered")

	modelResp, err := model.Generate(ctx, &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserTextMessage("hello")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", modelResp.Text()) // echo behavior

	assert.Len(t, mockPlugin.ModelRequests("test-llm"), 1)
	assert.Len(t, mockPlugin.EmbedRequests("test-embedding"), 1)
}

func TestMockPlugin_CustomResponses(t *testing.T) {
	ctx := context.Background()

	mockPlugin := InitForTest(ctx, DefaultMockConfig())

	customVector := []float32{0.1, 0.2, 0.3}
	mockPlugin.SetEmbedderVectorResponse("test-embedding", customVector)
	mockPlugin.SetModelTextResponse("test-llm", "a red hatchback")

	g := Genkit()

	embedder := genkit.LookupEmbedder(g, "mock/test-embedding")
	resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{ai.DocumentFromText("test", nil)},
	})
	require.NoError(t, err)
	assert.Equal(t, customVector, resp.Embeddings[0].Embedding)

	model := genkit.LookupModel(g, "mock/test-llm")
	modelResp, err := model.Generate(ctx, &ai.ModelRequest{
		Messages: []*ai.Message{ai.NewUserTextMessage("test")},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "a red hatchback", modelResp.Text())
}

func TestMockPlugin_Embed(t *testing.T) {
	ctx := context.Background()

	_ = InitForTest(ctx, DefaultMockConfig())
	g := Genkit()

	resp, err := genkit.Embed(ctx, g, ai.WithEmbedderName("mock/test-embedding"), ai.WithTextDocs("hello world"))
	require.NoError(t, err)
	assert.Len(t, resp.Embeddings, 1)
}

func TestOpenAIConfig_Defaults(t *testing.T) {
	cfg := OpenAIConfig{APIKey: "sk-test"}
	cfg.ApplyDefaults()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.openai.com/v1", cfg.BaseURL)
	require.Len(t, cfg.Models, 2)
	assert.Equal(t, ModelTypeEmbedding, cfg.Models[1].Type)
	assert.Equal(t, 1536, cfg.Models[1].Dim)
}

func TestOpenAIConfig_RequiresAPIKey(t *testing.T) {
	cfg := OpenAIConfig{}
	cfg.ApplyDefaults()

	assert.Error(t, cfg.Validate())
}
