package genkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// MockConfig holds mock plugin configuration
type MockConfig struct {
	Provider string // Provider prefix (default: "mock"). Use "openai" to match real model names.
	Models   []ModelConfig
}

type (
	modelFunc    func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error)
	embedderFunc func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error)
)

// MockPlugin implements a test-only genkit plugin with configurable responses.
// Every request is recorded so callers can assert on what reached the model.
type MockPlugin struct {
	mu sync.RWMutex

	provider          string
	models            []ModelConfig
	modelResponses    map[string]modelFunc
	embedderResponses map[string]embedderFunc

	modelRequests map[string][]*ai.ModelRequest
	embedRequests map[string][]*ai.EmbedRequest
}

// NewMockPlugin creates a new mock plugin for testing
func NewMockPlugin(cfg MockConfig) *MockPlugin {
	provider := cfg.Provider
	if provider == "" {
		provider = "mock"
	}
	return &MockPlugin{
		provider:          provider,
		models:            cfg.Models,
		modelResponses:    make(map[string]modelFunc),
		embedderResponses: make(map[string]embedderFunc),
		modelRequests:     make(map[string][]*ai.ModelRequest),
		embedRequests:     make(map[string][]*ai.EmbedRequest),
	}
}

// Name returns the plugin name
func (p *MockPlugin) Name() string {
	return "mock"
}

// Init implements api.Plugin interface - registers all mock models/embedders
func (p *MockPlugin) Init(ctx context.Context) []api.Action {
	actions := make([]api.Action, 0, len(p.models))

	for _, m := range p.models {
		switch m.Type {
		case ModelTypeLLM:
			actions = append(actions, p.defineModel(m).(api.Action))
		case ModelTypeEmbedding:
			actions = append(actions, p.defineEmbedder(m).(api.Action))
		}
	}

	return actions
}

// QualifiedName returns the registry name ("provider/name") of a mock model
func (p *MockPlugin) QualifiedName(name string) string {
	return fmt.Sprintf("%s/%s", p.provider, name)
}

func (p *MockPlugin) defineModel(m ModelConfig) ai.Model {
	return ai.NewModel(p.QualifiedName(m.Name), &ai.ModelOptions{
		Label: fmt.Sprintf("Mock %s", m.Name),
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
			Media:      false,
		},
	}, func(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
		p.mu.Lock()
		p.modelRequests[m.Name] = append(p.modelRequests[m.Name], req)
		fn, ok := p.modelResponses[m.Name]
		p.mu.Unlock()

		if ok && fn != nil {
			return fn(ctx, req)
		}

		// Default: echo the last user message
		textResponse := ""
		for _, msg := range req.Messages {
			if msg.Role == ai.RoleUser {
				textResponse = msg.Text()
			}
		}

		return &ai.ModelResponse{
			Request: req,
			Message: ai.NewModelTextMessage(textResponse),
			Usage: &ai.GenerationUsage{
				InputTokens:  10,
				OutputTokens: 5,
			},
		}, nil
	})
}

func (p *MockPlugin) defineEmbedder(m ModelConfig) ai.Embedder {
	return ai.NewEmbedder(p.QualifiedName(m.Name), &ai.EmbedderOptions{
		Label:      fmt.Sprintf("Mock %s", m.Name),
		Dimensions: m.Dim,
	}, func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		p.mu.Lock()
		p.embedRequests[m.Name] = append(p.embedRequests[m.Name], req)
		fn, ok := p.embedderResponses[m.Name]
		p.mu.Unlock()

		if ok && fn != nil {
			return fn(ctx, req)
		}

		// Default: return zero vectors
		embeddings := make([]*ai.Embedding, len(req.Input))
		for i := range req.Input {
			embeddings[i] = &ai.Embedding{
				Embedding: make([]float32, m.Dim),
			}
		}

		return &ai.EmbedResponse{
			Embeddings: embeddings,
		}, nil
	})
}

// SetModelResponse sets a custom response function for a model
func (p *MockPlugin) SetModelResponse(modelName string, fn func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.modelResponses[modelName] = fn
}

// SetEmbedderResponse sets a custom response function for an embedder
func (p *MockPlugin) SetEmbedderResponse(embedderName string, fn func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedderResponses[embedderName] = fn
}

// SetModelTextResponse is a helper to set a model response that returns fixed text
func (p *MockPlugin) SetModelTextResponse(modelName, text string) {
	p.SetModelResponse(modelName, func(ctx context.Context, req *ai.ModelRequest) (*ai.ModelResponse, error) {
		return &ai.ModelResponse{
			Request: req,
			Message: ai.NewModelTextMessage(text),
		}, nil
	})
}

// SetEmbedderVectorResponse is a helper to set an embedder response with a specific vector
func (p *MockPlugin) SetEmbedderVectorResponse(embedderName string, vector []float32) {
	p.SetEmbedderResponse(embedderName, func(ctx context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
		embeddings := make([]*ai.Embedding, len(req.Input))
		for i := range req.Input {
			embeddings[i] = &ai.Embedding{
				Embedding: vector,
			}
		}
		return &ai.EmbedResponse{
			Embeddings: embeddings,
		}, nil
	})
}

// ModelRequests returns the requests a mock model has received so far
func (p *MockPlugin) ModelRequests(modelName string) []*ai.ModelRequest {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*ai.ModelRequest(nil), p.modelRequests[modelName]...)
}

// EmbedRequests returns the requests a mock embedder has received so far
func (p *MockPlugin) EmbedRequests(embedderName string) []*ai.EmbedRequest {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*ai.EmbedRequest(nil), p.embedRequests[embedderName]...)
}

// DefaultMockConfig returns a default mock config for testing
func DefaultMockConfig() MockConfig {
	return MockConfig{
		Models: []ModelConfig{
			{Name: "test-llm", Type: ModelTypeLLM, Model: "test-llm"},
			{Name: "test-embedding", Type: ModelTypeEmbedding, Model: "test-embedding", Dim: 1536},
		},
	}
}
