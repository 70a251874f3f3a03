package genkit

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"
)

type ModelType string

// Model type constants
const (
	ModelTypeLLM       ModelType = "llm"
	ModelTypeEmbedding ModelType = "embedding"
)

// ModelConfig holds configuration for a single model (shared by all vendors)
type ModelConfig struct {
	Name    string    `toml:"name"`     // Model name for registration (e.g., "gpt-3.5-turbo")
	Type    ModelType `toml:"type"`     // ModelTypeLLM or ModelTypeEmbedding
	Model   string    `toml:"model"`    // Actual model identifier
	BaseURL string    `toml:"base_url"` // Override base URL for this model (optional)
	Dim     int       `toml:"dim"`      // Embedding dimension (required for embedding models)
}

// Validate validates a model config
func (m *ModelConfig) Validate(index int) error {
	if m.Name == "" {
		return fmt.Errorf("models[%d].name is required", index)
	}

	if m.Type != ModelTypeLLM && m.Type != ModelTypeEmbedding {
		return fmt.Errorf("models[%d].type must be '%s' or '%s'", index, ModelTypeLLM, ModelTypeEmbedding)
	}

	if m.Model == "" {
		return fmt.Errorf("models[%d].model is required", index)
	}

	if m.Type == ModelTypeEmbedding && m.Dim <= 0 {
		return fmt.Errorf("models[%d].dim is required for embedding model", index)
	}

	return nil
}

// Config holds unified genkit configuration with all vendors
type Config struct {
	OpenAI    OpenAIConfig `toml:"openai"`
	PromptDir string       `toml:"prompt_dir"`
}

// Validate checks genkit configuration
func (c *Config) Validate() error {
	if err := c.OpenAI.Validate(); err != nil {
		return fmt.Errorf("openai: %w", err)
	}
	return nil
}

var g *genkit.Genkit

// Init initializes the genkit package with the configured vendors and returns the instance
func Init(ctx context.Context, cfg Config) (*genkit.Genkit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid config")
	}

	InitWithPlugins(ctx, []api.Plugin{NewOpenAIPlugin(cfg.OpenAI)}, cfg.PromptDir)
	return g, nil
}

// InitForTest initializes genkit with a mock plugin for testing.
// Returns the mock plugin for configuring responses.
func InitForTest(ctx context.Context, cfg MockConfig) *MockPlugin {
	mockPlugin := NewMockPlugin(cfg)
	InitWithPlugins(ctx, []api.Plugin{mockPlugin}, "")
	return mockPlugin
}

// InitWithPlugins initializes genkit with custom plugins (for testing or custom setups)
func InitWithPlugins(ctx context.Context, plugins []api.Plugin, promptDir string) {
	if promptDir != "" {
		g = genkit.Init(ctx, genkit.WithPlugins(plugins...), genkit.WithPromptDir(promptDir))
		return
	}
	g = genkit.Init(ctx, genkit.WithPlugins(plugins...))
}

// Genkit returns the Genkit instance
func Genkit() *genkit.Genkit {
	return g
}
