package action

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/openai/openai-go"

	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/vector"
)

// BaseAction 提供 Action 的公共能力：向量化和调用 LLM
type BaseAction struct {
	name   string
	logger *slog.Logger
	g      *genkit.Genkit
	cfg    Config
}

// NewBaseAction 创建 BaseAction
func NewBaseAction(name string, g *genkit.Genkit, cfg Config) *BaseAction {
	return &BaseAction{
		name:   name,
		logger: log.Logger(name),
		g:      g,
		cfg:    cfg,
	}
}

// EmbedTexts 按 embed_batch_size 分批生成向量，返回顺序与输入一致
func (b *BaseAction) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))

	for _, chunk := range vector.Chunk(texts, b.cfg.EmbedBatchSize) {
		docs := make([]*ai.Document, len(chunk))
		for i, text := range chunk {
			docs[i] = ai.DocumentFromText(text, nil)
		}

		resp, err := genkit.Embed(ctx, b.g, ai.WithEmbedderName(b.cfg.Embedder), ai.WithDocs(docs...))
		if err != nil {
			return nil, fmt.Errorf("embed %d texts: %w", len(chunk), err)
		}

		if len(resp.Embeddings) != len(chunk) {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(resp.Embeddings), len(chunk))
		}

		for _, e := range resp.Embeddings {
			if len(e.Embedding) == 0 {
				return nil, fmt.Errorf("empty embedding response")
			}
			vectors = append(vectors, e.Embedding)
		}
	}

	return vectors, nil
}

// GenEmbedding 生成单条文本的向量表示
func (b *BaseAction) GenEmbedding(ctx context.Context, text string) ([]float32, error) {
	vectors, err := b.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Generate 以单条 user 消息调用 LLM，返回文本输出
func (b *BaseAction) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, b.g,
		ai.WithModelName(b.cfg.LLM),
		ai.WithMessages(ai.NewUserTextMessage(prompt)),
		ai.WithConfig(&openai.ChatCompletionNewParams{
			Temperature: openai.Float(b.cfg.Temperature),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generate failed: %w", err)
	}

	if resp == nil {
		return "", fmt.Errorf("empty response")
	}

	// 记录 token 使用量
	if resp.Usage != nil {
		b.logger.Debug("llm response",
			"model", b.cfg.LLM,
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
	}

	return resp.Text(), nil
}
