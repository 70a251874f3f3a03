package action

import (
	"context"
	"log/slog"

	"github.com/firebase/genkit/go/genkit"

	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/vector"
)

// Chatbot 统一的操作入口，对应 /upsert 和 /getanswer
type Chatbot struct {
	logger *slog.Logger
	cfg    Config
	ingest *IngestAction
	answer *AnswerAction
}

// NewChatbot 创建 Chatbot 实例
func NewChatbot(g *genkit.Genkit, store vector.Store, cfg Config) *Chatbot {
	return &Chatbot{
		logger: log.Logger("chatbot"),
		cfg:    cfg,
		ingest: NewIngestAction(g, store, cfg),
		answer: NewAnswerAction(g, store, cfg),
	}
}

// Upsert 将 CSV 数据导入向量库
func (c *Chatbot) Upsert(ctx context.Context) error {
	c.logger.Info("upsert", "file", c.cfg.DataFile, "namespace", c.cfg.Namespace)

	result, err := c.ingest.Run(ctx)
	if err != nil {
		return err
	}

	c.logger.Info("upsert completed", "documents", result.Documents, "upserted", result.Upserted)
	return nil
}

// GetAnswer 回答配置中的固定问题
func (c *Chatbot) GetAnswer(ctx context.Context) error {
	_, err := c.Ask(ctx, c.cfg.Question)
	return err
}

// Ask 回答任意问题
func (c *Chatbot) Ask(ctx context.Context, question string) (*AnswerResult, error) {
	c.logger.Info("get answer", "question", question, "namespace", c.cfg.Namespace)
	return c.answer.Run(ctx, question)
}
