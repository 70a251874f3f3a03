package action

import (
	"context"

	"github.com/firebase/genkit/go/genkit"
	"github.com/pkg/errors"

	"github.com/Zereker/chatbot/internal/domain"
	"github.com/Zereker/chatbot/internal/prompt"
	"github.com/Zereker/chatbot/pkg/vector"
)

// AnswerResult 一次问答的结果
type AnswerResult struct {
	Question  string
	Prompt    string
	Answer    string
	Documents []domain.Document
}

// AnswerAction 检索相关文档并让 LLM 基于上下文回答
type AnswerAction struct {
	*BaseAction
	store vector.Store
}

// NewAnswerAction 创建 AnswerAction
func NewAnswerAction(g *genkit.Genkit, store vector.Store, cfg Config) *AnswerAction {
	return &AnswerAction{
		BaseAction: NewBaseAction("answer", g, cfg),
		store:      store,
	}
}

// Run 执行 向量化问题 -> 检索 -> 组装 prompt -> 生成，答案写入日志
func (a *AnswerAction) Run(ctx context.Context, question string) (*AnswerResult, error) {
	docs, err := a.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	p := prompt.Assemble(question, docs)

	answer, err := a.Generate(ctx, p)
	if err != nil {
		return nil, errors.WithMessage(err, "generate answer")
	}

	a.logger.Info("answer", "question", question, "documents", len(docs), "answer", answer)

	return &AnswerResult{
		Question:  question,
		Prompt:    p,
		Answer:    answer,
		Documents: docs,
	}, nil
}

// Retrieve 在配置的 namespace 内检索与问题最相关的文档
func (a *AnswerAction) Retrieve(ctx context.Context, question string) ([]domain.Document, error) {
	embedding, err := a.GenEmbedding(ctx, question)
	if err != nil {
		return nil, errors.WithMessage(err, "embed question")
	}

	matches, err := a.store.Search(ctx, vector.Query{
		Namespace: a.cfg.Namespace,
		Embedding: embedding,
		Filter:    map[string]string{domain.MetaNamespace: a.cfg.Namespace},
		Limit:     a.cfg.TopK,
	})
	if err != nil {
		return nil, errors.WithMessage(err, "search vectors")
	}

	docs := make([]domain.Document, len(matches))
	for i, m := range matches {
		docs[i] = domain.NewDocument(m.Content, m.Metadata)
	}

	a.logger.Debug("retrieved", "namespace", a.cfg.Namespace, "count", len(docs))
	return docs, nil
}
