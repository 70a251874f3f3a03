package action

import (
	"context"
	"maps"

	"github.com/firebase/genkit/go/genkit"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Zereker/chatbot/internal/domain"
	"github.com/Zereker/chatbot/internal/loader"
	"github.com/Zereker/chatbot/pkg/vector"
)

// IngestResult 一次导入的统计
type IngestResult struct {
	Documents int
	Upserted  int
}

// IngestAction 读取 CSV，生成向量并写入向量库
type IngestAction struct {
	*BaseAction
	loader  *loader.CSVLoader
	batcher *vector.Batcher
}

// NewIngestAction 创建 IngestAction
func NewIngestAction(g *genkit.Genkit, store vector.Store, cfg Config) *IngestAction {
	return &IngestAction{
		BaseAction: NewBaseAction("ingest", g, cfg),
		loader:     loader.NewCSVLoader(cfg.DataFile, cfg.CSVColumn),
		batcher:    vector.NewBatcher(store, cfg.BatchSize, cfg.BatchConcurrency),
	}
}

// Run 执行 加载 -> 向量化 -> 分批写入
func (a *IngestAction) Run(ctx context.Context) (*IngestResult, error) {
	docs, err := a.loader.Load(ctx)
	if err != nil {
		return nil, errors.WithMessage(err, "load documents")
	}

	a.logger.Info("documents loaded", "file", a.cfg.DataFile, "count", len(docs))

	vectors, err := a.EmbedTexts(ctx, domain.Contents(docs))
	if err != nil {
		return nil, errors.WithMessage(err, "embed documents")
	}

	records := a.buildRecords(docs, vectors)
	if err := a.batcher.Upsert(ctx, records); err != nil {
		return nil, errors.WithMessage(err, "upsert vectors")
	}

	a.logger.Info("vectors upserted", "namespace", a.cfg.Namespace, "count", len(records))

	return &IngestResult{Documents: len(docs), Upserted: len(records)}, nil
}

// buildRecords 组装向量记录，namespace 同时写入 metadata 以便过滤
func (a *IngestAction) buildRecords(docs []domain.Document, vectors [][]float32) []vector.Record {
	records := make([]vector.Record, len(docs))
	for i, doc := range docs {
		meta := maps.Clone(doc.Metadata)
		if meta == nil {
			meta = make(map[string]string, 1)
		}
		meta[domain.MetaNamespace] = a.cfg.Namespace

		records[i] = vector.Record{
			ID:        uuid.NewString(),
			Namespace: a.cfg.Namespace,
			Embedding: vectors[i],
			Content:   doc.Content,
			Metadata:  meta,
		}
	}
	return records
}
