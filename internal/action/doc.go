// Package action 实现 chatbot 的两条处理管道。
//
// # 数据流
//
// ## Upsert 流程 (写入)
//
//	data.csv
//	    │
//	    ▼
//	┌─────────────────────────────────────────────────────────┐
//	│  IngestAction                                            │
//	│  - CSVLoader 每行生成一个 Document                        │
//	│  - 按 embed_batch_size 分批调用 embedder                 │
//	│  - 生成 UUID，namespace 写入 metadata                     │
//	│  - vector.Batcher: 每批 ≤ batch_size，并发 ≤ batch_concurrency │
//	└─────────────────────────────────────────────────────────┘
//
// ## GetAnswer 流程 (问答)
//
//	固定问题
//	    │
//	    ▼
//	┌─────────────────────────────────────────────────────────┐
//	│  AnswerAction                                            │
//	│  - 向量化问题                                            │
//	│  - 检索 namespace 内 top_k 文档 (filter namespace=ns)     │
//	│  - prompt.Assemble 组装上下文                             │
//	│  - LLM 生成答案 (temperature 0)                           │
//	│  - 答案只写日志，不返回给调用方                           │
//	└─────────────────────────────────────────────────────────┘
//
// 检索结果为空时仍然调用 LLM，此时 prompt 的上下文为空。
//
// # 使用示例
//
//	bot := action.NewChatbot(g, vector.NewStore(), cfg)
//	if err := bot.Upsert(ctx); err != nil { ... }
//	if err := bot.GetAnswer(ctx); err != nil { ... }
package action
