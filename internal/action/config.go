package action

import (
	"fmt"

	"github.com/Zereker/chatbot/pkg/vector"
)

// 管道默认配置
const (
	DefaultDataFile       = "data.csv"
	DefaultNamespace      = "data1"
	DefaultQuestion       = "Show me the all cars you have with all details?"
	DefaultEmbedBatchSize = 512
	DefaultLLM            = "openai/gpt-3.5-turbo"
	DefaultEmbedder       = "openai/text-embedding-3-small"
)

// Config 管道配置
type Config struct {
	DataFile         string  `toml:"data_file"`
	CSVColumn        string  `toml:"csv_column"` // 为空时使用整行
	Namespace        string  `toml:"namespace"`
	Question         string  `toml:"question"`
	BatchConcurrency int     `toml:"batch_concurrency"`
	BatchSize        int     `toml:"batch_size"`
	EmbedBatchSize   int     `toml:"embed_batch_size"`
	TopK             int     `toml:"top_k"`
	Temperature      float64 `toml:"temperature"`
	LLM              string  `toml:"llm"`
	Embedder         string  `toml:"embedder"`
}

// ApplyDefaults 填充未配置的字段
func (c *Config) ApplyDefaults() {
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.Question == "" {
		c.Question = DefaultQuestion
	}
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = vector.DefaultBatchConcurrency
	}
	if c.BatchSize == 0 {
		c.BatchSize = vector.DefaultBatchSize
	}
	if c.EmbedBatchSize == 0 {
		c.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if c.TopK == 0 {
		c.TopK = vector.DefaultLimit
	}
	if c.LLM == "" {
		c.LLM = DefaultLLM
	}
	if c.Embedder == "" {
		c.Embedder = DefaultEmbedder
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.DataFile == "" {
		return fmt.Errorf("data_file is required")
	}
	if c.Namespace == "" {
		return fmt.Errorf("namespace is required")
	}
	if c.BatchConcurrency <= 0 || c.BatchSize <= 0 || c.EmbedBatchSize <= 0 {
		return fmt.Errorf("batch_concurrency, batch_size and embed_batch_size must be positive")
	}
	if c.TopK <= 0 {
		return fmt.Errorf("top_k must be positive")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2]")
	}
	if c.LLM == "" || c.Embedder == "" {
		return fmt.Errorf("llm and embedder are required")
	}
	return nil
}
