package server

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/Zereker/chatbot/internal/action"
	"github.com/Zereker/chatbot/pkg/genkit"
	"github.com/Zereker/chatbot/pkg/log"
	"github.com/Zereker/chatbot/pkg/mq"
	"github.com/Zereker/chatbot/pkg/redis"
	"github.com/Zereker/chatbot/pkg/vector"
)

// Server modes
const (
	ModeHTTP = "http"
	ModeMCP  = "mcp"
	ModeBoth = "both"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Log      log.Config     `toml:"log"`
	Models   genkit.Config  `toml:"genkit"`
	Pipeline action.Config  `toml:"pipeline"`
	Vector   vector.Config  `toml:"vector"`
	Kafka    mq.KafkaConfig `toml:"kafka"`
	Redis    redis.Config   `toml:"redis"`
}

// ServerConfig contains server configuration
type ServerConfig struct {
	Mode       string `toml:"mode"` // http, mcp, or both
	Port       int    `toml:"port"`
	CORSOrigin string `toml:"cors_origin"`
}

// ApplyDefaults fills unset server fields
func (s *ServerConfig) ApplyDefaults() {
	if s.Mode == "" {
		s.Mode = ModeHTTP
	}
	if s.Port == 0 {
		s.Port = 9000
	}
	if s.CORSOrigin == "" {
		s.CORSOrigin = "http://localhost:3000"
	}
}

// Validate checks server configuration
func (s *ServerConfig) Validate() error {
	switch s.Mode {
	case ModeHTTP, ModeMCP, ModeBoth:
		// valid
	default:
		return fmt.Errorf("invalid mode: %s, must be http, mcp, or both", s.Mode)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("port is required and must be between 1 and 65535")
	}
	if s.CORSOrigin == "" {
		return fmt.Errorf("cors_origin is required")
	}
	return nil
}

// ApplyDefaults fills every unset field
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Log.ApplyDefaults()
	c.Models.OpenAI.ApplyDefaults()
	c.Pipeline.ApplyDefaults()
	c.Vector.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Redis.ApplyDefaults()

	// stdout carries the MCP protocol
	if c.Server.Mode != ModeHTTP {
		c.Log.Stderr = true
	}
}

// Validate checks all configuration fields
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if err := c.Models.Validate(); err != nil {
		return fmt.Errorf("genkit: %w", err)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}

	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka: %w", err)
	}

	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	return nil
}

// applyEnv overrides configuration from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("FRONTEND_URL"); ok && v != "" {
		c.Server.CORSOrigin = v
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.Models.OpenAI.APIKey = v
	}
	if v, ok := lookup("OPENAI_BASE_URL"); ok && v != "" {
		c.Models.OpenAI.BaseURL = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		c.Log.Level = v
	}

	if v, ok := lookup("OPENSEARCH_URL"); ok && v != "" {
		var addrs []string
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				addrs = append(addrs, addr)
			}
		}
		c.Vector.OpenSearch.Addresses = addrs
	}

	// INDEX_NAME wins over the legacy PINECONE_INDEX_NAME
	for _, key := range []string{"PINECONE_INDEX_NAME", "INDEX_NAME"} {
		if v, ok := lookup(key); ok && v != "" {
			c.Vector.OpenSearch.IndexName = v
		}
	}

	return nil
}

// LoadConfig reads the configuration file, applies environment overrides and
// defaults, then validates. An empty filename skips the file.
func LoadConfig(filename string) (Config, error) {
	return loadConfig(filename, os.LookupEnv)
}

func loadConfig(filename string, lookup func(string) (string, bool)) (Config, error) {
	var cfg Config

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}

		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, fmt.Errorf("apply environment: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}
