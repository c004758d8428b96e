package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Auth          AuthConfig          `mapstructure:"auth"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Embedding     EmbeddingConfig     `mapstructure:"embedding"`
	VectorStore   VectorStoreConfig   `mapstructure:"vectorstore"`
	KnowledgeBase KnowledgeBaseConfig `mapstructure:"knowledge_base"`
	Conversation  ConversationConfig  `mapstructure:"conversation"`
	Security      SecurityConfig      `mapstructure:"security"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
	// MiddlewareTimeout bounds every request; zero disables it.
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

// DatabaseConfig selects the catalog store. Driver "memory" keeps
// everything in process and is meant for local runs and tests.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

// RedisConfig backs build locks, job records, the snapshot cache and rate
// limiting. When disabled, in-process equivalents are used and rate limiting
// is off.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	Timeout         time.Duration   `mapstructure:"timeout"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Ollama          OllamaConfig    `mapstructure:"ollama"`
	DeepSeek        DeepSeekConfig  `mapstructure:"deepseek"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// EmbeddingConfig configures the embedding providers. Provider selection is
// per chatbot (through its language model record); these are credentials and limits.
type EmbeddingConfig struct {
	Timeout   time.Duration   `mapstructure:"timeout"`
	BatchSize int             `mapstructure:"batch_size"`
	RateLimit float64         `mapstructure:"rate_limit"`
	RateBurst int             `mapstructure:"rate_burst"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	FastEmbed FastEmbedConfig `mapstructure:"fastembed"`
}

type FastEmbedConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	CacheDir  string `mapstructure:"cache_dir"`
	MaxLength int    `mapstructure:"max_length"`
}

// VectorStoreConfig maps a locator scheme to the base locator new snapshots
// are derived from, e.g. "qdrant" -> "qdrant://localhost:6334".
type VectorStoreConfig struct {
	DefaultBackend string            `mapstructure:"default_backend"`
	Backends       map[string]string `mapstructure:"backends"`
	Timeout        time.Duration     `mapstructure:"timeout"`
}

type KnowledgeBaseConfig struct {
	ChunkSize     int           `mapstructure:"chunk_size"`
	ChunkOverlap  int           `mapstructure:"chunk_overlap"`
	TopK          int           `mapstructure:"top_k"`
	Async         bool          `mapstructure:"async"`
	Workers       int           `mapstructure:"workers"`
	QueueSize     int           `mapstructure:"queue_size"`
	BuildTimeout  time.Duration `mapstructure:"build_timeout"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
	JobTTL        time.Duration `mapstructure:"job_ttl"`
	BuildOnUpload bool          `mapstructure:"build_on_upload"`
	UploadDir     string        `mapstructure:"upload_dir"`
}

type ConversationConfig struct {
	HistoryLimit        int    `mapstructure:"history_limit"`
	StrictRetrieval     bool   `mapstructure:"strict_retrieval"`
	DefaultSystemPrompt string `mapstructure:"default_system_prompt"`
}

type SecurityConfig struct {
	EncryptionKey string          `mapstructure:"encryption_key"`
	RateLimit     RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	File   string        `mapstructure:"file"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the knowledge-base pipeline cannot run with.
func (c *Config) Validate() error {
	kb := c.KnowledgeBase
	if kb.ChunkSize <= 0 {
		return fmt.Errorf("invalid config: knowledge_base.chunk_size must be positive, got %d", kb.ChunkSize)
	}
	if kb.ChunkOverlap < 0 || kb.ChunkOverlap >= kb.ChunkSize {
		return fmt.Errorf("invalid config: knowledge_base.chunk_overlap must be in [0, chunk_size), got %d", kb.ChunkOverlap)
	}
	if kb.TopK <= 0 {
		return fmt.Errorf("invalid config: knowledge_base.top_k must be positive, got %d", kb.TopK)
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("invalid config: unknown database.driver %q", c.Database.Driver)
	}
	if _, ok := c.VectorStore.Backends[c.VectorStore.DefaultBackend]; !ok {
		return fmt.Errorf("invalid config: no base locator for default backend %q", c.VectorStore.DefaultBackend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.max_upload_size", 32<<20)
	v.SetDefault("server.middleware_timeout", "120s")

	// Database
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "chatbot")
	v.SetDefault("database.database", "chatbot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 5)

	// Redis
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Auth
	v.SetDefault("auth.access_token_ttl", "15m")

	// LLM
	v.SetDefault("llm.default_provider", "ollama")
	v.SetDefault("llm.timeout", "120s")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.default_model", "llama3")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")

	// Embedding
	v.SetDefault("embedding.timeout", "60s")
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.rate_limit", 10)
	v.SetDefault("embedding.rate_burst", 10)
	v.SetDefault("embedding.ollama.host", "http://localhost:11434")
	v.SetDefault("embedding.ollama.default_model", "nomic-embed-text")
	v.SetDefault("embedding.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("embedding.openai.model", "text-embedding-3-small")
	v.SetDefault("embedding.gemini.model", "text-embedding-004")
	v.SetDefault("embedding.fastembed.cache_dir", "./local_cache")
	v.SetDefault("embedding.fastembed.max_length", 512)

	// Vector store
	v.SetDefault("vectorstore.default_backend", "chromem")
	v.SetDefault("vectorstore.backends", map[string]string{
		"chromem": "chromem://./uploads/vectorstore/chromem",
		"sqlite":  "sqlite://./uploads/vectorstore/vectors.db",
	})
	v.SetDefault("vectorstore.timeout", "30s")

	// Knowledge base
	v.SetDefault("knowledge_base.chunk_size", 400)
	v.SetDefault("knowledge_base.chunk_overlap", 100)
	v.SetDefault("knowledge_base.top_k", 3)
	v.SetDefault("knowledge_base.async", true)
	v.SetDefault("knowledge_base.workers", 2)
	v.SetDefault("knowledge_base.queue_size", 64)
	v.SetDefault("knowledge_base.build_timeout", "15m")
	v.SetDefault("knowledge_base.lock_ttl", "20m")
	v.SetDefault("knowledge_base.job_ttl", "24h")
	v.SetDefault("knowledge_base.build_on_upload", true)
	v.SetDefault("knowledge_base.upload_dir", "./uploads/documents")

	// Conversation
	v.SetDefault("conversation.history_limit", 50)
	v.SetDefault("conversation.strict_retrieval", false)
	v.SetDefault("conversation.default_system_prompt", "You are a helpful assistant.")

	// Security
	v.SetDefault("security.rate_limit.requests_per_minute", 60)
	v.SetDefault("security.rate_limit.burst", 10)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "POSTGRES_HOST")
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Redis
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// Security
	v.BindEnv("security.encryption_key", "ENCRYPTION_KEY")

	// LLM API Keys
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Embedding API Keys share the LLM credentials
	v.BindEnv("embedding.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("embedding.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("embedding.ollama.host", "OLLAMA_HOST")

	// Vector store base locators
	v.BindEnv("vectorstore.backends.qdrant", "QDRANT_LOCATOR")
	v.BindEnv("vectorstore.backends.pgvector", "PGVECTOR_LOCATOR")
	v.BindEnv("vectorstore.backends.mongodb", "MONGODB_LOCATOR")
	v.BindEnv("vectorstore.backends.mysql", "MYSQL_LOCATOR")
}
