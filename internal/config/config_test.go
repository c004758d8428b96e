package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 400, cfg.KnowledgeBase.ChunkSize)
	assert.Equal(t, 100, cfg.KnowledgeBase.ChunkOverlap)
	assert.Equal(t, 3, cfg.KnowledgeBase.TopK)
	assert.Equal(t, "chromem", cfg.VectorStore.DefaultBackend)
	assert.Equal(t, "chromem://./uploads/vectorstore/chromem", cfg.VectorStore.Backends["chromem"])
	assert.Equal(t, 15*time.Minute, cfg.KnowledgeBase.BuildTimeout)
	assert.Equal(t, "You are a helpful assistant.", cfg.Conversation.DefaultSystemPrompt)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 120*time.Second, cfg.Server.MiddlewareTimeout)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
knowledge_base:
  chunk_size: 200
  chunk_overlap: 20
vectorstore:
  default_backend: qdrant
  backends:
    qdrant: qdrant://localhost:6334
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.KnowledgeBase.ChunkSize)
	assert.Equal(t, 20, cfg.KnowledgeBase.ChunkOverlap)
	assert.Equal(t, "qdrant", cfg.VectorStore.DefaultBackend)
	assert.Equal(t, "qdrant://localhost:6334", cfg.VectorStore.Backends["qdrant"])
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
	assert.Equal(t, "sk-test", cfg.Embedding.OpenAI.APIKey)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "memory", cfg.Database.Driver)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:      DatabaseConfig{Driver: "postgres"},
			KnowledgeBase: KnowledgeBaseConfig{ChunkSize: 400, ChunkOverlap: 100, TopK: 3},
			VectorStore: VectorStoreConfig{
				DefaultBackend: "chromem",
				Backends:       map[string]string{"chromem": "chromem:///tmp/kb"},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "zero chunk size", mutate: func(c *Config) { c.KnowledgeBase.ChunkSize = 0 }, wantErr: true},
		{name: "overlap equals size", mutate: func(c *Config) { c.KnowledgeBase.ChunkOverlap = 400 }, wantErr: true},
		{name: "negative overlap", mutate: func(c *Config) { c.KnowledgeBase.ChunkOverlap = -1 }, wantErr: true},
		{name: "zero top k", mutate: func(c *Config) { c.KnowledgeBase.TopK = 0 }, wantErr: true},
		{name: "memory driver", mutate: func(c *Config) { c.Database.Driver = "memory" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "sqlite" }, wantErr: true},
		{name: "unknown default backend", mutate: func(c *Config) { c.VectorStore.DefaultBackend = "qdrant" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
