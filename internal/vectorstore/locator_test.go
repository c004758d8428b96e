package vectorstore

import (
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		scheme     string
		collection string
		wantErr    bool
	}{
		{name: "chromem relative", raw: "chromem://./data/kb?collection=kb_1", scheme: "chromem", collection: "kb_1"},
		{name: "sqlite absolute", raw: "sqlite:///var/lib/vectors.db", scheme: "sqlite"},
		{name: "qdrant with key", raw: "qdrant://secret@localhost:6334?collection=abc", scheme: "qdrant", collection: "abc"},
		{name: "scheme is lowercased", raw: "PGVECTOR://u:p@db:5432/x", scheme: "pgvector"},
		{name: "no scheme", raw: "localhost:6334", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "scheme only", raw: "qdrant://", wantErr: true},
		{name: "bad collection", raw: "qdrant://h?collection=Bad-Name", wantErr: true},
		{name: "collection too long", raw: "qdrant://h?collection=a123456789012345678901234567890123456789012345678901234567890123456789", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := ParseLocator(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedBackend)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, loc.Scheme)
			assert.Equal(t, tt.collection, loc.Collection)
		})
	}
}

func TestLocator_WithCollection(t *testing.T) {
	base, err := ParseLocator("chromem://./uploads/vectorstore/chromem")
	require.NoError(t, err)

	loc := base.WithCollection("kb_abc_v2")
	assert.Equal(t, "kb_abc_v2", loc.Collection)
	assert.Equal(t, "chromem://./uploads/vectorstore/chromem?collection=kb_abc_v2", loc.String())
	assert.Equal(t, "./uploads/vectorstore/chromem", loc.FilePath())

	reparsed, err := ParseLocator(loc.String())
	require.NoError(t, err)
	assert.Equal(t, "kb_abc_v2", reparsed.Collection)

	// Replacing keeps other parameters and drops the old collection.
	withTLS, err := ParseLocator("qdrant://h:6334?tls=true&collection=old")
	require.NoError(t, err)
	next := withTLS.WithCollection("new")
	assert.Equal(t, "true", next.Param("tls"))
	assert.NotContains(t, next.String(), "old")
}

func TestLocator_Redacted(t *testing.T) {
	tests := []struct {
		raw      string
		contains string
		hidden   string
	}{
		{raw: "pgvector://app:hunter2@db:5432/kb?collection=c", contains: "app:xxxxx@db", hidden: "hunter2"},
		{raw: "qdrant://apikey123@q:6334?collection=c", contains: "xxxxx@q", hidden: "apikey123"},
		{raw: "qdrant://q:6334?api_key=topsecret&collection=c", contains: "api_key=xxxxx", hidden: "topsecret"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, err := ParseLocator(tt.raw)
			require.NoError(t, err)
			red := loc.Redacted()
			assert.Contains(t, red, tt.contains)
			assert.NotContains(t, red, tt.hidden)
		})
	}
}
