package pgvector

import (
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	assert.Equal(t, "[]", Literal(nil))
	assert.Equal(t, "[1,0.5,-2]", Literal([]float32{1, 0.5, -2}))
	assert.Equal(t, "[1e-07]", Literal([]float32{1e-7}))
}

func TestDSN(t *testing.T) {
	loc, err := vectorstore.ParseLocator("pgvector://app:pw@db:5432/kb?sslmode=disable&collection=kb_x_v1")
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:pw@db:5432/kb?sslmode=disable", DSN(loc))
}
