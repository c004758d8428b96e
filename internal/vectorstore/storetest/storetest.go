// Package storetest holds behaviour checks shared by every vectorstore backend.
package storetest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Records returns n records on orthogonal-ish axes so each is its own best
// match.
func Records(n, dim int) []vectorstore.Record {
	docID := uuid.New()
	out := make([]vectorstore.Record, n)
	for i := range out {
		v := make([]float32, dim)
		v[i%dim] = 1
		v[(i+1)%dim] = 0.1
		out[i] = vectorstore.Record{
			ID:         uuid.NewString(),
			Seq:        i,
			DocumentID: docID,
			Title:      "doc.txt",
			ChunkIndex: i,
			Text:       fmt.Sprintf("chunk %d", i),
			Vector:     v,
		}
	}
	return out
}

// Connect opens store on the backend named by the env variable, in a
// collection unique to this test. The test is skipped when env is unset.
func Connect(t *testing.T, store vectorstore.Store, env string) vectorstore.Store {
	t.Helper()
	base := os.Getenv(env)
	if base == "" {
		t.Skipf("%s not set", env)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	collection := "kb_it_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	loc, err := vectorstore.ParseLocator(base + sep + "collection=" + collection)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, store.Connect(ctx, loc))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Run exercises index, search, count and drop against a freshly connected store.
func Run(t *testing.T, store vectorstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("empty search", func(t *testing.T) {
		matches, err := store.Search(ctx, []float32{1, 0, 0, 0}, 3)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	records := Records(4, 4)
	require.NoError(t, store.Index(ctx, records))

	t.Run("count", func(t *testing.T) {
		n, err := store.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 4, n)
	})

	t.Run("nearest first", func(t *testing.T) {
		for _, rec := range records {
			matches, err := store.Search(ctx, rec.Vector, 2)
			require.NoError(t, err)
			require.Len(t, matches, 2)
			assert.Equal(t, rec.Text, matches[0].Text)
			assert.Equal(t, rec.Seq, matches[0].Seq)
			assert.Equal(t, rec.DocumentID, matches[0].DocumentID)
			assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
		}
	})

	t.Run("k larger than corpus", func(t *testing.T) {
		matches, err := store.Search(ctx, []float32{1, 1, 1, 1}, 10)
		require.NoError(t, err)
		assert.Len(t, matches, 4)
	})

	t.Run("drop", func(t *testing.T) {
		require.NoError(t, store.Drop(ctx))
	})
}
