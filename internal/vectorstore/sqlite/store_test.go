package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore_Behaviour(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "vectors.db")
	loc, err := vectorstore.ParseLocator("sqlite://" + path + "?collection=kb_test_v1")
	require.NoError(t, err)

	store := NewStore()
	require.NoError(t, store.Connect(context.Background(), loc))
	defer store.Close()

	require.NoError(t, store.HealthCheck(context.Background()))
	storetest.Run(t, store)
}

func TestStore_ConnectRequiresPath(t *testing.T) {
	loc, err := vectorstore.ParseLocator("sqlite://?collection=x")
	require.NoError(t, err)
	require.Error(t, NewStore().Connect(context.Background(), loc))
}
