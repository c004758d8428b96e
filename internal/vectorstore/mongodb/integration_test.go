//go:build integration

package mongodb

import (
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/vectorstore/storetest"
)

// Run with: MONGODB_TEST_LOCATOR=mongodb://localhost:27017/vectors go test -tags=integration ./internal/vectorstore/mongodb/...
func TestStore_Behaviour(t *testing.T) {
	storetest.Run(t, storetest.Connect(t, NewStore(), "MONGODB_TEST_LOCATOR"))
}
