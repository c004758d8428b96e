package qdrant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPointID(t *testing.T) {
	id := uuid.NewString()
	assert.Equal(t, id, pointID(id))

	derived := pointID("chunk-7")
	_, err := uuid.Parse(derived)
	assert.NoError(t, err)
	assert.Equal(t, derived, pointID("chunk-7"))
	assert.NotEqual(t, derived, pointID("chunk-8"))
}
