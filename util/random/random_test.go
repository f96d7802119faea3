package random

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSeq(t *testing.T) {
	a := Seq(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, Seq(32))
	for _, r := range a {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestStorageKey(t *testing.T) {
	_, err := uuid.Parse(StorageKey())
	assert.NoError(t, err)
}
