package status

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIs(t *testing.T) {
	assert := assert.New(t)

	err := New(ChunkNotExists, "hash %s", "abc")
	assert.True(errors.Is(err, New(ChunkNotExists, "")))
	assert.False(errors.Is(err, New(KeyNotExists, "")))
	assert.Equal(ChunkNotExists, Of(err))
}

func TestOfNil(t *testing.T) {
	assert.Equal(t, OK, Of(nil))
}

func TestOfForeign(t *testing.T) {
	assert.Equal(t, InvalidCommandArgument, Of(errors.New("boom")))
}
