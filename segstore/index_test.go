// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/hash"
)

func TestChunkIndexBasic(t *testing.T) {
	assert := assert.New(t)
	ix := newChunkIndex()

	h1 := hash.Of([]byte("one"))
	h2 := hash.Of([]byte("two"))
	ix.put(h1, 100)
	ix.put(h2, 200)

	off, ok := ix.get(h1)
	assert.True(ok)
	assert.Equal(uint64(100), off)

	_, ok = ix.get(hash.Of([]byte("absent")))
	assert.False(ok)

	// Re-putting an existing hash updates in place without growing.
	ix.put(h1, 300)
	assert.Equal(2, ix.len())
	off, _ = ix.get(h1)
	assert.Equal(uint64(300), off)
}

// Hashes that collide in their first machine word must still resolve,
// and enough of them in one bucket triggers the xxhash re-key.
func TestChunkIndexRemixOnFirstWordCollisions(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ix := newChunkIndex()

	var colliding []hash.Hash
	for i := 0; i < maxBucketLen+2; i++ {
		var h hash.Hash
		// Identical first word, distinct tails.
		binary.LittleEndian.PutUint64(h[0:8], 0xDEADBEEF)
		binary.LittleEndian.PutUint64(h[8:16], uint64(i)+1)
		colliding = append(colliding, h)
		ix.put(h, uint64(i)*10)
	}
	require.True(ix.mixed, "bucket overflow should trigger the xxhash re-key")

	for i, h := range colliding {
		off, ok := ix.get(h)
		require.True(ok)
		assert.Equal(uint64(i)*10, off)
	}
	assert.Equal(len(colliding), ix.len())
}
