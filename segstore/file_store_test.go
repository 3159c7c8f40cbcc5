// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package segstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/chunk"
)

func tempStorePath(t *testing.T) string {
	dir := t.TempDir()
	return filepath.Join(dir, "ustore_test.dat")
}

func TestFileStorePutGetExists(t *testing.T) {
	ctx := context.Background()
	assert := assert.New(t)
	require := require.New(t)

	path := tempStorePath(t)
	s, err := Open(path, 4, 64*1024)
	require.NoError(err)
	defer s.Close()

	c := chunk.New(chunk.Blob, []byte("the quick brown fox"))
	ok, err := s.Put(ctx, c)
	require.NoError(err)
	assert.True(ok)

	ok, err = s.Put(ctx, c)
	require.NoError(err)
	assert.False(ok, "duplicate put must be indistinguishable")

	got, err := s.Get(ctx, c.Hash())
	require.NoError(err)
	assert.Equal(c.Data(), got.Data())

	exists, err := s.Exists(ctx, c.Hash())
	require.NoError(err)
	assert.True(exists)

	missing, err := s.Get(ctx, chunk.New(chunk.Blob, []byte("nope")).Hash())
	require.NoError(err)
	assert.True(missing.IsEmpty())
}

func TestFileStoreRecovery(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)

	path := tempStorePath(t)
	s, err := Open(path, 4, 64*1024)
	require.NoError(err)

	var hashes []chunk.Chunk
	for i := 0; i < 50; i++ {
		c := chunk.New(chunk.String, []byte{byte(i), byte(i + 1)})
		_, err := s.Put(ctx, c)
		require.NoError(err)
		hashes = append(hashes, c)
	}
	require.NoError(s.Sync())
	require.NoError(s.Close())

	reopened, err := Open(path, 4, 64*1024)
	require.NoError(err)
	defer reopened.Close()

	for _, c := range hashes {
		got, err := reopened.Get(ctx, c.Hash())
		require.NoError(err)
		assert.Equal(c.Data(), got.Data())
	}
}

func TestFileStoreRollsOverSegments(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)

	path := tempStorePath(t)
	// small segments force multiple rollovers for a modest chunk count
	s, err := Open(path, 8, 4096)
	require.NoError(err)
	defer s.Close()

	for i := 0; i < 200; i++ {
		data := make([]byte, 17)
		copy(data, []byte{byte(i), byte(i >> 8)})
		c := chunk.New(chunk.Blob, data)
		_, err := s.Put(ctx, c)
		require.NoError(err)
	}

	info, err := s.Info(ctx)
	require.NoError(err)
	require.Equal(8, info.SegmentCount)
}

func TestFileStoreFreeListExhausted(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)

	path := tempStorePath(t)
	s, err := Open(path, 1, 4096)
	require.NoError(err)
	defer s.Close()

	var lastErr error
	for i := 0; i < 1000 && lastErr == nil; i++ {
		c := chunk.New(chunk.Blob, []byte{byte(i), byte(i >> 8), byte(i >> 16), byte(i >> 24)})
		_, lastErr = s.Put(ctx, c)
	}
	require.Error(lastErr)
}
