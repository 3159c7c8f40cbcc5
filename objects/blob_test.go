package objects_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/objects"
	"github.com/dolthub/ustore/segstore"
	"github.com/dolthub/ustore/tree"
)

// TestBlobRoundTrip is spec §8 scenario S1: a blob built from a known
// ASCII string exposes the right size and byte ranges.
func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	data := []byte("The quick brown fox jumps over the lazy dog")
	require.Len(data, 43)

	b, err := objects.NewBlob(ctx, ns, data)
	require.NoError(err)

	size, err := b.Size(ctx)
	require.NoError(err)
	assert.Equal(uint64(43), size)

	got, err := b.Read(ctx, 0, 43)
	require.NoError(err)
	assert.Equal(data, got)

	quick, err := b.Read(ctx, 4, 5)
	require.NoError(err)
	assert.Equal([]byte("quick"), quick)
}

// TestBlobSplicePreservesUnchangedSuffix is spec §8 scenario S2.
func TestBlobSplicePreservesUnchangedSuffix(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	b0, err := objects.NewBlob(ctx, ns, []byte("abcdefghijklmn"))
	require.NoError(err)

	b1, err := b0.Splice(ctx, 5, 3, []byte("mn"))
	require.NoError(err)

	got, err := b1.Read(ctx, 0, 14)
	require.NoError(err)
	assert.Equal([]byte("abcdemnijklmn"), got)

	b2, err := b1.Splice(ctx, 0, 0, nil)
	require.NoError(err)
	assert.Equal(b1.Root, b2.Root)
}

// TestBlobDeleteInsertInverse is spec §8 property P5.
func TestBlobDeleteInsertInverse(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	data := []byte("abcdefghijklmnopqrstuvwxyz")
	b0, err := objects.NewBlob(ctx, ns, data)
	require.NoError(err)

	removed, err := b0.Read(ctx, 5, 4)
	require.NoError(err)

	b1, err := b0.Delete(ctx, 5, 4)
	require.NoError(err)

	b2, err := b1.Insert(ctx, 5, removed)
	require.NoError(err)

	assert.Equal(b0.Root, b2.Root)
}

// TestBlobDeletionOverflowClamps is spec §4.7's deletion-overflow edge
// case: deleting more than remains clamps instead of erroring.
func TestBlobDeletionOverflowClamps(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	b0, err := objects.NewBlob(ctx, ns, []byte("abcdef"))
	require.NoError(err)

	b1, err := b0.Delete(ctx, 4, 100)
	require.NoError(err)

	size, err := b1.Size(ctx)
	require.NoError(err)
	assert.Equal(uint64(4), size)

	got, err := b1.Read(ctx, 0, 4)
	require.NoError(err)
	assert.Equal([]byte("abcd"), got)
}

// TestEmptyBlobMaterializesSingleLeaf is spec §4.7's empty-object edge
// case: an empty blob still has a non-null root.
func TestEmptyBlobMaterializesSingleLeaf(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	b, err := objects.NewBlob(ctx, ns, nil)
	require.NoError(err)
	assert.False(b.Root.IsEmpty())

	size, err := b.Size(ctx)
	require.NoError(err)
	assert.Equal(uint64(0), size)
}
