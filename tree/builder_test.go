package tree_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/segstore"
	"github.com/dolthub/ustore/tree"
)

func TestBuildRootMaterializeRoundTrip(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	var entries []tree.Entry
	for i := 0; i < 5000; i++ {
		entries = append(entries, tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item([]byte(fmt.Sprintf("v%d", i)))})
	}

	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, entries)
	require.NoError(err)

	got, err := tree.Materialize(ctx, ns, root, tree.IndexFlavor)
	require.NoError(err)
	require.Len(got, len(entries))
	for i := range entries {
		assert.Equal(entries[i].Value, got[i].Value)
	}

	n, err := tree.NumElements(ctx, ns, root, tree.IndexFlavor)
	require.NoError(err)
	assert.Equal(uint64(len(entries)), n)
}

func TestBuildRootCollapsesSmallTree(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	entries := []tree.Entry{{Key: tree.IndexKey(0), Value: tree.Item([]byte("only"))}}
	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, entries)
	require.NoError(err)

	n, err := ns.ReadNode(ctx, root, tree.IndexFlavor)
	require.NoError(err)
	require.True(n.IsLeaf(), "a single-chunk tree must collapse to its leaf, not a wrapping Meta node")
}

func TestBuildRootEmpty(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, nil)
	require.NoError(err)

	got, err := tree.Materialize(ctx, ns, root, tree.IndexFlavor)
	require.NoError(err)
	require.Empty(got)
}

func TestSpliceIdentityIsNoOp(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	var entries []tree.Entry
	for i := 0; i < 2000; i++ {
		entries = append(entries, tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item([]byte(fmt.Sprintf("x%d", i)))})
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, entries)
	require.NoError(err)

	// Deleting an element and reinserting the same value at the same
	// position reproduces the identical tree, byte for byte, because
	// chunk boundaries are a pure function of content (P1 in spirit).
	newRoot, err := tree.Splice(ctx, ns, root, chunk.List, tree.IndexFlavor, 500, 1, []tree.Entry{{Value: tree.Item([]byte("x500"))}})
	require.NoError(err)
	assert.Equal(root, newRoot)
}

func TestSpliceAppendPastEnd(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, nil)
	require.NoError(err)

	root, err = tree.Splice(ctx, ns, root, chunk.List, tree.IndexFlavor, 999, 0, []tree.Entry{{Value: tree.Item([]byte("a"))}})
	require.NoError(err)

	got, err := tree.Materialize(ctx, ns, root, tree.IndexFlavor)
	require.NoError(err)
	require.Len(got, 1)
}

func TestBuildRootKeyedFlavorSorted(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	entries := []tree.Entry{
		{Key: tree.BytesKey([]byte("alpha")), Value: tree.Item([]byte("1"))},
		{Key: tree.BytesKey([]byte("beta")), Value: tree.Item([]byte("2"))},
		{Key: tree.BytesKey([]byte("gamma")), Value: tree.Item([]byte("3"))},
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.Map, tree.BytesFlavor, entries)
	require.NoError(err)

	got, err := tree.Materialize(ctx, ns, root, tree.BytesFlavor)
	require.NoError(err)
	require.Len(got, 3)
	assert.Equal("alpha", string(got[0].Key.Bytes))
	assert.Equal("beta", string(got[1].Key.Bytes))
	assert.Equal("gamma", string(got[2].Key.Bytes))
}
