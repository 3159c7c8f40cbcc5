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

func TestCursorAdvanceWalksEveryElementInOrder(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	const n = 3000
	var entries []tree.Entry
	for i := 0; i < n; i++ {
		entries = append(entries, tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item([]byte(fmt.Sprintf("e%d", i)))})
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, entries)
	require.NoError(err)

	cur, err := tree.NewCursorAtIndex(ctx, ns, root, tree.IndexFlavor, 0)
	require.NoError(err)

	count := 0
	for {
		e := cur.Current()
		assert.Equal(entries[count].Value, e.Value)
		count++
		_, err := cur.Advance(ctx, true)
		require.NoError(err)
		if cur.IsEnd() {
			break
		}
	}
	assert.Equal(n, count)
}

func TestCursorRetreatFromEnd(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	const n = 2500
	var entries []tree.Entry
	for i := 0; i < n; i++ {
		entries = append(entries, tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item([]byte(fmt.Sprintf("e%d", i)))})
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.List, tree.IndexFlavor, entries)
	require.NoError(err)

	cur, err := tree.NewCursorAtIndex(ctx, ns, root, tree.IndexFlavor, uint64(n-1))
	require.NoError(err)

	count := 0
	for {
		count++
		crossed, err := cur.Retreat(ctx, true)
		require.NoError(err)
		if cur.IsBegin() && !crossed {
			break
		}
		if cur.IsBegin() {
			break
		}
	}
	assert.True(count > 0)
}

func TestCursorAtKeyLandsOnMatch(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	entries := []tree.Entry{
		{Key: tree.BytesKey([]byte("a")), Value: tree.Item([]byte("1"))},
		{Key: tree.BytesKey([]byte("m")), Value: tree.Item([]byte("2"))},
		{Key: tree.BytesKey([]byte("z")), Value: tree.Item([]byte("3"))},
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.Map, tree.BytesFlavor, entries)
	require.NoError(err)

	cur, err := tree.NewCursorAtKey(ctx, ns, root, tree.BytesFlavor, tree.BytesKey([]byte("m")))
	require.NoError(err)
	assert.Equal("m", string(cur.Key().Bytes))
}
