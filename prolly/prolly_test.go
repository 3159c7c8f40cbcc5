package prolly_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/prolly"
	"github.com/dolthub/ustore/segstore"
	"github.com/dolthub/ustore/tree"
)

func buildMap(t *testing.T, ctx context.Context, ns tree.NodeStore, pairs map[string]string) hash.Hash {
	t.Helper()
	var keys []string
	for k := range pairs {
		keys = append(keys, k)
	}
	// Entries must be fed in ascending key order.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	var entries []tree.Entry
	for _, k := range keys {
		entries = append(entries, tree.Entry{Key: tree.BytesKey([]byte(k)), Value: tree.Item(pairs[k])})
	}
	root, err := tree.BuildRoot(ctx, ns, chunk.Map, tree.BytesFlavor, entries)
	require.NoError(t, err)
	return root
}

// Merge(B, B, B) == B — spec §8 property P7.
func TestMergeNoOp(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	b := buildMap(t, ctx, ns, map[string]string{"k1": "v1", "k2": "v2"})
	res, err := prolly.Merge(ctx, ns, chunk.Map, b, b, b, tree.BytesFlavor)
	require.NoError(err)
	require.True(res.Merged())
	require.Equal(b, res.Root)
}

func TestMergeKeyedConflictAborts(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	base := buildMap(t, ctx, ns, map[string]string{"k": "base"})
	l := buildMap(t, ctx, ns, map[string]string{"k": "left"})
	r := buildMap(t, ctx, ns, map[string]string{"k": "right"})

	res, err := prolly.Merge(ctx, ns, chunk.Map, base, l, r, tree.BytesFlavor)
	require.NoError(err)
	assert.False(res.Merged())
	assert.True(res.Root.IsEmpty(), "a conflicted merge returns the null hash")
	require.Len(res.Conflicts, 1)
	assert.Equal("k", string(res.Conflicts[0].Key.Bytes))
}

func TestMergeKeyedIdenticalEditsAgree(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	base := buildMap(t, ctx, ns, map[string]string{"k": "base", "s": "same"})
	l := buildMap(t, ctx, ns, map[string]string{"k": "new", "s": "same"})
	r := buildMap(t, ctx, ns, map[string]string{"k": "new", "s": "same"})

	res, err := prolly.Merge(ctx, ns, chunk.Map, base, l, r, tree.BytesFlavor)
	require.NoError(err)
	require.True(res.Merged(), "both sides made the identical edit: not a conflict")
	require.Equal(l, res.Root)
}

func TestDuallyDiffYieldsBothSides(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	l := buildMap(t, ctx, ns, map[string]string{"a": "1", "b": "2", "c": "3"})
	r := buildMap(t, ctx, ns, map[string]string{"b": "2x", "c": "3", "d": "4"})

	diffs, err := prolly.DuallyDiff(ctx, ns, l, r, tree.BytesFlavor)
	require.NoError(err)
	require.Len(diffs, 3)

	assert.Equal("a", string(diffs[0].Key.Bytes))
	assert.True(diffs[0].LeftSet)
	assert.False(diffs[0].RightSet)

	assert.Equal("b", string(diffs[1].Key.Bytes))
	assert.Equal("2", string(diffs[1].Left))
	assert.Equal("2x", string(diffs[1].Right))

	assert.Equal("d", string(diffs[2].Key.Bytes))
	assert.False(diffs[2].LeftSet)
	assert.True(diffs[2].RightSet)
}

// Equal-hash shortcut: DuallyDiff of identical roots yields nothing,
// regardless of size.
func TestDuallyDiffEqualRoots(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	pairs := map[string]string{}
	for i := 0; i < 500; i++ {
		pairs[fmt.Sprintf("key%04d", i)] = fmt.Sprintf("val%d", i)
	}
	root := buildMap(t, ctx, ns, pairs)

	diffs, err := prolly.DuallyDiff(ctx, ns, root, root, tree.BytesFlavor)
	require.NoError(err)
	require.Empty(diffs)
}

func TestLevenshteinAlignKeepsMatchedRegions(t *testing.T) {
	assert := assert.New(t)

	mk := func(vals ...string) []tree.Entry {
		out := make([]tree.Entry, len(vals))
		for i, v := range vals {
			out[i] = tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item(v)}
		}
		return out
	}

	base := mk("a", "b", "c", "d")
	target := mk("a", "x", "c", "d", "e")

	ops := prolly.LevenshteinAlign(base, target)
	keeps, dels, ins := 0, 0, 0
	for _, op := range ops {
		switch op.Op {
		case prolly.OpKeep:
			keeps++
		case prolly.OpDelete:
			dels++
		case prolly.OpInsert:
			ins++
		}
	}
	assert.Equal(3, keeps, "a, c, d survive")
	assert.Equal(1, dels, "b replaced")
	assert.Equal(2, ins, "x and e inserted")
}
