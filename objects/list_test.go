package objects_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/objects"
	"github.com/dolthub/ustore/prolly"
	"github.com/dolthub/ustore/segstore"
	"github.com/dolthub/ustore/tree"
)

// TestListDiffDetectsReplacement exercises spec §8 scenario S4's shape:
// a list edited at two disjoint spots reports two tight diff ranges
// (content-aligned, not raw positional comparison), and diff/intersect
// partition [0, len) exactly (property P8).
func TestListDiffDetectsReplacement(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	base := make([][]byte, 20)
	for i := range base {
		base[i] = []byte(fmt.Sprintf("a%d", i))
	}
	b, err := objects.NewList(ctx, ns, base)
	require.NoError(err)

	l1, err := b.Splice(ctx, 10, 2, [][]byte{[]byte("x0"), []byte("x1"), []byte("x2")})
	require.NoError(err)
	l, err := l1.Splice(ctx, 18, 2, [][]byte{[]byte("y0")})
	require.NoError(err)

	ln, err := l.Len(ctx)
	require.NoError(err)
	assert.Equal(uint64(20), ln)

	diff, err := l.Diff(ctx, b)
	require.NoError(err)
	require.GreaterOrEqual(len(diff), 2)
	assert.Equal(prolly.IndexRange{Start: 10, Len: 3}, diff[0])
	assert.Equal(prolly.IndexRange{Start: 18, Len: 1}, diff[1])

	intersect, err := l.Intersect(ctx, b)
	require.NoError(err)

	// P8: diff and intersect partition [0, len(l)) exactly and disjointly.
	covered := make([]bool, ln)
	for _, r := range diff {
		for i := r.Start; i < r.Start+r.Len; i++ {
			require.False(covered[i], "index %d covered twice", i)
			covered[i] = true
		}
	}
	for _, r := range intersect {
		for i := r.Start; i < r.Start+r.Len; i++ {
			require.False(covered[i], "index %d covered twice", i)
			covered[i] = true
		}
	}
	for i, c := range covered {
		assert.True(c, "index %d not covered by diff or intersect", i)
	}
}

// TestListSpliceIdentity is spec §8 property P4.
func TestListSpliceIdentity(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	l, err := objects.NewList(ctx, ns, [][]byte{[]byte("a"), []byte("b"), []byte("c")})
	require.NoError(err)

	l2, err := l.Splice(ctx, 1, 0, nil)
	require.NoError(err)
	assert.Equal(l.Root, l2.Root)
}

// TestListMergeNonConflicting exercises MergeList's Levenshtein-aligned
// three-way merge when both sides edit disjoint regions.
func TestListMergeNonConflicting(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	base, err := objects.NewList(ctx, ns, [][]byte{
		[]byte("a"), []byte("b"), []byte("c"), []byte("d"), []byte("e"),
	})
	require.NoError(err)

	l, err := base.Splice(ctx, 0, 1, [][]byte{[]byte("A")})
	require.NoError(err)
	r, err := base.Splice(ctx, 4, 1, [][]byte{[]byte("E")})
	require.NoError(err)

	result, err := l.Merge(ctx, base, r)
	require.NoError(err)
	require.True(result.Merged(), "expected a clean merge, got conflicts: %+v", result.Conflicts)

	merged := objects.OpenList(ns, result.Root)
	got, err := merged.Scan(ctx)
	require.NoError(err)
	want := [][]byte{[]byte("A"), []byte("b"), []byte("c"), []byte("d"), []byte("E")}
	require.Len(got, len(want))
	for i := range want {
		assert.Equal(string(want[i]), string(got[i]))
	}
}
