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

func TestSetGetSetRemoveDedup(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	s, err := objects.NewSet(ctx, ns, [][]byte{[]byte("b"), []byte("a"), []byte("b")})
	require.NoError(err)

	members, err := s.Scan(ctx)
	require.NoError(err)
	require.Len(members, 2)
	assert.Equal([]byte("a"), members[0])
	assert.Equal([]byte("b"), members[1])

	present, err := s.Get(ctx, []byte("a"))
	require.NoError(err)
	assert.True(present)

	before := s.Root
	s2, err := s.Set(ctx, []byte("a")) // duplicate insert is a no-op
	require.NoError(err)
	assert.Equal(before, s2.Root)

	s3, err := s.Remove(ctx, []byte("missing")) // absent remove is a no-op
	require.NoError(err)
	assert.Equal(before, s3.Root)

	s4, err := s.Remove(ctx, []byte("a"))
	require.NoError(err)
	present, err = s4.Get(ctx, []byte("a"))
	require.NoError(err)
	assert.False(present)
}

func TestSetMergeAddedOnBothSidesIsNotConflict(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	base, err := objects.NewSet(ctx, ns, [][]byte{[]byte("a")})
	require.NoError(err)

	l, err := base.Set(ctx, []byte("b"))
	require.NoError(err)
	r, err := base.Set(ctx, []byte("b"))
	require.NoError(err)

	result, err := l.Merge(ctx, base, r)
	require.NoError(err)
	require.True(result.Merged())

	merged := objects.OpenSet(ns, result.Root)
	members, err := merged.Scan(ctx)
	require.NoError(err)
	assert.Equal([][]byte{[]byte("a"), []byte("b")}, members)
}
