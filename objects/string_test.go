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

// TestStringRoundTrip checks a String is written and read back whole,
// with no internal splice points (spec §3.2, §4.11).
func TestStringRoundTrip(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	s, err := objects.NewString(ctx, ns, "hello, ustore")
	require.NoError(err)

	data, err := s.Data(ctx)
	require.NoError(err)
	assert.Equal("hello, ustore", data)

	n, err := s.Len(ctx)
	require.NoError(err)
	assert.Equal(len("hello, ustore"), n)
}

// TestStringEmpty checks the empty string round-trips through a single
// chunk rather than erroring.
func TestStringEmpty(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	s, err := objects.NewString(ctx, ns, "")
	require.NoError(err)

	data, err := s.Data(ctx)
	require.NoError(err)
	assert.Equal("", data)

	n, err := s.Len(ctx)
	require.NoError(err)
	assert.Equal(0, n)
}

// TestStringReopen checks OpenString lets a second handle read a root
// hash produced elsewhere, sharing the same node store.
func TestStringReopen(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	ns := tree.NewNodeStore(segstore.NewMemStore())

	s, err := objects.NewString(ctx, ns, "reopen me")
	require.NoError(err)

	reopened := objects.OpenString(ns, s.Root)
	data, err := reopened.Data(ctx)
	require.NoError(err)
	assert.Equal("reopen me", data)
}
