package objectdb_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/headtable"
	"github.com/dolthub/ustore/objectdb"
	"github.com/dolthub/ustore/objects"
	"github.com/dolthub/ustore/segstore"
)

func newTestDB(t *testing.T) *objectdb.DB {
	t.Helper()
	heads, err := headtable.Open(filepath.Join(t.TempDir(), "heads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { heads.Close() })
	return objectdb.New(segstore.NewMemStore(), heads)
}

// TestBranchAndMergeScenario is spec §8 scenario S5.
func TestBranchAndMergeScenario(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	db := newTestDB(t)

	key := []byte("k")

	// Put "value1" on key "k" branch "master" -> v1 (initial create: no
	// prior head for "master" yet, spec §4.9 step 1's kNull-prior case).
	value1, err := objects.NewString(ctx, db.Nodes, "value1")
	require.NoError(err)
	v1, err := db.Put(ctx, key, objectdb.BranchRef("master"), chunk.String, value1.Root)
	require.NoError(err)
	require.False(v1.IsEmpty())

	// Put "value2" from v1 -> v2 (still on master).
	value2, err := objects.NewString(ctx, db.Nodes, "value2")
	require.NoError(err)
	v2, err := db.Put(ctx, key, objectdb.VersionRef(v1), chunk.String, value2.Root)
	require.NoError(err)
	require.NoError(db.Heads.SetHead(key, "master", v2))
	require.NoError(db.Heads.AdvanceLatest(key, v1, v2))

	// Branch "master@v2" as "b2".
	require.NoError(db.Branch(ctx, key, objectdb.VersionRef(v2), "b2"))

	// Put "value3" on "b2" -> v3.
	value3, err := objects.NewString(ctx, db.Nodes, "value3")
	require.NoError(err)
	v3, err := db.Put(ctx, key, objectdb.BranchRef("b2"), chunk.String, value3.Root)
	require.NoError(err)

	// Merge "master" into "b2" with value "value4" -> v4.
	value4, err := objects.NewString(ctx, db.Nodes, "value4")
	require.NoError(err)
	v4, err := db.Merge(ctx, key, objectdb.BranchRef("b2"), objectdb.BranchRef("master"), chunk.String, value4.Root)
	require.NoError(err)

	got, err := db.Get(ctx, key, objectdb.VersionRef(v4))
	require.NoError(err)
	str := objects.OpenString(db.Nodes, got.Root)
	data, err := str.Data(ctx)
	require.NoError(err)
	assert.Equal("value4", data)

	isHead, err := db.IsBranchHead(ctx, key, "b2", v4)
	require.NoError(err)
	assert.True(isHead)

	isLatest, err := db.IsLatestVersion(ctx, key, v3)
	require.NoError(err)
	assert.False(isLatest)

	// The merge gives master's head (v2) a descendant too, so it is no
	// longer a latest-version either (spec §3.6).
	isMasterLatest, err := db.IsLatestVersion(ctx, key, v2)
	require.NoError(err)
	assert.False(isMasterLatest)

	isV4Latest, err := db.IsLatestVersion(ctx, key, v4)
	require.NoError(err)
	assert.True(isV4Latest)

	branches, err := db.List(ctx, key)
	require.NoError(err)
	assert.Contains(branches, "master")
	assert.Contains(branches, "b2")
}

// TestBranchExistsRejectsDuplicateName exercises the BranchExists error
// of spec §7/§4.9.
func TestBranchExistsRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	db := newTestDB(t)
	key := []byte("k")

	value, err := objects.NewString(ctx, db.Nodes, "v")
	require.NoError(err)
	v1, err := db.Put(ctx, key, objectdb.BranchRef("master"), chunk.String, value.Root)
	require.NoError(err)

	require.NoError(db.Branch(ctx, key, objectdb.VersionRef(v1), "copy"))
	err = db.Branch(ctx, key, objectdb.VersionRef(v1), "copy")
	require.Error(err)
}

// TestPutIdempotentLinearHistory is spec §8 property P6.
func TestPutIdempotentLinearHistory(t *testing.T) {
	ctx := context.Background()
	require := require.New(t)
	assert := assert.New(t)
	db := newTestDB(t)
	key := []byte("k")

	value, err := objects.NewString(ctx, db.Nodes, "same")
	require.NoError(err)

	v1, err := db.Put(ctx, key, objectdb.BranchRef("master"), chunk.String, value.Root)
	require.NoError(err)
	v2, err := db.Put(ctx, key, objectdb.BranchRef("master"), chunk.String, value.Root)
	require.NoError(err)

	c1, err := db.Get(ctx, key, objectdb.VersionRef(v1))
	require.NoError(err)
	c2, err := db.Get(ctx, key, objectdb.VersionRef(v2))
	require.NoError(err)
	assert.Equal(c1.Root, c2.Root)
	assert.Equal(v1, c2.Prev1)
}
