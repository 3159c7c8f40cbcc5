package cluster_test

import (
	"crypto/sha1"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolthub/ustore/cluster"
	"github.com/dolthub/ustore/hash"
)

func hashOf(s string) hash.Hash {
	sum := sha1.Sum([]byte(s))
	var h hash.Hash
	copy(h[:], sum[:])
	return h
}

// TestPartitionerStability is spec §8 property P9: two partitioners
// built from the same host list agree on every hash's owner.
func TestPartitionerStability(t *testing.T) {
	require := require.New(t)
	hosts := []string{"node-a:4000", "node-b:4000", "node-c:4000", "node-d:4000"}
	p1 := cluster.NewPartitioner(hosts)
	p2 := cluster.NewPartitioner(append([]string(nil), hosts...))

	for i := 0; i < 500; i++ {
		h := hashOf(fmt.Sprintf("key-%d", i))
		require.Equal(p1.Owner(h), p2.Owner(h))
	}
}

// TestPartitionerIsLocal exercises IsLocal/HostFor consistency.
func TestPartitionerIsLocal(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	hosts := []string{"a:1", "b:1", "c:1"}
	p := cluster.NewPartitioner(hosts)
	require.Equal(3, p.NodeCount())

	h := hashOf("some-chunk")
	owner := p.Owner(h)
	require.GreaterOrEqual(owner, 0)
	require.Less(owner, 3)
	assert.True(p.IsLocal(h, owner))
	assert.False(p.IsLocal(h, (owner+1)%3))
	assert.Equal(hosts[owner], p.HostFor(h))
}

// TestPartitionerSingleNodeOwnsEverything covers the degenerate
// single-node cluster: every hash is local.
func TestPartitionerSingleNodeOwnsEverything(t *testing.T) {
	require := require.New(t)
	p := cluster.NewPartitioner([]string{"solo:4000"})
	for i := 0; i < 50; i++ {
		require.Equal(0, p.Owner(hashOf(fmt.Sprintf("x%d", i))))
	}
}
