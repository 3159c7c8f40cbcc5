package tree

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/d"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
)

// NodeStore is the chunk loader every cursor, builder, and object facade
// is handed (spec §9's design note: "shared chunk loaders between
// objects" — here a bounded LRU cache, threaded explicitly rather than
// relying on a process-global store). It wraps a chunk.Store with a
// bounded decode cache so repeated descents into the same popular chunks
// (root nodes, hot internal nodes) skip both the store round-trip and the
// Node decode.
type NodeStore struct {
	store chunk.Store
	cache *lru.Cache[hash.Hash, *Node]
}

// DefaultCacheSize is the number of decoded nodes a NodeStore keeps
// resident.
const DefaultCacheSize = 4096

// NewNodeStore wraps store with a bounded node cache.
func NewNodeStore(store chunk.Store) NodeStore {
	c, err := lru.New[hash.Hash, *Node](DefaultCacheSize)
	// Only errors for a non-positive size, which DefaultCacheSize never
	// is.
	d.PanicIfError(err)
	return NodeStore{store: store, cache: c}
}

// ChunkStore exposes the underlying chunk.Store, e.g. for Info().
func (ns NodeStore) ChunkStore() chunk.Store { return ns.store }

// ReadNode fetches and decodes the node at h, consulting the cache first.
func (ns NodeStore) ReadNode(ctx context.Context, h hash.Hash, flavor Flavor) (*Node, error) {
	if n, ok := ns.cache.Get(h); ok {
		return n, nil
	}
	c, err := ns.store.Get(ctx, h)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, status.New(status.ChunkNotExists, "no chunk for hash %s", h)
	}
	n, err := DecodeNode(c, flavor)
	if err != nil {
		return nil, err
	}
	ns.cache.Add(h, n)
	return n, nil
}

// WriteChunk persists c and returns its hash, populating the decode cache
// with the Node view the caller already has in hand (avoids re-decoding a
// chunk this same commit just produced).
func (ns NodeStore) WriteChunk(ctx context.Context, c chunk.Chunk, decoded *Node) (hash.Hash, error) {
	h := c.Hash()
	if _, err := ns.store.Put(ctx, c); err != nil {
		return hash.Hash{}, err
	}
	if decoded != nil {
		ns.cache.Add(h, decoded)
	}
	return h, nil
}
