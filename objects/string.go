package objects

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
	"github.com/dolthub/ustore/tree"
	"github.com/dolthub/ustore/tree/message"
)

// String is an immutable run of bytes stored as a single String chunk
// (spec §3.2, §4.11): unlike Blob/List/Map/Set it is not a prolly tree —
// a String has no internal splice points and is written and read back
// whole, matching message.go's length-prefixed payload layout.
type String struct {
	Root  hash.Hash
	Store tree.NodeStore
}

// NewString writes data as a single String chunk.
func NewString(ctx context.Context, store tree.NodeStore, data string) (String, error) {
	c := chunk.New(chunk.String, message.EncodeStringPayload([]byte(data)))
	h, err := store.WriteChunk(ctx, c, nil)
	if err != nil {
		return String{}, err
	}
	return String{Root: h, Store: store}, nil
}

// OpenString wraps an existing root hash as a String.
func OpenString(store tree.NodeStore, root hash.Hash) String {
	return String{Root: root, Store: store}
}

// Data reads back the full string contents.
func (s String) Data(ctx context.Context) (string, error) {
	c, err := s.Store.ChunkStore().Get(ctx, s.Root)
	if err != nil {
		return "", err
	}
	if c.IsEmpty() {
		return "", status.New(status.ChunkNotExists, "no chunk for hash %s", s.Root)
	}
	data, err := message.DecodeStringPayload(c.Data())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Len returns the string's byte length.
func (s String) Len(ctx context.Context) (int, error) {
	data, err := s.Data(ctx)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
