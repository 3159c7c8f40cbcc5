// Package objects implements the five public object facades of spec
// §4.11: Blob, String, List, Map, Set. Each wraps a root chunk hash plus
// a shared tree.NodeStore; every mutator is pure, returning a new root
// hash rather than modifying the receiver.
package objects

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
	"github.com/dolthub/ustore/tree"
)

// Blob is an index-addressed byte sequence (spec §4.11).
type Blob struct {
	Root  hash.Hash
	Store tree.NodeStore
}

// NewBlob materializes a new Blob from raw bytes and returns the facade
// over its freshly written root.
func NewBlob(ctx context.Context, store tree.NodeStore, data []byte) (Blob, error) {
	entries := bytesToEntries(data)
	root, err := tree.BuildRoot(ctx, store, chunk.Blob, tree.IndexFlavor, entries)
	if err != nil {
		return Blob{}, err
	}
	return Blob{Root: root, Store: store}, nil
}

// OpenBlob wraps an existing root hash as a Blob.
func OpenBlob(store tree.NodeStore, root hash.Hash) Blob {
	return Blob{Root: root, Store: store}
}

func bytesToEntries(data []byte) []tree.Entry {
	out := make([]tree.Entry, len(data))
	for i, b := range data {
		out[i] = tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item{b}}
	}
	return out
}

// Size returns the blob's byte length.
func (b Blob) Size(ctx context.Context) (uint64, error) {
	return tree.NumElements(ctx, b.Store, b.Root, tree.IndexFlavor)
}

// Read returns up to length bytes starting at pos, walking one cursor
// across the covered leaf chunks. A range running past the end is cut at
// the blob's size; a pos beyond the size is InvalidRange.
func (b Blob) Read(ctx context.Context, pos, length uint64) ([]byte, error) {
	size, err := b.Size(ctx)
	if err != nil {
		return nil, err
	}
	if pos > size {
		return nil, status.New(status.InvalidRange, "read(%d,%d) out of range for blob of size %d", pos, length, size)
	}
	if pos+length > size {
		length = size - pos
	}
	vals, err := tree.ReadRange(ctx, b.Store, b.Root, tree.IndexFlavor, pos, length)
	if err != nil {
		return nil, err
	}
	out := make([]byte, length)
	for i, v := range vals {
		if len(v) > 0 {
			out[i] = v[0]
		}
	}
	return out, nil
}

// Splice replaces del bytes at pos with add, returning the new Blob.
// Splice past the end appends; deletion overflow clamps (spec §4.7).
func (b Blob) Splice(ctx context.Context, pos uint64, del int, add []byte) (Blob, error) {
	if del == 0 && len(add) == 0 {
		return b, nil
	}
	newRoot, err := tree.Splice(ctx, b.Store, b.Root, chunk.Blob, tree.IndexFlavor, pos, del, bytesToEntries(add))
	if err != nil {
		return Blob{}, err
	}
	return Blob{Root: newRoot, Store: b.Store}, nil
}

// Insert is Splice(pos, 0, add).
func (b Blob) Insert(ctx context.Context, pos uint64, add []byte) (Blob, error) {
	return b.Splice(ctx, pos, 0, add)
}

// Delete is Splice(pos, n, nil).
func (b Blob) Delete(ctx context.Context, pos uint64, n int) (Blob, error) {
	return b.Splice(ctx, pos, n, nil)
}

// Append is Splice(Size(), 0, add).
func (b Blob) Append(ctx context.Context, add []byte) (Blob, error) {
	size, err := b.Size(ctx)
	if err != nil {
		return Blob{}, err
	}
	return b.Splice(ctx, size, 0, add)
}
