package objects

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/prolly"
	"github.com/dolthub/ustore/status"
	"github.com/dolthub/ustore/tree"
)

// List is an index-addressed sequence of arbitrary values (spec §4.11).
type List struct {
	Root  hash.Hash
	Store tree.NodeStore
}

// NewList builds a List from an ordered slice of values.
func NewList(ctx context.Context, store tree.NodeStore, values [][]byte) (List, error) {
	entries := make([]tree.Entry, len(values))
	for i, v := range values {
		entries[i] = tree.Entry{Key: tree.IndexKey(uint64(i)), Value: tree.Item(v)}
	}
	root, err := tree.BuildRoot(ctx, store, chunk.List, tree.IndexFlavor, entries)
	if err != nil {
		return List{}, err
	}
	return List{Root: root, Store: store}, nil
}

// OpenList wraps an existing root hash as a List.
func OpenList(store tree.NodeStore, root hash.Hash) List {
	return List{Root: root, Store: store}
}

// Len returns the number of elements.
func (l List) Len(ctx context.Context) (uint64, error) {
	return tree.NumElements(ctx, l.Store, l.Root, tree.IndexFlavor)
}

// Get returns the value at pos via a single root-to-leaf descent.
func (l List) Get(ctx context.Context, pos uint64) ([]byte, error) {
	n, err := l.Len(ctx)
	if err != nil {
		return nil, err
	}
	if pos >= n {
		return nil, status.New(status.InvalidRange, "index %d out of range for list of length %d", pos, n)
	}
	e, err := tree.EntryAt(ctx, l.Store, l.Root, tree.IndexFlavor, pos)
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Splice replaces del elements at pos with ins, returning the new List
// (spec §4.7: deletion overflow clamps; splice past the end appends).
func (l List) Splice(ctx context.Context, pos uint64, del int, ins [][]byte) (List, error) {
	if del == 0 && len(ins) == 0 {
		return l, nil
	}
	entries := make([]tree.Entry, len(ins))
	for i, v := range ins {
		entries[i] = tree.Entry{Value: tree.Item(v)}
	}
	newRoot, err := tree.Splice(ctx, l.Store, l.Root, chunk.List, tree.IndexFlavor, pos, del, entries)
	if err != nil {
		return List{}, err
	}
	return List{Root: newRoot, Store: l.Store}, nil
}

// Insert is Splice(pos, 0, ins).
func (l List) Insert(ctx context.Context, pos uint64, ins [][]byte) (List, error) {
	return l.Splice(ctx, pos, 0, ins)
}

// Delete is Splice(pos, n, nil).
func (l List) Delete(ctx context.Context, pos uint64, n int) (List, error) {
	return l.Splice(ctx, pos, n, nil)
}

// Append is Splice(Len(), 0, ins).
func (l List) Append(ctx context.Context, ins [][]byte) (List, error) {
	n, err := l.Len(ctx)
	if err != nil {
		return List{}, err
	}
	return l.Splice(ctx, n, 0, ins)
}

// Scan returns every element in order.
func (l List) Scan(ctx context.Context) ([][]byte, error) {
	entries, err := tree.Materialize(ctx, l.Store, l.Root, tree.IndexFlavor)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Value
	}
	return out, nil
}

// Diff returns the index ranges where l's elements differ from other's,
// tracking content across insertions/deletions that shift position (spec
// §4.8, S4).
func (l List) Diff(ctx context.Context, other List) ([]prolly.IndexRange, error) {
	return prolly.Diff(ctx, l.Store, l.Root, other.Root, tree.IndexFlavor)
}

// Intersect returns the index ranges where l and other agree.
func (l List) Intersect(ctx context.Context, other List) ([]prolly.IndexRange, error) {
	return prolly.Intersect(ctx, l.Store, l.Root, other.Root, tree.IndexFlavor)
}

// DuallyDiff jointly walks l and other position by position, yielding
// every index at which the two sides disagree along with both values
// (an index past either side's length yields that side as absent).
func (l List) DuallyDiff(ctx context.Context, other List) ([]prolly.DiffEntry, error) {
	return prolly.DuallyDiff(ctx, l.Store, l.Root, other.Root, tree.IndexFlavor)
}

// Merge three-way merges l and other against a common base.
func (l List) Merge(ctx context.Context, base, other List) (prolly.MergeResult, error) {
	return prolly.Merge(ctx, l.Store, chunk.List, base.Root, l.Root, other.Root, tree.IndexFlavor)
}
