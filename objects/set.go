package objects

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/prolly"
	"github.com/dolthub/ustore/tree"
)

// Set is a key-addressed collection of distinct byte strings (spec
// §4.11). It shares Map's key-ordering and splice machinery, but each
// entry carries no value: the key is the whole element.
type Set struct {
	Root  hash.Hash
	Store tree.NodeStore
}

// NewSet builds a Set from an arbitrary list of members, sorting and
// deduplicating before the first BuildRoot call.
func NewSet(ctx context.Context, store tree.NodeStore, members [][]byte) (Set, error) {
	entries := sortedUniqueSetEntries(members)
	root, err := tree.BuildRoot(ctx, store, chunk.Set, tree.BytesFlavor, entries)
	if err != nil {
		return Set{}, err
	}
	return Set{Root: root, Store: store}, nil
}

// OpenSet wraps an existing root hash as a Set.
func OpenSet(store tree.NodeStore, root hash.Hash) Set {
	return Set{Root: root, Store: store}
}

func sortedUniqueSetEntries(members [][]byte) []tree.Entry {
	seen := make(map[string]bool, len(members))
	var order []string
	for _, m := range members {
		k := string(m)
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
	}
	entries := make([]tree.Entry, len(order))
	for i, k := range order {
		entries[i] = tree.Entry{Key: tree.BytesKey([]byte(k))}
	}
	insertionSortEntries(entries)
	return entries
}

// Get reports whether member is present, by a single root-to-leaf
// descent.
func (s Set) Get(ctx context.Context, member []byte) (bool, error) {
	_, found, _, err := tree.KeyIndex(ctx, s.Store, s.Root, tree.BytesFlavor, tree.BytesKey(member))
	return found, err
}

// Set inserts member, returning the new Set. Inserting a member already
// present is a no-op that returns s unchanged.
func (s Set) Set(ctx context.Context, member []byte) (Set, error) {
	idx, found, _, err := tree.KeyIndex(ctx, s.Store, s.Root, tree.BytesFlavor, tree.BytesKey(member))
	if err != nil {
		return Set{}, err
	}
	if found {
		return s, nil
	}
	newRoot, err := tree.Splice(ctx, s.Store, s.Root, chunk.Set, tree.BytesFlavor, idx, 0,
		[]tree.Entry{{Key: tree.BytesKey(member)}})
	if err != nil {
		return Set{}, err
	}
	return Set{Root: newRoot, Store: s.Store}, nil
}

// Remove deletes member, returning the new Set. Removing an absent
// member is a no-op that returns s unchanged.
func (s Set) Remove(ctx context.Context, member []byte) (Set, error) {
	idx, found, _, err := tree.KeyIndex(ctx, s.Store, s.Root, tree.BytesFlavor, tree.BytesKey(member))
	if err != nil {
		return Set{}, err
	}
	if !found {
		return s, nil
	}
	newRoot, err := tree.Splice(ctx, s.Store, s.Root, chunk.Set, tree.BytesFlavor, idx, 1, nil)
	if err != nil {
		return Set{}, err
	}
	return Set{Root: newRoot, Store: s.Store}, nil
}

// Scan returns every member in order.
func (s Set) Scan(ctx context.Context) ([][]byte, error) {
	entries, err := tree.Materialize(ctx, s.Store, s.Root, tree.BytesFlavor)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(entries))
	for i, e := range entries {
		out[i] = e.Key.Bytes
	}
	return out, nil
}

// Diff returns the maximal runs of s's members that differ from other's.
func (s Set) Diff(ctx context.Context, other Set) ([]prolly.IndexRange, error) {
	return prolly.Diff(ctx, s.Store, s.Root, other.Root, tree.BytesFlavor)
}

// Intersect returns the maximal runs of s's members that agree with
// other's.
func (s Set) Intersect(ctx context.Context, other Set) ([]prolly.IndexRange, error) {
	return prolly.Intersect(ctx, s.Store, s.Root, other.Root, tree.BytesFlavor)
}

// DuallyDiff jointly walks s and other in key order, yielding every
// member at which presence disagrees.
func (s Set) DuallyDiff(ctx context.Context, other Set) ([]prolly.DiffEntry, error) {
	return prolly.DuallyDiff(ctx, s.Store, s.Root, other.Root, tree.BytesFlavor)
}

// Merge three-way merges s and other against a common base (spec §4.8).
// A member added or removed on only one side carries through; added or
// removed identically on both sides is not a conflict; added/removed
// differently is.
func (s Set) Merge(ctx context.Context, base, other Set) (prolly.MergeResult, error) {
	return prolly.Merge(ctx, s.Store, chunk.Set, base.Root, s.Root, other.Root, tree.BytesFlavor)
}
