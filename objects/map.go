package objects

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/prolly"
	"github.com/dolthub/ustore/tree"
)

// Map is a key-addressed collection of key/value pairs (spec §4.11).
// Entries are always kept in byte-lexicographic key order; inserting an
// existing key replaces its value.
type Map struct {
	Root  hash.Hash
	Store tree.NodeStore
}

// NewMap builds a Map from an arbitrary set of key/value pairs, sorting
// and deduplicating keys (last write for a duplicate key wins) before the
// first BuildRoot call.
func NewMap(ctx context.Context, store tree.NodeStore, pairs [][2][]byte) (Map, error) {
	entries := sortedUniqueMapEntries(pairs)
	root, err := tree.BuildRoot(ctx, store, chunk.Map, tree.BytesFlavor, entries)
	if err != nil {
		return Map{}, err
	}
	return Map{Root: root, Store: store}, nil
}

// OpenMap wraps an existing root hash as a Map.
func OpenMap(store tree.NodeStore, root hash.Hash) Map {
	return Map{Root: root, Store: store}
}

func sortedUniqueMapEntries(pairs [][2][]byte) []tree.Entry {
	byKey := make(map[string][]byte, len(pairs))
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		k := string(p[0])
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = p[1]
	}
	entries := make([]tree.Entry, len(order))
	for i, k := range order {
		entries[i] = tree.Entry{Key: tree.BytesKey([]byte(k)), Value: tree.Item(byKey[k])}
	}
	insertionSortEntries(entries)
	return entries
}

func insertionSortEntries(entries []tree.Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Key.Less(entries[j-1].Key); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// Get returns the value for key and whether it was present, by a single
// root-to-leaf descent.
func (m Map) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	_, found, v, err := tree.KeyIndex(ctx, m.Store, m.Root, tree.BytesFlavor, tree.BytesKey(key))
	if err != nil {
		return nil, false, err
	}
	return v, found, nil
}

// Set inserts or replaces key's value, returning the new Map.
func (m Map) Set(ctx context.Context, key, value []byte) (Map, error) {
	idx, found, _, err := tree.KeyIndex(ctx, m.Store, m.Root, tree.BytesFlavor, tree.BytesKey(key))
	if err != nil {
		return Map{}, err
	}
	del := 0
	if found {
		del = 1
	}
	newRoot, err := tree.Splice(ctx, m.Store, m.Root, chunk.Map, tree.BytesFlavor, idx, del,
		[]tree.Entry{{Key: tree.BytesKey(key), Value: tree.Item(value)}})
	if err != nil {
		return Map{}, err
	}
	return Map{Root: newRoot, Store: m.Store}, nil
}

// Remove deletes key, returning the new Map. Removing an absent key is a
// no-op that returns m unchanged.
func (m Map) Remove(ctx context.Context, key []byte) (Map, error) {
	idx, found, _, err := tree.KeyIndex(ctx, m.Store, m.Root, tree.BytesFlavor, tree.BytesKey(key))
	if err != nil {
		return Map{}, err
	}
	if !found {
		return m, nil
	}
	newRoot, err := tree.Splice(ctx, m.Store, m.Root, chunk.Map, tree.BytesFlavor, idx, 1, nil)
	if err != nil {
		return Map{}, err
	}
	return Map{Root: newRoot, Store: m.Store}, nil
}

// Scan returns every key/value pair in key order.
func (m Map) Scan(ctx context.Context) ([][2][]byte, error) {
	entries, err := tree.Materialize(ctx, m.Store, m.Root, tree.BytesFlavor)
	if err != nil {
		return nil, err
	}
	out := make([][2][]byte, len(entries))
	for i, e := range entries {
		out[i] = [2][]byte{e.Key.Bytes, e.Value}
	}
	return out, nil
}

// Diff returns the maximal runs of m's entries (in key order) that differ
// from other's.
func (m Map) Diff(ctx context.Context, other Map) ([]prolly.IndexRange, error) {
	return prolly.Diff(ctx, m.Store, m.Root, other.Root, tree.BytesFlavor)
}

// Intersect returns the maximal runs of m's entries that agree with
// other's.
func (m Map) Intersect(ctx context.Context, other Map) ([]prolly.IndexRange, error) {
	return prolly.Intersect(ctx, m.Store, m.Root, other.Root, tree.BytesFlavor)
}

// DuallyDiff jointly walks m and other in key order, yielding every key
// at which they disagree along with both sides' values.
func (m Map) DuallyDiff(ctx context.Context, other Map) ([]prolly.DiffEntry, error) {
	return prolly.DuallyDiff(ctx, m.Store, m.Root, other.Root, tree.BytesFlavor)
}

// Merge three-way merges m and other against a common base (spec §4.8):
// a key keeps base's value unless only one side changed it, and is a
// conflict if both sides changed it to different values.
func (m Map) Merge(ctx context.Context, base, other Map) (prolly.MergeResult, error) {
	return prolly.Merge(ctx, m.Store, chunk.Map, base.Root, m.Root, other.Root, tree.BytesFlavor)
}
