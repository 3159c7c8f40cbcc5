package tree

import (
	"context"

	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
)

// KeyIndex locates key in the tree rooted at rootHash by a single
// root-to-leaf descent: it returns the element index at which an entry
// with that key resides or would be inserted, whether such an entry
// exists, and its value when it does. Used by the key-addressed facades
// (map, set) to turn a key into the splice position spec §4.7 operates
// on without materializing the tree.
func KeyIndex(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor, key OrderedKey) (uint64, bool, Item, error) {
	if rootHash.IsEmpty() {
		return 0, false, nil, nil
	}
	node, err := ns.ReadNode(ctx, rootHash, flavor)
	if err != nil {
		return 0, false, nil, err
	}
	var base uint64
	for !node.IsLeaf() {
		children := node.MetaChildren()
		i := 0
		for i < len(children)-1 && children[i].Key.Less(key) {
			i++
		}
		for j := 0; j < i; j++ {
			base += children[j].NumElements
		}
		node, err = ns.ReadNode(ctx, children[i].ChildHash, flavor)
		if err != nil {
			return 0, false, nil, err
		}
	}
	entries := node.LeafEntries()
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].Key.Less(key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(entries) && entries[lo].Key.Equal(key) {
		return base + uint64(lo), true, entries[lo].Value, nil
	}
	return base + uint64(lo), false, nil, nil
}

// EntryAt returns the leaf entry at element index i via cursor descent.
func EntryAt(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor, i uint64) (Entry, error) {
	cur, err := NewCursorAtIndex(ctx, ns, rootHash, flavor, i)
	if err != nil {
		return Entry{}, err
	}
	if !cur.Valid() {
		return Entry{}, status.New(status.InvalidRange, "element index %d out of range", i)
	}
	return cur.Current(), nil
}

// ReadRange collects the values of n consecutive elements starting at
// element index pos, advancing a single cursor across chunk boundaries.
func ReadRange(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor, pos, n uint64) ([]Item, error) {
	if n == 0 {
		return nil, nil
	}
	cur, err := NewCursorAtIndex(ctx, ns, rootHash, flavor, pos)
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, n)
	for uint64(len(out)) < n {
		if !cur.Valid() {
			return nil, status.New(status.InvalidRange, "range [%d,%d) out of bounds", pos, pos+n)
		}
		out = append(out, cur.Current().Value)
		if _, err := cur.Advance(ctx, true); err != nil {
			return nil, err
		}
	}
	return out, nil
}
