package tree

import (
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
)

// BuildRoot constructs a brand new prolly tree from a complete, correctly
// ordered sequence of leaf entries and returns its root hash: entries are
// fed one at a time through a chain of per-level chunkers (spec §4.7
// steps 1 and 5-6), each cutting chunks via its own rolling boundary
// hasher. Because chunk boundaries are a pure function of local element
// content (spec §4.3), two sequences sharing a long common run of entries
// always produce byte-identical chunks for that run — structural sharing
// across versions falls out of that (spec §3.4).
func BuildRoot(ctx context.Context, ns NodeStore, kind chunk.Type, flavor Flavor, entries []Entry) (hash.Hash, error) {
	ck := newChunker(ctx, ns, kind, flavor, 0)
	for _, e := range entries {
		if err := ck.appendLeaf(e, false); err != nil {
			return hash.Hash{}, err
		}
	}
	return ck.done()
}

// Materialize reads every leaf entry of the tree rooted at rootHash, in
// order, by walking leaf chunks left to right.
func Materialize(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor) ([]Entry, error) {
	if rootHash.IsEmpty() {
		return nil, nil
	}
	root, err := ns.ReadNode(ctx, rootHash, flavor)
	if err != nil {
		return nil, err
	}
	var out []Entry
	if err := collectEntries(ctx, ns, root, flavor, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectEntries(ctx context.Context, ns NodeStore, n *Node, flavor Flavor, out *[]Entry) error {
	if n.IsLeaf() {
		*out = append(*out, n.LeafEntries()...)
		return nil
	}
	for _, c := range n.MetaChildren() {
		child, err := ns.ReadNode(ctx, c.ChildHash, flavor)
		if err != nil {
			return err
		}
		if err := collectEntries(ctx, ns, child, flavor, out); err != nil {
			return err
		}
	}
	return nil
}

// NumElements returns the total element count of the tree rooted at
// rootHash without materializing it, by reading only the root chunk.
func NumElements(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor) (uint64, error) {
	if rootHash.IsEmpty() {
		return 0, nil
	}
	root, err := ns.ReadNode(ctx, rootHash, flavor)
	if err != nil {
		return 0, err
	}
	return root.NumElements(), nil
}

// Splice applies a splice(pos, del, ins) edit to the tree rooted at
// rootHash and returns the new root hash, re-chunking only the affected
// spine (spec §4.7): a chunker chain resumes at a cursor opened at pos,
// the cursor skips del entries, ins entries are appended, and the
// unmodified suffix is spliced back by reference as soon as the rolling
// window is clear of the edit. Deletion overflow is clamped to the
// remainder; a splice past the end is an append.
func Splice(ctx context.Context, ns NodeStore, rootHash hash.Hash, kind chunk.Type, flavor Flavor, pos uint64, del int, ins []Entry) (hash.Hash, error) {
	if del < 0 {
		del = 0
	}
	entries := make([]Entry, len(ins))
	copy(entries, ins)

	if rootHash.IsEmpty() {
		reindex(flavor, entries)
		return BuildRoot(ctx, ns, kind, flavor, entries)
	}

	total, err := NumElements(ctx, ns, rootHash, flavor)
	if err != nil {
		return hash.Hash{}, err
	}
	if pos > total {
		pos = total
	}
	if uint64(del) > total-pos {
		del = int(total - pos)
	}
	if flavor == IndexFlavor {
		for i := range entries {
			entries[i].Key = IndexKey(pos + uint64(i))
		}
	}

	cur, err := NewCursorAtIndex(ctx, ns, rootHash, flavor, pos)
	if err != nil {
		return hash.Hash{}, err
	}
	delta := int64(len(entries)) - int64(del)
	ck, err := newChunkerAtCursor(ctx, ns, kind, flavor, 0, cur, delta)
	if err != nil {
		return hash.Hash{}, err
	}
	if err := ck.skip(del); err != nil {
		return hash.Hash{}, err
	}
	for _, e := range entries {
		if err := ck.appendLeaf(e, false); err != nil {
			return hash.Hash{}, err
		}
	}
	if err := ck.finalize(); err != nil {
		return hash.Hash{}, err
	}
	return ck.done()
}

// reindex refreshes index-flavored keys so entry i's key is always i
// (spec §3.3: index is positional, not stored data). Byte-flavored keys
// (map/set) are carried in the entry itself and never rewritten here.
func reindex(flavor Flavor, entries []Entry) {
	if flavor != IndexFlavor {
		return
	}
	for i := range entries {
		entries[i].Key = IndexKey(uint64(i))
	}
}
