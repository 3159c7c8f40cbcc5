package tree

import (
	"context"

	"github.com/dolthub/ustore/d"
	"github.com/dolthub/ustore/hash"
)

// cursorFrame is one level of a Cursor's position stack (spec §9's design
// note: "model as a vector of frames, one per tree level, owned by the
// cursor; parent pointers are just frame[level+1]").
type cursorFrame struct {
	node *Node
	idx  int // -1 = Begin sentinel; node.NumEntries() = End sentinel
}

// Cursor is a positional iterator into a prolly tree: a stack of frames,
// frames[0] the leaf, frames[len-1] the root (spec §4.6).
type Cursor struct {
	ns     NodeStore
	flavor Flavor
	frames []cursorFrame
}

// Leaf returns the node the cursor currently points into.
func (c *Cursor) Leaf() *Node { return c.frames[0].node }

// Idx returns the cursor's current index within its leaf.
func (c *Cursor) Idx() int { return c.frames[0].idx }

// IsEnd reports whether the cursor sits at the leaf's End sentinel.
func (c *Cursor) IsEnd() bool {
	f := c.frames[0]
	return f.idx >= f.node.NumEntries()
}

// IsBegin reports whether the cursor sits at the leaf's Begin sentinel.
func (c *Cursor) IsBegin() bool {
	return c.frames[0].idx < 0
}

// Valid reports whether the cursor currently addresses a real entry (not
// a Begin/End sentinel).
func (c *Cursor) Valid() bool {
	return !c.IsBegin() && !c.IsEnd()
}

// Key returns the ordered key of the entry the cursor addresses. Only
// valid when Valid() is true.
func (c *Cursor) Key() OrderedKey {
	f := c.frames[0]
	return f.node.Key(f.idx)
}

// Current returns the leaf entry the cursor addresses.
func (c *Cursor) Current() Entry {
	f := c.frames[0]
	d.Chk(f.node.Leaf, "Current requires a leaf frame")
	return f.node.LeafEntries()[f.idx]
}

// levels returns the height of the frame stack.
func (c *Cursor) levels() int { return len(c.frames) }

// frameAt exposes the frame at a given level to the splice engine, which
// walks internal levels directly.
func (c *Cursor) frameAt(level int) *cursorFrame { return &c.frames[level] }

// subCursor returns an independent cursor whose frame stack starts at
// level: its "leaf" is this cursor's node at that level. Frames are
// copied, so moving the sub-cursor never disturbs the original; the
// decoded nodes themselves are immutable and shared.
func (c *Cursor) subCursor(level int) *Cursor {
	frames := make([]cursorFrame, len(c.frames)-level)
	copy(frames, c.frames[level:])
	return &Cursor{ns: c.ns, flavor: c.flavor, frames: frames}
}

// NewCursorAtIndex descends from rootHash to the elemIdx-th element,
// loading one Node per level via ChildHashByIndex (spec §4.6). An
// elemIdx at or past the tree's element count lands the cursor at the
// leaf's End sentinel.
func NewCursorAtIndex(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor, elemIdx uint64) (*Cursor, error) {
	root, err := ns.ReadNode(ctx, rootHash, flavor)
	if err != nil {
		return nil, err
	}
	var frames []cursorFrame
	node, base := root, uint64(0)
	for {
		if node.IsLeaf() {
			idx := node.NumEntries()
			if elemIdx-base < uint64(node.NumEntries()) {
				idx = int(elemIdx - base)
			}
			frames = append(frames, cursorFrame{node: node, idx: idx})
			break
		}
		childHash, entryIdx, childBase, err := node.ChildHashByIndex(elemIdx - base)
		if err != nil {
			return nil, err
		}
		frames = append(frames, cursorFrame{node: node, idx: entryIdx})
		base += childBase
		child, err := ns.ReadNode(ctx, childHash, flavor)
		if err != nil {
			return nil, err
		}
		node = child
	}
	reverseFrames(frames)
	return &Cursor{ns: ns, flavor: flavor, frames: frames}, nil
}

// NewCursorAtKey descends via ChildHashByKey; at the leaf it lands on the
// smallest index whose key is >= key, or the End sentinel if none
// qualifies (spec §4.6).
func NewCursorAtKey(ctx context.Context, ns NodeStore, rootHash hash.Hash, flavor Flavor, key OrderedKey) (*Cursor, error) {
	root, err := ns.ReadNode(ctx, rootHash, flavor)
	if err != nil {
		return nil, err
	}
	var frames []cursorFrame
	node := root
	for {
		if node.IsLeaf() {
			idx := 0
			entries := node.LeafEntries()
			for idx < len(entries) && entries[idx].Key.Less(key) {
				idx++
			}
			frames = append(frames, cursorFrame{node: node, idx: idx})
			break
		}
		childHash, local, err := node.ChildHashByKey(key)
		if err != nil {
			return nil, err
		}
		frames = append(frames, cursorFrame{node: node, idx: local})
		child, err := ns.ReadNode(ctx, childHash, flavor)
		if err != nil {
			return nil, err
		}
		node = child
	}
	reverseFrames(frames)
	return &Cursor{ns: ns, flavor: flavor, frames: frames}, nil
}

func reverseFrames(f []cursorFrame) {
	for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
		f[i], f[j] = f[j], f[i]
	}
}

// Advance steps to the next entry. Within a leaf it just bumps the
// index; at the leaf's last entry it recursively advances the parent
// frame and reloads a fresh leaf at position 0 when crossBoundary is
// true, reporting crossed=true, or moves into the End sentinel when
// crossBoundary is false (spec §4.6). At the end of the whole tree the
// cursor lands on End regardless.
func (c *Cursor) Advance(ctx context.Context, crossBoundary bool) (crossed bool, err error) {
	f := &c.frames[0]
	if f.idx+1 < f.node.NumEntries() {
		f.idx++
		return false, nil
	}
	if !crossBoundary {
		f.idx = f.node.NumEntries()
		return false, nil
	}
	ok, err := c.advanceParent(ctx, 1, 0)
	if err != nil {
		return false, err
	}
	if !ok {
		f.idx = f.node.NumEntries()
		return false, nil
	}
	return true, nil
}

// Retreat is Advance's mirror image.
func (c *Cursor) Retreat(ctx context.Context, crossBoundary bool) (crossed bool, err error) {
	f := &c.frames[0]
	if f.idx-1 >= 0 {
		f.idx--
		return false, nil
	}
	if !crossBoundary {
		f.idx = -1
		return false, nil
	}
	ok, err := c.retreatParent(ctx, 1, 0)
	if err != nil {
		return false, err
	}
	if !ok {
		f.idx = -1
		return false, nil
	}
	return true, nil
}

// AdvanceAtLevel steps the frame at the given level to its next entry,
// recursing upward at node boundaries. Frames below the level are left
// untouched; the splice engine uses this to walk internal levels without
// re-reading leaves it has already spliced past by reference. Returns
// false when the level is exhausted (frame left at its End sentinel).
func (c *Cursor) AdvanceAtLevel(ctx context.Context, level int) (bool, error) {
	f := &c.frames[level]
	if f.idx+1 < f.node.NumEntries() {
		f.idx++
		return true, nil
	}
	ok, err := c.advanceParent(ctx, level+1, level)
	if err != nil {
		return false, err
	}
	if !ok {
		f.idx = f.node.NumEntries()
		return false, nil
	}
	return true, nil
}

// advanceParent advances frames[level] by one slot, recursing to higher
// levels as needed, then reloads every frame from level-1 down to floor,
// landing each on its first entry. Returns false if the very top frame
// has no further sibling (tree exhausted).
func (c *Cursor) advanceParent(ctx context.Context, level, floor int) (bool, error) {
	if level >= len(c.frames) {
		return false, nil
	}
	f := &c.frames[level]
	if f.idx+1 < f.node.NumEntries() {
		f.idx++
	} else {
		ok, err := c.advanceParent(ctx, level+1, level)
		if err != nil || !ok {
			return false, err
		}
	}
	return c.reloadBelow(ctx, level, true, floor)
}

func (c *Cursor) retreatParent(ctx context.Context, level, floor int) (bool, error) {
	if level >= len(c.frames) {
		return false, nil
	}
	f := &c.frames[level]
	if f.idx > 0 {
		f.idx--
	} else {
		ok, err := c.retreatParent(ctx, level+1, level)
		if err != nil || !ok {
			return false, err
		}
	}
	return c.reloadBelow(ctx, level, false, floor)
}

// reloadBelow reloads frames[level-1 .. floor] to reflect a change to
// frames[level].idx: each lower frame is re-descended from its parent's
// newly selected child, landing on the first entry (forward) or last
// entry (backward).
func (c *Cursor) reloadBelow(ctx context.Context, level int, forward bool, floor int) (bool, error) {
	for l := level; l > floor; l-- {
		parent := c.frames[l]
		children := parent.node.MetaChildren()
		childHash := children[parent.idx].ChildHash
		node, err := c.ns.ReadNode(ctx, childHash, c.flavor)
		if err != nil {
			return false, err
		}
		idx := 0
		if !forward {
			idx = node.NumEntries() - 1
		}
		c.frames[l-1] = cursorFrame{node: node, idx: idx}
	}
	return true, nil
}
