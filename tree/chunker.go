package tree

import (
	"context"

	"github.com/dolthub/ustore/boundary"
	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
)

// chunker incrementally splices items into one level of a prolly tree and
// re-chunks the level using the rolling boundary hasher (spec §4.7). One
// chunker instance exists per level of a single commit: level 0 packs
// leaf Entries, level >= 1 packs MetaChildren produced by the level
// below. Every chunker owns its own boundary.Hasher (spec §9: boundary
// detection state is never shared across sub-builders).
//
// When built over a cursor, the chain implements the splice algorithm:
// each level resumes at the splice point (window priming + chunk-prefix
// copy), the caller skips deleted entries and appends inserted ones, and
// finalize re-hashes original entries until the window is clear of the
// edit and the cursor stands at an original chunk start, at which point
// the remaining suffix is spliced by reference one level up.
type chunker struct {
	ctx    context.Context
	ns     NodeStore
	kind   chunk.Type
	flavor Flavor
	level  int

	hasher *boundary.Hasher

	leafPending []Entry
	metaPending []MetaChild

	emittedCount int
	lastHash     hash.Hash

	parent *chunker

	// Splice state; zero for scratch builds. cur is the one cursor the
	// whole chain shares (each level reads its own frame), delta the net
	// index shift the edit applies to suffix ordered keys, sinceEdit the
	// count of original-content bytes rehashed since the seam.
	cur        *Cursor
	delta      int64
	sinceEdit  int
	suffixDone bool
}

func newChunker(ctx context.Context, ns NodeStore, kind chunk.Type, flavor Flavor, level int) *chunker {
	return &chunker{ctx: ctx, ns: ns, kind: kind, flavor: flavor, level: level, hasher: boundary.New()}
}

// newChunkerAtCursor builds a chunker chain positioned at cur's splice
// point; resume runs immediately, eagerly creating (and resuming) the
// parent for every level the original tree has (spec §4.7 steps 1-2).
func newChunkerAtCursor(ctx context.Context, ns NodeStore, kind chunk.Type, flavor Flavor, level int, cur *Cursor, delta int64) (*chunker, error) {
	ck := newChunker(ctx, ns, kind, flavor, level)
	ck.cur = cur
	ck.delta = delta
	if cur != nil {
		if err := ck.resume(); err != nil {
			return nil, err
		}
	}
	return ck, nil
}

// hashBytesForEntry returns the bytes the rolling hasher folds in for one
// leaf entry: boundaries must depend only on element content, so this is
// exactly the entry's logical key+value bytes, never a length prefix or
// other framing detail (spec §4.3's "boundaries depend only on local
// content" is what makes two objects with the same byte run chunk
// identically).
func hashBytesForEntry(e Entry) []byte {
	if len(e.Key.Bytes) == 0 {
		return e.Value
	}
	return append(append([]byte{}, e.Key.Bytes...), e.Value...)
}

// hashBytesForChild returns the bytes the rolling hasher folds in for one
// meta entry at an internal level: the child hash alone drives boundary
// detection, since two meta entries with the same child hash describe
// identical subtrees.
func hashBytesForChild(c MetaChild) []byte {
	return c.ChildHash[:]
}

func entryHashBytes(n *Node, i int) []byte {
	if n.IsLeaf() {
		return hashBytesForEntry(n.LeafEntries()[i])
	}
	return hashBytesForChild(n.MetaChildren()[i])
}

// resume rebuilds the state this level's builder would have had if the
// tree had been built from scratch up to the splice point (spec §4.7
// step 2): the rolling hasher is primed with up to one window of
// pre-image bytes preceding the current chunk, and the entries of the
// current chunk that precede the splice point are re-appended so the
// reconstructed chunk's prefix matches the original byte for byte.
func (ck *chunker) resume() error {
	if ck.cur.levels() > ck.level+1 && ck.parent == nil {
		if err := ck.createParent(); err != nil {
			return err
		}
	}

	prime := ck.cur.subCursor(ck.level)
	prime.frames[0].idx = 0
	var pre [][]byte
	total := 0
	for total < ck.hasher.WindowSize() {
		if _, err := prime.Retreat(ck.ctx, true); err != nil {
			return err
		}
		if prime.IsBegin() {
			break
		}
		b := entryHashBytes(prime.frames[0].node, prime.frames[0].idx)
		pre = append(pre, b)
		total += len(b)
	}
	for i := len(pre) - 1; i >= 0; i-- {
		for _, b := range pre[i] {
			ck.hasher.HashByte(b)
		}
	}
	ck.hasher.ClearLastBoundary()

	f := ck.cur.frameAt(ck.level)
	n := f.node
	end := f.idx
	if end > n.NumEntries() {
		end = n.NumEntries()
	}
	if n.IsLeaf() {
		prefix, _ := n.Segment().Split(end)
		for i := 0; i < prefix.NumEntries(); i++ {
			if err := ck.appendLeaf(prefix.EntryAt(i), true); err != nil {
				return err
			}
		}
	} else {
		for i := 0; i < end; i++ {
			if err := ck.appendMeta(n.MetaChildren()[i], true); err != nil {
				return err
			}
		}
	}
	return nil
}

// skip advances the cursor past n deleted elements (spec §4.7 step 3).
// Crossing a chunk boundary advances the parent frames too, so each
// deleted element's containing chunks' meta entries are invalidated
// upward simply by never being re-appended.
func (ck *chunker) skip(n int) error {
	for i := 0; i < n; i++ {
		if ck.cur.IsEnd() {
			break
		}
		if _, err := ck.cur.Advance(ck.ctx, true); err != nil {
			return err
		}
	}
	if n > 0 {
		ck.sinceEdit = 0
	}
	return nil
}

// appendLeaf feeds one leaf entry through the rolling hasher and buffers
// it; if a boundary is crossed, the pending run is flushed to a chunk.
// original distinguishes re-hashed pre-existing content (which counts
// toward clearing the edit from the window) from inserted content (which
// resets that count).
func (ck *chunker) appendLeaf(e Entry, original bool) error {
	ck.leafPending = append(ck.leafPending, e)
	hb := hashBytesForEntry(e)
	for _, b := range hb {
		ck.hasher.HashByte(b)
	}
	if original {
		ck.sinceEdit += len(hb)
	} else {
		ck.sinceEdit = 0
	}
	if ck.hasher.CrossedBoundary() {
		return ck.flushLeaf()
	}
	return nil
}

func (ck *chunker) appendMeta(c MetaChild, original bool) error {
	ck.metaPending = append(ck.metaPending, c)
	hb := hashBytesForChild(c)
	for _, b := range hb {
		ck.hasher.HashByte(b)
	}
	if original {
		ck.sinceEdit += len(hb)
	} else {
		ck.sinceEdit = 0
	}
	if ck.hasher.CrossedBoundary() {
		return ck.flushMeta()
	}
	return nil
}

// finalize consumes the original tree's suffix (spec §4.7 step 4): it
// keeps re-hashing entries from the cursor until (a) at least a full
// window of original bytes has passed since the edit, so future
// boundaries are independent of it, and (b) the cursor stands at the
// start of an original chunk with nothing pending. At that point the
// rest of the suffix is spliced by reference: the parent repeats the
// same state machine over the original meta entries, one level up.
func (ck *chunker) finalize() error {
	if ck.cur == nil || ck.suffixDone {
		return nil
	}
	for {
		f := ck.cur.frameAt(ck.level)
		if f.idx >= f.node.NumEntries() {
			for c := ck; c != nil; c = c.parent {
				c.suffixDone = true
			}
			return nil
		}
		if ck.canDefer() && f.idx == 0 && ck.pendingLen() == 0 && ck.sinceEdit >= ck.hasher.WindowSize() {
			ck.suffixDone = true
			return ck.parent.finalize()
		}
		if f.node.IsLeaf() {
			e := f.node.LeafEntries()[f.idx]
			if ck.flavor == IndexFlavor && ck.delta != 0 {
				e.Key = IndexKey(uint64(int64(e.Key.Index) + ck.delta))
			}
			if err := ck.appendLeaf(e, true); err != nil {
				return err
			}
			if _, err := ck.cur.Advance(ck.ctx, true); err != nil {
				return err
			}
		} else {
			mc := f.node.MetaChildren()[f.idx]
			if ck.flavor == IndexFlavor && ck.delta != 0 {
				mc.Key = IndexKey(uint64(int64(mc.Key.Index) + ck.delta))
			}
			if err := ck.appendMeta(mc, true); err != nil {
				return err
			}
			if _, err := ck.cur.AdvanceAtLevel(ck.ctx, ck.level); err != nil {
				return err
			}
		}
	}
}

// canDefer reports whether this level may hand the remaining suffix to
// its parent by reference. Leaf chunks never serialize ordered keys for
// index-addressed kinds, so the leaf level can always defer; an internal
// level can only defer when suffix meta keys need no index shift, since
// a shifted key changes the meta chunk's bytes (and hence its hash).
func (ck *chunker) canDefer() bool {
	if ck.parent == nil || ck.cur.levels() <= ck.level+1 {
		return false
	}
	if ck.level == 0 {
		return true
	}
	return ck.flavor == BytesFlavor || ck.delta == 0
}

func (ck *chunker) pendingLen() int {
	if ck.level == 0 {
		return len(ck.leafPending)
	}
	return len(ck.metaPending)
}

// flushLeaf encodes and emits the current pending run. Called during
// normal append (pending is always non-empty there, since a boundary was
// just crossed by the entry we appended) and from done(), which forces a
// final emit even of an empty run — but only when this level has never
// emitted anything at all, so an empty object still materializes exactly
// one empty leaf chunk (spec §4.7) without a spurious trailing empty
// chunk after a clean boundary.
func (ck *chunker) flushLeaf() error {
	if len(ck.leafPending) == 0 && ck.emittedCount > 0 {
		ck.hasher.ClearLastBoundary()
		return nil
	}
	c := EncodeLeafSegments(ck.kind, NewVarSegment(ck.leafPending))
	var key OrderedKey
	if len(ck.leafPending) > 0 {
		key = ck.leafPending[len(ck.leafPending)-1].Key
	} else if ck.flavor == IndexFlavor {
		key = IndexKey(0)
	} else {
		key = BytesKey(nil)
	}
	if err := ck.emit(c, key, uint64(len(ck.leafPending)), 1); err != nil {
		return err
	}
	ck.leafPending = nil
	ck.hasher.ClearLastBoundary()
	return nil
}

func (ck *chunker) flushMeta() error {
	if len(ck.metaPending) == 0 {
		ck.hasher.ClearLastBoundary()
		return nil
	}
	c := EncodeMetaNode(ck.flavor, ck.metaPending)
	var numElements uint64
	var numLeaves uint32
	for _, m := range ck.metaPending {
		numElements += m.NumElements
		numLeaves += m.NumLeaves
	}
	key := ck.metaPending[len(ck.metaPending)-1].Key
	if err := ck.emit(c, key, numElements, numLeaves); err != nil {
		return err
	}
	ck.metaPending = nil
	ck.hasher.ClearLastBoundary()
	return nil
}

// emit writes c through the chunk store and forwards a MetaChild
// describing it to the parent chunker, creating the parent lazily for
// scratch builds (splice chains create it eagerly in resume). The parent
// may end up unused — see done — if this level turns out to emit only a
// single chunk overall.
func (ck *chunker) emit(c chunk.Chunk, key OrderedKey, numElements uint64, numLeaves uint32) error {
	raw := c.Serialize()
	h, err := ck.ns.WriteChunk(ck.ctx, c, nil)
	if err != nil {
		return err
	}
	ck.emittedCount++
	ck.lastHash = h
	if ck.parent == nil {
		if err := ck.createParent(); err != nil {
			return err
		}
	}
	return ck.parent.appendMeta(MetaChild{
		Key:         key,
		ChildHash:   h,
		NumElements: numElements,
		NumLeaves:   numLeaves,
		NumBytes:    uint32(len(raw)),
	}, false)
}

// createParent builds the next level up, handing it the shared cursor
// when the original tree actually has a frame at that level.
func (ck *chunker) createParent() error {
	var pcur *Cursor
	if ck.cur != nil && ck.cur.levels() > ck.level+1 {
		pcur = ck.cur
	}
	p, err := newChunkerAtCursor(ck.ctx, ck.ns, chunk.Meta, ck.flavor, ck.level+1, pcur, ck.delta)
	if err != nil {
		return err
	}
	ck.parent = p
	return nil
}

// done flushes any pending run unconditionally and returns the new root
// hash. If this level produced exactly one chunk across the whole commit
// (the common case for small objects) and its parent holds nothing but
// that chunk's meta entry, that chunk *is* the root and the speculative
// parent is simply discarded — spec §4.7 step 6: "a sub-builder that
// produced a single meta-entry at the root becomes the new root;
// otherwise its parent commits recursively."
func (ck *chunker) done() (hash.Hash, error) {
	if ck.level == 0 {
		if err := ck.flushLeaf(); err != nil {
			return hash.Hash{}, err
		}
	} else {
		if err := ck.flushMeta(); err != nil {
			return hash.Hash{}, err
		}
	}
	if ck.parent == nil {
		return ck.lastHash, nil
	}
	if ck.emittedCount == 1 && ck.ancestorsHoldOnlyThisChunk() {
		return ck.lastHash, nil
	}
	return ck.parent.done()
}

// ancestorsHoldOnlyThisChunk reports whether the parent chain carries
// nothing beyond the single meta entry describing this level's one
// emitted chunk. Splice chains resume ancestors eagerly, so a
// grandparent can hold by-reference prefix entries even when the direct
// parent holds exactly one — collapsing to this chunk would drop them.
func (ck *chunker) ancestorsHoldOnlyThisChunk() bool {
	p := ck.parent
	if p.emittedCount != 0 || p.pendingLen() != 1 {
		return false
	}
	for a := p.parent; a != nil; a = a.parent {
		if a.emittedCount != 0 || a.pendingLen() != 0 {
			return false
		}
	}
	return true
}
