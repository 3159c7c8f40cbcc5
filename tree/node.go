package tree

import (
	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/d"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/tree/message"
)

// Entry is one leaf-level logical element: an ordered key plus its raw
// value bytes (spec §3.2). For Set, Value is always empty — the key is
// the whole element.
type Entry struct {
	Key   OrderedKey
	Value Item
}

// MetaChild is one internal-node entry (spec §3.2's meta_entry): a
// pointer to a child subtree plus the aggregate counts a comparator or
// builder needs without descending into it.
type MetaChild struct {
	Key         OrderedKey
	ChildHash   hash.Hash
	NumElements uint64
	NumLeaves   uint32
	NumBytes    uint32
}

// Node is a decoded view over a single chunk: either a leaf (Blob,
// String, List, Map, or Set) or an internal Meta node (spec §4.5).
type Node struct {
	Chunk  chunk.Chunk
	Kind   chunk.Type
	Leaf   bool
	Flavor Flavor

	leafEntries  []Entry
	metaChildren []MetaChild
}

// IsLeaf reports whether n is a leaf node.
func (n *Node) IsLeaf() bool { return n.Leaf }

// NumEntries returns the number of entries stored directly in this node
// (leaf items, or child pointers for a Meta node).
func (n *Node) NumEntries() int {
	if n.Leaf {
		return len(n.leafEntries)
	}
	return len(n.metaChildren)
}

// NumElements returns the number of elements in the subtree rooted at n
// (spec §3.4: equal to NumEntries on a leaf).
func (n *Node) NumElements() uint64 {
	if n.Leaf {
		return uint64(len(n.leafEntries))
	}
	var total uint64
	for _, c := range n.metaChildren {
		total += c.NumElements
	}
	return total
}

// Key returns the ordered key of the i-th entry.
func (n *Node) Key(i int) OrderedKey {
	if n.Leaf {
		return n.leafEntries[i].Key
	}
	return n.metaChildren[i].Key
}

// EntryData returns the i-th leaf entry's raw value bytes.
func (n *Node) EntryData(i int) []byte {
	d.Chk(n.Leaf, "EntryData is only valid on a leaf node")
	return n.leafEntries[i].Value
}

// EntryLen returns the byte length of the i-th leaf entry's value.
func (n *Node) EntryLen(i int) int {
	return len(n.EntryData(i))
}

// LeafEntries exposes the full decoded entry slice of a leaf node.
func (n *Node) LeafEntries() []Entry {
	d.Chk(n.Leaf, "LeafEntries is only valid on a leaf node")
	return n.leafEntries
}

// MetaChildren exposes the full decoded child slice of a Meta node.
func (n *Node) MetaChildren() []MetaChild {
	d.Chk(!n.Leaf, "MetaChildren is only valid on a Meta node")
	return n.metaChildren
}

// ChildHashByIndex returns the hash of the child rooted at the elemIdx-th
// element, the entry index of that child within this node, and the index
// of the first element under that child (spec §4.5). An elemIdx at or
// past the subtree's element count resolves to the last child.
func (n *Node) ChildHashByIndex(elemIdx uint64) (hash.Hash, int, uint64, error) {
	d.Chk(!n.Leaf, "ChildHashByIndex is only valid on a Meta node")
	var base uint64
	for i, c := range n.metaChildren {
		if elemIdx < base+c.NumElements {
			return c.ChildHash, i, base, nil
		}
		base += c.NumElements
	}
	if len(n.metaChildren) > 0 {
		i := len(n.metaChildren) - 1
		last := n.metaChildren[i]
		return last.ChildHash, i, base - last.NumElements, nil
	}
	return hash.Hash{}, 0, 0, errOutOfRange
}

// ChildHashByKey returns the hash of the child whose ordered-key maximum
// is the smallest one >= key (spec §4.5).
func (n *Node) ChildHashByKey(key OrderedKey) (hash.Hash, int, error) {
	d.Chk(!n.Leaf, "ChildHashByKey is only valid on a Meta node")
	for i, c := range n.metaChildren {
		if !c.Key.Less(key) {
			return c.ChildHash, i, nil
		}
	}
	if len(n.metaChildren) > 0 {
		last := n.metaChildren[len(n.metaChildren)-1]
		return last.ChildHash, len(n.metaChildren) - 1, nil
	}
	return hash.Hash{}, -1, errOutOfRange
}

// DecodeNode parses a chunk into a Node, interpreting its payload
// strictly according to the chunk's own type tag (spec §3.1's "mismatched
// tag => kInvalidChunk" invariant is enforced by chunk.Parse already
// having validated the tag; here we validate the tag is a recognized
// tree node kind).
func DecodeNode(c chunk.Chunk, flavor Flavor) (*Node, error) {
	n := &Node{Chunk: c, Kind: c.Type()}
	switch c.Type() {
	case chunk.Meta:
		entries, err := message.DecodeMeta(c.Data(), flavor == IndexFlavor)
		if err != nil {
			return nil, err
		}
		children := make([]MetaChild, len(entries))
		for i, e := range entries {
			key := BytesKey(e.KeyBytes)
			if e.KeyIsIndex {
				key = IndexKey(e.KeyIndex)
			}
			children[i] = MetaChild{
				Key:         key,
				ChildHash:   e.ChildHash,
				NumElements: e.NumElements,
				NumLeaves:   e.NumLeaves,
				NumBytes:    e.NumBytes,
			}
		}
		n.metaChildren = children
	case chunk.Blob:
		n.Leaf = true
		n.Flavor = IndexFlavor
		data := message.DecodeBlob(c.Data())
		n.leafEntries = make([]Entry, len(data))
		for i, b := range data {
			n.leafEntries[i] = Entry{Key: IndexKey(uint64(i)), Value: Item{b}}
		}
	case chunk.List:
		n.Leaf = true
		n.Flavor = IndexFlavor
		vals, err := message.DecodeList(c.Data())
		if err != nil {
			return nil, err
		}
		n.leafEntries = make([]Entry, len(vals))
		for i, v := range vals {
			n.leafEntries[i] = Entry{Key: IndexKey(uint64(i)), Value: Item(v)}
		}
	case chunk.Map:
		n.Leaf = true
		n.Flavor = BytesFlavor
		pairs, err := message.DecodeMap(c.Data())
		if err != nil {
			return nil, err
		}
		n.leafEntries = make([]Entry, len(pairs))
		for i, p := range pairs {
			n.leafEntries[i] = Entry{Key: BytesKey(p[0]), Value: Item(p[1])}
		}
	case chunk.Set:
		n.Leaf = true
		n.Flavor = BytesFlavor
		keys, err := message.DecodeSet(c.Data())
		if err != nil {
			return nil, err
		}
		n.leafEntries = make([]Entry, len(keys))
		for i, k := range keys {
			n.leafEntries[i] = Entry{Key: BytesKey(k)}
		}
	default:
		return nil, errInvalidChunk
	}
	return n, nil
}

// EncodeLeaf serializes a run of same-kind leaf entries into a chunk.
func EncodeLeaf(kind chunk.Type, entries []Entry) chunk.Chunk {
	switch kind {
	case chunk.Blob:
		data := make([]byte, len(entries))
		for i, e := range entries {
			if len(e.Value) > 0 {
				data[i] = e.Value[0]
			}
		}
		return chunk.New(chunk.Blob, message.EncodeBlob(data))
	case chunk.List:
		vals := make([][]byte, len(entries))
		for i, e := range entries {
			vals[i] = e.Value
		}
		return chunk.New(chunk.List, message.EncodeList(vals))
	case chunk.Map:
		pairs := make([][2][]byte, len(entries))
		for i, e := range entries {
			pairs[i] = [2][]byte{e.Key.Bytes, e.Value}
		}
		return chunk.New(chunk.Map, message.EncodeMap(pairs))
	case chunk.Set:
		keys := make([][]byte, len(entries))
		for i, e := range entries {
			keys[i] = e.Key.Bytes
		}
		return chunk.New(chunk.Set, message.EncodeSet(keys))
	default:
		panic("EncodeLeaf: unsupported kind " + kind.String())
	}
}

// EncodeMetaNode serializes a run of meta children into a Meta chunk.
func EncodeMetaNode(flavor Flavor, children []MetaChild) chunk.Chunk {
	entries := make([]message.MetaEntry, len(children))
	for i, c := range children {
		e := message.MetaEntry{
			NumBytes:    c.NumBytes,
			NumLeaves:   c.NumLeaves,
			NumElements: c.NumElements,
			ChildHash:   c.ChildHash,
		}
		if flavor == IndexFlavor {
			e.KeyIsIndex = true
			e.KeyIndex = c.Key.Index
		} else {
			e.KeyBytes = c.Key.Bytes
		}
		entries[i] = e
	}
	return chunk.New(chunk.Meta, message.EncodeMeta(entries))
}
