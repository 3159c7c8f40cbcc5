package tree

import (
	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/d"
)

// Segment is a borrowed view of one or more contiguous entries (spec
// §4.4): the chunkers serialize a vector of segments into a chunk, and
// the splice engine carves a node's entry run at the splice point.
// Segments can be split at an entry boundary and concatenated; they
// never own or copy the underlying entries.
type Segment interface {
	NumEntries() int
	EntryAt(i int) Entry
	// Split carves the view at entry boundary at: [0, at) and [at, n).
	Split(at int) (Segment, Segment)
}

// FixedSegment is the fixed-width flavor: every entry is exactly one
// byte of the underlying data (used by blob, spec §4.4). base is the
// element index of the first byte, so carved views keep their ordered
// keys.
type FixedSegment struct {
	data []byte
	base uint64
}

// NewFixedSegment views data as len(data) single-byte entries starting
// at element index base.
func NewFixedSegment(data []byte, base uint64) FixedSegment {
	return FixedSegment{data: data, base: base}
}

func (s FixedSegment) NumEntries() int { return len(s.data) }

func (s FixedSegment) EntryAt(i int) Entry {
	return Entry{Key: IndexKey(s.base + uint64(i)), Value: Item{s.data[i]}}
}

func (s FixedSegment) Split(at int) (Segment, Segment) {
	d.Chk(at >= 0 && at <= len(s.data), "split point %d outside segment of %d entries", at, len(s.data))
	return FixedSegment{data: s.data[:at], base: s.base},
		FixedSegment{data: s.data[at:], base: s.base + uint64(at)}
}

// VarSegment is the variable-width flavor: a view over decoded entries
// with per-entry boundaries (used by list, map, set, and meta levels).
type VarSegment struct {
	entries []Entry
}

// NewVarSegment views entries as one segment; the slice is borrowed,
// not copied.
func NewVarSegment(entries []Entry) VarSegment {
	return VarSegment{entries: entries}
}

func (s VarSegment) NumEntries() int     { return len(s.entries) }
func (s VarSegment) EntryAt(i int) Entry { return s.entries[i] }

func (s VarSegment) Split(at int) (Segment, Segment) {
	d.Chk(at >= 0 && at <= len(s.entries), "split point %d outside segment of %d entries", at, len(s.entries))
	return VarSegment{entries: s.entries[:at]}, VarSegment{entries: s.entries[at:]}
}

// SegmentEntries concatenates the entries of a vector of segments, in
// order — the serialization step every chunker shares (spec §4.4).
func SegmentEntries(segs ...Segment) []Entry {
	n := 0
	for _, s := range segs {
		n += s.NumEntries()
	}
	out := make([]Entry, 0, n)
	for _, s := range segs {
		for i := 0; i < s.NumEntries(); i++ {
			out = append(out, s.EntryAt(i))
		}
	}
	return out
}

// EncodeLeafSegments serializes a vector of segments into a leaf chunk
// of the given kind — the chunker contract of spec §4.4.
func EncodeLeafSegments(kind chunk.Type, segs ...Segment) chunk.Chunk {
	return EncodeLeaf(kind, SegmentEntries(segs...))
}

// Segment returns the leaf node's entry run as a Segment of the flavor
// matching its kind: a FixedSegment for blob (one byte per element), a
// VarSegment otherwise.
func (n *Node) Segment() Segment {
	d.Chk(n.Leaf, "Segment is only defined on leaf nodes")
	if n.Kind == chunk.Blob {
		data := make([]byte, len(n.leafEntries))
		for i, e := range n.leafEntries {
			if len(e.Value) > 0 {
				data[i] = e.Value[0]
			}
		}
		var base uint64
		if len(n.leafEntries) > 0 {
			base = n.leafEntries[0].Key.Index
		}
		return NewFixedSegment(data, base)
	}
	return NewVarSegment(n.leafEntries)
}
