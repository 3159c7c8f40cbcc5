// Package cell implements the UCell version record of spec §3.5: a
// commit-like chunk binding an object type, its data root hash, and one
// or two parent versions.
package cell

import (
	"context"
	"encoding/binary"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/status"
	"github.com/dolthub/ustore/tree"
)

// UCell is the decoded form of a version chunk (spec §3.5). Merged
// reports whether Prev2 is present (a Merge's UCell).
type UCell struct {
	Type     chunk.Type
	Merged   bool
	Root     hash.Hash // data_root_hash: root of the object at this version
	Prev1    hash.Hash
	Prev2    hash.Hash // only meaningful when Merged
	Key      []byte
	selfHash hash.Hash
}

// Hash returns the version identifier: the hash of this UCell's own
// chunk.
func (c UCell) Hash() hash.Hash { return c.selfHash }

// encode serializes a UCell per spec §3.5: type(1) | merged(1) |
// data_root_hash(20) | prev1(20) | [prev2(20) if merged] | key_len(4) |
// key.
func (c UCell) encode() []byte {
	size := 1 + 1 + hash.ByteLen + hash.ByteLen
	if c.Merged {
		size += hash.ByteLen
	}
	size += 4 + len(c.Key)
	buf := make([]byte, size)
	off := 0
	buf[off] = byte(c.Type)
	off++
	if c.Merged {
		buf[off] = 1
	}
	off++
	copy(buf[off:off+hash.ByteLen], c.Root[:])
	off += hash.ByteLen
	copy(buf[off:off+hash.ByteLen], c.Prev1[:])
	off += hash.ByteLen
	if c.Merged {
		copy(buf[off:off+hash.ByteLen], c.Prev2[:])
		off += hash.ByteLen
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(c.Key)))
	off += 4
	copy(buf[off:], c.Key)
	return buf
}

func decode(payload []byte) (UCell, error) {
	const fixed = 1 + 1 + hash.ByteLen + hash.ByteLen
	if len(payload) < fixed {
		return UCell{}, status.New(status.InvalidHash, "UCell payload too short")
	}
	c := UCell{}
	off := 0
	c.Type = chunk.Type(payload[off])
	off++
	c.Merged = payload[off] != 0
	off++
	copy(c.Root[:], payload[off:off+hash.ByteLen])
	off += hash.ByteLen
	copy(c.Prev1[:], payload[off:off+hash.ByteLen])
	off += hash.ByteLen
	if c.Merged {
		if len(payload) < off+hash.ByteLen {
			return UCell{}, status.New(status.InvalidHash, "UCell payload truncated (prev2)")
		}
		copy(c.Prev2[:], payload[off:off+hash.ByteLen])
		off += hash.ByteLen
	}
	if len(payload) < off+4 {
		return UCell{}, status.New(status.InvalidHash, "UCell payload truncated (key length)")
	}
	klen := binary.LittleEndian.Uint32(payload[off : off+4])
	off += 4
	if len(payload) < off+int(klen) {
		return UCell{}, status.New(status.InvalidHash, "UCell payload truncated (key)")
	}
	c.Key = make([]byte, klen)
	copy(c.Key, payload[off:off+int(klen)])
	return c, nil
}

// Create builds the UCell for (typ, key, root, prev1[, prev2]), writes it
// as a chunk through store, and returns it with its Hash populated.
// prev2 is hash.Null for a non-merge Put; a non-null prev2 marks a Merge
// (spec §4.9).
func Create(ctx context.Context, store chunk.Store, typ chunk.Type, key []byte, root, prev1, prev2 hash.Hash) (UCell, error) {
	c := UCell{
		Type:   typ,
		Merged: !prev2.IsEmpty(),
		Root:   root,
		Prev1:  prev1,
		Prev2:  prev2,
		Key:    append([]byte(nil), key...),
	}
	raw := c.encode()
	chk := chunk.New(chunk.Cell, raw)
	if _, err := store.Put(ctx, chk); err != nil {
		return UCell{}, err
	}
	c.selfHash = chk.Hash()
	return c, nil
}

// Load reads and parses the UCell at h.
func Load(ctx context.Context, store chunk.Store, h hash.Hash) (UCell, error) {
	chk, err := store.Get(ctx, h)
	if err != nil {
		return UCell{}, err
	}
	if chk.IsEmpty() {
		return UCell{}, status.New(status.ChunkNotExists, "no UCell for hash %s", h)
	}
	if chk.Type() != chunk.Cell {
		return UCell{}, status.New(status.TypeMismatch, "chunk %s is not a Cell", h)
	}
	c, err := decode(chk.Data())
	if err != nil {
		return UCell{}, err
	}
	c.selfHash = h
	return c, nil
}

// Meta summarizes the object rooted at this UCell's data root, cheaply
// read from the root chunk's own aggregate fields — no descent into the
// tree required (spec's [NEW] ObjectDB supplemented feature, ForkBase
// object_meta.h).
type Meta struct {
	Type        chunk.Type
	NumBytes    uint32
	NumElements uint64
}

// FlavorOf returns the OrderedKey flavor for a root chunk's kind
// (index-addressed for blob/list, byte-addressed for map/set) — needed
// wherever a caller only has a UCell.Type and must interpret its tree.
func FlavorOf(t chunk.Type) tree.Flavor {
	if t == chunk.Blob || t == chunk.List {
		return tree.IndexFlavor
	}
	return tree.BytesFlavor
}

// LoadMeta reads the UCell's data root chunk and the object's total
// element count (spec's [NEW] ObjectDB supplemented feature, ForkBase
// object_meta.h): cheap because NumElements is already the root's own
// aggregate field when the root is an internal Meta node, or its entry
// count when the root is itself a leaf.
func LoadMeta(ctx context.Context, ns tree.NodeStore, c UCell) (Meta, error) {
	root, err := ns.ChunkStore().Get(ctx, c.Root)
	if err != nil {
		return Meta{}, err
	}
	if root.IsEmpty() {
		return Meta{Type: c.Type}, nil
	}
	n, err := tree.NumElements(ctx, ns, c.Root, FlavorOf(c.Type))
	if err != nil {
		return Meta{}, err
	}
	return Meta{Type: root.Type(), NumBytes: uint32(len(root.Data())), NumElements: n}, nil
}
