// Package prolly implements the structural comparator, differ, and
// three-way merger of spec §4.8. Every operation reads the full entry
// sequence of each tree it compares and works element by element;
// subtrees with equal hashes below the root are read like any other and
// are not skipped.
package prolly

import (
	"bytes"
	"context"
	"encoding/binary"

	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/tree"
)

// IndexRange is a maximal contiguous run of element indexes in the left
// tree of a Diff/Intersect call (spec §4.8).
type IndexRange struct {
	Start uint64
	Len   uint64
}

// DiffEntry pairs an ordered key with the two sides' values (either may
// be absent); returned by DuallyDiff.
type DiffEntry struct {
	Key      tree.OrderedKey
	Left     tree.Item
	Right    tree.Item
	LeftSet  bool
	RightSet bool
}

// loadEntries reads the full entry sequence of a tree; comparator
// operations work over materialized sequences rather than stepping two
// cursors in lockstep, so every leaf of the tree is read, including
// subtrees whose MetaChild.ChildHash matches the other side's.
func loadEntries(ctx context.Context, ns tree.NodeStore, root hash.Hash, flavor tree.Flavor) ([]tree.Entry, error) {
	return tree.Materialize(ctx, ns, root, flavor)
}

func entryEqual(a, b tree.Entry) bool {
	return a.Key.Equal(b.Key) && bytes.Equal(a.Value, b.Value)
}

// Diff returns the maximal contiguous index ranges in L whose elements
// differ from R. For key-addressed trees (map, set) this is same-key-
// same-value comparison; for index-addressed trees (list, blob) it
// dispatches to DiffIndexed's content alignment, which stays accurate
// across insertions/deletions that shift position (spec §4.8, S4).
func Diff(ctx context.Context, ns tree.NodeStore, l, r hash.Hash, flavor tree.Flavor) ([]IndexRange, error) {
	if flavor == tree.IndexFlavor {
		return DiffIndexed(ctx, ns, l, r, flavor)
	}
	return diffKeyed(ctx, ns, l, r, flavor)
}

// diffKeyed implements Diff for key-addressed trees (map, set).
func diffKeyed(ctx context.Context, ns tree.NodeStore, l, r hash.Hash, flavor tree.Flavor) ([]IndexRange, error) {
	if l == r {
		return nil, nil
	}
	le, err := loadEntries(ctx, ns, l, flavor)
	if err != nil {
		return nil, err
	}
	re, err := loadEntries(ctx, ns, r, flavor)
	if err != nil {
		return nil, err
	}
	rIdx := indexByKey(re)
	var out []IndexRange
	var runStart uint64
	inRun := false
	for i, e := range le {
		rv, ok := rIdx[keyString(e.Key)]
		same := ok && entryEqual(e, rv)
		if !same {
			if !inRun {
				runStart = uint64(i)
				inRun = true
			}
		} else if inRun {
			out = append(out, IndexRange{Start: runStart, Len: uint64(i) - runStart})
			inRun = false
		}
	}
	if inRun {
		out = append(out, IndexRange{Start: runStart, Len: uint64(len(le)) - runStart})
	}
	return out, nil
}

// Intersect returns the maximal contiguous ranges in L whose elements
// appear identically in R — the complement of Diff within [0, |L|) (spec
// §4.8, P8).
func Intersect(ctx context.Context, ns tree.NodeStore, l, r hash.Hash, flavor tree.Flavor) ([]IndexRange, error) {
	if flavor == tree.IndexFlavor {
		return IntersectIndexed(ctx, ns, l, r, flavor)
	}
	diff, err := diffKeyed(ctx, ns, l, r, flavor)
	if err != nil {
		return nil, err
	}
	le, err := loadEntries(ctx, ns, l, flavor)
	if err != nil {
		return nil, err
	}
	return complement(diff, uint64(len(le))), nil
}

// complement returns the maximal gaps between a sorted, disjoint set of
// ranges covering part of [0, n).
func complement(ranges []IndexRange, n uint64) []IndexRange {
	var out []IndexRange
	var pos uint64
	for _, r := range ranges {
		if r.Start > pos {
			out = append(out, IndexRange{Start: pos, Len: r.Start - pos})
		}
		pos = r.Start + r.Len
	}
	if pos < n {
		out = append(out, IndexRange{Start: pos, Len: n - pos})
	}
	return out
}

func indexByKey(entries []tree.Entry) map[string]tree.Entry {
	m := make(map[string]tree.Entry, len(entries))
	for _, e := range entries {
		m[keyString(e.Key)] = e
	}
	return m
}

// keyString gives OrderedKey a stable map key; tree.OrderedKey has no
// String method of its own (it's a data type, not user-facing), so this
// package defines one locally for its own indexing needs. Index keys are
// fixed-width big-endian encoded so ordering-insensitive map lookups
// never collide across different uint64 values.
func keyString(k tree.OrderedKey) string {
	if k.Flavor == tree.IndexFlavor {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], k.Index)
		return string(buf[:])
	}
	return string(k.Bytes)
}

// DuallyDiff jointly iterates two trees in ordered-key order, yielding
// every key at which the two sides disagree along with both sides'
// values (either may be absent) — spec §4.8. Key-addressed trees (map,
// set) join on their byte keys; index-addressed trees join position by
// position.
func DuallyDiff(ctx context.Context, ns tree.NodeStore, l, r hash.Hash, flavor tree.Flavor) ([]DiffEntry, error) {
	if l == r {
		return nil, nil
	}
	le, err := loadEntries(ctx, ns, l, flavor)
	if err != nil {
		return nil, err
	}
	re, err := loadEntries(ctx, ns, r, flavor)
	if err != nil {
		return nil, err
	}
	var out []DiffEntry
	i, j := 0, 0
	for i < len(le) && j < len(re) {
		cmp := le[i].Key.Compare(re[j].Key)
		switch {
		case cmp < 0:
			out = append(out, DiffEntry{Key: le[i].Key, Left: tree.Item(le[i].Value), LeftSet: true})
			i++
		case cmp > 0:
			out = append(out, DiffEntry{Key: re[j].Key, Right: tree.Item(re[j].Value), RightSet: true})
			j++
		default:
			if !bytes.Equal(le[i].Value, re[j].Value) {
				out = append(out, DiffEntry{Key: le[i].Key, Left: tree.Item(le[i].Value), Right: tree.Item(re[j].Value), LeftSet: true, RightSet: true})
			}
			i++
			j++
		}
	}
	for ; i < len(le); i++ {
		out = append(out, DiffEntry{Key: le[i].Key, Left: tree.Item(le[i].Value), LeftSet: true})
	}
	for ; j < len(re); j++ {
		out = append(out, DiffEntry{Key: re[j].Key, Right: tree.Item(re[j].Value), RightSet: true})
	}
	return out, nil
}
