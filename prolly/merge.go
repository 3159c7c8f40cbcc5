package prolly

import (
	"bytes"
	"context"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/tree"
)

// Conflict is returned by Merge when the same key/index changed on both
// sides to different values (spec §4.8: "a conflict aborts the merge and
// returns no merge").
type Conflict struct {
	Key   tree.OrderedKey
	Base  tree.Item
	Left  tree.Item
	Right tree.Item
}

// MergeResult carries either a new merged root or the set of conflicts
// that aborted the merge.
type MergeResult struct {
	Root      hash.Hash
	Conflicts []Conflict
}

// Merged reports whether the merge succeeded (no conflicts).
func (m MergeResult) Merged() bool { return len(m.Conflicts) == 0 }

// Merge performs a three-way merge (spec §4.8), dispatching to
// MergeKeyed for map/set and MergeList for list/blob.
func Merge(ctx context.Context, ns tree.NodeStore, kind chunk.Type, base, l, r hash.Hash, flavor tree.Flavor) (MergeResult, error) {
	if flavor == tree.IndexFlavor {
		return MergeList(ctx, ns, kind, base, l, r, flavor)
	}
	return MergeKeyed(ctx, ns, kind, base, l, r, flavor)
}

// MergeKeyed performs a three-way merge of key-addressed trees (map,
// set): base, L, and R are jointly iterated in key order; a key keeps
// Base's value if neither side changed it, L's value if only L changed
// it, R's value if only R changed it, and is a conflict if both sides
// changed it to different values (spec §4.8). A conflict aborts the
// merge: MergeResult.Root is hash.Null and Conflicts is non-empty.
func MergeKeyed(ctx context.Context, ns tree.NodeStore, kind chunk.Type, base, l, r hash.Hash, flavor tree.Flavor) (MergeResult, error) {
	if l == base {
		return MergeResult{Root: r}, nil
	}
	if r == base {
		return MergeResult{Root: l}, nil
	}
	if l == r {
		return MergeResult{Root: l}, nil
	}

	be, err := loadEntries(ctx, ns, base, flavor)
	if err != nil {
		return MergeResult{}, err
	}
	le, err := loadEntries(ctx, ns, l, flavor)
	if err != nil {
		return MergeResult{}, err
	}
	re, err := loadEntries(ctx, ns, r, flavor)
	if err != nil {
		return MergeResult{}, err
	}

	baseIdx := indexByKey(be)
	lIdx := indexByKey(le)
	rIdx := indexByKey(re)

	keys := unionKeys(be, le, re)
	var out []tree.Entry
	var conflicts []Conflict
	for _, k := range keys {
		ks := keyString(k)
		bv, bok := baseIdx[ks]
		lv, lok := lIdx[ks]
		rv, rok := rIdx[ks]

		lChanged := changed(bok, bv, lok, lv)
		rChanged := changed(bok, bv, rok, rv)

		switch {
		case !lChanged && !rChanged:
			if bok {
				out = append(out, bv)
			}
		case lChanged && !rChanged:
			if lok {
				out = append(out, lv)
			}
		case !lChanged && rChanged:
			if rok {
				out = append(out, rv)
			}
		default: // both changed
			if lok == rok && (!lok || bytes.Equal(lv.Value, rv.Value)) {
				// Both sides made the identical edit.
				if lok {
					out = append(out, lv)
				}
				continue
			}
			conflicts = append(conflicts, Conflict{
				Key:   k,
				Base:  itemOf(bok, bv),
				Left:  itemOf(lok, lv),
				Right: itemOf(rok, rv),
			})
		}
	}
	if len(conflicts) > 0 {
		return MergeResult{Root: hash.Null, Conflicts: conflicts}, nil
	}
	root, err := tree.BuildRoot(ctx, ns, kind, flavor, out)
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Root: root}, nil
}

func itemOf(ok bool, e tree.Entry) tree.Item {
	if !ok {
		return nil
	}
	return tree.Item(e.Value)
}

func changed(bok bool, bv tree.Entry, xok bool, xv tree.Entry) bool {
	if bok != xok {
		return true
	}
	if !bok {
		return false
	}
	return !bytes.Equal(bv.Value, xv.Value)
}

func unionKeys(sets ...[]tree.Entry) []tree.OrderedKey {
	seen := make(map[string]tree.OrderedKey)
	for _, s := range sets {
		for _, e := range s {
			seen[keyString(e.Key)] = e.Key
		}
	}
	out := make([]tree.OrderedKey, 0, len(seen))
	for _, k := range seen {
		out = append(out, k)
	}
	sortKeys(out)
	return out
}

func sortKeys(keys []tree.OrderedKey) {
	// Simple insertion sort: merge key sets are small relative to the
	// object sizes this store is designed for (spec's target chunk size
	// keeps fan-out low); a full sort.Slice is avoided only to keep this
	// file dependency-free of an extra import, not for performance.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j].Less(keys[j-1]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
}

// MergeList performs a three-way merge of index-addressed list content
// using the Levenshtein mapper to align base/L/R positions across
// insertions and deletions (spec §4.8). blob shares this code path: a
// blob's elements are single bytes.
func MergeList(ctx context.Context, ns tree.NodeStore, kind chunk.Type, base, l, r hash.Hash, flavor tree.Flavor) (MergeResult, error) {
	if l == base {
		return MergeResult{Root: r}, nil
	}
	if r == base {
		return MergeResult{Root: l}, nil
	}
	if l == r {
		return MergeResult{Root: l}, nil
	}

	be, err := loadEntries(ctx, ns, base, flavor)
	if err != nil {
		return MergeResult{}, err
	}
	le, err := loadEntries(ctx, ns, l, flavor)
	if err != nil {
		return MergeResult{}, err
	}
	re, err := loadEntries(ctx, ns, r, flavor)
	if err != nil {
		return MergeResult{}, err
	}

	lOps := LevenshteinAlign(be, le)
	rOps := LevenshteinAlign(be, re)

	out, conflicts := mergeAlignedOps(be, lOps, rOps)
	if len(conflicts) > 0 {
		return MergeResult{Root: hash.Null, Conflicts: conflicts}, nil
	}
	reindexList(flavor, out)
	root, err := tree.BuildRoot(ctx, ns, kind, flavor, out)
	if err != nil {
		return MergeResult{}, err
	}
	return MergeResult{Root: root}, nil
}

func reindexList(flavor tree.Flavor, entries []tree.Entry) {
	if flavor != tree.IndexFlavor {
		return
	}
	for i := range entries {
		entries[i].Key = tree.IndexKey(uint64(i))
	}
}
