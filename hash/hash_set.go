// Copyright 2016 Attic Labs, Inc. All rights reserved.
// Licensed under the Apache License, version 2.0:
// http://www.apache.org/licenses/LICENSE-2.0

package hash

import "sort"

// Set is an unordered collection of distinct Hashes, used for batch
// existence checks against a chunk.Store.
type Set map[Hash]struct{}

// NewSet builds a Set from zero or more Hashes.
func NewSet(hs ...Hash) Set {
	s := make(Set, len(hs))
	for _, h := range hs {
		s[h] = struct{}{}
	}
	return s
}

// Insert adds h to the set.
func (s Set) Insert(h Hash) {
	s[h] = struct{}{}
}

// Has reports whether h is a member of the set.
func (s Set) Has(h Hash) bool {
	_, ok := s[h]
	return ok
}

// Remove deletes h from the set, if present.
func (s Set) Remove(h Hash) {
	delete(s, h)
}

// ToSlice returns the set's members in unspecified order.
func (s Set) ToSlice() HashSlice {
	out := make(HashSlice, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	return out
}

// HashSlice is a sortable, comparable slice of Hashes.
type HashSlice []Hash

func (hs HashSlice) Len() int           { return len(hs) }
func (hs HashSlice) Less(i, j int) bool { return hs[i].Less(hs[j]) }
func (hs HashSlice) Swap(i, j int)      { hs[i], hs[j] = hs[j], hs[i] }

// Equals reports whether hs and other contain the same Hashes in the same
// order. Callers that don't care about order should sort.Sort both slices
// first.
func (hs HashSlice) Equals(other HashSlice) bool {
	if len(hs) != len(other) {
		return false
	}
	for i := range hs {
		if hs[i] != other[i] {
			return false
		}
	}
	return true
}

// Sorted returns a sorted copy of hs.
func (hs HashSlice) Sorted() HashSlice {
	out := make(HashSlice, len(hs))
	copy(out, hs)
	sort.Sort(out)
	return out
}
