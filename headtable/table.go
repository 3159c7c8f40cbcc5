// Package headtable implements the branch head table of spec §3.6/§6.2:
// a persistent map (key, branch) -> UCell hash, plus a per-key set of
// latest-versions (versions with no known descendant), backed by
// go.etcd.io/bbolt, the only mutable persistent state in the system.
package headtable

import (
	"bytes"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/metrics"
	"github.com/dolthub/ustore/status"
)

var (
	headsBucket  = []byte("heads")
	latestBucket = []byte("latest")
)

// Table is the embedded, ordered, single-writer, persistent head-version
// store (spec §6.2). A single mutex serializes read-modify-write across
// Put/Merge/Branch/Delete for the whole table — spec §9's Open Question
// on isolation level is resolved here as serializable (see DESIGN.md).
type Table struct {
	db *bolt.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the bbolt file at path.
func Open(path string) (*Table, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, status.New(status.IOFault, "open head table: %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(headsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(latestBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, status.New(status.IOFault, "init head table buckets: %v", err)
	}
	return &Table{db: db}, nil
}

// Close releases the underlying bbolt file.
func (t *Table) Close() error {
	return t.db.Close()
}

// headKey packs (key, branch) into one lexicographically sortable bbolt
// key: key \x00 branch (spec §6.2's "namespace-prefixed (key, branch)").
func headKey(key []byte, branch string) []byte {
	out := make([]byte, 0, len(key)+1+len(branch))
	out = append(out, key...)
	out = append(out, 0)
	out = append(out, branch...)
	return out
}

// GetHead looks up the branch head version for key/branch.
func (t *Table) GetHead(key []byte, branch string) (hash.Hash, bool, error) {
	start := time.Now()
	defer func() { metrics.ObserveHeadTableOp("get_head", time.Since(start)) }()

	var h hash.Hash
	found := false
	err := t.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(headsBucket).Get(headKey(key, branch))
		if v == nil {
			return nil
		}
		if len(v) != hash.ByteLen {
			return status.New(status.InvalidHash, "corrupt head-table entry for %q/%s", key, branch)
		}
		copy(h[:], v)
		found = true
		return nil
	})
	return h, found, err
}

// SetHead unconditionally writes (key, branch) -> version. Callers
// composing a read-modify-write sequence (resolve head, build, publish)
// must hold Table.Lock across the whole sequence (spec §5); SetHead
// itself only guarantees the single bbolt transaction is atomic.
func (t *Table) SetHead(key []byte, branch string, version hash.Hash) error {
	start := time.Now()
	defer func() { metrics.ObserveHeadTableOp("set_head", time.Since(start)) }()
	return t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(headsBucket).Put(headKey(key, branch), version[:])
	})
}

// DeleteHead removes (key, branch)'s entry.
func (t *Table) DeleteHead(key []byte, branch string) error {
	start := time.Now()
	defer func() { metrics.ObserveHeadTableOp("delete_head", time.Since(start)) }()
	return t.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(headsBucket).Delete(headKey(key, branch))
	})
}

// ListBranches returns every branch name with a recorded head for key.
func (t *Table) ListBranches(key []byte) ([]string, error) {
	prefix := append(append([]byte{}, key...), 0)
	var out []string
	err := t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(headsBucket).Cursor()
		for k, _ := c.Seek(prefix); k != nil && hasPrefix(k, prefix); k, _ = c.Next() {
			out = append(out, string(k[len(prefix):]))
		}
		return nil
	})
	return out, err
}

// ListKeys returns every distinct key with at least one branch head, in
// byte order.
func (t *Table) ListKeys() ([][]byte, error) {
	var out [][]byte
	err := t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(headsBucket).Cursor()
		var last []byte
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			i := bytes.IndexByte(k, 0)
			if i < 0 {
				continue
			}
			if last != nil && bytes.Equal(last, k[:i]) {
				continue
			}
			key := append([]byte{}, k[:i]...)
			out = append(out, key)
			last = key
		}
		return nil
	})
	return out, err
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// encodeLatestSet encodes a set of 20-byte version hashes as concatenated
// bytes, sorted for determinism.
func encodeLatestSet(versions hash.HashSlice) []byte {
	out := make([]byte, 0, len(versions)*hash.ByteLen)
	for _, h := range versions.Sorted() {
		out = append(out, h[:]...)
	}
	return out
}

func decodeLatestSet(b []byte) []hash.Hash {
	n := len(b) / hash.ByteLen
	out := make([]hash.Hash, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], b[i*hash.ByteLen:(i+1)*hash.ByteLen])
	}
	return out
}

// LatestVersions returns the set of versions for key known to have no
// recorded descendant (spec §3.6).
func (t *Table) LatestVersions(key []byte) ([]hash.Hash, error) {
	var out []hash.Hash
	err := t.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(latestBucket).Get(key)
		if v != nil {
			out = decodeLatestSet(v)
		}
		return nil
	})
	return out, err
}

// IsLatestVersion reports whether version is currently in key's
// latest-versions set.
func (t *Table) IsLatestVersion(key []byte, version hash.Hash) (bool, error) {
	versions, err := t.LatestVersions(key)
	if err != nil {
		return false, err
	}
	return hash.NewSet(versions...).Has(version), nil
}

// AdvanceLatest removes prev from key's latest-versions set (if present)
// and adds newVersion — the bookkeeping step of every Put (spec §4.9
// step 4).
func (t *Table) AdvanceLatest(key []byte, prev, newVersion hash.Hash) error {
	return t.AdvanceLatestMerge(key, prev, hash.Null, newVersion)
}

// AdvanceLatestMerge removes both prev1 and prev2 from key's
// latest-versions set (if present) and adds newVersion — a merge commit
// gives both parents a descendant, so neither is "latest" any more
// (spec §3.6, §4.9). A plain Put calls this via AdvanceLatest with
// prev2 = hash.Null, which is never a member of the set and so is a
// no-op removal.
func (t *Table) AdvanceLatestMerge(key []byte, prev1, prev2, newVersion hash.Hash) error {
	start := time.Now()
	defer func() { metrics.ObserveHeadTableOp("advance_latest", time.Since(start)) }()
	return t.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(latestBucket)
		var cur []hash.Hash
		if v := b.Get(key); v != nil {
			cur = decodeLatestSet(v)
		}
		set := hash.NewSet(cur...)
		set.Remove(prev1)
		set.Remove(prev2)
		set.Insert(newVersion)
		return b.Put(key, encodeLatestSet(set.ToSlice()))
	})
}

// Lock/Unlock expose the table's coarse mutex directly so a caller (e.g.
// objectdb.Put) can hold it across the resolve-then-publish
// read-modify-write sequence spanning both GetHead and SetHead/
// AdvanceLatest (spec §5: "one coarse lock protects the head-version
// table and UCell publication").
func (t *Table) Lock()   { t.mu.Lock() }
func (t *Table) Unlock() { t.mu.Unlock() }
