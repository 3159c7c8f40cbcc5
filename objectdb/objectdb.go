// Package objectdb implements the single entry point a transport
// collaborator sits in front of: the CRUD surface over a chunk store, a
// branch head table, and an optional cross-node chunk fetcher, exposed
// directly as Go methods rather than as wire requests (ForkBase
// include/spec/object_db.h).
package objectdb

import (
	"context"

	"github.com/dolthub/ustore/cell"
	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/headtable"
	"github.com/dolthub/ustore/metrics"
	"github.com/dolthub/ustore/status"
	"github.com/dolthub/ustore/tree"
)

// Ref names a parent version: either a branch (resolved against the head
// table at call time) or an explicit version hash.
type Ref struct {
	Branch  string
	Version hash.Hash
}

// BranchRef builds a Ref naming a branch head.
func BranchRef(branch string) Ref { return Ref{Branch: branch} }

// VersionRef builds a Ref naming an explicit version.
func VersionRef(v hash.Hash) Ref { return Ref{Version: v} }

// DB binds a chunk store, node store, and head-version table into the
// object-versioning facade of spec §4.9.
type DB struct {
	Store chunk.Store
	Nodes tree.NodeStore
	Heads *headtable.Table
}

// New builds a DB over an already-open chunk store and head table. Nodes
// is derived from store.
func New(store chunk.Store, heads *headtable.Table) *DB {
	return &DB{Store: store, Nodes: tree.NewNodeStore(store), Heads: heads}
}

func (db *DB) resolve(key []byte, ref Ref) (hash.Hash, error) {
	if ref.Branch == "" {
		return ref.Version, nil
	}
	h, found, err := db.Heads.GetHead(key, ref.Branch)
	if err != nil {
		return hash.Hash{}, err
	}
	if !found {
		return hash.Hash{}, status.New(status.BranchNotExists, "no head for key %q branch %q", key, ref.Branch)
	}
	return h, nil
}

// resolveForPut is resolve's Put/Merge-specific counterpart: a branch
// name with no recorded head yet is not an error here — it is the
// initial creation case spec §4.9 step 1 describes ("prev_hash may be
// kNull for create"). Only an explicit Get/Branch/Rename/Delete against
// a named branch treats a missing head as BranchNotExists.
func (db *DB) resolveForPut(key []byte, ref Ref) (hash.Hash, error) {
	if ref.Branch == "" {
		return ref.Version, nil
	}
	h, found, err := db.Heads.GetHead(key, ref.Branch)
	if err != nil {
		return hash.Hash{}, err
	}
	if !found {
		return hash.Null, nil
	}
	return h, nil
}

// Put creates a new version of key built on parent, wrapping dataRoot in
// a UCell, advancing that branch's head if parent names a branch, and
// always updating the key's latest-versions set (spec §4.9 steps 1-4).
func (db *DB) Put(ctx context.Context, key []byte, parent Ref, typ chunk.Type, dataRoot hash.Hash) (hash.Hash, error) {
	return db.put(ctx, key, parent, Ref{}, typ, dataRoot)
}

// Merge is Put with a second parent: the resulting UCell's prev2 is
// non-null, marking it a merge commit (spec §4.9).
func (db *DB) Merge(ctx context.Context, key []byte, dst Ref, src Ref, typ chunk.Type, mergedRoot hash.Hash) (hash.Hash, error) {
	return db.put(ctx, key, dst, src, typ, mergedRoot)
}

func (db *DB) put(ctx context.Context, key []byte, parent, secondParent Ref, typ chunk.Type, dataRoot hash.Hash) (hash.Hash, error) {
	db.Heads.Lock()
	defer db.Heads.Unlock()

	prev1, err := db.resolveForPut(key, parent)
	if err != nil {
		return hash.Hash{}, err
	}
	var prev2 hash.Hash
	if secondParent != (Ref{}) {
		prev2, err = db.resolveForPut(key, secondParent)
		if err != nil {
			return hash.Hash{}, err
		}
	}

	ucell, err := cell.Create(ctx, db.Store, typ, key, dataRoot, prev1, prev2)
	if err != nil {
		return hash.Hash{}, err
	}
	newVersion := ucell.Hash()

	if parent.Branch != "" {
		if err := db.Heads.SetHead(key, parent.Branch, newVersion); err != nil {
			return hash.Hash{}, err
		}
	}
	if err := db.Heads.AdvanceLatestMerge(key, prev1, prev2, newVersion); err != nil {
		return hash.Hash{}, err
	}
	return newVersion, nil
}

// PutUnkeyed creates a version with no key and no head-table bookkeeping
// (spec §6.3's PutUnkeyed request): useful for content a caller will
// only ever address by the returned version hash directly.
func (db *DB) PutUnkeyed(ctx context.Context, typ chunk.Type, dataRoot hash.Hash) (hash.Hash, error) {
	ucell, err := cell.Create(ctx, db.Store, typ, nil, dataRoot, hash.Null, hash.Null)
	if err != nil {
		return hash.Hash{}, err
	}
	return ucell.Hash(), nil
}

// Branch inserts (key, newName) -> resolve(src) if newName is unused
// (spec §4.9).
func (db *DB) Branch(ctx context.Context, key []byte, src Ref, newName string) error {
	db.Heads.Lock()
	defer db.Heads.Unlock()

	if _, found, err := db.Heads.GetHead(key, newName); err != nil {
		return err
	} else if found {
		return status.New(status.BranchExists, "branch %q already exists for key %q", newName, key)
	}
	v, err := db.resolve(key, src)
	if err != nil {
		return err
	}
	return db.Heads.SetHead(key, newName, v)
}

// Rename moves (key, oldName)'s head entry to (key, newName).
func (db *DB) Rename(ctx context.Context, key []byte, oldName, newName string) error {
	db.Heads.Lock()
	defer db.Heads.Unlock()

	v, found, err := db.Heads.GetHead(key, oldName)
	if err != nil {
		return err
	}
	if !found {
		return status.New(status.BranchNotExists, "no branch %q for key %q", oldName, key)
	}
	if _, found, err := db.Heads.GetHead(key, newName); err != nil {
		return err
	} else if found {
		return status.New(status.BranchExists, "branch %q already exists for key %q", newName, key)
	}
	if err := db.Heads.SetHead(key, newName, v); err != nil {
		return err
	}
	return db.Heads.DeleteHead(key, oldName)
}

// Delete removes (key, branch)'s head entry (spec §4.9).
func (db *DB) Delete(ctx context.Context, key []byte, branch string) error {
	db.Heads.Lock()
	defer db.Heads.Unlock()

	if _, found, err := db.Heads.GetHead(key, branch); err != nil {
		return err
	} else if !found {
		return status.New(status.BranchNotExists, "no branch %q for key %q", branch, key)
	}
	return db.Heads.DeleteHead(key, branch)
}

// Get resolves ref to a UCell (spec §4.9).
func (db *DB) Get(ctx context.Context, key []byte, ref Ref) (cell.UCell, error) {
	v, err := db.resolve(key, ref)
	if err != nil {
		return cell.UCell{}, err
	}
	if v.IsEmpty() {
		return cell.UCell{}, status.New(status.KeyNotExists, "no version for key %q", key)
	}
	return cell.Load(ctx, db.Store, v)
}

// GetMeta is Get followed by a cheap object-metadata read (spec's [NEW]
// ObjectDB supplemented feature).
func (db *DB) GetMeta(ctx context.Context, key []byte, ref Ref) (cell.Meta, error) {
	c, err := db.Get(ctx, key, ref)
	if err != nil {
		return cell.Meta{}, err
	}
	return cell.LoadMeta(ctx, db.Nodes, c)
}

// Exists reports whether key has a head entry on branch.
func (db *DB) Exists(ctx context.Context, key []byte, branch string) (bool, error) {
	_, found, err := db.Heads.GetHead(key, branch)
	return found, err
}

// List returns every branch with a recorded head for key.
func (db *DB) List(ctx context.Context, key []byte) ([]string, error) {
	return db.Heads.ListBranches(key)
}

// GetBranchHead returns the current head version for (key, branch).
func (db *DB) GetBranchHead(ctx context.Context, key []byte, branch string) (hash.Hash, bool, error) {
	return db.Heads.GetHead(key, branch)
}

// IsBranchHead reports whether version is (key, branch)'s current head.
func (db *DB) IsBranchHead(ctx context.Context, key []byte, branch string, version hash.Hash) (bool, error) {
	h, found, err := db.Heads.GetHead(key, branch)
	if err != nil || !found {
		return false, err
	}
	return h == version, nil
}

// GetLatestVersions returns key's current latest-versions set (spec
// §3.6): versions with no recorded descendant.
func (db *DB) GetLatestVersions(ctx context.Context, key []byte) ([]hash.Hash, error) {
	return db.Heads.LatestVersions(key)
}

// IsLatestVersion reports whether version is in key's latest-versions
// set.
func (db *DB) IsLatestVersion(ctx context.Context, key []byte, version hash.Hash) (bool, error) {
	return db.Heads.IsLatestVersion(key, version)
}

// GetChunk, PutChunk, ExistsChunk, and GetInfo expose the underlying
// chunk store directly for the wire request types spec §6.3 lists that
// operate below the UCell layer (raw chunk access for sync/replication
// collaborators).
func (db *DB) GetChunk(ctx context.Context, h hash.Hash) (chunk.Chunk, error) {
	return db.Store.Get(ctx, h)
}

func (db *DB) PutChunk(ctx context.Context, c chunk.Chunk) (bool, error) {
	return db.Store.Put(ctx, c)
}

func (db *DB) ExistsChunk(ctx context.Context, h hash.Hash) (bool, error) {
	return db.Store.Exists(ctx, h)
}

func (db *DB) GetInfo(ctx context.Context) (chunk.StoreInfo, error) {
	info, err := db.Store.Info(ctx)
	if err != nil {
		return chunk.StoreInfo{}, err
	}
	metrics.ReportStoreInfo("default", info)
	return info, nil
}
