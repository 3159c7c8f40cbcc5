package objectdb

import (
	"context"
	"strconv"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/objects"
	"github.com/dolthub/ustore/status"
)

// RequestType enumerates the wire protocol's request types (spec §6.3).
// The transport collaborator frames these; the core only dispatches
// them.
type RequestType uint32

const (
	ReqPut RequestType = iota + 1
	ReqGet
	ReqMerge
	ReqList
	ReqExists
	ReqGetBranchHead
	ReqIsBranchHead
	ReqGetLatestVersion
	ReqIsLatestVersion
	ReqBranch
	ReqRename
	ReqDelete
	ReqPutUnkeyed
	ReqGetChunk
	ReqPutChunk
	ReqExistsChunk
	ReqGetInfo
)

// Request is the wire protocol's request envelope (spec §6.3): a type
// tag, the issuing client id, and the optional key/branch/version
// operands. RefBranch/RefVersion name the second operand where one
// exists (Merge's source, Branch's source, Rename's old name).
type Request struct {
	Type       RequestType
	Source     uint32
	Key        []byte
	Branch     string
	Version    hash.Hash
	RefBranch  string
	RefVersion hash.Hash
	Value      *ValuePayload
}

// ValuePayload carries the structured-object edit of a Put/Merge (spec
// §6.3): the object kind, the root of the prior content, a splice
// position and deletion count for index-addressed kinds, and the
// inserted values and/or keys. For Map, Keys[i] pairs with Values[i]
// (no Values at all means "remove Keys"); for Set, Dels > 0 means
// "remove Keys", otherwise "add Keys".
type ValuePayload struct {
	Type   chunk.Type
	Base   hash.Hash
	Pos    uint64
	Dels   uint64
	Values [][]byte
	Keys   [][]byte
	Ctx    []byte
}

// Response is the wire protocol's response payload (spec §6.3).
type Response struct {
	Stat   status.Kind
	Value  []byte
	BValue bool
	LValue [][]byte
}

func fail(err error) Response {
	return Response{Stat: status.Of(err)}
}

func refOf(branch string, version hash.Hash) Ref {
	if branch != "" {
		return BranchRef(branch)
	}
	return VersionRef(version)
}

// Dispatch routes one request envelope to the matching DB method and
// shapes its result into a Response. An envelope whose type has no
// handler gets status.UnknownCommand; every handler error surfaces as
// the Status kind it carries (spec §7's propagation rule).
func (db *DB) Dispatch(ctx context.Context, req Request) Response {
	switch req.Type {
	case ReqPut:
		return db.handlePut(ctx, req, false)
	case ReqMerge:
		return db.handlePut(ctx, req, true)
	case ReqGet:
		return db.handleGet(ctx, req)
	case ReqList:
		return db.handleList(ctx, req)
	case ReqExists:
		found, err := db.Exists(ctx, req.Key, req.Branch)
		if err != nil {
			return fail(err)
		}
		return Response{BValue: found}
	case ReqGetBranchHead:
		h, found, err := db.GetBranchHead(ctx, req.Key, req.Branch)
		if err != nil {
			return fail(err)
		}
		if !found {
			return fail(status.New(status.BranchNotExists, "no head for key %q branch %q", req.Key, req.Branch))
		}
		return Response{Value: h[:], BValue: true}
	case ReqIsBranchHead:
		is, err := db.IsBranchHead(ctx, req.Key, req.Branch, req.Version)
		if err != nil {
			return fail(err)
		}
		return Response{BValue: is}
	case ReqGetLatestVersion:
		versions, err := db.GetLatestVersions(ctx, req.Key)
		if err != nil {
			return fail(err)
		}
		out := make([][]byte, len(versions))
		for i, v := range versions {
			out[i] = append([]byte{}, v[:]...)
		}
		return Response{LValue: out}
	case ReqIsLatestVersion:
		is, err := db.IsLatestVersion(ctx, req.Key, req.Version)
		if err != nil {
			return fail(err)
		}
		return Response{BValue: is}
	case ReqBranch:
		err := db.Branch(ctx, req.Key, refOf(req.RefBranch, req.RefVersion), req.Branch)
		if err != nil {
			return fail(err)
		}
		return Response{}
	case ReqRename:
		if err := db.Rename(ctx, req.Key, req.RefBranch, req.Branch); err != nil {
			return fail(err)
		}
		return Response{}
	case ReqDelete:
		if err := db.Delete(ctx, req.Key, req.Branch); err != nil {
			return fail(err)
		}
		return Response{}
	case ReqPutUnkeyed:
		if req.Value == nil {
			return fail(status.New(status.InvalidCommandArgument, "PutUnkeyed without a value payload"))
		}
		root, err := db.applyValue(ctx, req.Value)
		if err != nil {
			return fail(err)
		}
		v, err := db.PutUnkeyed(ctx, req.Value.Type, root)
		if err != nil {
			return fail(err)
		}
		return Response{Value: v[:]}
	case ReqGetChunk:
		c, err := db.GetChunk(ctx, req.Version)
		if err != nil {
			return fail(err)
		}
		if c.IsEmpty() {
			return fail(status.New(status.ChunkNotExists, "no chunk for hash %s", req.Version))
		}
		return Response{Value: c.Serialize()}
	case ReqPutChunk:
		if req.Value == nil || len(req.Value.Values) == 0 {
			return fail(status.New(status.InvalidCommandArgument, "PutChunk without chunk bytes"))
		}
		c, err := chunk.Parse(req.Value.Values[0])
		if err != nil {
			return fail(err)
		}
		accepted, err := db.PutChunk(ctx, c)
		if err != nil {
			return fail(err)
		}
		return Response{BValue: accepted}
	case ReqExistsChunk:
		ok, err := db.ExistsChunk(ctx, req.Version)
		if err != nil {
			return fail(err)
		}
		return Response{BValue: ok}
	case ReqGetInfo:
		return db.handleGetInfo(ctx)
	default:
		return fail(status.New(status.UnknownCommand, "no handler for request type %d", req.Type))
	}
}

func (db *DB) handlePut(ctx context.Context, req Request, merge bool) Response {
	if req.Value == nil {
		return fail(status.New(status.InvalidCommandArgument, "Put without a value payload"))
	}
	root, err := db.applyValue(ctx, req.Value)
	if err != nil {
		return fail(err)
	}
	var v hash.Hash
	if merge {
		v, err = db.Merge(ctx, req.Key, refOf(req.Branch, req.Version), refOf(req.RefBranch, req.RefVersion), req.Value.Type, root)
	} else {
		v, err = db.Put(ctx, req.Key, refOf(req.Branch, req.Version), req.Value.Type, root)
	}
	if err != nil {
		return fail(err)
	}
	return Response{Value: v[:]}
}

func (db *DB) handleGet(ctx context.Context, req Request) Response {
	c, err := db.Get(ctx, req.Key, refOf(req.Branch, req.Version))
	if err != nil {
		return fail(err)
	}
	switch c.Type {
	case chunk.Blob:
		b := objects.OpenBlob(db.Nodes, c.Root)
		size, err := b.Size(ctx)
		if err != nil {
			return fail(err)
		}
		data, err := b.Read(ctx, 0, size)
		if err != nil {
			return fail(err)
		}
		return Response{Value: data}
	case chunk.String:
		s, err := objects.OpenString(db.Nodes, c.Root).Data(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{Value: []byte(s)}
	case chunk.List:
		vals, err := objects.OpenList(db.Nodes, c.Root).Scan(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{LValue: vals}
	case chunk.Set:
		members, err := objects.OpenSet(db.Nodes, c.Root).Scan(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{LValue: members}
	case chunk.Map:
		pairs, err := objects.OpenMap(db.Nodes, c.Root).Scan(ctx)
		if err != nil {
			return fail(err)
		}
		// Keys and values interleave: k1, v1, k2, v2, ...
		out := make([][]byte, 0, 2*len(pairs))
		for _, p := range pairs {
			out = append(out, p[0], p[1])
		}
		return Response{LValue: out}
	default:
		return fail(status.New(status.TypeMismatch, "version %s has unreadable type %s", c.Hash(), c.Type))
	}
}

func (db *DB) handleList(ctx context.Context, req Request) Response {
	if len(req.Key) == 0 {
		keys, err := db.ListKeys(ctx)
		if err != nil {
			return fail(err)
		}
		return Response{LValue: keys}
	}
	branches, err := db.List(ctx, req.Key)
	if err != nil {
		return fail(err)
	}
	out := make([][]byte, len(branches))
	for i, b := range branches {
		out[i] = []byte(b)
	}
	return Response{LValue: out}
}

func (db *DB) handleGetInfo(ctx context.Context) Response {
	info, err := db.GetInfo(ctx)
	if err != nil {
		return fail(err)
	}
	lines := [][]byte{
		[]byte(infoLine("chunk_count", info.ChunkCount)),
		[]byte(infoLine("total_bytes", info.TotalBytes)),
		[]byte(infoLine("segment_count", uint64(info.SegmentCount))),
		[]byte(infoLine("free_segments", uint64(info.FreeSegments))),
	}
	for _, tc := range info.ByType {
		lines = append(lines, []byte(infoLine(tc.Type.String()+"_chunks", tc.Count)))
	}
	return Response{LValue: lines}
}

func infoLine(name string, v uint64) string {
	return name + "=" + strconv.FormatUint(v, 10)
}

// applyValue turns a ValuePayload into a new data root: the edit it
// describes is applied to the prior content named by Base (a splice for
// index-addressed kinds, key set/remove batches for key-addressed ones),
// or to a fresh empty object when Base is null.
func (db *DB) applyValue(ctx context.Context, vp *ValuePayload) (hash.Hash, error) {
	switch vp.Type {
	case chunk.Blob:
		var data []byte
		for _, v := range vp.Values {
			data = append(data, v...)
		}
		if vp.Base.IsEmpty() {
			b, err := objects.NewBlob(ctx, db.Nodes, data)
			return b.Root, err
		}
		b, err := objects.OpenBlob(db.Nodes, vp.Base).Splice(ctx, vp.Pos, int(vp.Dels), data)
		return b.Root, err
	case chunk.String:
		var data []byte
		if len(vp.Values) > 0 {
			data = vp.Values[0]
		}
		s, err := objects.NewString(ctx, db.Nodes, string(data))
		return s.Root, err
	case chunk.List:
		if vp.Base.IsEmpty() {
			l, err := objects.NewList(ctx, db.Nodes, vp.Values)
			return l.Root, err
		}
		l, err := objects.OpenList(db.Nodes, vp.Base).Splice(ctx, vp.Pos, int(vp.Dels), vp.Values)
		return l.Root, err
	case chunk.Map:
		m := objects.OpenMap(db.Nodes, vp.Base)
		var err error
		if vp.Base.IsEmpty() {
			if m, err = objects.NewMap(ctx, db.Nodes, nil); err != nil {
				return hash.Hash{}, err
			}
		}
		if len(vp.Values) == 0 && len(vp.Keys) > 0 {
			for _, k := range vp.Keys {
				if m, err = m.Remove(ctx, k); err != nil {
					return hash.Hash{}, err
				}
			}
			return m.Root, nil
		}
		if len(vp.Keys) != len(vp.Values) {
			return hash.Hash{}, status.New(status.InvalidCommandArgument, "map payload has %d keys but %d values", len(vp.Keys), len(vp.Values))
		}
		for i := range vp.Keys {
			if m, err = m.Set(ctx, vp.Keys[i], vp.Values[i]); err != nil {
				return hash.Hash{}, err
			}
		}
		return m.Root, nil
	case chunk.Set:
		s := objects.OpenSet(db.Nodes, vp.Base)
		var err error
		if vp.Base.IsEmpty() {
			if s, err = objects.NewSet(ctx, db.Nodes, nil); err != nil {
				return hash.Hash{}, err
			}
		}
		for _, k := range vp.Keys {
			if vp.Dels > 0 {
				s, err = s.Remove(ctx, k)
			} else {
				s, err = s.Set(ctx, k)
			}
			if err != nil {
				return hash.Hash{}, err
			}
		}
		return s.Root, nil
	default:
		return hash.Hash{}, status.New(status.TypeMismatch, "value payload has non-object type %s", vp.Type)
	}
}

// ListKeys returns every key with at least one recorded branch head.
func (db *DB) ListKeys(ctx context.Context) ([][]byte, error) {
	return db.Heads.ListKeys()
}
