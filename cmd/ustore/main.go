// Command ustore is a thin CLI front end over a running engine: chunk
// store introspection plus Put/Get/Branch/Merge against a single-node
// FileStore + head table (outside the core per spec §1).
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dolthub/ustore/chunk"
	"github.com/dolthub/ustore/hash"
	"github.com/dolthub/ustore/headtable"
	"github.com/dolthub/ustore/objectdb"
	"github.com/dolthub/ustore/objects"
	"github.com/dolthub/ustore/segstore"
	"github.com/dolthub/ustore/tree"
)

var (
	dataDir     string
	numSegments int
	segSize     int
)

func openDB() (*objectdb.DB, func(), error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, err
	}
	store, err := segstore.Open(filepath.Join(dataDir, "ustore.dat"), numSegments, segSize)
	if err != nil {
		return nil, nil, err
	}
	heads, err := headtable.Open(filepath.Join(dataDir, "heads.bolt"))
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	db := objectdb.New(store, heads)
	closeAll := func() {
		heads.Close()
		store.Close()
	}
	return db, closeAll, nil
}

func main() {
	root := &cobra.Command{
		Use:   "ustore",
		Short: "Introspect and drive a single-node ustore engine",
	}
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "./ustore-data", "engine data directory")
	root.PersistentFlags().IntVar(&numSegments, "num-segments", 1024, "segment file segment count")
	root.PersistentFlags().IntVar(&segSize, "seg-size", segstore.DefaultSegSize, "segment size in bytes")

	root.AddCommand(infoCmd(), putCmd(), getCmd(), branchCmd(), mergeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print chunk store summary counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeAll, err := openDB()
			if err != nil {
				return err
			}
			defer closeAll()
			info, err := db.GetInfo(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("chunks: %d  bytes: %d  segments: %d  active: %d  free: %d  occupied: %.1f%%\n",
				info.ChunkCount, info.TotalBytes, info.SegmentCount, info.ActiveSegment, info.FreeSegments, info.OccupiedPercent)
			return nil
		},
	}
}

func putCmd() *cobra.Command {
	var branch string
	cmd := &cobra.Command{
		Use:   "put <key> <string-value>",
		Short: "Put a String value on a branch, creating the key if new",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeAll, err := openDB()
			if err != nil {
				return err
			}
			defer closeAll()
			ctx := context.Background()
			ns := tree.NewNodeStore(db.Store)
			key := []byte(args[0])

			str, err := objects.NewString(ctx, ns, args[1])
			if err != nil {
				return err
			}
			v, err := db.Put(ctx, key, objectdb.BranchRef(branch), chunk.String, str.Root)
			if err != nil {
				return err
			}
			fmt.Println(v.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "master", "branch to update")
	return cmd
}

// hashValue adapts a hash.Hash to pflag.Value so commands can accept an
// explicit base32 version hash.
type hashValue struct{ h *hash.Hash }

var _ pflag.Value = hashValue{}

func (v hashValue) String() string {
	if v.h == nil || v.h.IsEmpty() {
		return ""
	}
	return v.h.String()
}

func (v hashValue) Set(s string) error {
	h, ok := hash.MaybeParse(s)
	if !ok {
		return fmt.Errorf("invalid hash %q", s)
	}
	*v.h = h
	return nil
}

func (v hashValue) Type() string { return "hash" }

func getCmd() *cobra.Command {
	var branch string
	var version hash.Hash
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Read a key's String value off a branch head or exact version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeAll, err := openDB()
			if err != nil {
				return err
			}
			defer closeAll()
			ctx := context.Background()
			ns := tree.NewNodeStore(db.Store)
			key := []byte(args[0])

			ref := objectdb.BranchRef(branch)
			if !version.IsEmpty() {
				ref = objectdb.VersionRef(version)
			}
			c, err := db.Get(ctx, key, ref)
			if err != nil {
				return err
			}
			str := objects.OpenString(ns, c.Root)
			data, err := str.Data(ctx)
			if err != nil {
				return err
			}
			fmt.Println(data)
			return nil
		},
	}
	cmd.Flags().StringVar(&branch, "branch", "master", "branch to read")
	cmd.Flags().Var(hashValue{&version}, "version", "read this exact version instead of a branch head")
	return cmd
}

func branchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "branch <key> <src-branch> <new-branch>",
		Short: "Create a new branch pointing at src-branch's current head",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeAll, err := openDB()
			if err != nil {
				return err
			}
			defer closeAll()
			key := []byte(args[0])
			return db.Branch(context.Background(), key, objectdb.BranchRef(args[1]), args[2])
		},
	}
}

func mergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <key> <dst-branch> <src-branch> <string-value>",
		Short: "Merge src-branch into dst-branch, recording a merged String value",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeAll, err := openDB()
			if err != nil {
				return err
			}
			defer closeAll()
			ctx := context.Background()
			ns := tree.NewNodeStore(db.Store)
			key := []byte(args[0])

			str, err := objects.NewString(ctx, ns, args[3])
			if err != nil {
				return err
			}
			v, err := db.Merge(ctx, key, objectdb.BranchRef(args[1]), objectdb.BranchRef(args[2]), chunk.String, str.Root)
			if err != nil {
				return err
			}
			fmt.Println(v.String())
			return nil
		},
	}
	return cmd
}
