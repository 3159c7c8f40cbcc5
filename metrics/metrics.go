// Package metrics wires the ambient Prometheus collectors every core
// package reports into: chunk store introspection, sync latency, head
// table operation latency, and cluster RPC latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dolthub/ustore/chunk"
)

var (
	// SyncLatency observes segstore.FileStore.Sync's flush duration
	// (spec §4.1's durability commit barrier).
	SyncLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ustore",
		Subsystem: "segstore",
		Name:      "sync_seconds",
		Help:      "Time spent flushing pending writes and the meta block to disk.",
		Buckets:   prometheus.DefBuckets,
	})

	// HeadTableOpLatency observes headtable.Table operations by name
	// (get_head, set_head, delete_head, advance_latest).
	HeadTableOpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ustore",
		Subsystem: "headtable",
		Name:      "op_seconds",
		Help:      "Time spent per head-table operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	// ClusterRPCLatency observes cluster.Client.GetChunk round trips by
	// outcome (spec §4.10, §9's timeout/retry design note).
	ClusterRPCLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ustore",
		Subsystem: "cluster",
		Name:      "rpc_seconds",
		Help:      "Time spent per cross-node chunk fetch, labeled by outcome.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"outcome"})

	// StoreChunkCount mirrors the latest chunk.StoreInfo.ChunkCount seen
	// from any chunk.Store this process reports on.
	StoreChunkCount = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ustore",
		Subsystem: "chunk",
		Name:      "store_chunk_count",
		Help:      "Number of chunks currently held by a chunk.Store, by store label.",
	}, []string{"store"})

	// StoreOccupiedPercent mirrors chunk.StoreInfo.OccupiedPercent.
	StoreOccupiedPercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ustore",
		Subsystem: "chunk",
		Name:      "store_occupied_percent",
		Help:      "Percentage of segments occupied, by store label.",
	}, []string{"store"})
)

func init() {
	prometheus.MustRegister(SyncLatency, HeadTableOpLatency, ClusterRPCLatency, StoreChunkCount, StoreOccupiedPercent)
}

// ObserveSync records a FileStore.Sync flush duration.
func ObserveSync(d time.Duration) {
	SyncLatency.Observe(d.Seconds())
}

// ObserveHeadTableOp records a named headtable.Table operation's
// duration.
func ObserveHeadTableOp(op string, d time.Duration) {
	HeadTableOpLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveClusterRPC records a cluster.Client.GetChunk round trip,
// labeled "ok", "error", or "timeout".
func ObserveClusterRPC(outcome string, d time.Duration) {
	ClusterRPCLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// ReportStoreInfo publishes a chunk.StoreInfo snapshot under label (e.g.
// a data directory or node name).
func ReportStoreInfo(label string, info chunk.StoreInfo) {
	StoreChunkCount.WithLabelValues(label).Set(float64(info.ChunkCount))
	StoreOccupiedPercent.WithLabelValues(label).Set(info.OccupiedPercent)
}
