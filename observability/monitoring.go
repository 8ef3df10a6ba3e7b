// Package observability tracks the relay's lifetime counters and exposes
// point-in-time snapshots enriched with Go runtime metrics.
package observability

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

// Stats is one snapshot of the relay's activity.
type Stats struct {
	Sessions        int    `json:"sessions"`
	Rooms           int    `json:"rooms"`
	Connects        uint64 `json:"connects_total"`
	Disconnects     uint64 `json:"disconnects_total"`
	MessagesRelayed uint64 `json:"messages_relayed_total"`
	HistoryReplays  uint64 `json:"history_replays_total"`
	AllocMemMb      uint64 `json:"alloc_mem_mb"`
	NumGC           uint32 `json:"num_gc"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
}

// Monitor accumulates counters from the relay's hot path. All increments are
// atomic so callers never contend on a lock.
type Monitor struct {
	log     *slog.Logger
	started time.Time

	connects    uint64
	disconnects uint64
	messages    uint64
	replays     uint64
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{log: log, started: time.Now()}
}

func (m *Monitor) IncrConnect() {
	atomic.AddUint64(&m.connects, 1)
}

func (m *Monitor) IncrDisconnect() {
	atomic.AddUint64(&m.disconnects, 1)
}

func (m *Monitor) IncrMessageRelayed() {
	atomic.AddUint64(&m.messages, 1)
}

func (m *Monitor) IncrHistoryReplay() {
	atomic.AddUint64(&m.replays, 1)
}

// Snapshot merges the counters with current Go runtime metrics. The live
// session and room totals belong to the registry, so the caller provides
// them.
func (m *Monitor) Snapshot(sessions, rooms int) Stats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Stats{
		Sessions:        sessions,
		Rooms:           rooms,
		Connects:        atomic.LoadUint64(&m.connects),
		Disconnects:     atomic.LoadUint64(&m.disconnects),
		MessagesRelayed: atomic.LoadUint64(&m.messages),
		HistoryReplays:  atomic.LoadUint64(&m.replays),
		AllocMemMb:      mem.Alloc / 1024 / 1024,
		NumGC:           mem.NumGC,
		UptimeSeconds:   int64(time.Since(m.started).Seconds()),
	}
}

// Listen periodically logs the counters until the context ends. It is a
// debugging aid, not a metrics pipeline.
func (m *Monitor) Listen(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.log.Debug("Relay activity",
				"connects", atomic.LoadUint64(&m.connects),
				"disconnects", atomic.LoadUint64(&m.disconnects),
				"messages_relayed", atomic.LoadUint64(&m.messages),
				"history_replays", atomic.LoadUint64(&m.replays),
			)
		}
	}
}
