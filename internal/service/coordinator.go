package service

import (
	"sync"
	"time"

	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/models"
	"shopfloor_dashboard/internal/store"
)

// Coordinator is the single entry point for every store mutation, whether it
// comes from a snapshot pull or from the event stream. Writes are applied in
// the order they reach the coordinator and the last one wins; there is no
// generation tracking, so a snapshot may revert a status set by an earlier
// safety_resolved patch until the backend persists it.
//
// After Close every write is dropped.
type Coordinator struct {
	state   *store.State
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// writeMu is held shared by writers and exclusively by Close, so no write
	// can land once Close returns. The store serializes the writers themselves.
	writeMu sync.RWMutex
	closed  bool

	statusMu sync.RWMutex
	sources  map[string]models.SourceStatus
	stream   models.StreamStatus
}

// NewCoordinator wraps state. log and m may be nil.
func NewCoordinator(state *store.State, log *logger.Logger, m *metrics.Metrics) *Coordinator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Coordinator{
		state:   state,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		sources: make(map[string]models.SourceStatus),
	}
}

// ReplaceMachines applies a machines snapshot. Each Replace method reports
// whether the write landed; it is false once the coordinator is closed.
func (c *Coordinator) ReplaceMachines(in []models.Machine) bool {
	return c.write(models.CollectionMachines, func() { c.state.ReplaceMachines(in) })
}

// ReplaceOrders applies an orders snapshot.
func (c *Coordinator) ReplaceOrders(in []models.Order) bool {
	return c.write(models.CollectionOrders, func() { c.state.ReplaceOrders(in) })
}

// ReplaceSafety applies a safety incidents snapshot. The snapshot is
// authoritative: it overwrites statuses set by earlier stream patches.
func (c *Coordinator) ReplaceSafety(in []models.SafetyIncident) bool {
	return c.write(models.CollectionSafety, func() { c.state.ReplaceSafety(in) })
}

// ReplaceLogs applies an action-log snapshot.
func (c *Coordinator) ReplaceLogs(in []models.LogEntry) bool {
	return c.write(models.CollectionLogs, func() { c.state.ReplaceLogs(in) })
}

// SnapshotFailed records a failed pull. The store keeps its previous contents.
func (c *Coordinator) SnapshotFailed(collection string, err error) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	st := c.sources[collection]
	st.LastAttempt = c.now()
	if err != nil {
		st.LastError = err.Error()
	}
	c.sources[collection] = st
}

// ApplyLog prepends a streamed log entry.
func (c *Coordinator) ApplyLog(e models.LogEntry) {
	now := c.now()
	e.ReceivedAt = &now
	c.write("", func() { c.state.PrependLog(e) })
}

// ApplyWorkflow prepends a streamed triage workflow.
func (c *Coordinator) ApplyWorkflow(w models.WorkflowRecord) {
	w.ReceivedAt = c.now()
	c.write("", func() { c.state.PrependWorkflow(w) })
}

// ApplySafetyResolved patches the incident's status in place. Unknown ids are
// a no-op: the record may have been evicted or never loaded.
func (c *Coordinator) ApplySafetyResolved(id string) {
	c.write("", func() {
		if !c.state.ResolveSafety(id) {
			c.log.Debugw("safety_resolved_unknown_id", "id", id)
		}
	})
}

// StreamConnected marks the event stream up.
func (c *Coordinator) StreamConnected() {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.stream.Connected = true
	c.stream.ConnectedSince = c.now()
	c.stream.LastError = ""
}

// StreamDisconnected marks the event stream down. A nil err means a clean
// shutdown; any other error counts as a connection failure to be redialed.
func (c *Coordinator) StreamDisconnected(err error) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	c.stream.Connected = false
	c.stream.ConnectedSince = time.Time{}
	if err != nil {
		c.stream.Reconnects++
		c.stream.LastError = err.Error()
	}
}

// Sources returns a copy of the per-collection pull status.
func (c *Coordinator) Sources() map[string]models.SourceStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	out := make(map[string]models.SourceStatus, len(c.sources))
	for k, v := range c.sources {
		out[k] = v
	}
	return out
}

// Stream returns the stream connection status.
func (c *Coordinator) Stream() models.StreamStatus {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	return c.stream
}

// Close drops every later write. It waits for writes already in progress.
func (c *Coordinator) Close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *Coordinator) Closed() bool {
	c.writeMu.RLock()
	defer c.writeMu.RUnlock()
	return c.closed
}

// write runs apply unless the coordinator is closed and reports whether it
// did. A non-empty collection marks a successful snapshot for that source.
func (c *Coordinator) write(collection string, apply func()) bool {
	c.writeMu.RLock()
	defer c.writeMu.RUnlock()
	if c.closed {
		return false
	}
	apply()
	if collection != "" {
		c.markFresh(collection)
	}
	c.metrics.StoreSizes(c.state.Counts())
	return true
}

func (c *Coordinator) markFresh(collection string) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	now := c.now()
	c.sources[collection] = models.SourceStatus{LastAttempt: now, LastSuccess: now}
}
