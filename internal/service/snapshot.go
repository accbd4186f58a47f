package service

import (
	"context"
	"errors"
	"sync"

	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/models"

	"github.com/sourcegraph/conc"
)

// errSnapshotDiscarded marks a pull whose result arrived after teardown.
var errSnapshotDiscarded = errors.New("snapshot discarded after close")

// SnapshotSource produces full collections. backend.Client implements it.
type SnapshotSource interface {
	FetchMachines(ctx context.Context) ([]models.Machine, error)
	FetchOrders(ctx context.Context) ([]models.Order, error)
	FetchSafetyIncidents(ctx context.Context) ([]models.SafetyIncident, error)
	FetchLogs(ctx context.Context) ([]models.LogEntry, error)
}

// SnapshotLoader pulls every snapshot-backed collection and replaces the
// matching store wholesale. Pulls are independent: one failing leaves only its
// own store stale.
type SnapshotLoader struct {
	src     SnapshotSource
	coord   *Coordinator
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewSnapshotLoader builds a loader. log and m may be nil.
func NewSnapshotLoader(src SnapshotSource, coord *Coordinator, log *logger.Logger, m *metrics.Metrics) *SnapshotLoader {
	if log == nil {
		log = logger.NewNop()
	}
	return &SnapshotLoader{src: src, coord: coord, log: log, metrics: m}
}

// LoadAll runs the four pulls concurrently and waits for all of them. The
// returned map has one entry per collection; a nil value means the snapshot
// was applied.
func (l *SnapshotLoader) LoadAll(ctx context.Context) map[string]error {
	var (
		mu      sync.Mutex
		results = make(map[string]error, 4)
		wg      conc.WaitGroup
	)
	record := func(collection string, err error) {
		mu.Lock()
		results[collection] = err
		mu.Unlock()
		l.finish(collection, err)
	}

	wg.Go(func() {
		record(models.CollectionMachines, pull(ctx, l.src.FetchMachines, l.coord.ReplaceMachines))
	})
	wg.Go(func() {
		record(models.CollectionOrders, pull(ctx, l.src.FetchOrders, l.coord.ReplaceOrders))
	})
	wg.Go(func() {
		record(models.CollectionSafety, pull(ctx, l.src.FetchSafetyIncidents, l.coord.ReplaceSafety))
	})
	wg.Go(func() {
		record(models.CollectionLogs, pull(ctx, l.src.FetchLogs, l.coord.ReplaceLogs))
	})

	if r := wg.WaitAndRecover(); r != nil {
		l.log.Errorw("snapshot_pull_panicked", "panic", r.String())
	}
	return results
}

// finish logs and counts one pull outcome. A discarded result is neither a
// success nor a failure.
func (l *SnapshotLoader) finish(collection string, err error) {
	if errors.Is(err, errSnapshotDiscarded) {
		l.log.Debugw("snapshot_pull_discarded", "collection", collection)
		return
	}
	l.metrics.SnapshotPull(collection, err)
	if err != nil {
		l.coord.SnapshotFailed(collection, err)
		l.log.Warnw("snapshot_pull_failed", "collection", collection, "err", err)
		return
	}
	l.log.Debugw("snapshot_pull_applied", "collection", collection)
}

// pull fetches one collection and hands it to apply on success.
func pull[T any](ctx context.Context, fetch func(context.Context) ([]T, error), apply func([]T) bool) error {
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	if !apply(items) {
		return errSnapshotDiscarded
	}
	return nil
}
