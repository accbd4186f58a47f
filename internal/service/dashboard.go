package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"shopfloor_dashboard/internal/logger"

	"github.com/sourcegraph/conc"
)

// DefaultSnapshotInterval is the pull cadence when none is configured.
const DefaultSnapshotInterval = 5 * time.Second

// ErrAlreadyStarted is returned by a second Start.
var ErrAlreadyStarted = errors.New("dashboard already started")

// Loader refreshes every snapshot-backed store once.
type Loader interface {
	LoadAll(ctx context.Context) map[string]error
}

// StreamRunner consumes the event stream until ctx is canceled.
type StreamRunner interface {
	Run(ctx context.Context)
}

// Dashboard owns the process-wide sync resources: the pull cadence timer and
// the stream connection. Both are acquired by Start and released together by Stop.
type Dashboard struct {
	loader   Loader
	stream   StreamRunner
	coord    *Coordinator
	interval time.Duration
	log      *logger.Logger

	reload chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	wg      conc.WaitGroup
}

// NewDashboard wires the sync loops. A non-positive interval uses DefaultSnapshotInterval.
func NewDashboard(loader Loader, stream StreamRunner, coord *Coordinator, interval time.Duration, log *logger.Logger) *Dashboard {
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Dashboard{
		loader:   loader,
		stream:   stream,
		coord:    coord,
		interval: interval,
		log:      log,
		reload:   make(chan struct{}, 1),
	}
}

// Start loads every snapshot once, then keeps pulling on the cadence and
// consuming the stream in the background. It returns immediately.
func (d *Dashboard) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return ErrAlreadyStarted
	}
	d.started = true

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.wg.Go(func() { d.stream.Run(runCtx) })
	d.wg.Go(func() { d.pollLoop(runCtx) })
	d.log.Infow("dashboard_started", "snapshot_interval", d.interval)
	return nil
}

// Stop closes the stream, cancels the timer and waits for both loops. A pull
// still in flight finishes, but its result is discarded. Stop is idempotent.
func (d *Dashboard) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	cancel := d.cancel
	d.mu.Unlock()

	d.coord.Close()
	cancel()
	d.wg.Wait()
	d.log.Infow("dashboard_stopped")
}

// Reload requests an immediate refresh of every snapshot-backed store,
// bypassing the timer. Requests made while one is pending are coalesced.
func (d *Dashboard) Reload() {
	select {
	case d.reload <- struct{}{}:
	default:
	}
}

func (d *Dashboard) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.loadAll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.loadAll(ctx)
		case <-d.reload:
			d.loadAll(ctx)
		}
	}
}

// loadAll is not canceled by Stop: pulls have no per-request cancellation.
func (d *Dashboard) loadAll(ctx context.Context) {
	d.loader.LoadAll(context.WithoutCancel(ctx))
}
