// Package stream maintains the persistent event-stream connection to the
// backend, decodes each frame and routes it to the matching store update.
package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	sd "shopfloor_dashboard"
	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/models"

	"github.com/gorilla/websocket"
)

// Connection tuning defaults.
const (
	DefaultBackoffBase      = 500 * time.Millisecond
	DefaultBackoffMax       = 30 * time.Second
	DefaultReadTimeout      = 90 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	controlWriteWait        = 5 * time.Second
	maxFrameBytes           = 1 << 20 // 1 MB

	// A connection that stayed up at least this long resets the backoff window.
	stableConnection = 30 * time.Second
)

// Metric label values for frames that are not dispatched.
const (
	kindMalformed = "malformed"
	kindUnknown   = "unknown"
)

// Sink applies decoded messages. Calls arrive one at a time, in the order the
// frames were received.
type Sink interface {
	ApplyLog(e models.LogEntry)
	ApplyWorkflow(w models.WorkflowRecord)
	ApplySafetyResolved(id string)
}

// Observer is told about connection state changes.
type Observer interface {
	StreamConnected()
	StreamDisconnected(err error)
}

// Config configures a Listener.
type Config struct {
	URL              string
	BackoffBase      time.Duration
	BackoffMax       time.Duration
	ReadTimeout      time.Duration // max silence (no frame, ping or pong) before redialing
	HandshakeTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BackoffBase <= 0 {
		c.BackoffBase = DefaultBackoffBase
	}
	if c.BackoffMax <= 0 {
		c.BackoffMax = DefaultBackoffMax
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	return c
}

// Listener owns one persistent connection at a time and redials forever
// (with backoff) until its context is canceled. Frames are never buffered
// across connections, so a frame is applied at most once.
type Listener struct {
	cfg     Config
	sink    Sink
	obs     Observer
	log     *logger.Logger
	metrics *metrics.Metrics
	dialer  *websocket.Dialer
}

// NewListener builds a listener. obs, log and m may be nil.
func NewListener(cfg Config, sink Sink, obs Observer, log *logger.Logger, m *metrics.Metrics) *Listener {
	cfg = cfg.withDefaults()
	if log == nil {
		log = logger.NewNop()
	}
	return &Listener{
		cfg:     cfg,
		sink:    sink,
		obs:     obs,
		log:     log,
		metrics: m,
		dialer: &websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
	}
}

// Run connects and consumes frames until ctx is canceled.
func (l *Listener) Run(ctx context.Context) {
	bo := newBackoff(l.cfg.BackoffBase, l.cfg.BackoffMax)
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := l.dialer.DialContext(ctx, l.cfg.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.disconnected(fmt.Errorf("dial %s: %w", l.cfg.URL, err))
		} else {
			connectedAt := time.Now()
			l.connected()
			err = l.consume(ctx, conn)
			if ctx.Err() != nil {
				l.disconnected(nil)
				return
			}
			l.disconnected(err)
			if time.Since(connectedAt) >= stableConnection {
				bo.Reset()
			}
		}

		delay := bo.Next()
		l.log.Infow("stream_reconnect_scheduled", "in", delay, "url", l.cfg.URL)
		if !sleepCtx(ctx, delay) {
			return
		}
		l.metrics.StreamReconnect()
	}
}

// consume reads frames until the connection fails or ctx is canceled.
func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxFrameBytes)
	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	}
	_ = extend()
	conn.SetPongHandler(func(string) error { return extend() })
	conn.SetPingHandler(func(data string) error {
		_ = extend()
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = extend()
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		l.handleFrame(raw)
	}
}

// handleFrame decodes one frame and routes it. Nothing here may fail the connection.
func (l *Listener) handleFrame(raw []byte) {
	msg, err := Decode(raw)
	if err != nil {
		l.metrics.StreamMessage(kindMalformed)
		l.log.Debugw("stream_decode_failed", "err", err, "bytes", len(raw))
		return
	}
	if msg.Unknown {
		l.metrics.StreamMessage(kindUnknown)
		l.log.Debugw("stream_kind_ignored", "kind", msg.Kind)
		return
	}
	l.metrics.StreamMessage(msg.Kind)

	switch msg.Kind {
	case sd.KindLog:
		l.sink.ApplyLog(*msg.Log)
	case sd.KindTriage:
		l.sink.ApplyWorkflow(*msg.Workflow)
	case sd.KindSafetyResolved:
		if msg.ResolvedID == "" {
			l.log.Debugw("stream_safety_resolved_without_id")
			return
		}
		l.sink.ApplySafetyResolved(msg.ResolvedID)
	}
}

func (l *Listener) connected() {
	l.metrics.StreamConnected(true)
	l.log.Infow("stream_connected", "url", l.cfg.URL)
	if l.obs != nil {
		l.obs.StreamConnected()
	}
}

func (l *Listener) disconnected(err error) {
	l.metrics.StreamConnected(false)
	if err != nil {
		l.log.Warnw("stream_disconnected", "err", err, "url", l.cfg.URL)
	} else {
		l.log.Infow("stream_closed", "url", l.cfg.URL)
	}
	if l.obs != nil {
		l.obs.StreamDisconnected(err)
	}
}

// sleepCtx waits for d or ctx cancellation. Returns false if ctx was canceled.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
