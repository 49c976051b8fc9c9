// Package acsingress adapts the inbound ACS media WebSocket into envelopes
// published onto the inbound bus: it dials, reads JSON frames, assigns a
// per-adapter monotonic sequence number, validates audio payloads, and
// reconnects with exponential backoff on any read or dial failure.
package acsingress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rapidaai/translate-gateway/internal/bus"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/envelope"
)

// Bus is the subset of *bus.Bus the adapter needs, so tests can fake it.
type Bus interface {
	Publish(ctx context.Context, item interface{}) bool
}

var _ Bus = (*bus.Bus)(nil)

// Adapter dials the ACS ingress WebSocket and publishes one envelope per
// inbound frame onto a bus. Not safe for concurrent Run calls.
type Adapter struct {
	url    string
	wsID   string
	logger commons.Logger
	bus    Bus

	initialDelay time.Duration
	maxDelay     time.Duration
	dial         func(url string) (*websocket.Conn, error)

	mu       sync.Mutex
	sequence int64
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDialer overrides the WebSocket dial function (for tests).
func WithDialer(dial func(url string) (*websocket.Conn, error)) Option {
	return func(a *Adapter) { a.dial = dial }
}

// New constructs an Adapter for the ACS ingress WebSocket at url,
// publishing onto acsInboundBus.
func New(url, ingressWSID string, logger commons.Logger, acsInboundBus Bus, initialDelay, maxDelay time.Duration, opts ...Option) *Adapter {
	a := &Adapter{
		url:          url,
		wsID:         ingressWSID,
		logger:       logger,
		bus:          acsInboundBus,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		dial: func(url string) (*websocket.Conn, error) {
			conn, _, err := websocket.DefaultDialer.Dial(url, nil)
			return conn, err
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// nextSequence returns the next monotonically increasing sequence number
// for this adapter's process lifetime — it is never reset across
// reconnects.
func (a *Adapter) nextSequence() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sequence++
	return a.sequence
}

// Run dials and reads until ctx is cancelled, reconnecting with
// exponential backoff on any dial or read failure.
func (a *Adapter) Run(ctx context.Context) {
	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = a.initialDelay
	boff.MaxInterval = a.maxDelay
	boff.MaxElapsedTime = 0 // retry forever until ctx cancellation

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := a.dial(a.url)
		if err != nil {
			a.logger.Warnf("acsingress: dial failed: %v", err)
			if !a.sleepBackoff(ctx, boff.NextBackOff()) {
				return
			}
			continue
		}
		boff.Reset()

		a.readLoop(ctx, conn)
		conn.Close()

		if !a.sleepBackoff(ctx, boff.NextBackOff()) {
			return
		}
	}
}

func (a *Adapter) sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d == backoff.Stop {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// readLoop reads frames from conn until ctx is cancelled or a read error
// occurs (including a remote close), at which point it returns so Run can
// reconnect.
func (a *Adapter) readLoop(ctx context.Context, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.logger.Warnf("acsingress: read error, will reconnect: %v", err)
			return
		}
		a.handleFrame(ctx, raw)
	}
}

func (a *Adapter) handleFrame(ctx context.Context, raw []byte) {
	var frame envelope.RawACSFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		a.logger.Warnf("acsingress: malformed frame, dropping: %v", err)
		return
	}

	env := envelope.FromACSFrame(frame, a.nextSequence(), a.wsID)
	if err := env.EnsureAudioMetadata(); err != nil {
		a.logger.Warnw("acsingress: dropping frame with invalid audio metadata",
			"session_id", env.SessionID, "error", err)
		return
	}

	if !a.bus.Publish(ctx, env) {
		a.logger.Warnw("acsingress: envelope dropped by inbound bus overflow policy",
			"session_id", env.SessionID)
	}
}
