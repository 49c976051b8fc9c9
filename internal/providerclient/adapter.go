// Package providerclient dials a translation provider's WebSocket,
// normalizes its provider-specific wire frames into providerevent.Event,
// and publishes them onto provider_inbound_bus. Reconnection mirrors the
// ACS ingress adapter: exponential backoff, redial on any read failure.
package providerclient

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// Bus is the subset of *bus.Bus the adapter needs.
type Bus interface {
	Publish(ctx context.Context, item interface{}) bool
}

// Normalizer converts one raw provider wire frame into a providerevent.Event.
// ok is false when the frame is recognized but carries nothing worth
// forwarding (e.g. a session handshake ack).
type Normalizer func(raw []byte, provider string) (event providerevent.Event, ok bool, err error)

// Adapter dials a provider WebSocket and publishes normalized events onto a
// bus.
type Adapter struct {
	url        string
	provider   string
	normalizer Normalizer
	logger     commons.Logger
	bus        Bus

	initialDelay time.Duration
	maxDelay     time.Duration
	dial         func(url string) (*websocket.Conn, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDialer overrides the WebSocket dial function (for tests).
func WithDialer(dial func(url string) (*websocket.Conn, error)) Option {
	return func(a *Adapter) { a.dial = dial }
}

// New constructs an Adapter for the given provider, normalizing frames with
// normalizer and publishing onto providerInboundBus.
func New(url, provider string, normalizer Normalizer, logger commons.Logger, providerInboundBus Bus, initialDelay, maxDelay time.Duration, opts ...Option) *Adapter {
	a := &Adapter{
		url: url, provider: provider, normalizer: normalizer, logger: logger, bus: providerInboundBus,
		initialDelay: initialDelay, maxDelay: maxDelay,
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

// Run dials and reads until ctx is cancelled, reconnecting with
// exponential backoff on dial or read failure.
func (a *Adapter) Run(ctx context.Context) {
	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = a.initialDelay
	boff.MaxInterval = a.maxDelay
	boff.MaxElapsedTime = 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := a.dial(a.url)
		if err != nil {
			a.logger.Warnf("providerclient: dial failed for %s: %v", a.provider, err)
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

func (a *Adapter) readLoop(ctx context.Context, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			a.logger.Warnf("providerclient: read error for %s, will reconnect: %v", a.provider, err)
			return
		}

		event, ok, err := a.normalizer(raw, a.provider)
		if err != nil {
			a.logger.Warnw("providerclient: failed to normalize provider frame",
				"provider", a.provider, "error", err)
			continue
		}
		if !ok {
			continue
		}

		if !a.bus.Publish(ctx, event) {
			a.logger.Warnw("providerclient: event dropped by inbound bus overflow policy",
				"provider", a.provider, "event_type", event.EventType)
		}
	}
}
