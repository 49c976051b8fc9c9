package acsegress

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/commons"
)

// Adapter writes outbound ACS frames over a WebSocket, reconnecting with
// exponential backoff mirroring the ingress adapter's policy. Nothing is
// queued here: a Send while disconnected is dropped and reports false, so
// any buffering during reconnection is the upstream bus slot's concern.
type Adapter struct {
	url    string
	logger commons.Logger

	initialDelay time.Duration
	maxDelay     time.Duration
	dial         func(url string) (*websocket.Conn, error)

	mu   sync.Mutex
	conn *websocket.Conn
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDialer overrides the WebSocket dial function (for tests).
func WithDialer(dial func(url string) (*websocket.Conn, error)) Option {
	return func(a *Adapter) { a.dial = dial }
}

// New constructs an Adapter for the ACS egress WebSocket at url.
func New(url string, logger commons.Logger, initialDelay, maxDelay time.Duration, opts ...Option) *Adapter {
	a := &Adapter{
		url:          url,
		logger:       logger,
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

// Run dials and holds the connection open until ctx is cancelled,
// reconnecting with exponential backoff on dial failure or a write error
// observed by Send.
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
			a.logger.Warnf("acsegress: dial failed: %v", err)
			if !a.sleepBackoff(ctx, boff.NextBackOff()) {
				return
			}
			continue
		}
		boff.Reset()

		a.mu.Lock()
		a.conn = conn
		a.mu.Unlock()

		a.readPump(ctx, conn)

		a.mu.Lock()
		if a.conn == conn {
			a.conn = nil
		}
		a.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		if !a.sleepBackoff(ctx, boff.NextBackOff()) {
			return
		}
	}
}

// readPump drains any frames ACS sends back (acks, control) purely to
// detect connection loss; it returns on ctx cancellation or the first read
// error, mirroring the ingress adapter's reconnect trigger.
func (a *Adapter) readPump(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
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

// Send serializes and writes one outbound message. Returns false (and logs)
// if no connection is currently established or the write fails; the
// connection is dropped so Run's next iteration redials.
func (a *Adapter) Send(msg OutboundMessage) bool {
	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()

	if conn == nil {
		a.logger.Warnw("acsegress: dropped message, not connected", "kind", msg.Kind)
		return false
	}

	raw, err := serialize(msg)
	if err != nil {
		a.logger.Errorw("acsegress: failed to serialize outbound message", "kind", msg.Kind, "error", err)
		return false
	}

	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		a.logger.Warnf("acsegress: write failed, will reconnect: %v", err)
		a.mu.Lock()
		if a.conn == conn {
			a.conn = nil
		}
		a.mu.Unlock()
		conn.Close()
		return false
	}
	return true
}

func serialize(msg OutboundMessage) ([]byte, error) {
	switch msg.Kind {
	case KindAudioChunk:
		return json.Marshal(wireAudioData{
			Kind: "audioData",
			AudioData: wireAudioField{
				Data:        audio.EncodeBase64PCM(msg.AudioChunk),
				Timestamp:   nil,
				Participant: nil,
				IsSilent:    false,
			},
			StopAudio: nil,
		})
	case KindAudioDone:
		f := msg.AudioDone
		return json.Marshal(wireAudioDone{
			Type:          "audio.done",
			SessionID:     f.SessionID,
			ParticipantID: f.ParticipantID,
			CommitID:      f.CommitID,
			StreamID:      f.StreamID,
			Provider:      f.Provider,
			Reason:        f.Reason,
			Error:         f.Error,
		})
	case KindControlStopAudio:
		f := msg.ControlStopAudio
		return json.Marshal(wireControlStopAudio{
			Type:          "control.stop_audio",
			SessionID:     f.SessionID,
			ParticipantID: f.ParticipantID,
			Detail:        f.Detail,
		})
	case KindTranscriptDelta:
		f := msg.TranscriptDelta
		return json.Marshal(wireTranscriptDelta{
			Type:          "translation.text_delta",
			SessionID:     f.SessionID,
			ParticipantID: f.ParticipantID,
			CommitID:      f.CommitID,
			StreamID:      f.StreamID,
			Provider:      f.Provider,
			Text:          f.Text,
			TimestampMs:   f.TimestampMs,
		})
	}
	return nil, commons.NewHandlerFault("unknown outbound message kind", nil)
}
