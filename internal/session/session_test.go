package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/config"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
	"github.com/rapidaai/translate-gateway/internal/vad"
)

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.True(t, cond(), "condition not met within timeout")
}

func newTestSession() *Session {
	cfg := config.Default()
	cfg.VoiceHysteresisMs = 10
	cfg.SilenceTimeoutMs = 10
	return New("sess-1", cfg, commons.NewNopLogger(), "ws://ingress.invalid", "ws://provider.invalid", "ws://egress.invalid", "openai_realtime")
}

func TestAudioDeltaEventPopulatesStoreAndMixer(t *testing.T) {
	s := newTestSession()

	pcm := make([]byte, 640) // 20ms @ 16kHz mono
	event := providerevent.Event{
		EventType:     providerevent.EventAudioDelta,
		SessionID:     "sess-1",
		ParticipantID: "p1",
		StreamID:      "st1",
		Provider:      "openai_realtime",
		AudioB64:      audio.EncodeBase64PCM(pcm),
	}

	ok := s.providerInboundBus.Publish(context.Background(), event)
	assert.True(t, ok)

	waitFor(t, func() bool {
		return len(s.store.Keys()) == 1
	}, time.Second)
}

func TestOnInputStateChangePausesAndResumesEgressSlot(t *testing.T) {
	s := newTestSession()

	// Before any barge-in, the gate has nothing registered for this
	// session, so stopping for it is a no-op.
	assert.Empty(t, s.gate.StopForSession("sess-1"))

	assert.NotPanics(t, func() {
		s.onInputStateChange(vad.StatusSpeaking)
		s.onInputStateChange(vad.StatusSilence)
	})
}

func TestStopIsIdempotent(t *testing.T) {
	s := newTestSession()
	s.emitter.Start(context.Background())
	assert.NotPanics(t, func() {
		s.Stop()
		s.Stop()
	})
}
