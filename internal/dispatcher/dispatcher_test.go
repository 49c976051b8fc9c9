package dispatcher

import (
	"context"
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rapidaai/translate-gateway/internal/acsegress"
	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/bargein"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/mixer"
	"github.com/rapidaai/translate-gateway/internal/playback"
	"github.com/rapidaai/translate-gateway/internal/playout"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []acsegress.OutboundMessage
}

func (f *fakeSender) Send(msg acsegress.OutboundMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return true
}

func (f *fakeSender) snapshot() []acsegress.OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]acsegress.OutboundMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

func newFixture() (*AudioDeltaHandler, *AudioDoneHandler, *fakeSender, *playout.Store) {
	store := playout.NewStore()
	m := mixer.NewCallMixer()
	gate := bargein.New(bargein.PauseAndBuffer)
	sender := &fakeSender{}
	target := audio.Default16kMono()

	delta := &AudioDeltaHandler{
		Store: store, Mixer: m, Gate: gate, Egress: sender, Logger: commons.NewNopLogger(),
		TargetFormat: target, FrameMs: 20, WarmupMs: 0,
	}
	done := &AudioDoneHandler{
		Store: store, Mixer: m, Gate: gate, Egress: sender, DrainTimeout: 50 * time.Millisecond,
	}
	return delta, done, sender, store
}

func TestAudioDeltaBuffersAndAudioDoneDrains(t *testing.T) {
	delta, done, sender, store := newFixture()

	pcm := make([]byte, 640) // 20ms @ 16kHz mono
	b64 := base64.StdEncoding.EncodeToString(pcm)

	event := providerevent.Event{
		EventType: providerevent.EventAudioDelta, SessionID: "s1", ParticipantID: "p1",
		StreamID: "st1", Provider: "speech_translator", AudioB64: b64,
	}
	require.NoError(t, delta.Handle(context.Background(), event))

	key := playout.StreamKey("s1", "p1", "st1", "")
	stream, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, 640, stream.Len())
	assert.Equal(t, playback.Playing, stream.Playback.State())

	doneEvent := providerevent.Event{
		EventType: providerevent.EventAudioDone, SessionID: "s1", ParticipantID: "p1",
		StreamID: "st1", Provider: "speech_translator",
	}
	require.NoError(t, done.Handle(context.Background(), doneEvent))

	_, ok = store.Get(key)
	assert.False(t, ok, "stream removed after audio.done")
	assert.Equal(t, playback.Idle, stream.Playback.State())

	sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, acsegress.KindAudioDone, sent[0].Kind)
	assert.Equal(t, "completed", sent[0].AudioDone.Reason)
}

func TestAudioDeltaInvalidBase64FailsStreamWithError(t *testing.T) {
	delta, _, sender, _ := newFixture()

	event := providerevent.Event{
		EventType: providerevent.EventAudioDelta, SessionID: "s1", ParticipantID: "p1",
		StreamID: "st1", Provider: "speech_translator", AudioB64: "not-valid-base64!!",
	}
	err := delta.Handle(context.Background(), event)
	assert.Error(t, err)

	sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "error", sent[0].AudioDone.Reason)
	assert.NotEmpty(t, sent[0].AudioDone.Error)
}

func TestAudioDoneDefaultsReasonToCompleted(t *testing.T) {
	_, done, sender, _ := newFixture()
	event := providerevent.Event{EventType: providerevent.EventAudioDone, SessionID: "s1", ParticipantID: "p1"}
	require.NoError(t, done.Handle(context.Background(), event))

	sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "completed", sent[0].AudioDone.Reason)
}

func TestDispatchFixedOrderFirstMatchWins(t *testing.T) {
	delta, done, sender, _ := newFixture()
	control := &ControlHandler{Store: playout.NewStore(), Egress: sender}
	transcriptDelta := &TranscriptDeltaHandler{Egress: sender}
	errHandler := &ErrorHandler{Logger: commons.NewNopLogger()}

	d := New(commons.NewNopLogger(), delta, done, transcriptDelta, control, errHandler)

	pcm := make([]byte, 640)
	b64 := base64.StdEncoding.EncodeToString(pcm)
	event := providerevent.Event{
		EventType: providerevent.EventAudioDelta, SessionID: "s1", ParticipantID: "p1",
		StreamID: "st1", Provider: "speech_translator", AudioB64: b64,
	}
	require.NoError(t, d.Dispatch(context.Background(), event))

	// Only the first matching handler (audio delta) should have acted;
	// nothing reaches the transcript handler for an audio.delta event.
	assert.Empty(t, sender.snapshot())
}

func TestDispatchUnmatchedEventIsLoggedNotErrored(t *testing.T) {
	d := New(commons.NewNopLogger())
	err := d.Dispatch(context.Background(), providerevent.Event{EventType: providerevent.EventControl})
	assert.NoError(t, err)
}

func TestTranscriptDeltaPublishesTextDelta(t *testing.T) {
	sender := &fakeSender{}
	h := &TranscriptDeltaHandler{Egress: sender}
	event := providerevent.Event{
		EventType: providerevent.EventTranscriptDelta, SessionID: "s1", ParticipantID: "p1", Text: "hola",
	}
	require.NoError(t, h.Handle(context.Background(), event))

	sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "hola", sent[0].TranscriptDelta.Text)
}

func TestControlStopAudioClearsBufferAndPublishes(t *testing.T) {
	store := playout.NewStore()
	fmt16 := audio.Default16kMono()
	stream := store.GetOrCreate(playout.StreamKey("s1", "p1", "st1", ""), "s1", "p1", fmt16, 640, 0)
	stream.Append(make([]byte, 640))

	sender := &fakeSender{}
	h := &ControlHandler{Store: store, Egress: sender}
	event := providerevent.Event{
		EventType: providerevent.EventControl, Action: "stop_audio", SessionID: "s1",
		ParticipantID: "p1", StreamID: "st1", Detail: "barge_in",
	}
	require.NoError(t, h.Handle(context.Background(), event))

	assert.Equal(t, 0, stream.Len())
	sent := sender.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, acsegress.KindControlStopAudio, sent[0].Kind)
}
