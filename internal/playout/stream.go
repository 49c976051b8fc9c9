package playout

import (
	"sync"
	"time"

	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/playback"
)

// Stream is the per-(session, participant, stream) playout state: it owns
// its buffer (via the embedded ParticipantAudioBuffer) and an optional
// resampler when the provider's source format differs from the call's
// target format. Created on first audio.delta for the stream; removed on
// audio.done or session teardown. A PAUSE_AND_DROP barge-in empties its
// buffer but leaves the stream in the store.
type Stream struct {
	*ParticipantAudioBuffer

	ID            string
	SessionID     string
	ParticipantID string
	StreamKey     string
	Fmt           audio.Format
	Playback      *playback.Machine

	mu         sync.Mutex
	done       bool
	Resampler  *audio.StreamingResampler
}

// EnterPlaying transitions the stream's playback state into Playing,
// recovering from Interrupted (which must pass through Idle first) rather
// than rejecting the transition outright.
func (s *Stream) EnterPlaying() {
	if s.Playback.Transition(playback.Playing) {
		return
	}
	if s.Playback.State() == playback.Interrupted {
		s.Playback.Transition(playback.Idle)
		s.Playback.Transition(playback.Playing)
	}
}

// MarkDone flags the stream as having received its terminating audio.done
// — no further audio.delta is expected.
func (s *Stream) MarkDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
}

// Done reports whether the stream has been marked done.
func (s *Stream) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// WaitDrained blocks (bounded by timeout) until the paced emitter has
// popped every buffered frame, or the timeout elapses. Returns whether the
// buffer was empty when it returned.
func (s *Stream) WaitDrained(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.Len() == 0 {
			return true
		}
		if time.Now().After(deadline) {
			return s.Len() == 0
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// PadToFrameBoundary zero-pads the buffer up to the next frame boundary, so
// a final partial frame is still emitted rather than discarded.
func (s *Stream) PadToFrameBoundary() {
	remainder := s.Len() % s.FrameBytes()
	if remainder == 0 {
		return
	}
	s.Append(make([]byte, s.FrameBytes()-remainder))
}
