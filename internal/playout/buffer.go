// Package playout implements per-participant PCM buffering, the playout
// stream/store index keyed by (session, participant, stream), and the
// warm-up-watermark pop_frame contract the call mixer relies on.
package playout

import "sync"

// ParticipantAudioBuffer is a per-participant PCM16 ring of the call's
// target format. PopFrame always returns exactly one frame: real PCM once
// the warm-up watermark has been crossed and at least one frame remains,
// a silence frame otherwise. Once crossed, warm-up is not re-armed until
// Clear.
type ParticipantAudioBuffer struct {
	mu          sync.Mutex
	frameBytes  int
	warmupBytes int
	buf         []byte
	warmed      bool
}

// NewParticipantAudioBuffer constructs a buffer with the given frame size
// (typically one 20ms frame in the target format) and warm-up watermark in
// bytes.
func NewParticipantAudioBuffer(frameBytes, warmupBytes int) *ParticipantAudioBuffer {
	return &ParticipantAudioBuffer{frameBytes: frameBytes, warmupBytes: warmupBytes}
}

// Append accumulates converted PCM into the buffer.
func (b *ParticipantAudioBuffer) Append(pcm []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, pcm...)
}

// PopFrame returns exactly one frame of FrameBytes() length — real PCM if
// warm-up has been crossed (now or previously) and a full frame is
// buffered, otherwise silence.
func (b *ParticipantAudioBuffer) PopFrame() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.warmed {
		if len(b.buf) >= b.warmupBytes {
			b.warmed = true
		} else {
			return silence(b.frameBytes)
		}
	}

	if len(b.buf) >= b.frameBytes {
		frame := make([]byte, b.frameBytes)
		copy(frame, b.buf[:b.frameBytes])
		b.buf = b.buf[b.frameBytes:]
		return frame
	}
	return silence(b.frameBytes)
}

// Clear empties the buffer and re-arms warm-up.
func (b *ParticipantAudioBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = nil
	b.warmed = false
}

// Len reports the number of buffered bytes not yet popped.
func (b *ParticipantAudioBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// FrameBytes reports the configured frame size.
func (b *ParticipantAudioBuffer) FrameBytes() int { return b.frameBytes }

func silence(n int) []byte {
	return make([]byte, n)
}
