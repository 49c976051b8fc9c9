// Package mixer implements the one-per-call mixer and paced emitter: a
// single absolute-deadline ticker that collects one popped frame from each
// active participant buffer, mixes them, and hands the result to a sink at
// a steady frame_ms cadence — independent of how fast any upstream
// producer runs.
package mixer

import (
	"context"
	"sync"
	"time"

	"github.com/rapidaai/translate-gateway/internal/audio"
)

// FrameSource yields exactly one frame per call, real PCM or silence.
// *playout.Stream satisfies this via its embedded ParticipantAudioBuffer.
type FrameSource interface {
	PopFrame() []byte
}

// CallMixer mixes one frame per participant per tick into a single call
// output frame. With a single participant the input is forwarded
// unchanged (no mixing artifacts from a no-op sum-of-one).
type CallMixer struct {
	mu           sync.Mutex
	participants map[string]FrameSource
}

// NewCallMixer constructs an empty mixer.
func NewCallMixer() *CallMixer {
	return &CallMixer{participants: make(map[string]FrameSource)}
}

// AddParticipant registers (or replaces) a participant's frame source.
func (m *CallMixer) AddParticipant(id string, src FrameSource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.participants[id] = src
}

// RemoveParticipant drops a participant from the mix.
func (m *CallMixer) RemoveParticipant(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.participants, id)
}

// Tick collects exactly one frame from each registered participant and
// mixes them. Returns nil if there are no participants.
func (m *CallMixer) Tick() []byte {
	m.mu.Lock()
	sources := make([]FrameSource, 0, len(m.participants))
	for _, s := range m.participants {
		sources = append(sources, s)
	}
	m.mu.Unlock()

	if len(sources) == 0 {
		return nil
	}
	if len(sources) == 1 {
		return sources[0].PopFrame()
	}

	frames := make([][]byte, len(sources))
	frameLen := 0
	for i, s := range sources {
		frames[i] = s.PopFrame()
		if len(frames[i]) > frameLen {
			frameLen = len(frames[i])
		}
	}
	return audio.MixPCM16(frames, frameLen)
}

// Emitter paces CallMixer.Tick output at a fixed frame interval using an
// absolute-deadline schedule: next_deadline = start + n*frame_ms, with no
// catch-up burst when a tick runs late.
type Emitter struct {
	mixer     *CallMixer
	frameMs   int
	sink      func(frame []byte)
	mu        sync.Mutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewEmitter constructs a paced emitter over mixer, delivering each mixed
// frame to sink.
func NewEmitter(mixer *CallMixer, frameMs int, sink func(frame []byte)) *Emitter {
	return &Emitter{mixer: mixer, frameMs: frameMs, sink: sink}
}

// Start begins the pacing loop if not already running.
func (e *Emitter) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	loopCtx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.running = true
	e.wg.Add(2)

	go func() {
		defer e.wg.Done()
		select {
		case <-ctx.Done():
			cancel()
		case <-loopCtx.Done():
		}
	}()

	go func() {
		defer e.wg.Done()
		e.loop(loopCtx)
	}()
}

// Stop halts the pacing loop and waits for it to exit.
func (e *Emitter) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	cancel := e.cancel
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}

func (e *Emitter) loop(ctx context.Context) {
	interval := time.Duration(e.frameMs) * time.Millisecond
	start := time.Now()
	var n int64

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame := e.mixer.Tick()
		if frame != nil {
			e.sink(frame)
		}

		n++
		nextDeadline := start.Add(time.Duration(n) * interval)
		sleep := time.Until(nextDeadline)
		if sleep > 0 {
			timer := time.NewTimer(sleep)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		} else if sleep < -interval {
			// Late by more than one frame: snap the anchor to now instead of
			// letting the next iterations fire back-to-back to catch up.
			start = time.Now()
			n = 0
		}
	}
}
