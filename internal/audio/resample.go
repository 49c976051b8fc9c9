package audio

import (
	"encoding/binary"
	"sync"
)

// StreamingResampler owns conversion state across successive PCM16 chunks
// for one (srcRate, dstRate, channels) triple, built on linear interpolation
// between neighbouring input samples. Output is always frame-aligned; any
// input bytes not forming a complete frame are retained until the next call.
type StreamingResampler struct {
	srcRateHz int
	dstRateHz int
	channels  int

	mu      sync.Mutex
	pending []byte  // raw bytes not yet forming a complete frame
	buffer  []int16 // interleaved samples awaiting consumption
	pos     float64 // fractional frame-index of the next output sample
}

// NewStreamingResampler constructs a resampler for one participant/stream.
// Equal src/dst rates still produce a valid (identity) resampler.
func NewStreamingResampler(srcRateHz, dstRateHz, channels int) *StreamingResampler {
	return &StreamingResampler{srcRateHz: srcRateHz, dstRateHz: dstRateHz, channels: channels}
}

// SrcRateHz returns the source sample rate this resampler was built for.
func (r *StreamingResampler) SrcRateHz() int { return r.srcRateHz }

// DstRateHz returns the destination sample rate this resampler was built
// for.
func (r *StreamingResampler) DstRateHz() int { return r.dstRateHz }

// Channels returns the channel count this resampler was built for.
func (r *StreamingResampler) Channels() int { return r.channels }

func (r *StreamingResampler) ratio() float64 {
	return float64(r.srcRateHz) / float64(r.dstRateHz)
}

// Process resamples pcm, preserving converter state so concatenated outputs
// across calls form one continuous waveform. May return fewer bytes than a
// naive ratio would suggest while it waits for enough lookahead to
// interpolate; the remainder is emitted on the next Process call or Flush.
func (r *StreamingResampler) Process(pcm []byte) []byte {
	if len(pcm) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ingest(pcm)
	return r.drain(false)
}

// Flush pads any trailing sub-frame remainder with silence, drains all
// outstanding internal state, and resets the resampler.
func (r *StreamingResampler) Flush() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	frameBytes := 2 * r.channels
	if rem := len(r.pending) % frameBytes; rem != 0 {
		r.pending = append(r.pending, make([]byte, frameBytes-rem)...)
	}
	r.ingest(nil)
	out := r.drain(true)

	r.buffer = nil
	r.pending = nil
	r.pos = 0
	return out
}

// Reset returns the resampler to its initial state, discarding all buffered
// samples and position tracking.
func (r *StreamingResampler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = nil
	r.pending = nil
	r.pos = 0
}

// ingest folds pending+pcm into the interleaved sample buffer, keeping any
// sub-frame remainder in r.pending.
func (r *StreamingResampler) ingest(pcm []byte) {
	frameBytes := 2 * r.channels
	combined := append(r.pending, pcm...)
	usable := len(combined) - (len(combined) % frameBytes)
	if usable <= 0 {
		r.pending = combined
		return
	}
	r.pending = append([]byte{}, combined[usable:]...)

	samples := make([]int16, usable/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(combined[i*2:]))
	}
	r.buffer = append(r.buffer, samples...)
}

// drain runs the interpolation loop over whatever is currently in r.buffer.
// When final is true (Flush), the last frame is duplicated so the loop can
// consume right up to the tail without needing further lookahead.
func (r *StreamingResampler) drain(final bool) []byte {
	totalFrames := len(r.buffer) / r.channels
	if totalFrames == 0 {
		return nil
	}

	buf := r.buffer
	if final && totalFrames > 0 {
		lastFrame := buf[(totalFrames-1)*r.channels : totalFrames*r.channels]
		buf = append(append([]int16{}, buf...), lastFrame...)
		totalFrames++
	}

	ratio := r.ratio()
	var out []int16
	for r.pos <= float64(totalFrames-2) {
		i0 := int(r.pos)
		frac := r.pos - float64(i0)
		for c := 0; c < r.channels; c++ {
			s0 := float64(buf[i0*r.channels+c])
			s1 := float64(buf[(i0+1)*r.channels+c])
			v := s0 + (s1-s0)*frac
			out = append(out, clampInt16(v))
		}
		r.pos += ratio
	}

	if !final {
		consumedFrames := int(r.pos)
		if consumedFrames > 0 && consumedFrames < len(r.buffer)/r.channels {
			r.buffer = append([]int16{}, r.buffer[consumedFrames*r.channels:]...)
			r.pos -= float64(consumedFrames)
		} else if consumedFrames >= len(r.buffer)/r.channels {
			r.buffer = nil
			r.pos = 0
		}
	}

	return int16ToBytes(out)
}

func clampInt16(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func int16ToBytes(samples []int16) []byte {
	if len(samples) == 0 {
		return nil
	}
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// ResamplePCM16 is a stateless one-shot resample: equal rates are a no-op
// pass-through, otherwise it creates, processes, and flushes a streaming
// instance in one call — the documented consolidation of the source's
// multiple near-duplicate resampling paths onto a single streaming core.
func ResamplePCM16(pcm []byte, srcRateHz, dstRateHz, channels int) []byte {
	if srcRateHz == dstRateHz {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return TrimToFrameBoundary(out, Format{SampleRateHz: srcRateHz, Channels: channels, SampleFmt: SampleFormatPCM16})
	}
	r := NewStreamingResampler(srcRateHz, dstRateHz, channels)
	head := r.Process(pcm)
	tail := r.Flush()
	return append(head, tail...)
}
