// Package audio implements the PCM16 kernel: format descriptors, chunking,
// mono/stereo conversion, streaming and one-shot resampling, and RMS energy.
// Every function here is a pure operation on PCM16 byte slices parameterized
// by Format; none of it retains state beyond StreamingResampler.
package audio

import (
	"github.com/rapidaai/translate-gateway/internal/commons"
)

// SampleFormat enumerates supported sample encodings. pcm16 is the only one
// the kernel understands.
type SampleFormat int

const (
	SampleFormatPCM16 SampleFormat = iota
)

// Format describes raw PCM audio. Immutable once constructed.
type Format struct {
	SampleRateHz int
	Channels     int
	SampleFmt    SampleFormat
}

// NewFormat validates and constructs a Format. Channels must be 1 or 2 and
// SampleFmt must be pcm16 — anything else is UnsupportedAudioFormat.
func NewFormat(sampleRateHz, channels int, sampleFmt SampleFormat) (Format, error) {
	f := Format{SampleRateHz: sampleRateHz, Channels: channels, SampleFmt: sampleFmt}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// Validate reports UnsupportedAudioFormat if the format is not pcm16 with
// mono/stereo channel count or a positive sample rate.
func (f Format) Validate() error {
	if f.SampleFmt != SampleFormatPCM16 {
		return commons.NewUnsupportedAudioFormat("sample format must be pcm16", nil)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return commons.NewUnsupportedAudioFormat("channels must be 1 or 2", nil)
	}
	if f.SampleRateHz <= 0 {
		return commons.NewUnsupportedAudioFormat("sample rate must be positive", nil)
	}
	return nil
}

// BytesPerSample returns the byte width of one sample. PCM16 = 2.
func (f Format) BytesPerSample() int { return 2 }

// BytesPerFrame returns bytes_per_sample * channels — the frame-alignment
// unit every kernel operation respects.
func (f Format) BytesPerFrame() int { return f.BytesPerSample() * f.Channels }

// BytesPerMs returns the number of PCM bytes in ms milliseconds of audio at
// this format, rounded down to whole frames. Used to size frame buffers and
// thresholds.
func (f Format) BytesPerMs(ms int) int {
	frameBytes := f.BytesPerFrame()
	samplesPerMs := f.SampleRateHz * ms / 1000
	return samplesPerMs * frameBytes
}

// Default16kMono is the ACS target format default: 16 kHz, mono, pcm16.
func Default16kMono() Format {
	return Format{SampleRateHz: 16000, Channels: 1, SampleFmt: SampleFormatPCM16}
}
