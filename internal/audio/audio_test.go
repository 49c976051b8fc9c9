package audio

import (
	"encoding/binary"
	"testing"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mono16kFmt() Format {
	return Format{SampleRateHz: 16000, Channels: 1, SampleFmt: SampleFormatPCM16}
}

func sineInt16(n int, amp int16) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := int16(float64(amp) * 0.5)
		if i%2 == 0 {
			v = -v
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

func TestTrimToFrameBoundary(t *testing.T) {
	fmtMono := mono16kFmt()
	pcm := make([]byte, 641) // one byte past a full frame boundary
	trimmed := TrimToFrameBoundary(pcm, fmtMono)
	assert.Equal(t, 640, len(trimmed))
	assert.Equal(t, 0, len(trimmed)%fmtMono.BytesPerFrame())
}

func TestSplitByMsConcatenatesToTrimmed(t *testing.T) {
	fmtMono := mono16kFmt()
	pcm := sineInt16(333, 1000) // deliberately not frame/ms aligned
	trimmed := TrimToFrameBoundary(pcm, fmtMono)

	pieces := SplitByMs(pcm, fmtMono, 20)
	var total []byte
	for _, p := range pieces {
		assert.Equal(t, 0, len(p)%fmtMono.BytesPerFrame())
		total = append(total, p...)
	}
	assert.Equal(t, trimmed, total)
}

func TestChannelRoundTrip(t *testing.T) {
	mono := sineInt16(320, 2000)
	stereo := ToStereo(mono, 1)
	assert.Equal(t, len(mono)*2, len(stereo))

	backToMono := ToMono(stereo, 2)
	assert.Equal(t, mono, backToMono)
}

func TestRMSMonotonicity(t *testing.T) {
	base := sineInt16(320, 1000)
	doubled := make([]byte, len(base))
	for i := 0; i < len(base); i += 2 {
		s := int16(binary.LittleEndian.Uint16(base[i:]))
		binary.LittleEndian.PutUint16(doubled[i:], uint16(s*2))
	}

	rmsBase := RMSPCM16(base, 1)
	rmsDoubled := RMSPCM16(doubled, 1)
	assert.InDelta(t, rmsBase*2, rmsDoubled, 0.01)
}

func TestRMSEmptyIsZero(t *testing.T) {
	assert.Equal(t, 0.0, RMSPCM16(nil, 1))
}

func TestStreamingResamplerIdentityAtEqualRates(t *testing.T) {
	r := NewStreamingResampler(16000, 16000, 1)
	pcm := sineInt16(160, 1000)
	out := r.Process(pcm)
	out = append(out, r.Flush()...)
	assert.Equal(t, pcm, out)
}

func TestStreamingResamplerFrameAligned(t *testing.T) {
	r := NewStreamingResampler(24000, 16000, 1)
	pcm := sineInt16(480, 1000) // 20ms @ 24kHz mono
	out := r.Process(pcm)
	out = append(out, r.Flush()...)
	require.NotEmpty(t, out)
	assert.Equal(t, 0, len(out)%2)
}

func TestResamplePCM16NoOpAtEqualRates(t *testing.T) {
	pcm := sineInt16(160, 1000)
	out := ResamplePCM16(pcm, 16000, 16000, 1)
	assert.Equal(t, pcm, out)
}

func TestUnsupportedFormatRejected(t *testing.T) {
	_, err := NewFormat(16000, 3, SampleFormatPCM16)
	require.Error(t, err)
	kind, ok := commons.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, commons.KindUnsupportedAudioFormat, kind)
}
