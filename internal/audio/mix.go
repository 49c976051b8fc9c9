package audio

import (
	"encoding/binary"
	"math"
)

// ToMono downmixes interleaved PCM16 from srcChannels to mono, averaging
// channels with equal gain. srcChannels must be 1 or 2; 1 is a no-op copy.
func ToMono(pcm []byte, srcChannels int) []byte {
	if srcChannels == 1 {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out
	}
	frameBytes := 2 * srcChannels
	usable := (len(pcm) / frameBytes) * frameBytes
	frames := usable / frameBytes
	out := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		var sum int32
		for c := 0; c < srcChannels; c++ {
			s := int16(binary.LittleEndian.Uint16(pcm[i*frameBytes+c*2:]))
			sum += int32(s)
		}
		avg := int16(sum / int32(srcChannels))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(avg))
	}
	return out
}

// ToStereo upmixes mono PCM16 to stereo by duplicating each sample into both
// channels.
func ToStereo(pcm []byte, srcChannels int) []byte {
	if srcChannels == 2 {
		out := make([]byte, len(pcm))
		copy(out, pcm)
		return out
	}
	usable := (len(pcm) / 2) * 2
	frames := usable / 2
	out := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		sample := pcm[i*2 : i*2+2]
		copy(out[i*4:], sample)
		copy(out[i*4+2:], sample)
	}
	return out
}

// MixPCM16 sums same-length mono PCM16 frames sample-by-sample, averaging
// and clamping to int16 range. Frames shorter than frameLen are treated as
// silence for their missing tail. A single frame is returned unchanged.
func MixPCM16(frames [][]byte, frameLen int) []byte {
	if len(frames) == 1 {
		out := make([]byte, frameLen)
		copy(out, frames[0])
		return out
	}

	samples := frameLen / 2
	out := make([]byte, frameLen)
	for i := 0; i < samples; i++ {
		var sum int32
		for _, f := range frames {
			off := i * 2
			if off+2 > len(f) {
				continue
			}
			sum += int32(int16(binary.LittleEndian.Uint16(f[off:])))
		}
		avg := sum / int32(len(frames))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(clampInt16(float64(avg))))
	}
	return out
}

// RMSPCM16 computes the float RMS of int16 samples. For stereo input it
// returns the max of the per-channel RMS, so either channel's energy can
// trip a downstream VAD. Empty input returns 0.
func RMSPCM16(pcm []byte, channels int) float64 {
	if len(pcm) == 0 || channels <= 0 {
		return 0
	}
	frameBytes := 2 * channels
	frames := len(pcm) / frameBytes
	if frames == 0 {
		return 0
	}

	sumsSq := make([]float64, channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			off := i*frameBytes + c*2
			s := int16(binary.LittleEndian.Uint16(pcm[off:]))
			v := float64(s)
			sumsSq[c] += v * v
		}
	}

	maxRMS := 0.0
	for c := 0; c < channels; c++ {
		rms := math.Sqrt(sumsSq[c] / float64(frames))
		if rms > maxRMS {
			maxRMS = rms
		}
	}
	return maxRMS
}
