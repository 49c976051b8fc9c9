package session

import (
	"context"
	"time"

	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/envelope"
	"github.com/rapidaai/translate-gateway/internal/vad"
)

// feedVAD drives an InputState from inbound envelope RMS energy: any
// "audio"-typed envelope carrying an audio_b64 payload is decoded and its
// RMS compared against threshold, non-audio envelopes are ignored.
func feedVAD(state *vad.InputState, threshold float64, channels int) func(ctx context.Context, item interface{}) error {
	return func(ctx context.Context, item interface{}) error {
		env, ok := item.(envelope.Envelope)
		if !ok || len(env.Type) < 5 || env.Type[:5] != "audio" {
			return nil
		}

		b64, ok := env.Payload["audio_b64"].(string)
		if !ok || b64 == "" {
			return nil
		}

		pcm, err := audio.DecodeBase64PCM(b64)
		if err != nil {
			return nil
		}

		now := time.Now()
		if audio.RMSPCM16(pcm, channels) >= threshold {
			state.OnVoiceDetected(now)
		} else {
			state.OnSilenceDetected(now)
		}
		return nil
	}
}
