package providerclient

import (
	"encoding/json"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// wireFrame is the common envelope shared by every supported provider's
// realtime event stream: a discriminator field plus a flat bag of the
// fields any event type might carry.
type wireFrame struct {
	Type          string  `json:"type"`
	SessionID     string  `json:"session_id"`
	ParticipantID string  `json:"participant_id"`
	CommitID      string  `json:"commit_id"`
	StreamID      string  `json:"stream_id"`
	TimestampMs   *int64  `json:"timestamp_ms"`
	AudioB64      string  `json:"audio_b64"`
	SampleRateHz  int     `json:"sample_rate_hz"`
	Channels      int     `json:"channels"`
	Text          string  `json:"text"`
	Action        string  `json:"action"`
	Detail        string  `json:"detail"`
	Reason        string  `json:"reason"`
	Error         string  `json:"error"`
}

// DefaultNormalizer maps the shared realtime wire frame shape onto
// providerevent.Event. It recognizes audio.delta, audio.done,
// transcript.delta, transcript.done, control, and error type tags;
// anything else is dropped (ok=false) rather than erroring, since a
// provider's handshake/ack frames are expected noise, not malformed input.
func DefaultNormalizer(raw []byte, provider string) (providerevent.Event, bool, error) {
	var f wireFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return providerevent.Event{}, false, commons.NewHandlerFault("malformed provider frame", err)
	}

	base := providerevent.Event{
		SessionID:     f.SessionID,
		ParticipantID: f.ParticipantID,
		CommitID:      f.CommitID,
		StreamID:      f.StreamID,
		Provider:      provider,
		TimestampMs:   f.TimestampMs,
	}

	switch f.Type {
	case "audio.delta":
		base.EventType = providerevent.EventAudioDelta
		base.AudioB64 = f.AudioB64
		if f.SampleRateHz > 0 && f.Channels > 0 {
			base.SourceFormat = &providerevent.AudioFormatHint{
				SampleRateHz: f.SampleRateHz, Channels: f.Channels, Encoding: "pcm16",
			}
		}
		return base, true, nil
	case "audio.done":
		base.EventType = providerevent.EventAudioDone
		base.Reason = f.Reason
		base.Error = f.Error
		return base, true, nil
	case "transcript.delta":
		base.EventType = providerevent.EventTranscriptDelta
		base.Text = f.Text
		return base, true, nil
	case "transcript.done":
		base.EventType = providerevent.EventTranscriptDone
		base.Text = f.Text
		return base, true, nil
	case "control":
		base.EventType = providerevent.EventControl
		base.Action = f.Action
		base.Detail = f.Detail
		return base, true, nil
	case "error":
		base.EventType = providerevent.EventError
		base.Error = f.Error
		return base, true, nil
	default:
		return providerevent.Event{}, false, nil
	}
}
