// Package envelope normalizes inbound ACS call frames into a single typed
// value with trace metadata, produced once by the ACS ingress adapter and
// never mutated after publication.
package envelope

import (
	"time"

	"github.com/google/uuid"
	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/commons"
)

// Trace carries per-envelope ingress bookkeeping: a monotonic sequence
// number (scoped to the owning ingress adapter, never a process-wide
// global), the receive timestamp, and which ingress connection produced it.
type Trace struct {
	Sequence      int64
	ReceivedAtUTC time.Time
	IngressWSID   string
}

// Envelope is the normalized inbound ACS frame.
type Envelope struct {
	MessageID     string
	SessionID     string
	ParticipantID string // empty means absent
	ScenarioID    string
	CommitID      string
	TimestampUTC  time.Time
	Source        string // always "acs"
	Type          string // "audio", "audio.commit", "control", ...
	ContentType   string
	Payload       map[string]interface{}
	Trace         Trace
}

// RawACSFrame is the shape of one decoded ACS ingress WebSocket frame: a
// flat object with a "type" discriminator and a "payload" map, where audio
// frames carry base64 PCM under payload.audio_b64. Frames nested as a
// "message" object with "kind"/"audioData" fields are not mapped; their
// audio does not reach the envelope.
type RawACSFrame struct {
	MessageID     string                 `json:"message_id"`
	SessionID     string                 `json:"session_id"`
	CallID        string                 `json:"call_id"`
	ParticipantID string                 `json:"participant_id"`
	ScenarioID    string                 `json:"scenario_id"`
	CommitID      string                 `json:"commit_id"`
	TimestampUTC  string                 `json:"timestamp_utc"`
	Type          string                 `json:"type"`
	ContentType   string                 `json:"content_type"`
	Payload       map[string]interface{} `json:"payload"`
}

// FromACSFrame builds an Envelope from a raw decoded ACS frame, assigning
// the trace's sequence number and ingress identity. This is the sole
// construction path — envelopes are immutable afterward.
func FromACSFrame(frame RawACSFrame, sequence int64, ingressWSID string) Envelope {
	now := time.Now().UTC()
	sessionID := frame.SessionID
	if sessionID == "" {
		sessionID = frame.CallID
	}
	if sessionID == "" {
		sessionID = "unknown"
	}

	messageID := frame.MessageID
	if messageID == "" {
		messageID = uuid.NewString()
	}

	ts := now
	if frame.TimestampUTC != "" {
		if parsed, err := time.Parse(time.RFC3339, frame.TimestampUTC); err == nil {
			ts = parsed
		}
	}

	payload := frame.Payload
	if payload == nil {
		payload = map[string]interface{}{}
	}

	typ := frame.Type
	if typ == "" {
		typ = "unknown"
	}

	return Envelope{
		MessageID:     messageID,
		SessionID:     sessionID,
		ParticipantID: frame.ParticipantID,
		ScenarioID:    frame.ScenarioID,
		CommitID:      frame.CommitID,
		TimestampUTC:  ts,
		Source:        "acs",
		Type:          typ,
		ContentType:   frame.ContentType,
		Payload:       payload,
		Trace: Trace{
			Sequence:      sequence,
			ReceivedAtUTC: now,
			IngressWSID:   ingressWSID,
		},
	}
}

// EnsureAudioMetadata validates (but does not decode into the envelope) a
// base64 audio payload when the envelope's type starts with "audio". It
// fails fast on malformed frames before they reach acs_inbound_bus.
func (e Envelope) EnsureAudioMetadata() error {
	if len(e.Type) < 5 || e.Type[:5] != "audio" {
		return nil
	}
	b64, ok := e.Payload["audio_b64"].(string)
	if !ok || b64 == "" {
		return nil
	}
	if !audio.ValidBase64(b64) {
		return commons.NewAudioDecoding("invalid base64 audio payload", nil)
	}
	return nil
}
