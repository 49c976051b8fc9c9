// Package providerevent defines the normalized outbound provider event
// surface: a fixed set of tagged-variant payloads parsed once at the
// provider-client boundary and never re-parsed downstream.
package providerevent

// EventType enumerates the provider event surface from the external
// interface contract.
type EventType string

const (
	EventAudioDelta      EventType = "audio.delta"
	EventAudioDone       EventType = "audio.done"
	EventTranscriptDelta EventType = "transcript.delta"
	EventTranscriptDone  EventType = "transcript.done"
	EventControl         EventType = "control"
	EventError           EventType = "error"
)

// AudioFormatHint describes the source format a provider declares on an
// audio.delta event (or its family's declared default when omitted).
type AudioFormatHint struct {
	SampleRateHz int
	Channels     int
	Encoding     string // "pcm16"
}

// Event is the normalized outbound provider event. The core treats
// CommitID/StreamID as opaque correlation ids it never attempts to unify
// across providers.
type Event struct {
	EventType     EventType
	SessionID     string
	ParticipantID string
	CommitID      string
	StreamID      string
	Provider      string
	TimestampMs   *int64

	// AudioB64/SourceFormat populated for EventAudioDelta.
	AudioB64     string
	SourceFormat *AudioFormatHint

	// Text populated for EventTranscriptDelta/EventTranscriptDone.
	Text string

	// Action/Detail populated for EventControl (e.g. action=stop_audio).
	Action string
	Detail string

	// Reason/Error populated for EventAudioDone/EventError.
	Reason string
	Error  string
}

// ProviderFamily identifies which declared-default format family an event's
// provider belongs to, per the external interface's provider defaults
// table.
type ProviderFamily string

const (
	FamilyOpenAIRealtime    ProviderFamily = "openai_realtime"
	FamilySpeechTranslator  ProviderFamily = "speech_translator"
	FamilyLiveInterpreter   ProviderFamily = "live_interpreter"
	FamilyGeneric           ProviderFamily = "generic"
)

// DefaultFormat returns the provider family's declared default source
// format, used when an audio.delta event omits its format block.
func DefaultFormat(family ProviderFamily) AudioFormatHint {
	switch family {
	case FamilyOpenAIRealtime:
		return AudioFormatHint{SampleRateHz: 24000, Channels: 1, Encoding: "pcm16"}
	case FamilySpeechTranslator:
		return AudioFormatHint{SampleRateHz: 16000, Channels: 1, Encoding: "pcm16"}
	case FamilyLiveInterpreter:
		return AudioFormatHint{SampleRateHz: 16000, Channels: 1, Encoding: "pcm16"}
	default:
		return AudioFormatHint{SampleRateHz: 16000, Channels: 1, Encoding: "pcm16"}
	}
}
