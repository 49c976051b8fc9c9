package dispatcher

import (
	"context"
	"time"

	"github.com/rapidaai/translate-gateway/internal/acsegress"
	"github.com/rapidaai/translate-gateway/internal/audio"
	"github.com/rapidaai/translate-gateway/internal/bargein"
	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/mixer"
	"github.com/rapidaai/translate-gateway/internal/playback"
	"github.com/rapidaai/translate-gateway/internal/playout"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// Sender is the subset of acsegress.Adapter used by the audio handlers.
type Sender interface {
	Send(msg acsegress.OutboundMessage) bool
}

// familyOf maps a provider name onto the declared-default format family; an
// unrecognized provider name falls back to the generic family.
func familyOf(provider string) providerevent.ProviderFamily {
	switch provider {
	case "openai_realtime", "voice_live", "voicelive", "realtime":
		return providerevent.FamilyOpenAIRealtime
	case "speech_translator", "speechtranslator":
		return providerevent.FamilySpeechTranslator
	case "live_interpreter", "liveinterpreter":
		return providerevent.FamilyLiveInterpreter
	default:
		return providerevent.FamilyGeneric
	}
}

// AudioDeltaHandler decodes, transcodes, and buffers one audio.delta event
// into its playout stream, ensuring the stream's buffer feeds the call
// mixer and is tracked by the barge-in gate.
type AudioDeltaHandler struct {
	Store         *playout.Store
	Mixer         *mixer.CallMixer
	Gate          *bargein.Gate
	Egress        Sender
	Logger        commons.Logger
	TargetFormat  audio.Format
	FrameMs       int
	WarmupMs      int
}

func (h *AudioDeltaHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventAudioDelta
}

func (h *AudioDeltaHandler) Handle(ctx context.Context, event providerevent.Event) error {
	pcm, err := audio.DecodeBase64PCM(event.AudioB64)
	if err != nil {
		h.failStream(event, "invalid base64 audio payload")
		return commons.NewAudioDecoding("invalid audio.delta payload", err)
	}

	srcFmt, err := resolveSourceFormat(event, familyOf(event.Provider))
	if err != nil {
		h.failStream(event, err.Error())
		return err
	}

	key := playout.StreamKey(event.SessionID, event.ParticipantID, event.StreamID, event.CommitID)
	frameBytes := h.TargetFormat.BytesPerMs(h.FrameMs)
	warmupBytes := h.TargetFormat.BytesPerMs(h.WarmupMs)
	stream := h.Store.GetOrCreate(key, event.SessionID, event.ParticipantID, h.TargetFormat, frameBytes, warmupBytes)

	converted, err := transcode(pcm, srcFmt, h.TargetFormat, &stream.Resampler)
	if err != nil {
		h.failStream(event, err.Error())
		h.Store.Remove(key)
		return commons.NewAudioTranscoding("audio.delta transcode failed", err)
	}

	stream.Append(converted)
	stream.EnterPlaying()
	h.Mixer.AddParticipant(event.ParticipantID, stream)
	h.Gate.RegisterStream(event.SessionID, key, func(streamKey string) {
		if s, ok := h.Store.Get(streamKey); ok {
			s.Clear()
			s.Playback.Transition(playback.Interrupted)
		}
	})
	return nil
}

func (h *AudioDeltaHandler) failStream(event providerevent.Event, reason string) {
	h.Egress.Send(acsegress.OutboundMessage{
		Kind: acsegress.KindAudioDone,
		AudioDone: &acsegress.AudioDoneFields{
			SessionID:     event.SessionID,
			ParticipantID: event.ParticipantID,
			CommitID:      event.CommitID,
			StreamID:      event.StreamID,
			Provider:      event.Provider,
			Reason:        "error",
			Error:         reason,
		},
	})
}

// AudioDoneHandler flushes, pads, drains, and tears down the playout stream
// for a completed (or errored) audio.delta run.
type AudioDoneHandler struct {
	Store        *playout.Store
	Mixer        *mixer.CallMixer
	Gate         *bargein.Gate
	Egress       Sender
	DrainTimeout time.Duration
}

func (h *AudioDoneHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventAudioDone
}

func (h *AudioDoneHandler) Handle(ctx context.Context, event providerevent.Event) error {
	key := playout.StreamKey(event.SessionID, event.ParticipantID, event.StreamID, event.CommitID)
	stream, ok := h.Store.Get(key)

	reason := event.Reason
	if reason == "" {
		reason = "completed"
	}

	if ok {
		if stream.Resampler != nil {
			stream.Append(stream.Resampler.Flush())
		}
		stream.PadToFrameBoundary()
		stream.MarkDone()
		stream.Playback.Transition(playback.Draining)
		stream.WaitDrained(h.DrainTimeout)
		stream.Playback.Transition(playback.Idle)
	}

	h.Egress.Send(acsegress.OutboundMessage{
		Kind: acsegress.KindAudioDone,
		AudioDone: &acsegress.AudioDoneFields{
			SessionID:     event.SessionID,
			ParticipantID: event.ParticipantID,
			CommitID:      event.CommitID,
			StreamID:      event.StreamID,
			Provider:      event.Provider,
			Reason:        reason,
			Error:         event.Error,
		},
	})

	h.Mixer.RemoveParticipant(event.ParticipantID)
	h.Gate.UnregisterStream(event.SessionID, key)
	h.Store.Remove(key)
	return nil
}
