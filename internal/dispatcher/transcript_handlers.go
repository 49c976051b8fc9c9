package dispatcher

import (
	"context"

	"github.com/rapidaai/translate-gateway/internal/acsegress"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// TranscriptDeltaHandler publishes a transcript.delta as a
// translation.text_delta frame to ACS.
type TranscriptDeltaHandler struct {
	Egress Sender
}

func (h *TranscriptDeltaHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventTranscriptDelta
}

func (h *TranscriptDeltaHandler) Handle(ctx context.Context, event providerevent.Event) error {
	h.Egress.Send(acsegress.OutboundMessage{
		Kind: acsegress.KindTranscriptDelta,
		TranscriptDelta: &acsegress.TranscriptDeltaFields{
			SessionID:     event.SessionID,
			ParticipantID: event.ParticipantID,
			CommitID:      event.CommitID,
			StreamID:      event.StreamID,
			Provider:      event.Provider,
			Text:          event.Text,
			TimestampMs:   event.TimestampMs,
		},
	})
	return nil
}

// TranscriptDoneHandler publishes a transcript.done the same way as a
// delta — ACS distinguishes finals from deltas by the caller tracking
// commit_id completion, not by a separate wire shape.
type TranscriptDoneHandler struct {
	Egress Sender
}

func (h *TranscriptDoneHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventTranscriptDone
}

func (h *TranscriptDoneHandler) Handle(ctx context.Context, event providerevent.Event) error {
	h.Egress.Send(acsegress.OutboundMessage{
		Kind: acsegress.KindTranscriptDelta,
		TranscriptDelta: &acsegress.TranscriptDeltaFields{
			SessionID:     event.SessionID,
			ParticipantID: event.ParticipantID,
			CommitID:      event.CommitID,
			StreamID:      event.StreamID,
			Provider:      event.Provider,
			Text:          event.Text,
			TimestampMs:   event.TimestampMs,
		},
	})
	return nil
}
