package dispatcher

import (
	"context"

	"github.com/rapidaai/translate-gateway/internal/acsegress"
	"github.com/rapidaai/translate-gateway/internal/playback"
	"github.com/rapidaai/translate-gateway/internal/playout"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// ControlHandler reacts to control events, currently only stop_audio:
// clears the stream's buffer and publishes control.stop_audio to ACS.
type ControlHandler struct {
	Store  *playout.Store
	Egress Sender
}

func (h *ControlHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventControl
}

func (h *ControlHandler) Handle(ctx context.Context, event providerevent.Event) error {
	if event.Action != "stop_audio" {
		return nil
	}

	key := playout.StreamKey(event.SessionID, event.ParticipantID, event.StreamID, event.CommitID)
	if stream, ok := h.Store.Get(key); ok {
		stream.Clear()
		stream.Playback.Transition(playback.Interrupted)
	}

	h.Egress.Send(acsegress.OutboundMessage{
		Kind: acsegress.KindControlStopAudio,
		ControlStopAudio: &acsegress.ControlStopAudioFields{
			SessionID:     event.SessionID,
			ParticipantID: event.ParticipantID,
			Detail:        event.Detail,
		},
	})
	return nil
}
