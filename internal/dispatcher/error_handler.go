package dispatcher

import (
	"context"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// ErrorHandler logs a provider-reported error event; it never propagates
// further into the audio pipeline.
type ErrorHandler struct {
	Logger commons.Logger
}

func (h *ErrorHandler) CanHandle(event providerevent.Event) bool {
	return event.EventType == providerevent.EventError
}

func (h *ErrorHandler) Handle(ctx context.Context, event providerevent.Event) error {
	h.Logger.Warnw("dispatcher: provider reported error",
		"session_id", event.SessionID, "participant_id", event.ParticipantID,
		"provider", event.Provider, "error", event.Error)
	return nil
}
