// Package dispatcher fans out normalized provider events to a fixed,
// ordered list of sub-handlers: the first whose CanHandle returns true
// processes the event, and no event is processed twice.
package dispatcher

import (
	"context"

	"github.com/rapidaai/translate-gateway/internal/commons"
	"github.com/rapidaai/translate-gateway/internal/providerevent"
)

// Handler processes one kind of provider event.
type Handler interface {
	CanHandle(event providerevent.Event) bool
	Handle(ctx context.Context, event providerevent.Event) error
}

// Dispatcher holds a fixed-order handler list and consumes
// provider_inbound_bus items.
type Dispatcher struct {
	handlers []Handler
	logger   commons.Logger
}

// New constructs a Dispatcher trying handlers in the given order.
func New(logger commons.Logger, handlers ...Handler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: logger}
}

// Dispatch is the bus handler function: it tries each registered handler in
// order and stops at the first match. A handler error is logged and
// swallowed so the bus worker keeps flowing; an unmatched event is logged
// as unsupported.
func (d *Dispatcher) Dispatch(ctx context.Context, item interface{}) error {
	event, ok := item.(providerevent.Event)
	if !ok {
		d.logger.Warnw("dispatcher: received non-event item, dropping")
		return nil
	}

	for _, h := range d.handlers {
		if !h.CanHandle(event) {
			continue
		}
		if err := h.Handle(ctx, event); err != nil {
			d.logger.Errorw("dispatcher: handler fault",
				"event_type", event.EventType, "session_id", event.SessionID, "error", err)
		}
		return nil
	}

	d.logger.Warnw("dispatcher: no handler matched event",
		"event_type", event.EventType, "session_id", event.SessionID)
	return nil
}
