package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"gharkharcha/internal/services"
)

const (
	eventBuffer        = 32
	eventKeepAlive     = 30 * time.Second
	eventNameChange    = "change"
	eventNameKeepAlive = "ping"
)

// ChangeNotifier reports changes to the mirrored state.
type ChangeNotifier interface {
	OnChange(fn func(services.ChangeKind)) (cancel func())
}

// EventsHandler streams mirror changes as server-sent events.
type EventsHandler struct {
	notifier  ChangeNotifier
	keepAlive time.Duration
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(notifier ChangeNotifier) *EventsHandler {
	return &EventsHandler{notifier: notifier, keepAlive: eventKeepAlive}
}

// ChangeEvent is the payload of one change event.
type ChangeEvent struct {
	Kind services.ChangeKind `json:"kind"`
}

// Stream handles the change stream. Clients re-read the changed resource on
// each event; when a client falls behind, events are dropped rather than
// queued.
// @Summary     Stream changes
// @Description Server-sent events naming each part of the mirror that changed (session, expenses, familyMembers, budgets, loading)
// @Tags        events
// @Produce     text/event-stream
// @Security    ApiKeyAuth
// @Success     200 {object} ChangeEvent "Event stream"
// @Router      /events [get]
func (h *EventsHandler) Stream(c *gin.Context) {
	events := make(chan services.ChangeKind, eventBuffer)
	cancel := h.notifier.OnChange(func(kind services.ChangeKind) {
		select {
		case events <- kind:
		default:
		}
	})
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(_ io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case kind := <-events:
			c.SSEvent(eventNameChange, ChangeEvent{Kind: kind})
			return true
		case <-ticker.C:
			c.SSEvent(eventNameKeepAlive, gin.H{"at": time.Now().UTC()})
			return true
		}
	})
}
