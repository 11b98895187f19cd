package handlers

import (
	"bookingpay/services/notification"

	"github.com/gin-gonic/gin"
)

type EventsHandler struct {
	Hub *notification.Hub
}

func NewEventsHandler(hub *notification.Hub) *EventsHandler {
	return &EventsHandler{Hub: hub}
}

// StreamEventsHandler upgrades to a websocket carrying the actor's booking and payment events.
func (h *EventsHandler) StreamEventsHandler(c *gin.Context) {
	id, ok := actorID(c)
	if !ok {
		return
	}
	notification.ServeWS(h.Hub, c.Writer, c.Request, id)
}
