package migration

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/schemaflow/schemaflow/internal/httpapi"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the upstream gateway.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// progressMessage is the wire shape pushed to progress subscribers
type progressMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleProgress upgrades to a WebSocket and relays the caller's own
// progress topic. Events are fire-and-forget: a client connecting after
// an event was published reconciles through the status endpoint.
func (h *Handler) handleProgress(c *gin.Context) {
	userID := httpapi.UserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.LogError(err, "failed to upgrade progress connection")
		return
	}
	defer conn.Close()

	events, cancel, err := h.subscriber.Subscribe(c.Request.Context(), userID)
	if err != nil {
		h.logger.LogError(err, "failed to subscribe to progress topic")
		return
	}
	defer cancel()

	// Drain reads so client close frames are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for event := range events {
		msg := progressMessage{Status: event.Status, Message: event.Message}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
