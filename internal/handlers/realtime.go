package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	apierrors "github.com/lolo262652/tasknot/internal/errors"
	"github.com/lolo262652/tasknot/internal/realtime"
)

const (
	writeWait = 10 * time.Second
	pingEvery = 30 * time.Second
)

// RealtimeHandler upgrades a session to a websocket and streams row-change
// events for one table, optionally filtered by column equality.
type RealtimeHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	log      *logrus.Entry
}

// NewRealtimeHandler creates a new RealtimeHandler
func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Session auth already ran; the browser origin is not re-checked
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: logrus.WithField("component", "realtime"),
	}
}

// Subscribe streams change events until the peer disconnects.
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	table := c.Query("table")
	switch table {
	case realtime.TableTasks, realtime.TableHistory, realtime.TableDocuments, realtime.TableProfiles:
	default:
		apierrors.BadRequest(c, "Unknown table")
		return
	}

	filter, err := realtime.ParseFilter(c.Query("filter"))
	if err != nil {
		apierrors.BadRequest(c, "Malformed filter")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		return
	}

	sub := h.hub.Subscribe(table, filter)
	defer h.hub.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Drain control frames and unblock on close
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingEvery)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.log.WithError(err).Debug("subscriber write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
