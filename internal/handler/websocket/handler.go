package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/sairamarava/CodeTogether/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the editor's own origin; cross-origin
	// checks happen at the proxy in front of this service.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades HTTP requests to websocket sessions on the multiplexer.
type Handler struct {
	mux *hub.Multiplexer
}

func NewHandler(mux *hub.Multiplexer) *Handler {
	if mux == nil {
		panic("Multiplexer cannot be nil for websocket Handler")
	}
	return &Handler{mux: mux}
}

// Serve handles GET /ws. The connection starts roomless; the client sends
// join-room as its first event.
func (h *Handler) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	client := hub.NewClient(conn, h.mux)
	logrus.WithField("conn_id", client.ConnectionID()).Debug("Websocket session started")
	client.Run(c.Request.Context())
}
