package eventservice

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 2048,
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON
// text frames until the client goes away or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("error upgrading websocket", "error", err)
		return
	}
	defer conn.Close()

	id, events := h.Subscribe()
	defer h.Unsubscribe(id)
	h.logger.Debug("event subscriber connected", "subscriber", id, "remote", r.RemoteAddr)

	gone := make(chan struct{})
	go readPump(conn, gone)

	ping := h.clock.Ticker(pingPeriod)
	defer ping.Stop()

	// Deadlines are enforced by the network stack against wall time, so they
	// stay on time.Now regardless of the hub clock.
	for {
		select {
		case e, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				h.logger.Debug("error writing event", "subscriber", id, "error", err)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			h.logger.Debug("event subscriber disconnected", "subscriber", id)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// readPump drains client frames so control messages are processed, and
// signals when the connection is no longer readable.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
