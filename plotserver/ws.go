package plotserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
}

// serveWS sends the plot to the client as soon as it connects
// and then again every time the figure changes. Changes that
// happen while a send is in progress are coalesced.
func (h *Handler) serveWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logger.Debugf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	watcher := h.p.Figure.Watch()
	defer watcher.Close()

	// We don't expect anything from the client, but we need to read
	// to see control messages and to find out when it goes away.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				watcher.Close()
				return
			}
		}
	}()
	sent := -1
	for {
		if s := h.p.Figure.Snapshot(); s.Version != sent {
			p, err := NewPlot(s)
			if err != nil {
				logger.Errorf("cannot make plot: %v", err)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(p); err != nil {
				logger.Debugf("cannot write to websocket: %v", err)
				return
			}
			sent = s.Version
		}
		if !watcher.Next() {
			conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "plot closed"),
				time.Now().Add(wsWriteTimeout),
			)
			return
		}
	}
}
