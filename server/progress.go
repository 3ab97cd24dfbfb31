package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tiggercwh/go-semantle/gameModel"
)

const (
	progressInterval = 100 * time.Millisecond
	writeWait        = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleProgress streams StatusResponse messages, at most one per
// progressInterval, and closes once loading has finished either way.
func (gs *GameServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		gs.logger.Warn("progress upgrade", "error", err)
		return
	}
	defer conn.Close()

	// the peer never sends data; reading surfaces a closed connection
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var last gameModel.StatusResponse
	first := true
	for {
		status, changed := gs.watch()
		if first || status != last {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(status); err != nil {
				gs.logger.Debug("progress write", "error", err)
				return
			}
			last, first = status, false
		}
		if status.State != gameModel.StatusLoading {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, status.State),
				time.Now().Add(writeWait))
			return
		}

		select {
		case <-changed:
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
		select {
		case <-time.After(progressInterval):
		case <-gone:
			return
		}
	}
}
