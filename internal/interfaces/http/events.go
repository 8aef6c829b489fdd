package httpinterface

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// streamEvents upgrades the connection to a websocket and pushes every store
// event to the client until either side closes it.
func (h *handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribing before the upgrade makes sure that no event is missed once
	// the handshake completes.
	events := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(events)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Debug("failed to upgrade events connection")
		return
	}
	defer conn.Close()

	// The client is not expected to send anything, reading only detects the
	// connection being closed and handles pongs.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		// nolint
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(
					err, websocket.CloseGoingAway, websocket.CloseNormalClosure,
				) {
					log.WithError(err).Debug("events connection dropped")
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			// nolint
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("failed to push event")
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(
				websocket.PingMessage, nil, time.Now().Add(writeWait),
			); err != nil {
				return
			}
		}
	}
}
