package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/session"
)

// EventSnapshot is the first message on every stream.
const EventSnapshot = "snapshot"

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleEvents streams session events over a websocket. The stream opens
// with a snapshot of the current status, then relays every mutation.
func handleEvents(logger *slog.Logger, sessions *session.Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		ch, st, err := subscribeWithSnapshot(broker, id, sessions.Status)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		defer broker.Unsubscribe(id, ch)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		// Clients only listen; reading detects the close.
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		snapshot, _ := json.Marshal(session.Event{Type: EventSnapshot, GameID: id, Status: st})
		if err := writeWS(conn, websocket.TextMessage, snapshot); err != nil {
			return
		}

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-closed:
				return
			case data := <-ch:
				if err := writeWS(conn, websocket.TextMessage, data); err != nil {
					logger.Debug("websocket write failed", "game_id", id, "error", err)
					return
				}
			case <-ping.C:
				if err := writeWS(conn, websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}
}

// subscribeWithSnapshot registers the subscription before reading the
// snapshot, so any mutation the snapshot misses is still queued on ch.
// Clients may see an event twice but never miss one.
func subscribeWithSnapshot(broker *Broker, id string, snapshot func(string) (fingergame.Status, error)) (chan []byte, fingergame.Status, error) {
	ch := broker.Subscribe(id)
	st, err := snapshot(id)
	if err != nil {
		broker.Unsubscribe(id, ch)
		return nil, fingergame.Status{}, err
	}
	return ch, st, nil
}

func writeWS(conn *websocket.Conn, typ int, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(typ, data)
}
