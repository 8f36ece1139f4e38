package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quotehub/internal/model"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

type wsMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// QuotesWSHandler streams aggregation results over a WebSocket: the client
// sends a "quote" message carrying a QuoteRequest, each carrier's result is
// pushed as it settles, and a "complete" message closes the exchange.
func (s *Server) QuotesWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	var wmu sync.Mutex
	write := func(v any) error {
		wmu.Lock()
		defer wmu.Unlock()
		return conn.WriteJSON(v)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "connection_init":
			_ = write(wsMessage{Type: "connection_ack"})
		case "ping":
			_ = write(wsMessage{Type: "pong"})
		case "quote":
			var req model.QuoteRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: []byte(`{"message":"invalid quote payload"}`)})
				continue
			}
			if err := validateQuoteRequest(&req); err != nil {
				payload, _ := json.Marshal(map[string]string{"message": err.Error()})
				_ = write(wsMessage{Type: "error", ID: msg.ID, Payload: payload})
				continue
			}
			quotes := s.Service.StreamQuotes(r.Context(), req, func(q model.QuoteResponse) {
				payload, _ := json.Marshal(q)
				_ = write(wsMessage{Type: "quote.received", ID: msg.ID, Payload: payload})
			})
			payload, _ := json.Marshal(map[string]any{"count": len(quotes)})
			_ = write(wsMessage{Type: "complete", ID: msg.ID, Payload: payload})
		default:
			// ignore
		}
	}
}
