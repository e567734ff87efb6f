package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/digitaldoctors/dda-assistant/internal/assistant"
)

// connResponder serialises writes to a websocket connection. gorilla allows
// one concurrent writer, and the keep-alive pinger shares the connection.
type connResponder struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Responder = (*connResponder)(nil)

func (r *connResponder) write(msg OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return r.conn.WriteJSON(msg)
}

func (r *connResponder) SendResponse(id string, res assistant.Result) error {
	data := res.Response
	return r.write(OutgoingMessage{ID: id, Type: TypeResponse, Data: &data, Source: res.Source})
}

func (r *connResponder) SendError(id, message string) error {
	return r.write(OutgoingMessage{ID: id, Type: TypeError, Error: message})
}

func (r *connResponder) SendDone(id string) error {
	return r.write(OutgoingMessage{ID: id, Type: TypeDone})
}

func (r *connResponder) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			err := r.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			r.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
