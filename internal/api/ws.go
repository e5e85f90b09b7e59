package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"drone-city-sim/internal/sim"
)

// SafeWriter serializes writes to a WebSocket connection.
type SafeWriter struct {
	conn  *websocket.Conn
	mutex sync.Mutex
}

func NewSafeWriter(conn *websocket.Conn) *SafeWriter {
	return &SafeWriter{conn: conn}
}

func (w *SafeWriter) WriteJSON(v interface{}) error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *SafeWriter) Close() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.conn.Close()
}

// wsEnvelope wraps every server to client frame.
type wsEnvelope struct {
	Type  string        `json:"type"`
	State *sim.Snapshot `json:"state,omitempty"`
	Error string        `json:"error,omitempty"`
}

// streamWS pushes snapshots to the client at most once per WSInterval and reads
// command messages from it. Commands are queued, so a full queue drops them.
func (s *Server) streamWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	out := NewSafeWriter(conn)
	defer out.Close()

	s.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, unsub := s.eng.Subscribe(ctx)
	defer unsub()

	go func() {
		defer cancel()
		for {
			var msg commandMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.log.Debug().Err(err).Msg("websocket read ended")
				}
				return
			}
			cmd, err := msg.command(s.eng.Static().Geo, time.Now())
			if err != nil {
				_ = out.WriteJSON(wsEnvelope{Type: "error", Error: err.Error()})
				continue
			}
			if !s.eng.Submit(cmd) {
				_ = out.WriteJSON(wsEnvelope{Type: "error", Error: "command queue full"})
			}
		}
	}()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			if s.cfg.WSInterval > 0 && st.TS.Sub(last) < s.cfg.WSInterval && !last.IsZero() {
				continue
			}
			last = st.TS
			if err := out.WriteJSON(wsEnvelope{Type: "state", State: &st}); err != nil {
				s.log.Debug().Err(err).Msg("websocket write failed")
				return
			}
		}
	}
}
