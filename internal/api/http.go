package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"drone-city-sim/internal/config"
	"drone-city-sim/internal/sim"
)

type Server struct {
	eng *sim.Engine
	mux *http.ServeMux
	cfg config.ServerConfig
	log zerolog.Logger

	upgrader websocket.Upgrader
}

func NewServer(eng *sim.Engine, cfg config.ServerConfig, log zerolog.Logger) *Server {
	if cfg.StateTimeout <= 0 {
		cfg.StateTimeout = 2 * time.Second
	}
	s := &Server{
		eng: eng,
		mux: http.NewServeMux(),
		cfg: cfg,
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.health)
	s.mux.HandleFunc("/state", s.state)
	s.mux.HandleFunc("/hud", s.hud)
	s.mux.HandleFunc("/world", s.world)
	s.mux.HandleFunc("/world.geojson", s.worldGeoJSON)

	s.mux.HandleFunc("/command/rotate", s.command(sim.CmdRotate))
	s.mux.HandleFunc("/command/click", s.command(sim.CmdClick))
	s.mux.HandleFunc("/command/building", s.command(sim.CmdBuilding))
	s.mux.HandleFunc("/command/goto", s.command(sim.CmdGoTo))
	s.mux.HandleFunc("/command/stop", s.command(sim.CmdStop))

	s.mux.HandleFunc("/stream", s.streamSSE)
	s.mux.HandleFunc("/ws", s.streamWS)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) snapshot(r *http.Request) (sim.Snapshot, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StateTimeout)
	defer cancel()
	return s.eng.GetState(ctx)
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestTimeout)
		return
	}
	writeJSON(w, st)
}

func (s *Server) hud(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestTimeout)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, st.HUD())
	if st.Status != "" {
		fmt.Fprintln(w, st.Status)
	}
	if st.Alert {
		fmt.Fprintln(w, st.AlertText)
	}
}

func (s *Server) world(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestTimeout)
		return
	}
	writeJSON(w, newWorldView(s.eng.Static(), st.Yaw))
}

func (s *Server) worldGeoJSON(w http.ResponseWriter, r *http.Request) {
	st, err := s.snapshot(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusRequestTimeout)
		return
	}
	b, err := json.Marshal(worldFeatures(s.eng.Static(), st))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(b)
}

// command decodes the request body into a command of type t and applies it.
// Rotate and stop are queued; the rest wait for the engine so selection errors
// reach the client.
func (s *Server) command(t sim.CommandType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POST only", http.StatusMethodNotAllowed)
			return
		}

		var msg commandMessage
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}
		msg.Type = t

		cmd, err := msg.command(s.eng.Static().Geo, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if t == sim.CmdRotate || t == sim.CmdStop {
			if !s.eng.Submit(cmd) {
				http.Error(w, "command queue full", http.StatusServiceUnavailable)
				return
			}
			writeJSONStatus(w, http.StatusAccepted, map[string]any{"status": "accepted", "type": t})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.StateTimeout)
		defer cancel()
		err = s.eng.Apply(ctx, cmd)
		switch {
		case errors.Is(err, sim.ErrNoTarget), errors.Is(err, sim.ErrUnknownBuilding):
			writeJSONStatus(w, http.StatusNotFound, map[string]any{"error": err.Error(), "type": t})
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusRequestTimeout)
			return
		}
		writeJSON(w, map[string]any{"status": "applied", "type": t})
	}
}

func (s *Server) streamSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	ch, unsub := s.eng.Subscribe(ctx)
	defer unsub()

	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-ch:
			if !ok {
				return
			}
			b, _ := json.Marshal(st)
			fmt.Fprintf(w, "event: state\n")
			fmt.Fprintf(w, "data: %s\n\n", b)
			flusher.Flush()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
