package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-city-sim/internal/config"
	"drone-city-sim/internal/sim"
)

func newTestServer(t *testing.T) (*httptest.Server, *sim.Engine) {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Seed = 11
	cfg.Buildings = 2
	cfg.Vegetation = 1
	cfg.Hazards = 0
	cfg.Traffic = 1

	eng := sim.NewEngine(sim.New(cfg, time.Now()), sim.EngineConfig{TickHz: 100, Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = eng.Run(ctx) }()

	srv := httptest.NewServer(NewServer(eng, config.ServerConfig{StateTimeout: 2 * time.Second}, zerolog.Nop()).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, eng
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getState(t *testing.T, srv *httptest.Server) sim.Snapshot {
	t.Helper()
	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var st sim.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	return st
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))
}

func TestState(t *testing.T) {
	srv, _ := newTestServer(t)
	st := getState(t, srv)
	assert.Equal(t, "idle", st.Phase)
	assert.Equal(t, 100, st.Battery)
	assert.Equal(t, 60, st.Altitude)
}

func TestHUD(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/hud")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.True(t, strings.HasPrefix(string(body), "ALT: 60m | BAT: 100% | WIND: 0 km/h"), string(body))
}

func TestCommand_Building(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/command/building", `{"index": 1}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	st := getState(t, srv)
	assert.NotNil(t, st.Goal)
	assert.NotEqual(t, "idle", st.Phase)

	resp = post(t, srv, "/command/building", `{"index": 9}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = post(t, srv, "/command/building", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/command/building", `{"index":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommand_ClickAndStop(t *testing.T) {
	srv, eng := newTestServer(t)
	static := eng.Static()
	b := static.Buildings[0]
	sx, sy := static.Projector.Project(b.X, 0, b.Z, getState(t, srv).Yaw)

	resp := post(t, srv, "/command/click", `{"x": -9000, "y": -9000}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, _ := json.Marshal(map[string]float64{"x": sx, "y": sy})
	resp = post(t, srv, "/command/click", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, getState(t, srv).Goal)

	resp = post(t, srv, "/command/stop", "")
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Eventually(t, func() bool {
		return getState(t, srv).Goal == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCommand_Rotate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := post(t, srv, "/command/rotate", `{"direction": "left"}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Eventually(t, func() bool {
		return getState(t, srv).Yaw < 0.55
	}, 2*time.Second, 10*time.Millisecond)

	resp = post(t, srv, "/command/rotate", `{"direction": "up"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv, "/command/rotate", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCommand_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/command/goto")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestWorld(t *testing.T) {
	srv, eng := newTestServer(t)
	resp, err := http.Get(srv.URL + "/world")
	require.NoError(t, err)
	defer resp.Body.Close()

	var view worldView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	require.Len(t, view.Buildings, 2)
	require.Len(t, view.Vegetation, 1)
	assert.Equal(t, 0.1, view.RotateStep)

	static := eng.Static()
	b := static.Buildings[1]
	bx, by := static.Projector.Project(b.X, 0, b.Z, view.Yaw)
	assert.InDelta(t, bx, view.Buildings[1].Base.X, 1e-9)
	assert.InDelta(t, by, view.Buildings[1].Base.Y, 1e-9)
	assert.Less(t, view.Buildings[1].Top.Y, view.Buildings[1].Base.Y, "roofs are drawn above their base")
	assert.Equal(t, b.H, view.Buildings[1].H)
}

func TestWorldGeoJSON(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/world.geojson")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string          `json:"type"`
				Coordinates json.RawMessage `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 4)
	assert.Equal(t, "Polygon", fc.Features[0].Geometry.Type)
	assert.Equal(t, "building", fc.Features[0].Properties["kind"])
	assert.Equal(t, "vegetation", fc.Features[2].Properties["kind"])
	assert.Equal(t, "Point", fc.Features[3].Geometry.Type)
	assert.Equal(t, "drone", fc.Features[3].Properties["kind"])
}

func TestStreamSSE(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	for {
		line, err = r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}
	var st sim.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &st))
	assert.Equal(t, 100, st.Battery)
}

func TestStreamWS(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var env wsEnvelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, "state", env.Type)
	require.NotNil(t, env.State)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "bogus"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "goto", "x": 0, "y": -70, "z": 0}))

	sawError, sawMoving := false, false
	for i := 0; i < 500 && !(sawError && sawMoving); i++ {
		var env wsEnvelope
		require.NoError(t, conn.ReadJSON(&env))
		switch env.Type {
		case "error":
			sawError = true
		case "state":
			if env.State.Phase == "moving" && env.State.Status == sim.GoToLabel {
				sawMoving = true
			}
		}
	}
	assert.True(t, sawError)
	assert.True(t, sawMoving)
}
