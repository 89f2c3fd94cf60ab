package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/pinchmix/internal/store"
	"github.com/gorilla/websocket"
)

func TestAPI_RunWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	j, err := s.StartRun(map[string]string{"backend": "mock"})
	if err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}
	j.SessionObserved("chrome", "41", 80)
	j.SessionEvicted("chrome", "41")
	j.ControlFailed("vlc", "7", "set volume", errors.New("stale session control"))

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. List runs
	resp, err := client.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("GET /api/runs error = %v", err)
	}
	var listed struct {
		Runs []struct {
			ID     string `json:"id"`
			Frames int    `json:"frames"`
		} `json:"runs"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Runs) != 1 || listed.Runs[0].ID != j.RunID() {
		t.Fatalf("runs = %+v, want one run %s", listed.Runs, j.RunID())
	}

	// 2. Session events
	resp, err = client.Get(ts.URL + "/api/runs/" + j.RunID() + "/events")
	if err != nil {
		t.Fatalf("GET events error = %v", err)
	}
	var events struct {
		Events []struct {
			Kind    string  `json:"kind"`
			Process string  `json:"process"`
			Volume  float64 `json:"volume"`
		} `json:"events"`
	}
	json.NewDecoder(resp.Body).Decode(&events)
	resp.Body.Close()

	if len(events.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.Events))
	}
	if events.Events[0].Kind != store.EventObserved || events.Events[0].Volume != 80 {
		t.Errorf("first event = %+v", events.Events[0])
	}
	if events.Events[1].Kind != store.EventEvicted {
		t.Errorf("second event = %+v", events.Events[1])
	}

	// 3. Control errors
	resp, err = client.Get(ts.URL + "/api/runs/" + j.RunID() + "/errors")
	if err != nil {
		t.Fatalf("GET errors error = %v", err)
	}
	var errs struct {
		Errors []struct {
			Process string `json:"process"`
			Op      string `json:"op"`
		} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&errs)
	resp.Body.Close()

	if len(errs.Errors) != 1 || errs.Errors[0].Process != "vlc" {
		t.Errorf("errors = %+v", errs.Errors)
	}

	// 4. Unknown run
	resp, _ = client.Get(ts.URL + "/api/runs/unknown/events")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown run status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_StateWebSocket(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	srv.PublishState(map[string]any{"state": "IdleDisplay", "frame": 1})

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/state"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()

	type message struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var init message
	if err := conn.ReadJSON(&init); err != nil {
		t.Fatalf("read init error = %v", err)
	}
	if init.Type != "state_init" || init.Data["state"] != "IdleDisplay" {
		t.Errorf("init = %+v", init)
	}

	deadline := time.Now().Add(2 * time.Second)
	for srv.states.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	srv.PublishState(map[string]any{"state": "Actuating", "frame": 2})

	var next message
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read state error = %v", err)
	}
	if next.Type != "state" || next.Data["state"] != "Actuating" {
		t.Errorf("state = %+v", next)
	}
}
