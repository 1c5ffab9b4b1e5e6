package web

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tgarrett/button-sensor/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		PollMs:      10,
		DebounceMs:  500,
		HeartbeatMs: 900000,
		Broker:      "tcp://192.168.1.200:1883",
		HTTPAddr:    ":80",
		Chip:        "gpiochip0",
	}
	buttons := []status.Button{
		{Name: "power", Pin: 26, LEDPin: 5},
		{Name: "mode", Pin: 16},
	}
	tr := status.NewTracker(start, cfg, buttons)
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordPress("power", 5, time.Date(2026, 1, 1, 0, 5, 0, 0, time.UTC), true)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control: got %q, want no-store", cc)
	}

	var sj status.StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}

	if len(sj.Status.Buttons) != 2 {
		t.Fatalf("buttons: got %d, want 2", len(sj.Status.Buttons))
	}
	if sj.Status.Buttons[0].Name != "power" {
		t.Errorf("button 0 name: got %q", sj.Status.Buttons[0].Name)
	}
	if sj.Status.Buttons[0].Presses != 1 {
		t.Errorf("button 0 presses: got %d, want 1", sj.Status.Buttons[0].Presses)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("mqtt should report connected")
	}
	if sj.Status.Config.Broker != "tcp://192.168.1.200:1883" {
		t.Errorf("broker: got %q", sj.Status.Config.Broker)
	}
}

func TestIndexHTML(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordPress("mode", 1, time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC), false)

	for _, path := range []string{"/", "/index.html"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("read body: %v", err)
		}

		if resp.StatusCode != 200 {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("%s: Content-Type %q", path, ct)
		}

		html := string(body)
		for _, want := range []string{"Button Sensor", "power", "mode", "gpiochip0", "tcp://192.168.1.200:1883"} {
			if !strings.Contains(html, want) {
				t.Errorf("%s: HTML missing %q", path, want)
			}
		}
	}
}

func TestIndexHTMLShowsLEDState(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.RecordPress("power", 1, time.Now(), true)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if !strings.Contains(string(body), `class="on">ON`) {
		t.Error("HTML does not show LED on state")
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if string(body) != "ok\n" {
		t.Errorf("body: got %q, want %q", string(body), "ok\n")
	}
}

func TestNotFound(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/nonexistent")
	if err != nil {
		t.Fatalf("GET /nonexistent: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}

func TestShutdown(t *testing.T) {
	tr := status.NewTracker(time.Now(), status.Config{}, nil)
	srv := New(":0", tr)

	done := make(chan error, 1)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { done <- srv.Serve(ln) }()

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != http.ErrServerClosed {
		t.Errorf("Serve returned %v, want http.ErrServerClosed", err)
	}
}
