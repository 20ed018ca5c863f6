package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// The metrics wrapper is the outermost writer on every route, so it
// must let websocket upgrades hijack the connection through it.
func TestMetricsAllowsWebsocketUpgrade(t *testing.T) {
	upgrader := websocket.Upgrader{}
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		conn.WriteJSON(map[string]string{"event": "hello"})
		conn.Close()
	})

	// Same chain order as the router: metrics outermost, then logging.
	srv := httptest.NewServer(Metrics(Logger(zerolog.Nop())(inner)))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	var frame map[string]string
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if frame["event"] != "hello" {
		t.Fatalf("frame = %v, want hello event", frame)
	}
}

func TestStatusWriterCapturesStatus(t *testing.T) {
	handler := Metrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}
}

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/jobs/apply", "/jobs/apply"},
		{"/jobs/update-status", "/jobs/update-status"},
		{"/notifications/mark-read", "/notifications/mark-read"},
		{"/messages1", "/messages1"},
		{"/ws", "/ws"},
		{"/jobs/123", "other"},
		{"/wp-admin.php", "other"},
		{"/notifications/whatever", "other"},
	}
	for _, c := range cases {
		if got := normalizePath(c.path); got != c.want {
			t.Errorf("normalizePath(%q) = %q, want %q", c.path, got, c.want)
		}
	}
}
