package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCollector_RegistersAndServes(t *testing.T) {
	c := NewCollector()

	c.RecordMessagePersisted("text")
	c.RecordMessagePersisted("voice")
	c.RecordBroadcast()
	c.SocketConnected()
	c.RecordSweepRun()
	c.RecordSweepDeleted(3)
	c.RecordSweepDeleted(0) // no-op

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	c.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		"chatline_messages_persisted_total",
		"chatline_room_broadcasts_total",
		"chatline_socket_connections",
		"chatline_sweep_deleted_messages_total",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestCollector_GaugeTracksConnections(t *testing.T) {
	c := NewCollector()
	c.SocketConnected()
	c.SocketConnected()
	c.SocketDisconnected()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), "chatline_socket_connections 1") {
		t.Fatalf("expected gauge at 1, got:\n%s", w.Body.String())
	}
}
