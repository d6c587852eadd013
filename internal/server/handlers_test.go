package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/registry"
	"github.com/docbridge/docbridge/pkg/types"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	srv := New(DefaultConfig(), event.NewBus())
	// Registered URLs need a base even though the listener is not running.
	srv.host = "127.0.0.1"
	srv.port = 1
	srv.listener = fakeListener{}
	return srv
}

func registerTestFile(t *testing.T, srv *Server, content []byte) (*registry.Registration, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	reg, err := srv.Registry().Register(path, "test-key")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return reg, path
}

func TestServeFile(t *testing.T) {
	srv := setupTestServer(t)

	content := make([]byte, 4096)
	rand.Read(content)
	reg, path := registerTestFile(t, srv, content)

	req := httptest.NewRequest("GET", "/file/"+reg.Token, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != registry.MIMETypeFor(path) {
		t.Errorf("Content-Type mismatch: %s", got)
	}
	if got := w.Header().Get("Content-Length"); got != "4096" {
		t.Errorf("Content-Length mismatch: %s", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="deck.pptx"` {
		t.Errorf("Content-Disposition mismatch: %s", got)
	}
	if !bytes.Equal(w.Body.Bytes(), content) {
		t.Error("body does not match source file")
	}
}

func TestServeFile_UnknownToken(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("GET", "/file/no-such-token", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w.Body.String() != "Not Found" {
		t.Errorf("expected plain text body, got %q", w.Body.String())
	}
}

func TestServeFile_MissingFile(t *testing.T) {
	srv := setupTestServer(t)
	reg, path := registerTestFile(t, srv, []byte("x"))
	os.Remove(path)

	req := httptest.NewRequest("GET", "/file/"+reg.Token, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestCallback_DispatchesHandler(t *testing.T) {
	srv := setupTestServer(t)
	reg, _ := registerTestFile(t, srv, []byte("x"))

	var mu sync.Mutex
	var received []types.CallbackPayload
	done := make(chan struct{}, 1)
	srv.Registry().BindCallback(reg.Token, func(ctx context.Context, p types.CallbackPayload) {
		mu.Lock()
		received = append(received, p)
		mu.Unlock()
		done <- struct{}{}
	})

	body := []byte(`{"status":2,"url":"http://docs.local/cache/v1.pptx","key":"test-key"}`)
	req := httptest.NewRequest("POST", "/callback/"+reg.Token, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ack types.CallbackAck
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Error != 0 {
		t.Errorf("expected error 0, got %d", ack.Error)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(received) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(received))
	}
	if received[0].Status != types.StatusReadyForSave || received[0].URL == "" {
		t.Errorf("payload mismatch: %+v", received[0])
	}
}

func TestCallback_UnknownTokenStillAcknowledged(t *testing.T) {
	srv := setupTestServer(t)

	body := []byte(`{"status":2,"url":"http://docs.local/cache/v1.pptx"}`)
	req := httptest.NewRequest("POST", "/callback/unknown", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var ack types.CallbackAck
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Error != 0 {
		t.Errorf("expected error 0 for unknown token, got %d", ack.Error)
	}
}

func TestCallback_MalformedBody(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("POST", "/callback/sometoken", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var ack types.CallbackAck
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Error != 1 {
		t.Errorf("expected error 1, got %d", ack.Error)
	}
}

func TestHealth(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var health map[string]any
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health["status"] != "ok" {
		t.Errorf("status mismatch: %v", health["status"])
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("GET", "/bogus", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w.Body.String() != "Not Found" {
		t.Errorf("expected plain text body, got %q", w.Body.String())
	}
}

func TestOptionsPreflight(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/callback/sometoken", nil)
	req.Header.Set("Origin", "http://docs.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin mismatch: %q", got)
	}
}

func TestCORSHeadersOnResponses(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("Origin", "http://docs.local")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin mismatch: %q", got)
	}
}
