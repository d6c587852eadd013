package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/docbridge/docbridge/pkg/types"
)

// StubDocumentServer plays the external document service: it fetches the
// document from the bridge like the real editor would, hosts download URLs
// for edited versions, and posts lifecycle callbacks.
type StubDocumentServer struct {
	srv *httptest.Server

	mu       sync.Mutex
	versions map[string][]byte
}

// NewStubDocumentServer starts the stub.
func NewStubDocumentServer() *StubDocumentServer {
	s := &StubDocumentServer{versions: make(map[string][]byte)}
	mux := http.NewServeMux()
	mux.HandleFunc("/cache/", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		body, ok := s.versions[r.URL.Path]
		s.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	})
	s.srv = httptest.NewServer(mux)
	return s
}

// Close shuts the stub down.
func (s *StubDocumentServer) Close() {
	s.srv.Close()
}

// FetchDocument loads the document from the bridge's served-file URL, the way
// the editor does when a session opens. Returns status code and body.
func (s *StubDocumentServer) FetchDocument(fileURL string) (int, []byte, error) {
	resp, err := http.Get(fileURL)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	return resp.StatusCode, body, err
}

// HostVersion stores an edited document version and returns its download URL.
func (s *StubDocumentServer) HostVersion(name string, content []byte) string {
	path := "/cache/" + name
	s.mu.Lock()
	s.versions[path] = content
	s.mu.Unlock()
	return s.srv.URL + path
}

// SendCallback posts a lifecycle callback to the bridge and decodes the ack.
func (s *StubDocumentServer) SendCallback(callbackURL string, payload types.CallbackPayload) (*types.CallbackAck, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	resp, err := http.Post(callbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var ack types.CallbackAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode ack: %w", err)
	}
	return &ack, resp.StatusCode, nil
}

// SendRawCallback posts an arbitrary body, for malformed-payload tests.
func (s *StubDocumentServer) SendRawCallback(callbackURL string, body []byte) (*types.CallbackAck, int, error) {
	resp, err := http.Post(callbackURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	var ack types.CallbackAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode ack: %w", err)
	}
	return &ack, resp.StatusCode, nil
}
