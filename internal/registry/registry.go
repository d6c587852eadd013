// Package registry maps session tokens to served files and callback handlers.
//
// A token is an opaque, cryptographically random string generated per
// document-open. It is the only credential protecting the served-file and
// callback routes, which is acceptable because the bridge server only faces a
// trusted local or adjacent network.
package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-secure-stdlib/base62"

	"github.com/docbridge/docbridge/pkg/types"
)

// TokenLength is the length of generated session tokens. 32 base62 characters
// carry around 190 bits of entropy, enough to make tokens unguessable.
const TokenLength = 32

// FileRecord describes one served file, keyed by its token.
type FileRecord struct {
	Token string
	// Path is the absolute path of the file on disk.
	Path string
	// MIMEType is derived from the file extension.
	MIMEType string
	// Key is the document identity key the file was registered under.
	Key string
}

// Handler is the reconciliation action bound to a token. It is invoked
// asynchronously when a callback for that token arrives.
type Handler func(ctx context.Context, payload types.CallbackPayload)

// Registration is the result of registering a file.
type Registration struct {
	Token       string
	FileURL     string
	CallbackURL string
}

// Registry is the in-memory token registry. It is shared by all sessions;
// a mutex guards the maps because handlers run on separate goroutines.
type Registry struct {
	// baseURL returns the server's advertised base URL, e.g. "http://10.0.0.5:34721".
	baseURL func() string

	mu       sync.RWMutex
	files    map[string]*FileRecord
	handlers map[string]Handler
}

// New creates a Registry. baseURL is consulted at registration time so URLs
// always reflect the currently bound port.
func New(baseURL func() string) *Registry {
	return &Registry{
		baseURL:  baseURL,
		files:    make(map[string]*FileRecord),
		handlers: make(map[string]Handler),
	}
}

// Register generates a fresh token for the file and stores its record.
// The returned URLs are built from the server's current base URL.
func (r *Registry) Register(path, key string) (*Registration, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	token, err := base62.Random(TokenLength)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	record := &FileRecord{
		Token:    token,
		Path:     absPath,
		MIMEType: MIMETypeFor(absPath),
		Key:      key,
	}

	r.mu.Lock()
	r.files[token] = record
	r.mu.Unlock()

	base := r.baseURL()
	return &Registration{
		Token:       token,
		FileURL:     fmt.Sprintf("%s/file/%s", base, token),
		CallbackURL: fmt.Sprintf("%s/callback/%s", base, token),
	}, nil
}

// Unregister removes the file record and any callback binding for the token.
// Unregistering an unknown token is a no-op.
func (r *Registry) Unregister(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, token)
	delete(r.handlers, token)
}

// BindCallback stores the handler for a token, overwriting any previous one.
func (r *Registry) BindCallback(token string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[token] = handler
}

// Lookup returns the file record for a token.
func (r *Registry) Lookup(token string) (*FileRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.files[token]
	return record, ok
}

// Handler returns the callback handler bound to a token. Absence is a valid,
// non-fatal case: the callback route acknowledges such tokens without acting.
func (r *Registry) Handler(token string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[token]
	return handler, ok
}

// Len returns the number of live tokens.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// Clear removes all file records and callback bindings. Called on server stop.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = make(map[string]*FileRecord)
	r.handlers = make(map[string]Handler)
}
