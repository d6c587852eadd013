package server

import (
	"sync"

	"github.com/docbridge/docbridge/internal/event"
)

// The bridge endpoint is a process-wide singleton: exactly one local host:port
// must stay stable for the document server's network namespace. Callers go
// through Default for lazy construction and Dispose at process shutdown.

var (
	defaultMu     sync.Mutex
	defaultServer *Server
)

// Default returns the process-wide server, constructing it on first call with
// the given configuration and bus. Arguments passed on later calls are ignored.
func Default(cfg *Config, bus *event.Bus) *Server {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultServer == nil {
		defaultServer = New(cfg, bus)
	}
	return defaultServer
}

// Dispose stops and drops the process-wide server. Safe to call when no
// server was ever constructed.
func Dispose() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultServer == nil {
		return nil
	}
	err := defaultServer.Stop()
	defaultServer = nil
	return err
}
