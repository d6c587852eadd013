// Package session orchestrates per-document editing sessions: it ties the
// shared bridge server, the token registry, and the save reconciler together
// for the lifetime of one open editor panel.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/internal/reconcile"
	"github.com/docbridge/docbridge/internal/server"
	"github.com/docbridge/docbridge/pkg/types"
)

// Controller opens and closes document sessions. One controller serves the
// whole process; sessions are independent of each other.
type Controller struct {
	server     *server.Server
	reconciler *reconcile.Reconciler
	bus        *event.Bus
	cfg        *types.Config
}

// NewController creates a Controller around the shared server.
func NewController(srv *server.Server, rec *reconcile.Reconciler, bus *event.Bus, cfg *types.Config) *Controller {
	if cfg == nil {
		cfg = &types.Config{}
	}
	return &Controller{
		server:     srv,
		reconciler: rec,
		bus:        bus,
		cfg:        cfg,
	}
}

// Session is one open document. Created by Controller.Open, ended by Close.
type Session struct {
	// ID identifies the session in logs and events.
	ID string
	// Token is the registry token backing the served-file and callback routes.
	Token string
	// Path is the absolute path of the document on disk.
	Path string
	// Config is the editor configuration handed to the document server's
	// client-side script API.
	Config types.EditorConfig

	controller *Controller
	watcher    *Watcher
	closeOnce  sync.Once
}

// Open starts a session for the document at path: it ensures the shared
// server is running, registers a token, binds the save reconciler, and builds
// the editor configuration. A server start failure fails the open; the caller
// surfaces it to the user.
func (c *Controller) Open(ctx context.Context, path string) (*Session, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve document path: %w", err)
	}

	key, err := DocumentKey(absPath)
	if err != nil {
		return nil, err
	}

	if _, err := c.server.Start(ctx); err != nil {
		return nil, fmt.Errorf("bridge server unavailable: %w", err)
	}

	reg, err := c.server.Registry().Register(absPath, key)
	if err != nil {
		return nil, fmt.Errorf("register document: %w", err)
	}
	c.server.Registry().BindCallback(reg.Token, c.reconciler.HandlerFor(absPath))

	sess := &Session{
		ID:         ulid.Make().String(),
		Token:      reg.Token,
		Path:       absPath,
		controller: c,
		Config: types.EditorConfig{
			DocumentType: types.DocumentType(absPath),
			FileType:     types.FileType(absPath),
			Key:          key,
			Title:        filepath.Base(absPath),
			URL:          reg.FileURL,
			CallbackURL:  reg.CallbackURL,
			EditMode:     c.cfg.EditModeEnabled(),
			Language:     c.cfg.Language,
		},
	}

	if c.cfg.WatchEnabled() {
		watcher, err := NewWatcher(sess.ID, absPath, c.bus)
		if err != nil {
			// The session works without change detection; don't fail the open.
			logging.Warn().Err(err).Str("path", absPath).Msg("document watcher unavailable")
		} else {
			watcher.Start()
			sess.watcher = watcher
		}
	}

	logging.Info().
		Str("session", sess.ID).
		Str("path", absPath).
		Str("key", key).
		Msg("document session opened")

	if c.bus != nil {
		c.bus.Publish(event.Event{
			Type: event.SessionOpened,
			Data: event.SessionOpenedData{SessionID: sess.ID, Path: absPath, Token: reg.Token},
		})
	}

	return sess, nil
}

// Close ends the session: the token is unregistered and the watcher stopped.
// The shared server keeps running for other sessions. An in-flight save is
// not cancelled; it completes or fails on its own and its notification is
// dropped if nobody listens anymore. Close is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.watcher != nil {
			s.watcher.Stop()
		}
		s.controller.server.Registry().Unregister(s.Token)

		logging.Info().Str("session", s.ID).Str("path", s.Path).Msg("document session closed")

		if s.controller.bus != nil {
			s.controller.bus.Publish(event.Event{
				Type: event.SessionClosed,
				Data: event.SessionClosedData{SessionID: s.ID, Path: s.Path},
			})
		}
	})
}
