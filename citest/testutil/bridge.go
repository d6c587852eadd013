// Package testutil provides helpers for integration tests that run the
// bridge against a real listening socket and a stubbed document server.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/reconcile"
	"github.com/docbridge/docbridge/internal/server"
	"github.com/docbridge/docbridge/internal/session"
	"github.com/docbridge/docbridge/pkg/types"
)

// TestBridge wraps a running bridge instance for integration tests.
type TestBridge struct {
	Server     *server.Server
	Controller *session.Controller
	Bus        *event.Bus
	BaseURL    string
}

// StartTestBridge starts a bridge server on a real socket, waits for its
// health route, and returns a controller bound to it. Tests advertise
// loopback: the stub document server runs in the same process.
func StartTestBridge() (*TestBridge, error) {
	// Optional test overrides, e.g. DOCBRIDGE_LOG_LEVEL.
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load(".env")

	bus := event.NewBus()
	srv := server.New(&server.Config{PublicHost: "127.0.0.1", ReadTimeout: 10 * time.Second}, bus)

	port, err := srv.Start(context.Background())
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("start bridge: %w", err)
	}

	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	if err := waitHealthy(baseURL); err != nil {
		srv.Stop()
		bus.Close()
		return nil, err
	}

	watch := false
	controller := session.NewController(srv, reconcile.New(nil, bus), bus, &types.Config{
		PublicHost:     "127.0.0.1",
		WatchDocuments: &watch,
	})

	return &TestBridge{
		Server:     srv,
		Controller: controller,
		Bus:        bus,
		BaseURL:    baseURL,
	}, nil
}

// Stop tears the bridge down.
func (tb *TestBridge) Stop() {
	tb.Server.Stop()
	tb.Bus.Close()
}

// waitHealthy polls /health with exponential backoff until the server answers.
func waitHealthy(baseURL string) error {
	probe := func() error {
		resp, err := http.Get(baseURL + "/health")
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("health returned %s", resp.Status)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second

	return backoff.Retry(probe, b)
}
