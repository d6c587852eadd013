package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/docbridge/docbridge/internal/config"
	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/internal/server"
)

var (
	servePublicHost string
	serveDir        string
	serveWaitDocSrv bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bridge server standalone",
	Long: `Start the bridging HTTP server without an IDE attached.

Useful for wiring up a document server deployment: the bridge binds an
ephemeral port on all interfaces and reports the advertised address the
document server must be able to reach.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePublicHost, "public-host", "", "Host address advertised to the document server (default: auto-detect)")
	serveCmd.Flags().StringVar(&serveDir, "directory", "", "Working directory for config lookup")
	serveCmd.Flags().BoolVar(&serveWaitDocSrv, "wait-document-server", false, "Wait for the configured document server to become reachable before reporting ready")
}

func runServe(cmd *cobra.Command, args []string) error {
	workDir, err := GetWorkDir(serveDir)
	if err != nil {
		return err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if servePublicHost != "" {
		cfg.PublicHost = servePublicHost
	}
	if cfg.LogLevel != "" && !cmd.Flags().Changed("log-level") {
		logging.Init(logging.Config{Level: logging.ParseLevel(cfg.LogLevel), Pretty: logPretty || cfg.LogPretty})
	}

	if serveWaitDocSrv {
		if cfg.DocumentServerURL == "" {
			return fmt.Errorf("--wait-document-server requires a configured document server URL")
		}
		if err := waitForDocumentServer(cmd.Context(), cfg.DocumentServerURL); err != nil {
			return fmt.Errorf("document server at %s is not reachable: %w", cfg.DocumentServerURL, err)
		}
	}

	bus := event.NewBus()
	defer bus.Close()

	srv := server.Default(&server.Config{PublicHost: cfg.PublicHost, ReadTimeout: 30 * time.Second}, bus)
	if _, err := srv.Start(cmd.Context()); err != nil {
		return err
	}

	fmt.Printf("bridge listening on %s (health: %s/health)\n", srv.BaseURL(), srv.BaseURL())

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down bridge server")
	return server.Dispose()
}

// waitForDocumentServer probes the document server's healthcheck with
// exponential backoff until it answers or the budget runs out.
func waitForDocumentServer(ctx context.Context, baseURL string) error {
	probe := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/healthcheck", nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("healthcheck returned %s", resp.Status)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = time.Minute

	return backoff.Retry(probe, backoff.WithContext(b, ctx))
}
