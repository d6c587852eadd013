package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docbridge/docbridge/internal/config"
	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/internal/reconcile"
	"github.com/docbridge/docbridge/internal/server"
	"github.com/docbridge/docbridge/internal/session"
)

var openViewOnly bool

var openCmd = &cobra.Command{
	Use:   "open <document>",
	Short: "Open a document through the bridge",
	Long: `Open a single document session and print the editor configuration
the document server's script API expects. The session stays alive until
interrupted; saves reported by the document server are written back to the
file in the meantime.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openViewOnly, "view-only", false, "Open the document without edit permissions")
}

func runOpen(cmd *cobra.Command, args []string) error {
	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	cfg, err := config.Load(filepath.Dir(path))
	if err != nil {
		return err
	}
	if openViewOnly {
		viewOnly := false
		cfg.EditMode = &viewOnly
	}

	bus := event.NewBus()
	defer bus.Close()

	// Log save outcomes; a real IDE surface would turn these into toasts.
	bus.Subscribe(event.SaveCompleted, func(e event.Event) {
		data := e.Data.(event.SaveCompletedData)
		logging.Info().Str("path", data.Path).Int64("bytes", data.Bytes).Msg("document saved to disk")
	})
	bus.Subscribe(event.SaveFailed, func(e event.Event) {
		data := e.Data.(event.SaveFailedData)
		logging.Error().Str("path", data.Path).Str("reason", data.Reason).Msg("document save failed")
	})
	bus.Subscribe(event.DocumentChanged, func(e event.Event) {
		data := e.Data.(event.DocumentChangedData)
		logging.Warn().Str("path", data.Path).Msg("document changed on disk outside the editor")
	})

	srv := server.Default(&server.Config{PublicHost: cfg.PublicHost}, bus)
	defer server.Dispose()

	controller := session.NewController(srv, reconcile.New(nil, bus), bus, cfg)

	sess, err := controller.Open(cmd.Context(), path)
	if err != nil {
		return err
	}
	defer sess.Close()

	out, err := json.MarshalIndent(sess.Config, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Str("path", path).Msg("closing document session")
	return nil
}
