// Package reconcile turns "document ready" callbacks from the document server
// into on-disk file updates.
package reconcile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/docbridge/docbridge/internal/event"
	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/pkg/types"
)

// Reconciler fetches new document versions and atomically replaces the local
// file. Outcomes are reported over the event bus; the HTTP callback response
// never waits for, or reflects, the result.
type Reconciler struct {
	client *http.Client
	bus    *event.Bus
}

// New creates a Reconciler. A nil client uses http.DefaultClient.
func New(client *http.Client, bus *event.Bus) *Reconciler {
	if client == nil {
		client = http.DefaultClient
	}
	return &Reconciler{client: client, bus: bus}
}

// HandlerFor returns the callback handler for one document, suitable for
// binding into the token registry.
func (r *Reconciler) HandlerFor(target string) func(ctx context.Context, payload types.CallbackPayload) {
	return func(ctx context.Context, payload types.CallbackPayload) {
		r.HandleCallback(ctx, target, payload)
	}
}

// HandleCallback applies the decision rule: a save happens only for the two
// "ready" statuses with a download URL present. Everything else is logged and
// leaves the filesystem untouched.
func (r *Reconciler) HandleCallback(ctx context.Context, target string, payload types.CallbackPayload) {
	if !payload.SaveWarranted() {
		logging.Debug().
			Int("status", payload.Status).
			Str("path", target).
			Msg("callback requires no save")
		return
	}

	written, err := r.save(ctx, payload.URL, target)
	if err != nil {
		logging.Error().Err(err).Str("path", target).Msg("save failed")
		r.publish(event.Event{
			Type: event.SaveFailed,
			Data: event.SaveFailedData{Path: target, Reason: err.Error()},
		})
		return
	}

	logging.Info().Str("path", target).Int64("bytes", written).Msg("document saved")
	r.publish(event.Event{
		Type: event.SaveCompleted,
		Data: event.SaveCompletedData{Path: target, Bytes: written},
	})
}

// save downloads url and replaces target with the body. The body streams into
// a temp file beside the target which is renamed into place on success, so the
// target is always either the previous version or the complete new one, never
// truncated. There is no automatic retry.
func (r *Reconciler) save(ctx context.Context, url, target string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build download request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download new version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("document server returned %s for %s", resp.Status, url)
	}

	// CreateTemp defaults to 0600; carry the target's mode over so the rename
	// does not silently change the document's permissions.
	mode := os.FileMode(0644)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".download-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("set file mode: %w", err)
	}

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return 0, fmt.Errorf("write new version: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("flush new version: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("replace %s: %w", target, err)
	}

	return written, nil
}

func (r *Reconciler) publish(e event.Event) {
	if r.bus != nil {
		r.bus.Publish(e)
	}
}
