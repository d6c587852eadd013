package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/docbridge/docbridge/internal/logging"
	"github.com/docbridge/docbridge/pkg/types"
)

// receiveCallback handles POST /callback/{token}: the document server's
// lifecycle report for one open document.
//
// The response contract is the document server's, not ours: {"error":0} means
// "callback received" and nothing more. An unknown token is still acknowledged
// with error 0 so the document server does not retry or surface a spurious
// failure; only an unparsable body produces {"error":1}. Whether the save
// triggered by the callback later succeeds is reported through the event bus,
// never through this response.
func (s *Server) receiveCallback(w http.ResponseWriter, r *http.Request) {
	token := getToken(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logging.Error().Err(err).Msg("callback body read failed")
		writeJSON(w, http.StatusInternalServerError, types.CallbackAck{Error: 1})
		return
	}

	var payload types.CallbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logging.Error().Err(err).Str("token", token).Msg("malformed callback body")
		writeJSON(w, http.StatusInternalServerError, types.CallbackAck{Error: 1})
		return
	}

	logging.Debug().
		Str("token", token).
		Int("status", payload.Status).
		Str("key", payload.Key).
		Msg("callback received")

	if handler, ok := s.registry.Handler(token); ok {
		// Detached from the request context: the reconciliation outlives this
		// response and is not cancelled by the document server disconnecting.
		go handler(context.Background(), payload)
	} else {
		logging.Debug().Str("token", token).Msg("callback for token without handler, acknowledged")
	}

	writeJSON(w, http.StatusOK, types.CallbackAck{Error: 0})
}

// health handles GET /health.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"port":   s.Port(),
	})
}
