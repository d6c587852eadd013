package server

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/docbridge/docbridge/internal/logging"
)

// serveFile handles GET /file/{token}: streams the registered file to the
// document server.
func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	token := getToken(r)

	record, ok := s.registry.Lookup(token)
	if !ok {
		logging.Debug().Str("token", token).Msg("file request for unknown token")
		writeText(w, http.StatusNotFound, "Not Found")
		return
	}

	file, err := os.Open(record.Path)
	if err != nil {
		logging.Error().Err(err).Str("path", record.Path).Msg("cannot open served file")
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		logging.Error().Err(err).Str("path", record.Path).Msg("cannot stat served file")
		writeText(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", record.MIMEType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(record.Path)))
	w.WriteHeader(http.StatusOK)

	// Headers are out; a stream error here can only terminate the response.
	if _, err := io.Copy(w, file); err != nil {
		logging.Warn().Err(err).Str("path", record.Path).Msg("file stream interrupted")
	}
}
