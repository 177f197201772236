package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vbonduro/fiscobras/internal/photostore"
)

const apiVersion = "1.0.0"

var apiRoutes = []string{
	"GET /api/v1/obras",
	"POST /api/v1/obras",
	"GET /api/v1/obras/stats",
	"GET /api/v1/obras/:id",
	"PUT /api/v1/obras/:id",
	"DELETE /api/v1/obras/:id",
	"GET /api/v1/obras/:id/fiscalizacoes",
	"GET /api/v1/fiscalizacoes",
	"POST /api/v1/fiscalizacoes",
	"GET /api/v1/fiscalizacoes/stats",
	"GET /api/v1/fiscalizacoes/:id",
	"PUT /api/v1/fiscalizacoes/:id",
	"DELETE /api/v1/fiscalizacoes/:id",
	"POST /api/v1/email/obra/:id",
	"POST /api/v1/email/fiscalizacao/:id",
	"POST /api/v1/email/relatorio-obras",
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Sistema de Cadastro de Obras API",
		"version": apiVersion,
		"endpoints": map[string]string{
			"health":        "/health",
			"obras":         "/api/v1/obras",
			"fiscalizacoes": "/api/v1/fiscalizacoes",
			"email":         "/api/v1/email",
			"metrics":       "/metrics",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"status":      "OK",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":      time.Since(s.started).Seconds(),
		"environment": s.environment,
	})
}

func (s *Server) handleAPIIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "API v1 is working!",
		"routes":  apiRoutes,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusNotFound, errorBody{Message: "Route " + r.URL.RequestURI() + " not found"})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	reader, mimeType, err := s.photos.Open(r.Context(), key)
	if errors.Is(err, photostore.ErrNotFound) {
		s.writeJSON(w, http.StatusNotFound, errorBody{Message: "Foto não encontrada"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
