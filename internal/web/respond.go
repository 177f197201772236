package web

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

const (
	msgInvalid      = "Dados inválidos"
	msgInternal     = "Erro interno do servidor"
	msgEmailFailed  = "Erro ao enviar email"
	msgBodyTooLarge = "Corpo da requisição excede o limite de 10MB"
)

var notFoundMessages = map[string]string{
	domain.EntityProject:    "Obra não encontrada",
	domain.EntityInspection: "Fiscalização não encontrada",
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type listEnvelope struct {
	Success    bool       `json:"success"`
	Count      int        `json:"count"`
	Total      int        `json:"total"`
	Pagination query.Meta `json:"pagination"`
	Data       any        `json:"data"`
}

type errorBody struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

func newListEnvelope[T any](page *query.Page[T]) listEnvelope {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return listEnvelope{
		Success:    true,
		Count:      len(items),
		Total:      page.Total,
		Pagination: page.Meta(),
		Data:       items,
	}
}

func encodeJSON(logger *slog.Logger, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	encodeJSON(s.logger, w, status, v)
}

func (s *Server) writeData(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, envelope{Success: true, Data: data})
}

// writeError maps err onto a status code and a client-safe body. Anything
// not classified here is logged and reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr    *domain.ValidationError
		nf      *domain.NotFoundError
		derr    *domain.DeliveryError
		tooLong *http.MaxBytesError
	)
	switch {
	case errors.As(err, &verr):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Message: msgInvalid, Errors: verr.Fields})
	case errors.As(err, &nf):
		msg, ok := notFoundMessages[nf.Entity]
		if !ok {
			msg = nf.Error()
		}
		s.writeJSON(w, http.StatusNotFound, errorBody{Message: msg})
	case errors.As(err, &tooLong):
		s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Message: msgBodyTooLarge})
	case errors.As(err, &derr):
		s.logger.Error("email delivery failed", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Message: msgEmailFailed})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Message: msgInternal})
	}
}

// readBody returns the request body, refusing anything over maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// decodeBody reads the request body into v. Malformed JSON is reported as a
// ValidationError.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return domain.DecodeJSON(body, v)
}
