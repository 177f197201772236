package web

import (
	"net/http"

	"github.com/vbonduro/fiscobras/internal/notify"
)

const msgEmailSent = "Email enviado com sucesso"

func (s *Server) handleEmailProject(w http.ResponseWriter, r *http.Request) {
	var req notify.EmailRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.dispatcher.SendProject(r.Context(), r.PathValue("id"), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgEmailSent})
}

func (s *Server) handleEmailInspection(w http.ResponseWriter, r *http.Request) {
	var req notify.EmailRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if _, err := s.dispatcher.SendInspection(r.Context(), r.PathValue("id"), req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: msgEmailSent})
}

func (s *Server) handleEmailReport(w http.ResponseWriter, r *http.Request) {
	var req notify.ReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.dispatcher.SendProjectReport(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Relatório enviado com sucesso", Count: &n})
}
