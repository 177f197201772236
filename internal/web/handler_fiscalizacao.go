package web

import (
	"net/http"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

func (s *Server) handleListInspections(w http.ResponseWriter, r *http.Request) {
	f, err := query.ParseInspectionFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.inspections.ListInspections(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newListEnvelope(page))
}

func (s *Server) handleCreateInspection(w http.ResponseWriter, r *http.Request) {
	var in domain.InspectionInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	i, err := s.inspections.CreateInspection(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusCreated, i)
}

func (s *Server) handleGetInspection(w http.ResponseWriter, r *http.Request) {
	i, err := s.inspections.GetInspection(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, i)
}

func (s *Server) handleUpdateInspection(w http.ResponseWriter, r *http.Request) {
	patch, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	i, err := s.inspections.UpdateInspection(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, i)
}

func (s *Server) handleDeleteInspection(w http.ResponseWriter, r *http.Request) {
	if err := s.inspections.DeleteInspection(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Fiscalização deletada com sucesso",
		Data:    struct{}{},
	})
}

func (s *Server) handleInspectionStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.stats.Inspections(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, st)
}
