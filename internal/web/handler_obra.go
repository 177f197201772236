package web

import (
	"net/http"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	f, err := query.ParseProjectFilter(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.projects.ListProjects(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newListEnvelope(page))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in domain.ProjectInput
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.CreateProject(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusCreated, p)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.GetProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	patch, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.projects.UpdateProject(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.projects.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "Obra e fiscalizações relacionadas deletadas com sucesso",
		Data:    struct{}{},
	})
}

func (s *Server) handleListProjectInspections(w http.ResponseWriter, r *http.Request) {
	inspections, err := s.projects.ListProjectInspections(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	n := len(inspections)
	s.writeJSON(w, http.StatusOK, envelope{Success: true, Count: &n, Data: inspections})
}

func (s *Server) handleOverviewStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Overview(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeData(w, http.StatusOK, overview)
}
