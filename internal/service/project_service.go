package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/photostore"
	"github.com/vbonduro/fiscobras/internal/query"
	"github.com/vbonduro/fiscobras/internal/store"
)

const (
	photoPrefixProject    = "obra"
	photoPrefixInspection = "fiscalizacao"
)

// projectRepository is the subset of store.ProjectStore that the services require.
type projectRepository interface {
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, f query.ProjectFilter) (*query.Page[*domain.Project], error)
	Update(ctx context.Context, p *domain.Project) (*domain.Project, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// inspectionRepository is the subset of store.InspectionStore that the services require.
type inspectionRepository interface {
	Create(ctx context.Context, i *domain.Inspection) (*domain.Inspection, error)
	GetByID(ctx context.Context, id string) (*domain.Inspection, error)
	List(ctx context.Context, f query.InspectionFilter) (*query.Page[*domain.Inspection], error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Inspection, error)
	ListByProjects(ctx context.Context, projectIDs []string) (map[string][]*domain.Inspection, error)
	Update(ctx context.Context, i *domain.Inspection) (*domain.Inspection, error)
	Delete(ctx context.Context, id string) error
}

type ProjectService struct {
	projects    projectRepository
	inspections inspectionRepository
	photos      *photostore.Offloader
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewProjectService(
	projects projectRepository,
	inspections inspectionRepository,
	photos *photostore.Offloader,
	logger *slog.Logger,
	m *metrics.Metrics,
) *ProjectService {
	return &ProjectService{
		projects:    projects,
		inspections: inspections,
		photos:      photos,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// CreateProject validates in, applies defaults and the schedule-derived
// status, and persists the result.
func (s *ProjectService) CreateProject(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var p domain.Project
	in.Apply(&p)
	p.Status = domain.DeriveStatus(p.Status, p.StartDate, p.EndDate, s.now())

	photo, err := s.photos.Offload(ctx, photoPrefixProject, p.Photo)
	if err != nil {
		return nil, err
	}
	p.Photo = photo

	created, err := s.projects.Create(ctx, &p)
	if err != nil {
		s.photos.Release(ctx, photo)
		return nil, err
	}

	s.metrics.RecordCreated(metrics.KindProject)
	s.logger.Info("obra created", "id", created.ID, "status", created.Status)
	return created, nil
}

// GetProject returns the project with its inspections, newest first.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}

	inspections, err := s.inspections.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscalizacoes for obra %s: %w", id, err)
	}
	p.Inspections = resolved(inspections)
	return p, nil
}

// ListProjects returns one page of projects, each with its inspections.
func (s *ProjectService) ListProjects(ctx context.Context, f query.ProjectFilter) (*query.Page[*domain.Project], error) {
	page, err := s.projects.List(ctx, f)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}
	byProject, err := s.inspections.ListByProjects(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscalizacoes for obras: %w", err)
	}
	for _, p := range page.Items {
		p.Inspections = resolved(byProject[p.ID])
	}
	return page, nil
}

// UpdateProject merges the JSON patch onto the stored project, re-validates
// the merged record and re-derives its status.
func (s *ProjectService) UpdateProject(ctx context.Context, id string, patch []byte) (*domain.Project, error) {
	existing, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}

	in := domain.ProjectInputFrom(existing)
	if err := domain.DecodeJSON(patch, &in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	next := *existing
	in.Apply(&next)
	next.Status = domain.DeriveStatus(next.Status, next.StartDate, next.EndDate, s.now())

	if next.Photo != existing.Photo {
		photo, err := s.photos.Offload(ctx, photoPrefixProject, next.Photo)
		if err != nil {
			return nil, err
		}
		next.Photo = photo
	}

	updated, err := s.projects.Update(ctx, &next)
	if err != nil {
		if next.Photo != existing.Photo {
			s.photos.Release(ctx, next.Photo)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
		}
		return nil, err
	}
	if next.Photo != existing.Photo {
		s.photos.Release(ctx, existing.Photo)
	}

	inspections, err := s.inspections.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscalizacoes for obra %s: %w", id, err)
	}
	updated.Inspections = resolved(inspections)
	s.logger.Info("obra updated", "id", id, "status", updated.Status)
	return updated, nil
}

// DeleteProject removes the project together with its inspections.
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	existing, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}
	inspections, err := s.inspections.ListByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list fiscalizacoes for obra %s: %w", id, err)
	}

	removed, err := s.projects.Delete(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}
	if err != nil {
		s.logger.Error("cascade delete failed", "id", id, "error", err)
		return err
	}

	s.photos.Release(ctx, existing.Photo)
	for _, i := range inspections {
		s.photos.Release(ctx, i.Photo)
	}
	s.metrics.RecordsRemoved(metrics.KindProject, 1)
	s.metrics.RecordsRemoved(metrics.KindInspection, int(removed))
	s.logger.Info("obra deleted", "id", id, "fiscalizacoes_removed", removed)
	return nil
}

// ListProjectInspections returns the project's inspections, newest first.
func (s *ProjectService) ListProjectInspections(ctx context.Context, id string) ([]*domain.Inspection, error) {
	ok, err := s.projects.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: id}
	}
	return s.inspections.ListByProject(ctx, id)
}

// resolved marks a project's inspection list as loaded, even when empty.
func resolved(inspections []*domain.Inspection) []*domain.Inspection {
	if inspections == nil {
		return []*domain.Inspection{}
	}
	return inspections
}
