package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/photostore"
	"github.com/vbonduro/fiscobras/internal/query"
	"github.com/vbonduro/fiscobras/internal/store"
)

// projectChecker is the subset of store.ProjectStore that InspectionService requires.
type projectChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type InspectionService struct {
	projects    projectChecker
	inspections inspectionRepository
	photos      *photostore.Offloader
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewInspectionService(
	projects projectChecker,
	inspections inspectionRepository,
	photos *photostore.Offloader,
	logger *slog.Logger,
	m *metrics.Metrics,
) *InspectionService {
	return &InspectionService{
		projects:    projects,
		inspections: inspections,
		photos:      photos,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// CreateInspection validates in and persists it. The owning project must
// exist; nothing is stored otherwise.
func (s *InspectionService) CreateInspection(ctx context.Context, in domain.InspectionInput) (*domain.Inspection, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var i domain.Inspection
	in.Apply(&i, s.now())

	photo, err := s.photos.Offload(ctx, photoPrefixInspection, i.Photo)
	if err != nil {
		return nil, err
	}
	i.Photo = photo

	created, err := s.inspections.Create(ctx, &i)
	if err != nil {
		s.photos.Release(ctx, photo)
		if errors.Is(err, store.ErrProjectNotFound) {
			return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: i.ProjectID}
		}
		return nil, err
	}

	s.metrics.RecordCreated(metrics.KindInspection)
	s.logger.Info("fiscalizacao created", "id", created.ID, "obra_id", created.ProjectID)
	return created, nil
}

func (s *InspectionService) GetInspection(ctx context.Context, id string) (*domain.Inspection, error) {
	i, err := s.inspections.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if i == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityInspection, ID: id}
	}
	return i, nil
}

func (s *InspectionService) ListInspections(ctx context.Context, f query.InspectionFilter) (*query.Page[*domain.Inspection], error) {
	return s.inspections.List(ctx, f)
}

// UpdateInspection merges the JSON patch onto the stored inspection and
// re-validates it. Moving it to another project requires that project to exist.
func (s *InspectionService) UpdateInspection(ctx context.Context, id string, patch []byte) (*domain.Inspection, error) {
	existing, err := s.GetInspection(ctx, id)
	if err != nil {
		return nil, err
	}

	in := domain.InspectionInputFrom(existing)
	if err := domain.DecodeJSON(patch, &in); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.ProjectID != existing.ProjectID {
		ok, err := s.projects.Exists(ctx, in.ProjectID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &domain.NotFoundError{Entity: domain.EntityProject, ID: in.ProjectID}
		}
	}

	next := *existing
	in.Apply(&next, s.now())

	if next.Photo != existing.Photo {
		photo, err := s.photos.Offload(ctx, photoPrefixInspection, next.Photo)
		if err != nil {
			return nil, err
		}
		next.Photo = photo
	}

	updated, err := s.inspections.Update(ctx, &next)
	if err != nil {
		if next.Photo != existing.Photo {
			s.photos.Release(ctx, next.Photo)
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, &domain.NotFoundError{Entity: domain.EntityInspection, ID: id}
		}
		return nil, err
	}
	if next.Photo != existing.Photo {
		s.photos.Release(ctx, existing.Photo)
	}

	s.logger.Info("fiscalizacao updated", "id", id, "obra_id", updated.ProjectID)
	return updated, nil
}

func (s *InspectionService) DeleteInspection(ctx context.Context, id string) error {
	existing, err := s.GetInspection(ctx, id)
	if err != nil {
		return err
	}

	if err := s.inspections.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &domain.NotFoundError{Entity: domain.EntityInspection, ID: id}
		}
		return err
	}

	s.photos.Release(ctx, existing.Photo)
	s.metrics.RecordsRemoved(metrics.KindInspection, 1)
	s.logger.Info("fiscalizacao deleted", "id", id)
	return nil
}
