package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

// Inspection reads always join the owning project so the summary can be
// embedded in the response.
const inspectionSelect = `
	SELECT f.id, f.obra_id, f.data, f.status, f.observacoes, f.latitude, f.longitude, f.foto,
		f.fiscal_nome, f.fiscal_registro, f.temperatura, f.condicao_climatica, f.nivel_risco,
		f.created_at, f.updated_at, o.id, o.nome, o.responsavel, o.status
	FROM fiscalizacoes f
	LEFT JOIN obras o ON o.id = f.obra_id`

type InspectionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewInspectionStore(db *sql.DB) *InspectionStore {
	return &InspectionStore{db: db, now: time.Now}
}

// Create persists i only if its project exists; the check and the insert are
// one statement. A missing project yields ErrProjectNotFound.
func (s *InspectionStore) Create(ctx context.Context, i *domain.Inspection) (*domain.Inspection, error) {
	id := uuid.NewString()
	now := millis(s.now())
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO fiscalizacoes (id, obra_id, data, status, observacoes, latitude, longitude, foto,
			fiscal_nome, fiscal_registro, temperatura, condicao_climatica, nivel_risco, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM obras WHERE id = ?)
	`, id, i.ProjectID, millis(i.Date), string(i.Status), i.Observations, i.Location.Latitude, i.Location.Longitude, i.Photo,
		i.Inspector.Name, i.Inspector.Registration, nullFloat(i.Temperature), string(i.Weather), string(i.RiskLevel), now, now,
		i.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create fiscalizacao: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrProjectNotFound
	}

	return s.GetByID(ctx, id)
}

// GetByID returns nil, nil when no inspection has the id.
func (s *InspectionStore) GetByID(ctx context.Context, id string) (*domain.Inspection, error) {
	i, err := scanInspection(s.db.QueryRowContext(ctx, inspectionSelect+` WHERE f.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fiscalizacao: %w", err)
	}
	return i, nil
}

func (s *InspectionStore) List(ctx context.Context, f query.InspectionFilter) (*query.Page[*domain.Inspection], error) {
	c := f.SQL()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fiscalizacoes f `+c.Where, c.Args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count fiscalizacoes: %w", err)
	}

	args := append(append([]any{}, c.Args...), c.Limit, c.Offset)
	inspections, err := s.query(ctx, inspectionSelect+` `+c.Where+` ORDER BY `+c.OrderBy+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, err
	}
	return &query.Page[*domain.Inspection]{Items: inspections, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

// ListByProject returns the project's inspections, newest first.
func (s *InspectionStore) ListByProject(ctx context.Context, projectID string) ([]*domain.Inspection, error) {
	return s.query(ctx, inspectionSelect+` WHERE f.obra_id = ? ORDER BY f.data DESC, f.id DESC`, projectID)
}

// ListByProjects groups the inspections of several projects by project id in
// a single query. Each group is newest first.
func (s *InspectionStore) ListByProjects(ctx context.Context, projectIDs []string) (map[string][]*domain.Inspection, error) {
	out := make(map[string][]*domain.Inspection, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(projectIDs)), ",")
	args := make([]any, len(projectIDs))
	for n, id := range projectIDs {
		args[n] = id
	}
	inspections, err := s.query(ctx, inspectionSelect+` WHERE f.obra_id IN (`+placeholders+`) ORDER BY f.data DESC, f.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	for _, i := range inspections {
		out[i.ProjectID] = append(out[i.ProjectID], i)
	}
	return out, nil
}

func (s *InspectionStore) query(ctx context.Context, q string, args ...any) ([]*domain.Inspection, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fiscalizacoes: %w", err)
	}
	defer rows.Close()

	inspections := []*domain.Inspection{}
	for rows.Next() {
		i, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fiscalizacao: %w", err)
		}
		inspections = append(inspections, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fiscalizacoes: %w", err)
	}
	return inspections, nil
}

// Update overwrites every writable column of i. The caller is responsible
// for checking that i.ProjectID exists.
func (s *InspectionStore) Update(ctx context.Context, i *domain.Inspection) (*domain.Inspection, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE fiscalizacoes SET obra_id = ?, data = ?, status = ?, observacoes = ?, latitude = ?, longitude = ?,
			foto = ?, fiscal_nome = ?, fiscal_registro = ?, temperatura = ?, condicao_climatica = ?, nivel_risco = ?,
			updated_at = ?
		WHERE id = ?
	`, i.ProjectID, millis(i.Date), string(i.Status), i.Observations, i.Location.Latitude, i.Location.Longitude,
		i.Photo, i.Inspector.Name, i.Inspector.Registration, nullFloat(i.Temperature), string(i.Weather), string(i.RiskLevel),
		millis(s.now()), i.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update fiscalizacao: %w", err)
	}
	if err := expectRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, i.ID)
}

func (s *InspectionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM fiscalizacoes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fiscalizacao: %w", err)
	}
	return expectRow(result)
}

func scanInspection(row scanner) (*domain.Inspection, error) {
	var (
		i                                          domain.Inspection
		status, weather, risk                      string
		date, created, updated                     int64
		temperature                                sql.NullFloat64
		ownerID, ownerName, ownerResp, ownerStatus sql.NullString
	)
	err := row.Scan(&i.ID, &i.ProjectID, &date, &status, &i.Observations, &i.Location.Latitude, &i.Location.Longitude, &i.Photo,
		&i.Inspector.Name, &i.Inspector.Registration, &temperature, &weather, &risk,
		&created, &updated, &ownerID, &ownerName, &ownerResp, &ownerStatus)
	if err != nil {
		return nil, err
	}
	i.Date = fromMillis(date)
	i.Status = domain.InspectionStatus(status)
	i.Temperature = floatPtr(temperature)
	i.Weather = domain.WeatherCondition(weather)
	i.RiskLevel = domain.RiskLevel(risk)
	i.CreatedAt = fromMillis(created)
	i.UpdatedAt = fromMillis(updated)
	if ownerID.Valid {
		i.Project = &domain.ProjectSummary{
			ID:          ownerID.String,
			Name:        ownerName.String,
			Responsible: ownerResp.String,
			Status:      domain.ProjectStatus(ownerStatus.String),
		}
	}
	return &i, nil
}
