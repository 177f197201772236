package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

const projectColumns = `o.id, o.nome, o.responsavel, o.data_inicio, o.data_fim, o.latitude, o.longitude,
	o.descricao, o.foto, o.status, o.orcamento, o.progresso, o.created_at, o.updated_at`

type ProjectStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewProjectStore(db *sql.DB) *ProjectStore {
	return &ProjectStore{db: db, now: time.Now}
}

// Create assigns the id and timestamps, persists p and returns the stored record.
func (s *ProjectStore) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	id := uuid.NewString()
	now := millis(s.now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obras (id, nome, responsavel, data_inicio, data_fim, latitude, longitude,
			descricao, foto, status, orcamento, progresso, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, p.Name, p.Responsible, millis(p.StartDate), millis(p.EndDate), p.Location.Latitude, p.Location.Longitude,
		p.Description, p.Photo, string(p.Status), nullFloat(p.Budget), p.Progress, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create obra: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID returns nil, nil when no project has the id.
func (s *ProjectStore) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM obras o WHERE o.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get obra: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM obras WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check obra: %w", err)
	}
	return exists, nil
}

// List returns the page of projects selected by f plus the total match count.
func (s *ProjectStore) List(ctx context.Context, f query.ProjectFilter) (*query.Page[*domain.Project], error) {
	c := f.SQL()

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM obras o `+c.Where, c.Args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count obras: %w", err)
	}

	projects, err := s.list(ctx, c)
	if err != nil {
		return nil, err
	}
	return &query.Page[*domain.Project]{Items: projects, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *ProjectStore) list(ctx context.Context, c query.Clause) ([]*domain.Project, error) {
	args := append(append([]any{}, c.Args...), c.Limit, c.Offset)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+projectColumns+` FROM obras o `+c.Where+`
		ORDER BY `+c.OrderBy+` LIMIT ? OFFSET ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list obras: %w", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obra: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obras: %w", err)
	}
	return projects, nil
}

// Update overwrites every writable column of p and bumps updated_at.
func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE obras SET nome = ?, responsavel = ?, data_inicio = ?, data_fim = ?, latitude = ?, longitude = ?,
			descricao = ?, foto = ?, status = ?, orcamento = ?, progresso = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Responsible, millis(p.StartDate), millis(p.EndDate), p.Location.Latitude, p.Location.Longitude,
		p.Description, p.Photo, string(p.Status), nullFloat(p.Budget), p.Progress, millis(s.now()), p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update obra: %w", err)
	}
	if err := expectRow(result); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, p.ID)
}

// Delete removes the project and all of its inspections in one transaction
// and reports how many inspections went with it.
func (s *ProjectStore) Delete(ctx context.Context, id string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `DELETE FROM fiscalizacoes WHERE obra_id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete fiscalizacoes: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	result, err = tx.ExecContext(ctx, `DELETE FROM obras WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete obra: %w", err)
	}
	if err := expectRow(result); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return removed, nil
}

// DeleteAll empties both tables. Used by the seeder's reset mode.
func (s *ProjectStore) DeleteAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fiscalizacoes`); err != nil {
		return fmt.Errorf("failed to clear fiscalizacoes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM obras`); err != nil {
		return fmt.Errorf("failed to clear obras: %w", err)
	}
	return tx.Commit()
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		p                            domain.Project
		status                       string
		start, end, created, updated int64
		budget                       sql.NullFloat64
	)
	err := row.Scan(&p.ID, &p.Name, &p.Responsible, &start, &end, &p.Location.Latitude, &p.Location.Longitude,
		&p.Description, &p.Photo, &status, &budget, &p.Progress, &created, &updated)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.StartDate = fromMillis(start)
	p.EndDate = fromMillis(end)
	p.Budget = floatPtr(budget)
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

func expectRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
