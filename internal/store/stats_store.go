package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/fiscobras/internal/stats"
)

// StatsStore runs the grouped aggregate queries behind stats.Engine.
type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

func (s *StatsStore) ProjectStatusGroups(ctx context.Context) ([]stats.StatusGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*), AVG(progresso) FROM obras GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to group obras by status: %w", err)
	}
	defer rows.Close()

	groups := []stats.StatusGroup{}
	for rows.Next() {
		var (
			g   stats.StatusGroup
			avg float64
		)
		if err := rows.Scan(&g.Status, &g.Count, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan obra status group: %w", err)
		}
		g.AvgProgress = &avg
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating obra status groups: %w", err)
	}
	return groups, nil
}

func (s *StatsStore) InspectionStatusGroups(ctx context.Context) ([]stats.StatusGroup, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM fiscalizacoes GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to group fiscalizacoes by status: %w", err)
	}
	defer rows.Close()

	groups := []stats.StatusGroup{}
	for rows.Next() {
		var g stats.StatusGroup
		if err := rows.Scan(&g.Status, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan fiscalizacao status group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fiscalizacao status groups: %w", err)
	}
	return groups, nil
}

func (s *StatsStore) CountInspectionsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fiscalizacoes WHERE data >= ?`, millis(since)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent fiscalizacoes: %w", err)
	}
	return n, nil
}

// InspectionMonths buckets inspections by UTC calendar month of their date,
// most recent month first.
func (s *StatsStore) InspectionMonths(ctx context.Context, limit int) ([]stats.MonthBucket, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CAST(strftime('%Y', data / 1000, 'unixepoch') AS INTEGER) AS y,
			CAST(strftime('%m', data / 1000, 'unixepoch') AS INTEGER) AS m,
			COUNT(*)
		FROM fiscalizacoes
		GROUP BY y, m
		ORDER BY y DESC, m DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to group fiscalizacoes by month: %w", err)
	}
	defer rows.Close()

	buckets := []stats.MonthBucket{}
	for rows.Next() {
		var b stats.MonthBucket
		if err := rows.Scan(&b.Month.Year, &b.Month.Month, &b.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating month buckets: %w", err)
	}
	return buckets, nil
}
