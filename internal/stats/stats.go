// Package stats computes the dashboard aggregates over projects and
// inspections.
package stats

import (
	"context"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/fiscobras/internal/domain"
)

const (
	recentWindow  = 30 * 24 * time.Hour
	monthsInChart = 12
)

// StatusGroup is one bucket of a status histogram. AvgProgress is only
// reported for projects.
type StatusGroup struct {
	Status      string   `json:"_id"`
	Count       int      `json:"count"`
	AvgProgress *float64 `json:"avgProgresso,omitempty"`
}

type Month struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthBucket struct {
	Month Month `json:"_id"`
	Count int   `json:"count"`
}

// Repository is the storage side of the engine, implemented by store.StatsStore.
type Repository interface {
	ProjectStatusGroups(ctx context.Context) ([]StatusGroup, error)
	InspectionStatusGroups(ctx context.Context) ([]StatusGroup, error)
	CountInspectionsSince(ctx context.Context, since time.Time) (int, error)
	InspectionMonths(ctx context.Context, limit int) ([]MonthBucket, error)
}

type ProjectStats struct {
	Total                int           `json:"total"`
	Completed            int           `json:"concluidas"`
	Delayed              int           `json:"atrasadas"`
	CompletionPercentage float64       `json:"porcentagemConclusao"`
	StatusDistribution   []StatusGroup `json:"statusDistribution"`
}

type InspectionStats struct {
	Total               int           `json:"total"`
	Recent              int           `json:"recentes"`
	StatusDistribution  []StatusGroup `json:"statusDistribution"`
	MonthlyDistribution []MonthBucket `json:"monthlyDistribution"`
}

type Overview struct {
	Projects    *ProjectStats    `json:"obras"`
	Inspections *InspectionStats `json:"fiscalizacoes"`
}

type Engine struct {
	repo Repository
	now  func() time.Time
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// Projects counts projects per status. Paused projects are reported as
// delayed alongside Atrasada ones.
func (e *Engine) Projects(ctx context.Context) (*ProjectStats, error) {
	groups, err := e.repo.ProjectStatusGroups(ctx)
	if err != nil {
		return nil, err
	}
	sortGroups(groups)

	out := &ProjectStats{StatusDistribution: groups}
	for _, g := range groups {
		out.Total += g.Count
		switch domain.ProjectStatus(g.Status) {
		case domain.ProjectCompleted:
			out.Completed += g.Count
		case domain.ProjectDelayed, domain.ProjectPaused:
			out.Delayed += g.Count
		}
	}
	out.CompletionPercentage = percentage(out.Completed, out.Total)
	return out, nil
}

func (e *Engine) Inspections(ctx context.Context) (*InspectionStats, error) {
	groups, err := e.repo.InspectionStatusGroups(ctx)
	if err != nil {
		return nil, err
	}
	sortGroups(groups)

	recent, err := e.repo.CountInspectionsSince(ctx, e.now().Add(-recentWindow))
	if err != nil {
		return nil, err
	}

	months, err := e.repo.InspectionMonths(ctx, monthsInChart)
	if err != nil {
		return nil, err
	}

	out := &InspectionStats{Recent: recent, StatusDistribution: groups, MonthlyDistribution: months}
	for _, g := range groups {
		out.Total += g.Count
	}
	return out, nil
}

// Overview computes both halves concurrently.
func (e *Engine) Overview(ctx context.Context) (*Overview, error) {
	var out Overview
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := e.Projects(ctx)
		out.Projects = p
		return err
	})
	g.Go(func() error {
		i, err := e.Inspections(ctx)
		out.Inspections = i
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

// sortGroups orders by count descending, then status name.
func sortGroups(groups []StatusGroup) {
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].Count != groups[b].Count {
			return groups[a].Count > groups[b].Count
		}
		return groups[a].Status < groups[b].Status
	})
}

// percentage returns part/total*100 rounded to two decimals, or 0 for an
// empty total.
func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}
