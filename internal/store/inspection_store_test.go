package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/query"
)

func newInspection(projectID string, date time.Time) *domain.Inspection {
	temp := 24.5
	return &domain.Inspection{
		Date:         date,
		Status:       domain.InspectionOnTrack,
		Observations: "Fundação concluída conforme projeto",
		Location:     domain.Location{Latitude: -23.55, Longitude: -46.63},
		Photo:        "https://example.com/fiscalizacao.jpg",
		ProjectID:    projectID,
		Inspector:    domain.Inspector{Name: "Carlos Eduardo", Registration: "CREA-123"},
		Temperature:  &temp,
		Weather:      domain.WeatherCloudy,
		RiskLevel:    domain.RiskMedium,
	}
}

func TestInspectionStoreCreate(t *testing.T) {
	d := openTestDB(t)
	projects := NewProjectStore(d)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	p, err := projects.Create(ctx, newProject("Edifício Alpha"))
	require.NoError(t, err)

	date := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	i, err := inspections.Create(ctx, newInspection(p.ID, date))
	require.NoError(t, err)
	assert.NotEmpty(t, i.ID)
	assert.Equal(t, date, i.Date)
	assert.Equal(t, p.ID, i.ProjectID)
	assert.Equal(t, "CREA-123", i.Inspector.Registration)
	require.NotNil(t, i.Temperature)
	assert.Equal(t, 24.5, *i.Temperature)
	assert.Equal(t, domain.WeatherCloudy, i.Weather)

	require.NotNil(t, i.Project)
	assert.Equal(t, &domain.ProjectSummary{
		ID:          p.ID,
		Name:        "Edifício Alpha",
		Responsible: "João Silva",
		Status:      domain.ProjectInProgress,
	}, i.Project)
}

func TestInspectionStoreCreateUnknownProject(t *testing.T) {
	d := openTestDB(t)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	_, err := inspections.Create(ctx, newInspection("missing", time.Now()))
	assert.ErrorIs(t, err, ErrProjectNotFound)

	page, err := inspections.List(ctx, query.InspectionFilter{Pagination: query.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestInspectionStoreGetByIDNotFound(t *testing.T) {
	i, err := NewInspectionStore(openTestDB(t)).GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, i)
}

func TestInspectionStoreUpdate(t *testing.T) {
	d := openTestDB(t)
	projects := NewProjectStore(d)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	p, err := projects.Create(ctx, newProject("Edifício Alpha"))
	require.NoError(t, err)
	other, err := projects.Create(ctx, newProject("Ponte Beta"))
	require.NoError(t, err)

	i, err := inspections.Create(ctx, newInspection(p.ID, time.Now()))
	require.NoError(t, err)

	i.ProjectID = other.ID
	i.Status = domain.InspectionStopped
	i.Temperature = nil
	updated, err := inspections.Update(ctx, i)
	require.NoError(t, err)
	assert.Equal(t, domain.InspectionStopped, updated.Status)
	assert.Nil(t, updated.Temperature)
	require.NotNil(t, updated.Project)
	assert.Equal(t, "Ponte Beta", updated.Project.Name)
}

func TestInspectionStoreUpdateNotFound(t *testing.T) {
	i := newInspection("p", time.Now())
	i.ID = "missing"

	_, err := NewInspectionStore(openTestDB(t)).Update(context.Background(), i)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInspectionStoreDelete(t *testing.T) {
	d := openTestDB(t)
	projects := NewProjectStore(d)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	p, err := projects.Create(ctx, newProject("Edifício Alpha"))
	require.NoError(t, err)
	i, err := inspections.Create(ctx, newInspection(p.ID, time.Now()))
	require.NoError(t, err)

	require.NoError(t, inspections.Delete(ctx, i.ID))
	assert.ErrorIs(t, inspections.Delete(ctx, i.ID), ErrNotFound)
}

func TestInspectionStoreListByProjectNewestFirst(t *testing.T) {
	d := openTestDB(t)
	projects := NewProjectStore(d)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	p, err := projects.Create(ctx, newProject("Edifício Alpha"))
	require.NoError(t, err)
	other, err := projects.Create(ctx, newProject("Ponte Beta"))
	require.NoError(t, err)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, days := range []int{0, 10, 5} {
		_, err := inspections.Create(ctx, newInspection(p.ID, base.AddDate(0, 0, days)))
		require.NoError(t, err)
	}
	_, err = inspections.Create(ctx, newInspection(other.ID, base))
	require.NoError(t, err)

	list, err := inspections.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, base.AddDate(0, 0, 10), list[0].Date)
	assert.Equal(t, base.AddDate(0, 0, 5), list[1].Date)
	assert.Equal(t, base, list[2].Date)

	grouped, err := inspections.ListByProjects(ctx, []string{p.ID, other.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, grouped[p.ID], 3)
	assert.Len(t, grouped[other.ID], 1)
	assert.Empty(t, grouped["missing"])
}

func TestInspectionStoreListFilters(t *testing.T) {
	d := openTestDB(t)
	projects := NewProjectStore(d)
	inspections := NewInspectionStore(d)
	ctx := context.Background()

	p, err := projects.Create(ctx, newProject("Edifício Alpha"))
	require.NoError(t, err)
	other, err := projects.Create(ctx, newProject("Ponte Beta"))
	require.NoError(t, err)

	march := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	april := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)

	i := newInspection(p.ID, march)
	i.Status = domain.InspectionDelayed
	_, err = inspections.Create(ctx, i)
	require.NoError(t, err)
	_, err = inspections.Create(ctx, newInspection(p.ID, april))
	require.NoError(t, err)
	_, err = inspections.Create(ctx, newInspection(other.ID, april))
	require.NoError(t, err)

	page, err := inspections.List(ctx, query.InspectionFilter{ProjectID: p.ID, Pagination: query.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, april, page.Items[0].Date)

	page, err = inspections.List(ctx, query.InspectionFilter{Status: domain.InspectionDelayed, Pagination: query.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	from := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC)
	page, err = inspections.List(ctx, query.InspectionFilter{From: &from, To: &to, Pagination: query.NewPagination(1, 10)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)

	page, err = inspections.List(ctx, query.InspectionFilter{SortBy: "data", Order: query.Asc, Pagination: query.NewPagination(1, 1)})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, march, page.Items[0].Date)
}
