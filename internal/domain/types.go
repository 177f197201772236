package domain

import (
	"encoding/json"
	"math"
	"time"
)

const day = 24 * time.Hour

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Project is a tracked construction undertaking ("obra").
type Project struct {
	ID          string        `json:"_id"`
	Name        string        `json:"nome"`
	Responsible string        `json:"responsavel"`
	StartDate   time.Time     `json:"dataInicio"`
	EndDate     time.Time     `json:"dataFim"`
	Location    Location      `json:"localizacao"`
	Description string        `json:"descricao"`
	Photo       string        `json:"foto"`
	Status      ProjectStatus `json:"status"`
	Budget      *float64      `json:"orcamento,omitempty"`
	Progress    float64       `json:"progresso"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	// Populated by read operations that resolve the project's inspections. A
	// nil slice means unresolved and is left out of the JSON form; a resolved
	// project with no inspections renders as an empty list.
	Inspections []*Inspection `json:"-"`
}

// DurationDays is the whole number of days between start and end, rounded up.
func (p *Project) DurationDays() int {
	d := p.EndDate.Sub(p.StartDate)
	if d < 0 {
		d = -d
	}
	return int(math.Ceil(float64(d) / float64(day)))
}

func (p *Project) MarshalJSON() ([]byte, error) {
	type project Project
	var inspections *[]*Inspection
	if p.Inspections != nil {
		inspections = &p.Inspections
	}
	return json.Marshal(struct {
		*project
		Alias       string         `json:"id"`
		Duration    int            `json:"duracao"`
		Inspections *[]*Inspection `json:"fiscalizacoes,omitempty"`
	}{project: (*project)(p), Alias: p.ID, Duration: p.DurationDays(), Inspections: inspections})
}

// ProjectSummary is the denormalized view of a Project carried by inspections.
type ProjectSummary struct {
	ID          string        `json:"_id"`
	Name        string        `json:"nome"`
	Responsible string        `json:"responsavel"`
	Status      ProjectStatus `json:"status"`
}

type Inspector struct {
	Name         string `json:"nome"`
	Registration string `json:"registro,omitempty"`
}

// Inspection is a dated field visit to one Project ("fiscalização").
type Inspection struct {
	ID           string           `json:"_id"`
	Date         time.Time        `json:"data"`
	Status       InspectionStatus `json:"status"`
	Observations string           `json:"observacoes"`
	Location     Location         `json:"localizacao"`
	Photo        string           `json:"foto"`
	ProjectID    string           `json:"-"`
	Inspector    Inspector        `json:"fiscal"`
	Temperature  *float64         `json:"temperatura,omitempty"`
	Weather      WeatherCondition `json:"condicaoClimatica"`
	RiskLevel    RiskLevel        `json:"nivelRisco"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`

	// Project is resolved by the store's read path; nil on bare writes.
	Project *ProjectSummary `json:"-"`
}

// DaysSince is the whole number of days between the inspection date and now.
func (i *Inspection) DaysSince(now time.Time) int {
	d := now.Sub(i.Date)
	if d < 0 {
		d = -d
	}
	return int(math.Floor(float64(d) / float64(day)))
}

// MarshalJSON renders "obra" as the parent summary when it was resolved and
// as the bare project id otherwise.
func (i *Inspection) MarshalJSON() ([]byte, error) {
	type inspection Inspection
	var project any = i.ProjectID
	if i.Project != nil {
		project = i.Project
	}
	return json.Marshal(struct {
		*inspection
		Alias     string `json:"id"`
		Owner     any    `json:"obra"`
		DaysSince int    `json:"diasDesde"`
	}{inspection: (*inspection)(i), Alias: i.ID, Owner: project, DaysSince: i.DaysSince(time.Now())})
}
