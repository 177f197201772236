package domain

import (
	"strings"
	"time"
)

// LocationInput uses pointers so a missing coordinate is distinguishable
// from the equator or the prime meridian.
type LocationInput struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

func (l LocationInput) location() Location {
	var loc Location
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}

func locationInput(l Location) LocationInput {
	lat, lon := l.Latitude, l.Longitude
	return LocationInput{Latitude: &lat, Longitude: &lon}
}

// ProjectInput is the writable shape of a Project as sent by clients.
type ProjectInput struct {
	Name        string        `json:"nome" validate:"required,min=3,max=200"`
	Responsible string        `json:"responsavel" validate:"required,min=3,max=100"`
	StartDate   *Date         `json:"dataInicio" validate:"required"`
	EndDate     *Date         `json:"dataFim" validate:"required"`
	Location    LocationInput `json:"localizacao"`
	Description string        `json:"descricao" validate:"required,min=10,max=1000"`
	Photo       string        `json:"foto" validate:"required"`
	Status      ProjectStatus `json:"status" validate:"omitempty,enum"`
	Budget      *float64      `json:"orcamento" validate:"omitempty,gte=0"`
	Progress    *float64      `json:"progresso" validate:"omitempty,gte=0,lte=100"`
}

var projectMessages = Messages{
	Invalid: map[string]string{
		"nome":                  "Nome deve ter entre 3 e 200 caracteres",
		"responsavel":           "Responsável deve ter entre 3 e 100 caracteres",
		"dataInicio":            "Data de início deve ser uma data válida",
		"dataFim":               "Data de fim deve ser uma data válida",
		"localizacao.latitude":  "Latitude deve estar entre -90 e 90",
		"localizacao.longitude": "Longitude deve estar entre -180 e 180",
		"descricao":             "Descrição deve ter entre 10 e 1000 caracteres",
		"foto":                  "Foto é obrigatória",
		"status":                "Status inválido",
		"orcamento":             "Orçamento deve ser um valor positivo",
		"progresso":             "Progresso deve estar entre 0 e 100",
	},
	Required: map[string]string{
		"nome":                  "Nome da obra é obrigatório",
		"responsavel":           "Responsável é obrigatório",
		"dataInicio":            "Data de início é obrigatória",
		"dataFim":               "Data de fim é obrigatória",
		"localizacao.latitude":  "Latitude é obrigatória",
		"localizacao.longitude": "Longitude é obrigatória",
		"descricao":             "Descrição é obrigatória",
	},
}

// Validate trims free-text fields in place and checks every field rule plus
// the end-after-start constraint.
func (in *ProjectInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Responsible = strings.TrimSpace(in.Responsible)
	in.Description = strings.TrimSpace(in.Description)
	in.Photo = strings.TrimSpace(in.Photo)

	verr := ValidateStruct(in, projectMessages)
	if in.StartDate != nil && in.EndDate != nil && !in.EndDate.After(in.StartDate.Time) && !verr.Has("dataFim") {
		verr.Add("dataFim", "Data de fim deve ser posterior à data de início")
	}
	return verr.OrNil()
}

// Apply copies the input onto p, filling defaults for omitted optional
// fields. It does not derive the status; callers run DeriveStatus next.
func (in *ProjectInput) Apply(p *Project) {
	p.Name = in.Name
	p.Responsible = in.Responsible
	if in.StartDate != nil {
		p.StartDate = in.StartDate.UTC()
	}
	if in.EndDate != nil {
		p.EndDate = in.EndDate.UTC()
	}
	p.Location = in.Location.location()
	p.Description = in.Description
	p.Photo = in.Photo
	p.Status = in.Status
	if p.Status == "" {
		p.Status = ProjectPlanned
	}
	p.Budget = in.Budget
	p.Progress = 0
	if in.Progress != nil {
		p.Progress = *in.Progress
	}
}

// ProjectInputFrom returns the writable view of an existing project, the
// base onto which an update patch is merged.
func ProjectInputFrom(p *Project) ProjectInput {
	progress := p.Progress
	in := ProjectInput{
		Name:        p.Name,
		Responsible: p.Responsible,
		StartDate:   NewDate(p.StartDate),
		EndDate:     NewDate(p.EndDate),
		Location:    locationInput(p.Location),
		Description: p.Description,
		Photo:       p.Photo,
		Status:      p.Status,
		Progress:    &progress,
	}
	if p.Budget != nil {
		budget := *p.Budget
		in.Budget = &budget
	}
	return in
}

type InspectorInput struct {
	Name         string `json:"nome" validate:"required,min=3,max=100"`
	Registration string `json:"registro" validate:"max=50"`
}

// InspectionInput is the writable shape of an Inspection. ProjectID carries
// the owning project's id ("obra").
type InspectionInput struct {
	Date         *Date            `json:"data"`
	Status       InspectionStatus `json:"status" validate:"required,enum"`
	Observations string           `json:"observacoes" validate:"required,min=10,max=2000"`
	Location     LocationInput    `json:"localizacao"`
	Photo        string           `json:"foto" validate:"required"`
	ProjectID    string           `json:"obra" validate:"required"`
	Inspector    InspectorInput   `json:"fiscal"`
	Temperature  *float64         `json:"temperatura" validate:"omitempty,gte=-50,lte=60"`
	Weather      WeatherCondition `json:"condicaoClimatica" validate:"omitempty,enum"`
	RiskLevel    RiskLevel        `json:"nivelRisco" validate:"omitempty,enum"`
}

var inspectionMessages = Messages{
	Invalid: map[string]string{
		"data":                  "Data deve ser uma data válida",
		"status":                "Status deve ser: Em dia, Atrasada, Parada ou Concluída",
		"observacoes":           "Observações devem ter entre 10 e 2000 caracteres",
		"localizacao.latitude":  "Latitude deve estar entre -90 e 90",
		"localizacao.longitude": "Longitude deve estar entre -180 e 180",
		"foto":                  "Foto é obrigatória",
		"obra":                  "ID da obra deve ser válido",
		"fiscal.nome":           "Nome do fiscal deve ter entre 3 e 100 caracteres",
		"fiscal.registro":       "Registro não pode exceder 50 caracteres",
		"temperatura":           "Temperatura deve estar entre -50°C e 60°C",
		"condicaoClimatica":     "Condição climática inválida",
		"nivelRisco":            "Nível de risco inválido",
	},
	Required: map[string]string{
		"status":                "Status é obrigatório",
		"observacoes":           "Observações são obrigatórias",
		"localizacao.latitude":  "Latitude é obrigatória",
		"localizacao.longitude": "Longitude é obrigatória",
		"obra":                  "Obra relacionada é obrigatória",
		"fiscal.nome":           "Nome do fiscal é obrigatório",
	},
}

func (in *InspectionInput) Validate() error {
	in.Observations = strings.TrimSpace(in.Observations)
	in.Photo = strings.TrimSpace(in.Photo)
	in.ProjectID = strings.TrimSpace(in.ProjectID)
	in.Inspector.Name = strings.TrimSpace(in.Inspector.Name)
	in.Inspector.Registration = strings.TrimSpace(in.Inspector.Registration)

	return ValidateStruct(in, inspectionMessages).OrNil()
}

// Apply copies the input onto i. A missing date defaults to now and missing
// weather and risk fall back to Ensolarado and Baixo.
func (in *InspectionInput) Apply(i *Inspection, now time.Time) {
	i.Date = now.UTC()
	if in.Date != nil {
		i.Date = in.Date.UTC()
	}
	i.Status = in.Status
	i.Observations = in.Observations
	i.Location = in.Location.location()
	i.Photo = in.Photo
	i.ProjectID = in.ProjectID
	i.Inspector = Inspector{Name: in.Inspector.Name, Registration: in.Inspector.Registration}
	i.Temperature = in.Temperature
	i.Weather = in.Weather
	if i.Weather == "" {
		i.Weather = WeatherSunny
	}
	i.RiskLevel = in.RiskLevel
	if i.RiskLevel == "" {
		i.RiskLevel = RiskLow
	}
}

func InspectionInputFrom(i *Inspection) InspectionInput {
	in := InspectionInput{
		Date:         NewDate(i.Date),
		Status:       i.Status,
		Observations: i.Observations,
		Location:     locationInput(i.Location),
		Photo:        i.Photo,
		ProjectID:    i.ProjectID,
		Inspector:    InspectorInput{Name: i.Inspector.Name, Registration: i.Inspector.Registration},
		Weather:      i.Weather,
		RiskLevel:    i.RiskLevel,
	}
	if i.Temperature != nil {
		t := *i.Temperature
		in.Temperature = &t
	}
	return in
}
