package domain

import "fmt"

// ProjectStatus is the lifecycle state of a Project. The string values are
// part of the wire contract shared with the mobile client.
type ProjectStatus string

const (
	ProjectPlanned    ProjectStatus = "Planejada"
	ProjectInProgress ProjectStatus = "Em Andamento"
	ProjectPaused     ProjectStatus = "Pausada"
	ProjectCompleted  ProjectStatus = "Concluída"
	ProjectCancelled  ProjectStatus = "Cancelada"
	// ProjectDelayed is assigned by DeriveStatus when the end date has passed.
	ProjectDelayed ProjectStatus = "Atrasada"
)

var projectStatuses = []ProjectStatus{
	ProjectPlanned, ProjectInProgress, ProjectPaused, ProjectCompleted, ProjectCancelled, ProjectDelayed,
}

func (s ProjectStatus) Valid() bool { return contains(projectStatuses, s) }

func ParseProjectStatus(s string) (ProjectStatus, error) {
	return parseEnum("project status", s, projectStatuses)
}

// InspectionStatus is the condition an inspector reported for the site.
type InspectionStatus string

const (
	InspectionOnTrack   InspectionStatus = "Em dia"
	InspectionDelayed   InspectionStatus = "Atrasada"
	InspectionStopped   InspectionStatus = "Parada"
	InspectionCompleted InspectionStatus = "Concluída"
)

var inspectionStatuses = []InspectionStatus{
	InspectionOnTrack, InspectionDelayed, InspectionStopped, InspectionCompleted,
}

func (s InspectionStatus) Valid() bool { return contains(inspectionStatuses, s) }

func ParseInspectionStatus(s string) (InspectionStatus, error) {
	return parseEnum("inspection status", s, inspectionStatuses)
}

type WeatherCondition string

const (
	WeatherSunny  WeatherCondition = "Ensolarado"
	WeatherCloudy WeatherCondition = "Nublado"
	WeatherRainy  WeatherCondition = "Chuvoso"
	WeatherStormy WeatherCondition = "Tempestade"
	WeatherFoggy  WeatherCondition = "Neblina"
)

var weatherConditions = []WeatherCondition{
	WeatherSunny, WeatherCloudy, WeatherRainy, WeatherStormy, WeatherFoggy,
}

func (w WeatherCondition) Valid() bool { return contains(weatherConditions, w) }

type RiskLevel string

const (
	RiskLow      RiskLevel = "Baixo"
	RiskMedium   RiskLevel = "Médio"
	RiskHigh     RiskLevel = "Alto"
	RiskCritical RiskLevel = "Crítico"
)

var riskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

func (r RiskLevel) Valid() bool { return contains(riskLevels, r) }

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func parseEnum[T ~string](kind, s string, set []T) (T, error) {
	v := T(s)
	if !contains(set, v) {
		return "", fmt.Errorf("invalid %s %q", kind, s)
	}
	return v, nil
}
