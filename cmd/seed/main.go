// Command seed loads a sample set of obras and fiscalizações through the
// services, so the same validation and status rules apply as for API writes.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/vbonduro/fiscobras/internal/config"
	"github.com/vbonduro/fiscobras/internal/db"
	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/logging"
	"github.com/vbonduro/fiscobras/internal/service"
	"github.com/vbonduro/fiscobras/internal/store"
)

type sampleProject struct {
	name, responsible, description string
	start, end                     string
	lat, lon                       float64
	status                         domain.ProjectStatus
	budget, progress               float64
}

var sampleProjects = []sampleProject{
	{
		name: "Construção do Edifício Residencial Alpha", responsible: "João Silva Santos",
		start: "2024-01-15", end: "2024-12-15", lat: -23.5505, lon: -46.6333,
		description: "Construção de edifício residencial de 15 andares com 120 apartamentos, incluindo área de lazer completa.",
		status:      domain.ProjectInProgress, budget: 2500000, progress: 45,
	},
	{
		name: "Reforma do Centro Comercial Beta", responsible: "Maria Oliveira Costa",
		start: "2024-02-01", end: "2024-08-30", lat: -23.5489, lon: -46.6388,
		description: "Reforma completa do centro comercial incluindo modernização da fachada, sistemas elétricos e hidráulicos.",
		status:      domain.ProjectInProgress, budget: 800000, progress: 70,
	},
	{
		name: "Construção da Ponte Gamma", responsible: "Carlos Eduardo Lima",
		start: "2023-10-01", end: "2024-06-30", lat: -23.552, lon: -46.63,
		description: "Construção de ponte rodoviária de 200 metros sobre o rio, incluindo vias de acesso e sinalização.",
		status:      domain.ProjectCompleted, budget: 5000000, progress: 100,
	},
	{
		name: "Ampliação do Hospital Delta", responsible: "Ana Paula Ferreira",
		start: "2024-03-01", end: "2025-02-28", lat: -23.5558, lon: -46.6396,
		description: "Ampliação do hospital com nova ala de emergência, 50 novos leitos e centro cirúrgico moderno.",
		status:      domain.ProjectPlanned, budget: 3200000, progress: 5,
	},
	{
		name: "Revitalização da Praça Central", responsible: "Roberto Mendes Silva",
		start: "2024-01-10", end: "2024-07-10", lat: -23.5475, lon: -46.6361,
		description: "Projeto de revitalização da praça central com novo paisagismo, playground, academia ao ar livre e iluminação LED.",
		status:      domain.ProjectPaused, budget: 450000, progress: 30,
	},
}

var (
	observations = []string{
		"Obra progredindo conforme cronograma estabelecido. Equipe trabalhando em ritmo normal.",
		"Pequenos atrasos devido às condições climáticas adversas. Previsão de normalização em breve.",
		"Materiais entregues dentro do prazo. Qualidade aprovada pela fiscalização.",
		"Equipe trabalhando em horário normal. Segurança do trabalho em conformidade.",
		"Necessário ajuste no cronograma devido a mudanças no projeto original.",
		"Qualidade dos materiais e execução aprovada. Obra dentro dos padrões técnicos.",
		"Segurança do trabalho em conformidade com as normas. Equipamentos adequados.",
		"Progresso satisfatório. Cumprimento das especificações técnicas do projeto.",
		"Atraso pontual devido a problemas com fornecedores. Situação sendo resolvida.",
		"Obra temporariamente parada para ajustes no projeto. Retomada prevista em breve.",
	}
	inspectors = []domain.InspectorInput{
		{Name: "Eng. Carlos Mendes", Registration: "CREA-SP 123456"},
		{Name: "Eng. Ana Santos", Registration: "CREA-SP 789012"},
		{Name: "Arq. Pedro Lima", Registration: "CAU-SP 345678"},
		{Name: "Eng. Mariana Costa", Registration: "CREA-SP 901234"},
		{Name: "Eng. Roberto Silva", Registration: "CREA-SP 567890"},
	}
	inspectionStatuses = []domain.InspectionStatus{domain.InspectionOnTrack, domain.InspectionDelayed, domain.InspectionStopped}
	weathers           = []domain.WeatherCondition{domain.WeatherSunny, domain.WeatherCloudy, domain.WeatherRainy, domain.WeatherStormy, domain.WeatherFoggy}
	risks              = []domain.RiskLevel{domain.RiskLow, domain.RiskMedium, domain.RiskHigh, domain.RiskCritical}
)

func main() {
	reset := flag.Bool("reset", true, "delete every existing obra and fiscalização first")
	seed := flag.Uint64("seed", 1, "random seed for the generated fiscalizações")
	flag.Parse()

	cfg := config.Load()
	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() { _ = database.Close() }()

	projectStore := store.NewProjectStore(database)
	inspectionStore := store.NewInspectionStore(database)
	projects := service.NewProjectService(projectStore, inspectionStore, nil, logger, nil)
	inspections := service.NewInspectionService(projectStore, inspectionStore, nil, logger, nil)

	ctx := context.Background()
	if *reset {
		if err := projectStore.DeleteAll(ctx); err != nil {
			logger.Error("failed to clear database", "error", err)
			return
		}
		logger.Info("existing data removed")
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	nProjects, nInspections, err := populate(ctx, projects, inspections, rng, logger)
	if err != nil {
		logger.Error("seed failed", "error", err)
		return
	}
	logger.Info("database populated", "obras", nProjects, "fiscalizacoes", nInspections)
}

func populate(ctx context.Context, projects *service.ProjectService, inspections *service.InspectionService, rng *rand.Rand, logger *slog.Logger) (int, int, error) {
	var nInspections int
	for n, sp := range sampleProjects {
		in, err := sp.input(n)
		if err != nil {
			return 0, 0, err
		}
		p, err := projects.CreateProject(ctx, in)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to create obra %q: %w", sp.name, err)
		}
		logger.Info("obra created", "nome", p.Name, "status", p.Status)

		count := rng.IntN(3) + 2
		for i := range count {
			if _, err := inspections.CreateInspection(ctx, sampleInspection(p, i, rng)); err != nil {
				return 0, 0, fmt.Errorf("failed to create fiscalizacao for %q: %w", sp.name, err)
			}
		}
		nInspections += count
	}
	return len(sampleProjects), nInspections, nil
}

func (sp sampleProject) input(n int) (domain.ProjectInput, error) {
	start, err := domain.ParseDate(sp.start)
	if err != nil {
		return domain.ProjectInput{}, err
	}
	end, err := domain.ParseDate(sp.end)
	if err != nil {
		return domain.ProjectInput{}, err
	}
	lat, lon := sp.lat, sp.lon
	budget, progress := sp.budget, sp.progress
	return domain.ProjectInput{
		Name:        sp.name,
		Responsible: sp.responsible,
		StartDate:   domain.NewDate(start),
		EndDate:     domain.NewDate(end),
		Location:    domain.LocationInput{Latitude: &lat, Longitude: &lon},
		Description: sp.description,
		Photo:       fmt.Sprintf("https://picsum.photos/seed/obra-%d/800/600", n+1),
		Status:      sp.status,
		Budget:      &budget,
		Progress:    &progress,
	}, nil
}

// sampleInspection spaces visits roughly a month apart from the project start.
func sampleInspection(p *domain.Project, i int, rng *rand.Rand) domain.InspectionInput {
	date := p.StartDate.Add(time.Duration(i*30+rng.IntN(15)) * 24 * time.Hour)
	lat := p.Location.Latitude + (rng.Float64()-0.5)*0.001
	lon := p.Location.Longitude + (rng.Float64()-0.5)*0.001
	temp := float64(rng.IntN(25) + 15)
	return domain.InspectionInput{
		Date:         domain.NewDate(date),
		Status:       pick(rng, inspectionStatuses),
		Observations: pick(rng, observations),
		Location:     domain.LocationInput{Latitude: &lat, Longitude: &lon},
		Photo:        fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/600", p.ID, i+1),
		ProjectID:    p.ID,
		Inspector:    pick(rng, inspectors),
		Temperature:  &temp,
		Weather:      pick(rng, weathers),
		RiskLevel:    pick(rng, risks),
	}
}

func pick[T any](rng *rand.Rand, options []T) T {
	return options[rng.IntN(len(options))]
}
