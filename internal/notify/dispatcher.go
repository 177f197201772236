// Package notify renders project and inspection summaries as HTML email and
// hands them to a Mailer.
package notify

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/vbonduro/fiscobras/internal/domain"
	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/query"
)

const subjectPrefix = "Fiscalização de Obras - "

// EmailRequest is the body of the single-record email routes.
type EmailRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"max=500"`
}

var emailMessages = domain.Messages{
	Invalid: map[string]string{
		"email":   "Email inválido",
		"message": "Mensagem não pode exceder 500 caracteres",
	},
	Required: map[string]string{"email": "Email é obrigatório"},
}

func (r *EmailRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	return domain.ValidateStruct(r, emailMessages).OrNil()
}

type ReportFilters struct {
	Status      domain.ProjectStatus `json:"status" validate:"omitempty,enum"`
	Responsible string               `json:"responsavel"`
}

// ReportRequest is the body of the report route. Filters narrow the set of
// projects included.
type ReportRequest struct {
	Email   string        `json:"email" validate:"required,email"`
	Message string        `json:"message" validate:"max=500"`
	Filters ReportFilters `json:"filtros"`
}

var reportMessages = domain.Messages{
	Invalid: map[string]string{
		"email":          "Email inválido",
		"message":        "Mensagem não pode exceder 500 caracteres",
		"filtros.status": "Status inválido",
	},
	Required: map[string]string{"email": "Email é obrigatório"},
}

func (r *ReportRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	r.Message = strings.TrimSpace(r.Message)
	r.Filters.Responsible = strings.TrimSpace(r.Filters.Responsible)
	return domain.ValidateStruct(r, reportMessages).OrNil()
}

// projectReader is the subset of service.ProjectService the dispatcher needs.
// Both methods return projects with their inspections populated.
type projectReader interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, f query.ProjectFilter) (*query.Page[*domain.Project], error)
}

// inspectionReader is the subset of service.InspectionService the dispatcher needs.
type inspectionReader interface {
	GetInspection(ctx context.Context, id string) (*domain.Inspection, error)
}

type Dispatcher struct {
	projects    projectReader
	inspections inspectionReader
	mailer      Mailer
	logger      *slog.Logger
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewDispatcher(projects projectReader, inspections inspectionReader, mailer Mailer, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		projects:    projects,
		inspections: inspections,
		mailer:      mailer,
		logger:      logger,
		metrics:     m,
		now:         time.Now,
	}
}

// SendProject emails one project with its inspections and returns the number
// of projects sent.
func (d *Dispatcher) SendProject(ctx context.Context, id string, req EmailRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	p, err := d.projects.GetProject(ctx, id)
	if err != nil {
		return 0, err
	}

	html, err := render(pageProject, projectEmail{Message: req.Message, SentAt: d.now(), Project: p})
	if err != nil {
		return 0, err
	}
	if err := d.deliver(ctx, metrics.KindProject, req.Email, subjectPrefix+"Detalhes: "+p.Name, html); err != nil {
		return 0, err
	}
	return 1, nil
}

func (d *Dispatcher) SendInspection(ctx context.Context, id string, req EmailRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	i, err := d.inspections.GetInspection(ctx, id)
	if err != nil {
		return 0, err
	}

	projectName := ""
	if i.Project != nil {
		projectName = i.Project.Name
	}
	html, err := render(pageInspection, inspectionEmail{
		Message:     req.Message,
		SentAt:      d.now(),
		ProjectName: projectName,
		Inspection:  i,
	})
	if err != nil {
		return 0, err
	}
	if err := d.deliver(ctx, metrics.KindInspection, req.Email, subjectPrefix+"Relatório: "+projectName, html); err != nil {
		return 0, err
	}
	return 1, nil
}

// SendProjectReport emails a summary of every project matching the filters
// and returns how many projects it covered.
func (d *Dispatcher) SendProjectReport(ctx context.Context, req ReportRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}
	page, err := d.projects.ListProjects(ctx, query.ProjectFilter{
		Status:      req.Filters.Status,
		Responsible: req.Filters.Responsible,
	})
	if err != nil {
		return 0, err
	}

	data := reportEmail{
		Message:  req.Message,
		SentAt:   d.now(),
		Filters:  req.Filters,
		Projects: page.Items,
		Total:    len(page.Items),
	}
	for _, p := range page.Items {
		switch p.Status {
		case domain.ProjectInProgress:
			data.InProgress++
		case domain.ProjectCompleted:
			data.Completed++
		}
	}

	html, err := render(pageReport, data)
	if err != nil {
		return 0, err
	}
	if err := d.deliver(ctx, metrics.KindReport, req.Email, subjectPrefix+"Relatório Geral", html); err != nil {
		return 0, err
	}
	return data.Total, nil
}

func (d *Dispatcher) deliver(ctx context.Context, kind, to, subject, html string) error {
	err := d.mailer.Send(ctx, to, subject, html)
	d.metrics.EmailResult(kind, err)
	if err != nil {
		d.logger.Error("email delivery failed", "kind", kind, "to", to, "error", err)
		return &domain.DeliveryError{Recipient: to, Err: err}
	}
	d.logger.Info("email sent", "kind", kind, "to", to, "subject", subject)
	return nil
}
