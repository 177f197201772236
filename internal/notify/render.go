package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/fiscobras/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var tmplFuncs = template.FuncMap{
	"formatDate":     func(t time.Time) string { return t.Format("02/01/2006") },
	"formatDateTime": func(t time.Time) string { return t.Format("02/01/2006 15:04:05") },
	"formatNumber":   func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
	"statusClass": func(s domain.ProjectStatus) string {
		return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
	},
}

const (
	pageProject    = "obra.html"
	pageInspection = "fiscalizacao.html"
	pageReport     = "relatorio.html"
)

var pages = map[string]*template.Template{
	pageProject:    parsePage(pageProject),
	pageInspection: parsePage(pageInspection),
	pageReport:     parsePage(pageReport),
}

// parsePage builds the template set for one email: the shared base layout
// plus the page's blocks.
func parsePage(name string) *template.Template {
	return template.Must(template.New("").Funcs(tmplFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+name))
}

func render(page string, data any) (string, error) {
	tmpl, ok := pages[page]
	if !ok {
		return "", fmt.Errorf("unknown email template %s", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", page, err)
	}
	return buf.String(), nil
}

type projectEmail struct {
	Message string
	SentAt  time.Time
	Project *domain.Project
}

type inspectionEmail struct {
	Message     string
	SentAt      time.Time
	ProjectName string
	Inspection  *domain.Inspection
}

type reportEmail struct {
	Message    string
	SentAt     time.Time
	Filters    ReportFilters
	Projects   []*domain.Project
	Total      int
	InProgress int
	Completed  int
}
