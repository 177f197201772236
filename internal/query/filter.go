package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vbonduro/fiscobras/internal/domain"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Clause is the SQL fragment a filter compiles to. Where is either empty or
// starts with "WHERE"; Args bind its placeholders in order.
type Clause struct {
	Where   string
	Args    []any
	OrderBy string
	Limit   int
	Offset  int
}

// projectSorts maps accepted sortBy values to columns of the obras table
// (aliased o).
var projectSorts = map[string]string{
	"createdAt":   "o.created_at",
	"updatedAt":   "o.updated_at",
	"nome":        "o.nome",
	"responsavel": "o.responsavel",
	"dataInicio":  "o.data_inicio",
	"dataFim":     "o.data_fim",
	"status":      "o.status",
	"progresso":   "o.progresso",
	"orcamento":   "o.orcamento",
}

// inspectionSorts maps accepted sortBy values to columns of the
// fiscalizacoes table (aliased f).
var inspectionSorts = map[string]string{
	"data":              "f.data",
	"createdAt":         "f.created_at",
	"updatedAt":         "f.updated_at",
	"status":            "f.status",
	"nivelRisco":        "f.nivel_risco",
	"temperatura":       "f.temperatura",
	"condicaoClimatica": "f.condicao_climatica",
}

type ProjectFilter struct {
	Status      domain.ProjectStatus
	Responsible string
	Search      string
	SortBy      string
	Order       Order
	Pagination
}

// ParseProjectFilter reads the project list query string. Every malformed
// parameter is reported in the returned ValidationError.
func ParseProjectFilter(v url.Values) (ProjectFilter, error) {
	verr := &domain.ValidationError{}
	f := ProjectFilter{
		Responsible: strings.TrimSpace(v.Get("responsavel")),
		Search:      strings.TrimSpace(v.Get("search")),
	}
	if s := v.Get("status"); s != "" {
		status, err := domain.ParseProjectStatus(s)
		if err != nil {
			verr.Add("status", "Status inválido")
		}
		f.Status = status
	}
	f.Pagination = parsePagination(v, verr)
	f.SortBy, f.Order = parseSort(v, projectSorts, "createdAt", verr)
	return f, verr.OrNil()
}

func (f ProjectFilter) SQL() Clause {
	var w where
	if f.Status != "" {
		w.add("o.status = ?", string(f.Status))
	}
	if f.Responsible != "" {
		w.add(`fold(o.responsavel) LIKE ? ESCAPE '\'`, containsFolded(f.Responsible))
	}
	if f.Search != "" {
		p := containsFolded(f.Search)
		w.add(`(fold(o.nome) LIKE ? ESCAPE '\' OR fold(o.descricao) LIKE ? ESCAPE '\' OR fold(o.responsavel) LIKE ? ESCAPE '\')`, p, p, p)
	}
	return Clause{
		Where:   w.String(),
		Args:    w.args,
		OrderBy: orderBy(projectSorts, f.SortBy, "createdAt", f.Order, "o.id"),
		Limit:   f.Limit(),
		Offset:  f.Offset(),
	}
}

type InspectionFilter struct {
	Status    domain.InspectionStatus
	ProjectID string
	From      *time.Time
	To        *time.Time
	SortBy    string
	Order     Order
	Pagination
}

// ParseInspectionFilter reads the inspection list query string. A date-only
// dataFim covers that whole day.
func ParseInspectionFilter(v url.Values) (InspectionFilter, error) {
	verr := &domain.ValidationError{}
	f := InspectionFilter{ProjectID: strings.TrimSpace(v.Get("obra"))}
	if s := v.Get("status"); s != "" {
		status, err := domain.ParseInspectionStatus(s)
		if err != nil {
			verr.Add("status", "Status inválido")
		}
		f.Status = status
	}
	if s := v.Get("dataInicio"); s != "" {
		t, err := domain.ParseDate(s)
		if err != nil {
			verr.Add("dataInicio", "Data de início deve ser uma data válida")
		} else {
			f.From = &t
		}
	}
	if s := v.Get("dataFim"); s != "" {
		t, err := domain.ParseDate(s)
		if err != nil {
			verr.Add("dataFim", "Data de fim deve ser uma data válida")
		} else {
			if domain.IsDateOnly(s) {
				t = t.Add(24*time.Hour - time.Millisecond)
			}
			f.To = &t
		}
	}
	f.Pagination = parsePagination(v, verr)
	f.SortBy, f.Order = parseSort(v, inspectionSorts, "data", verr)
	return f, verr.OrNil()
}

func (f InspectionFilter) SQL() Clause {
	var w where
	if f.Status != "" {
		w.add("f.status = ?", string(f.Status))
	}
	if f.ProjectID != "" {
		w.add("f.obra_id = ?", f.ProjectID)
	}
	if f.From != nil {
		w.add("f.data >= ?", f.From.UnixMilli())
	}
	if f.To != nil {
		w.add("f.data <= ?", f.To.UnixMilli())
	}
	return Clause{
		Where:   w.String(),
		Args:    w.args,
		OrderBy: orderBy(inspectionSorts, f.SortBy, "data", f.Order, "f.id"),
		Limit:   f.Limit(),
		Offset:  f.Offset(),
	}
}

func parsePagination(v url.Values, verr *domain.ValidationError) Pagination {
	page, size := 1, DefaultPageSize
	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			verr.Add("page", "Página deve ser um número inteiro")
		} else {
			page = n
		}
	}
	if s := v.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			verr.Add("limit", "Limite deve ser um número inteiro")
		} else {
			size = n
		}
	}
	return NewPagination(page, size)
}

func parseSort(v url.Values, allowed map[string]string, def string, verr *domain.ValidationError) (string, Order) {
	sortBy := def
	if s := v.Get("sortBy"); s != "" {
		if _, ok := allowed[s]; !ok {
			verr.Add("sortBy", fmt.Sprintf("Campo de ordenação inválido: %s", s))
		} else {
			sortBy = s
		}
	}
	order := Desc
	switch s := strings.ToLower(v.Get("sortOrder")); s {
	case "", "desc":
	case "asc":
		order = Asc
	default:
		verr.Add("sortOrder", "Ordem deve ser asc ou desc")
	}
	return sortBy, order
}

// orderBy renders the ORDER BY list with the id column as the tie-breaker.
func orderBy(allowed map[string]string, sortBy, def string, order Order, idColumn string) string {
	col, ok := allowed[sortBy]
	if !ok {
		col = allowed[def]
	}
	dir := "DESC"
	if order == Asc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, %s %s", col, dir, idColumn, dir)
}

type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// contains builds a LIKE pattern matching s anywhere, with wildcards in s
// taken literally.
func contains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// containsFolded is contains for columns compared through the fold() SQL
// function registered by package db, which lower-cases beyond ASCII.
func containsFolded(s string) string {
	return contains(strings.ToLower(s))
}
