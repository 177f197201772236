package web_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/fiscobras/internal/db"
	"github.com/vbonduro/fiscobras/internal/metrics"
	"github.com/vbonduro/fiscobras/internal/notify"
	"github.com/vbonduro/fiscobras/internal/photostore"
	"github.com/vbonduro/fiscobras/internal/service"
	"github.com/vbonduro/fiscobras/internal/stats"
	"github.com/vbonduro/fiscobras/internal/store"
	"github.com/vbonduro/fiscobras/internal/web"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// memPhotoStore is a simple in-memory implementation of photostore.PhotoStore.
type memPhotoStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	mimes   map[string]string
	counter int
}

func newMemPhotoStore() *memPhotoStore {
	return &memPhotoStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memPhotoStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	key := fmt.Sprintf("%s/%d%s", prefix, m.counter, photostore.Ext(mimeType))
	m.data[key] = data
	m.mimes[key] = mimeType
	return key, nil
}

func (m *memPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memPhotoStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.mimes, key)
	return nil
}

type recordingMailer struct {
	mu       sync.Mutex
	subjects []string
	err      error
}

func (m *recordingMailer) Send(_ context.Context, _, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *recordingMailer) Subjects() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subjects...)
}

// newTestServer wires a real web.Server over in-memory SQLite, an in-memory
// photo store and the given mailer.
func newTestServer(t *testing.T, mailer notify.Mailer) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)

	logger := slog.Default()
	m := metrics.New()
	offloader := photostore.NewOffloader(newMemPhotoStore(), logger)
	projectStore := store.NewProjectStore(database)
	inspectionStore := store.NewInspectionStore(database)

	projects := service.NewProjectService(projectStore, inspectionStore, offloader, logger, m)
	inspections := service.NewInspectionService(projectStore, inspectionStore, offloader, logger, m)

	srv := httptest.NewServer(web.NewServer(web.Deps{
		Projects:    projects,
		Inspections: inspections,
		Stats:       stats.NewEngine(store.NewStatsStore(database)),
		Dispatcher:  notify.NewDispatcher(projects, inspections, mailer, logger, m),
		Photos:      offloader,
		Metrics:     m,
		Logger:      logger,
		Environment: "test",
	}))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

type response struct {
	Status int
	Header http.Header
	Body   map[string]any
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) response {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	case []byte:
		r = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	out := response{Status: resp.StatusCode, Header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func obraBody(name string) map[string]any {
	return map[string]any{
		"nome":        name,
		"responsavel": "João Silva",
		"dataInicio":  "2024-01-15",
		"dataFim":     "2099-12-15",
		"localizacao": map[string]any{"latitude": -23.5505, "longitude": -46.6333},
		"descricao":   "Edifício residencial de teste",
		"foto":        "https://example.com/obra.jpg",
		"status":      "Em Andamento",
		"progresso":   35,
	}
}

func fiscalizacaoBody(obraID string) map[string]any {
	return map[string]any{
		"data":        "2024-03-10T10:00:00Z",
		"status":      "Em dia",
		"observacoes": "Fundação concluída conforme projeto",
		"localizacao": map[string]any{"latitude": -23.5505, "longitude": -46.6333},
		"foto":        "https://example.com/fiscalizacao.jpg",
		"obra":        obraID,
		"fiscal":      map[string]any{"nome": "Carlos Eduardo", "registro": "CREA-12345"},
	}
}

func createObra(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/v1/obras", obraBody(name))
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	return resp.Body["data"].(map[string]any)["_id"].(string)
}

func createFiscalizacao(t *testing.T, srv *httptest.Server, obraID string) string {
	t.Helper()
	resp := do(t, srv, http.MethodPost, "/api/v1/fiscalizacoes", fiscalizacaoBody(obraID))
	require.Equal(t, http.StatusCreated, resp.Status, resp.Body)
	return resp.Body["data"].(map[string]any)["_id"].(string)
}

func skipShort(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

func TestIntegration_ObraLifecycle(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})

	created := do(t, srv, http.MethodPost, "/api/v1/obras", obraBody("Edifício Alpha"))
	require.Equal(t, http.StatusCreated, created.Status)
	assert.Equal(t, true, created.Body["success"])
	data := created.Body["data"].(map[string]any)
	id := data["_id"].(string)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "Em Andamento", data["status"])
	assert.NotZero(t, data["duracao"])
	assert.NotContains(t, data, "fiscalizacoes")

	empty := do(t, srv, http.MethodGet, "/api/v1/obras/"+id, nil)
	require.Equal(t, http.StatusOK, empty.Status)
	assert.Equal(t, []any{}, empty.Body["data"].(map[string]any)["fiscalizacoes"])

	createFiscalizacao(t, srv, id)

	got := do(t, srv, http.MethodGet, "/api/v1/obras/"+id, nil)
	require.Equal(t, http.StatusOK, got.Status)
	assert.Len(t, got.Body["data"].(map[string]any)["fiscalizacoes"], 1)

	updated := do(t, srv, http.MethodPut, "/api/v1/obras/"+id, `{"progresso": 90}`)
	require.Equal(t, http.StatusOK, updated.Status, updated.Body)
	assert.Equal(t, 90.0, updated.Body["data"].(map[string]any)["progresso"])
	assert.Equal(t, "Edifício Alpha", updated.Body["data"].(map[string]any)["nome"])
	assert.Len(t, updated.Body["data"].(map[string]any)["fiscalizacoes"], 1)

	deleted := do(t, srv, http.MethodDelete, "/api/v1/obras/"+id, nil)
	require.Equal(t, http.StatusOK, deleted.Status)
	assert.Equal(t, "Obra e fiscalizações relacionadas deletadas com sucesso", deleted.Body["message"])
	assert.Equal(t, map[string]any{}, deleted.Body["data"])

	missing := do(t, srv, http.MethodGet, "/api/v1/obras/"+id, nil)
	assert.Equal(t, http.StatusNotFound, missing.Status)
	assert.Equal(t, false, missing.Body["success"])
	assert.Equal(t, "Obra não encontrada", missing.Body["message"])

	list := do(t, srv, http.MethodGet, "/api/v1/fiscalizacoes", nil)
	assert.Equal(t, 0.0, list.Body["total"])
}

func TestIntegration_ObraValidation(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})

	body := obraBody("AB")
	body["dataFim"] = "2023-01-01"
	resp := do(t, srv, http.MethodPost, "/api/v1/obras", body)
	require.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Dados inválidos", resp.Body["message"])

	fields := map[string]string{}
	for _, e := range resp.Body["errors"].([]any) {
		fe := e.(map[string]any)
		fields[fe["field"].(string)] = fe["message"].(string)
	}
	assert.Equal(t, "Nome deve ter entre 3 e 200 caracteres", fields["nome"])
	assert.Equal(t, "Data de fim deve ser posterior à data de início", fields["dataFim"])

	malformed := do(t, srv, http.MethodPost, "/api/v1/obras", `{"nome": `)
	assert.Equal(t, http.StatusBadRequest, malformed.Status)
}

func TestIntegration_ListObrasEnvelope(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})
	for _, name := range []string{"Obra Um", "Obra Dois", "Obra Três"} {
		createObra(t, srv, name)
	}

	resp := do(t, srv, http.MethodGet, "/api/v1/obras?limit=2&page=2&sortBy=nome&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, 1.0, resp.Body["count"])
	assert.Equal(t, 3.0, resp.Body["total"])
	assert.Equal(t, map[string]any{"page": 2.0, "limit": 2.0, "pages": 2.0}, resp.Body["pagination"])
	items := resp.Body["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Obra Um", items[0].(map[string]any)["nome"])
	assert.Equal(t, []any{}, items[0].(map[string]any)["fiscalizacoes"])

	search := do(t, srv, http.MethodGet, "/api/v1/obras?search=dois", nil)
	assert.Equal(t, 1.0, search.Body["total"])

	bad := do(t, srv, http.MethodGet, "/api/v1/obras?status=Demolida", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Status)

	beyond := do(t, srv, http.MethodGet, "/api/v1/obras?page=9", nil)
	assert.Equal(t, []any{}, beyond.Body["data"])
	assert.Equal(t, 3.0, beyond.Body["total"])
}

func TestIntegration_FiscalizacaoLifecycle(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})
	obraID := createObra(t, srv, "Edifício Alpha")
	id := createFiscalizacao(t, srv, obraID)

	got := do(t, srv, http.MethodGet, "/api/v1/fiscalizacoes/"+id, nil)
	require.Equal(t, http.StatusOK, got.Status)
	data := got.Body["data"].(map[string]any)
	assert.Equal(t, "Ensolarado", data["condicaoClimatica"])
	assert.Equal(t, "Baixo", data["nivelRisco"])
	obra := data["obra"].(map[string]any)
	assert.Equal(t, obraID, obra["_id"])
	assert.Equal(t, "Edifício Alpha", obra["nome"])

	byObra := do(t, srv, http.MethodGet, "/api/v1/obras/"+obraID+"/fiscalizacoes", nil)
	require.Equal(t, http.StatusOK, byObra.Status)
	assert.Equal(t, 1.0, byObra.Body["count"])

	filtered := do(t, srv, http.MethodGet, "/api/v1/fiscalizacoes?obra="+obraID+"&dataInicio=2024-03-01&dataFim=2024-03-10", nil)
	assert.Equal(t, 1.0, filtered.Body["total"])

	updated := do(t, srv, http.MethodPut, "/api/v1/fiscalizacoes/"+id, `{"status": "Parada"}`)
	require.Equal(t, http.StatusOK, updated.Status, updated.Body)
	assert.Equal(t, "Parada", updated.Body["data"].(map[string]any)["status"])

	deleted := do(t, srv, http.MethodDelete, "/api/v1/fiscalizacoes/"+id, nil)
	require.Equal(t, http.StatusOK, deleted.Status)
	assert.Equal(t, "Fiscalização deletada com sucesso", deleted.Body["message"])

	missing := do(t, srv, http.MethodDelete, "/api/v1/fiscalizacoes/"+id, nil)
	assert.Equal(t, http.StatusNotFound, missing.Status)
	assert.Equal(t, "Fiscalização não encontrada", missing.Body["message"])
}

func TestIntegration_FiscalizacaoUnknownObra(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})

	resp := do(t, srv, http.MethodPost, "/api/v1/fiscalizacoes", fiscalizacaoBody("does-not-exist"))
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, "Obra não encontrada", resp.Body["message"])

	resp = do(t, srv, http.MethodGet, "/api/v1/obras/does-not-exist/fiscalizacoes", nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestIntegration_Stats(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})
	obraID := createObra(t, srv, "Edifício Alpha")
	createFiscalizacao(t, srv, obraID)

	overview := do(t, srv, http.MethodGet, "/api/v1/obras/stats", nil)
	require.Equal(t, http.StatusOK, overview.Status)
	data := overview.Body["data"].(map[string]any)
	obras := data["obras"].(map[string]any)
	assert.Equal(t, 1.0, obras["total"])
	assert.Equal(t, 0.0, obras["porcentagemConclusao"])
	fiscalizacoes := data["fiscalizacoes"].(map[string]any)
	assert.Equal(t, 1.0, fiscalizacoes["total"])
	assert.Len(t, fiscalizacoes["monthlyDistribution"], 1)

	inspections := do(t, srv, http.MethodGet, "/api/v1/fiscalizacoes/stats", nil)
	require.Equal(t, http.StatusOK, inspections.Status)
	assert.Equal(t, 1.0, inspections.Body["data"].(map[string]any)["total"])
}

func TestIntegration_Email(t *testing.T) {
	skipShort(t)
	mailer := &recordingMailer{}
	srv := newTestServer(t, mailer)
	obraID := createObra(t, srv, "Edifício Alpha")
	fiscID := createFiscalizacao(t, srv, obraID)

	resp := do(t, srv, http.MethodPost, "/api/v1/email/obra/"+obraID, map[string]any{"email": "gestor@example.com"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "Email enviado com sucesso", resp.Body["message"])

	resp = do(t, srv, http.MethodPost, "/api/v1/email/fiscalizacao/"+fiscID, map[string]any{"email": "gestor@example.com"})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)

	resp = do(t, srv, http.MethodPost, "/api/v1/email/relatorio-obras", map[string]any{
		"email":   "diretoria@example.com",
		"filtros": map[string]any{"responsavel": "silva"},
	})
	require.Equal(t, http.StatusOK, resp.Status, resp.Body)
	assert.Equal(t, "Relatório enviado com sucesso", resp.Body["message"])
	assert.Equal(t, 1.0, resp.Body["count"])

	assert.Equal(t, []string{
		"Fiscalização de Obras - Detalhes: Edifício Alpha",
		"Fiscalização de Obras - Relatório: Edifício Alpha",
		"Fiscalização de Obras - Relatório Geral",
	}, mailer.Subjects())

	resp = do(t, srv, http.MethodPost, "/api/v1/email/obra/"+obraID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = do(t, srv, http.MethodPost, "/api/v1/email/obra/missing", map[string]any{"email": "gestor@example.com"})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestIntegration_EmailDeliveryFailure(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{err: errors.New("connection refused")})
	obraID := createObra(t, srv, "Edifício Alpha")

	resp := do(t, srv, http.MethodPost, "/api/v1/email/obra/"+obraID, map[string]any{"email": "gestor@example.com"})
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
	assert.Equal(t, "Erro ao enviar email", resp.Body["message"])
}

func TestIntegration_PhotoOffload(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})

	body := obraBody("Edifício Alpha")
	body["foto"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	created := do(t, srv, http.MethodPost, "/api/v1/obras", body)
	require.Equal(t, http.StatusCreated, created.Status, created.Body)
	ref := created.Body["data"].(map[string]any)["foto"].(string)
	require.True(t, strings.HasPrefix(ref, photostore.URLPrefix), ref)

	resp, err := http.Get(srv.URL + ref)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, got)

	missing := do(t, srv, http.MethodGet, photostore.URLPrefix+"obra/404.png", nil)
	assert.Equal(t, http.StatusNotFound, missing.Status)

	body["foto"] = "data:image/png;base64,!!!"
	bad := do(t, srv, http.MethodPost, "/api/v1/obras", body)
	assert.Equal(t, http.StatusBadRequest, bad.Status)
}

func TestIntegration_SystemRoutes(t *testing.T) {
	skipShort(t)
	srv := newTestServer(t, &recordingMailer{})

	root := do(t, srv, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, root.Status)
	assert.Equal(t, "Sistema de Cadastro de Obras API", root.Body["message"])
	assert.Equal(t, "nosniff", root.Header.Get("X-Content-Type-Options"))

	health := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, health.Status)
	assert.Equal(t, "OK", health.Body["status"])
	assert.Equal(t, "test", health.Body["environment"])

	index := do(t, srv, http.MethodGet, "/api/v1", nil)
	assert.Equal(t, "API v1 is working!", index.Body["message"])
	assert.NotEmpty(t, index.Body["routes"])

	unknown := do(t, srv, http.MethodGet, "/api/v2/obras?x=1", nil)
	assert.Equal(t, http.StatusNotFound, unknown.Status)
	assert.Equal(t, "Route /api/v2/obras?x=1 not found", unknown.Body["message"])

	wrongMethod := do(t, srv, http.MethodPatch, "/api/v1/obras", nil)
	assert.Equal(t, http.StatusNotFound, wrongMethod.Status)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "fiscobras_http_requests_total")
}
