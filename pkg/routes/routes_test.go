package routes_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/repositories/agent"
	"github.com/Ramsey-B/clover/pkg/database/databasetest"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/graph"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/reconcile"
	"github.com/Ramsey-B/clover/pkg/routes"
	"github.com/Ramsey-B/clover/pkg/routes/agents"
	"github.com/Ramsey-B/clover/pkg/routes/duplicates"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	"github.com/Ramsey-B/clover/pkg/routes/imports"
)

type testAPI struct {
	t     *testing.T
	e     *echo.Echo
	ready bool
}

func newTestAPI(t *testing.T) *testAPI {
	logger := logging.Nop()
	db := databasetest.NewSQLite(t)
	repo := agent.NewRepository(db, logger)
	emitter := events.NewEmitter(nil, logger)
	projector := graph.NewProjector(nil, logger)

	detector := matching.NewDetector(logger, matching.NewClassifier(matching.DefaultConfig()), matching.DetectorConfig{})
	service := reconcile.NewService(db, repo, detector, importer.NewParser(logger, importer.Options{}), emitter, projector, logger)

	api := &testAPI{t: t, ready: true}
	checker := health.NewChecker("test", func() bool { return api.ready })
	checker.AddCheck("database", db.PingContext)

	api.e = routes.NewServer("clover-test", routes.Handlers{
		Agents:     agents.NewHandler(repo, emitter, projector, logger),
		Duplicates: duplicates.NewHandler(service),
		Imports:    imports.NewHandler(service),
		Health:     checker,
	}, logger)
	return api
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) request(method, path string, body any) *httptest.ResponseRecorder {
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, path, &reqBody)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return a.do(req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createAgent(lastName, firstName, email string) models.Agent {
	rec := a.request(http.MethodPost, "/api/v1/agents", models.Agent{
		Identity: models.Identity{LastName: lastName, FirstName: firstName},
		Contact:  models.Contact{Email: email},
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Agent](a.t, rec)
}

func TestAgentsAPI(t *testing.T) {
	api := newTestAPI(t)

	created := api.createAgent("Mukendi", "Jean", "jean.mukendi@rdc.cd")
	require.NotEmpty(t, created.ID)

	t.Run("get", func(t *testing.T) {
		rec := api.request(http.MethodGet, "/api/v1/agents/"+created.ID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Mukendi", decode[models.Agent](t, rec).LastName)
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("list", func(t *testing.T) {
		rec := api.request(http.MethodGet, "/api/v1/agents?page=1&page_size=10", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[models.AgentListResponse](t, rec)
		assert.Equal(t, 1, page.TotalCount)
		assert.Equal(t, 10, page.PageSize)
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := api.request(http.MethodPost, "/api/v1/agents", models.Agent{Identity: models.Identity{LastName: "Kabila"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[middleware.ErrorResponse](t, rec).Message, "FirstName")
	})

	t.Run("update", func(t *testing.T) {
		update := created
		update.Phone = "0999123456"
		rec := api.request(http.MethodPut, "/api/v1/agents/"+created.ID, update)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "0999123456", decode[models.Agent](t, rec).Phone)
	})

	t.Run("delete", func(t *testing.T) {
		rec := api.request(http.MethodDelete, "/api/v1/agents/"+created.ID, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/agents/"+created.ID, nil)
		req.Header.Set(echo.HeaderXRequestID, "req-42")
		rec = api.do(req)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "req-42", decode[middleware.ErrorResponse](t, rec).RequestID)
	})
}

func TestDuplicatesAPI(t *testing.T) {
	api := newTestAPI(t)
	existing := api.createAgent("Mukendi", "Jean", "jean.mukendi@rdc.cd")

	rec := api.request(http.MethodPost, "/api/v1/duplicates/check", models.CheckDuplicatesRequest{Agents: []models.Agent{
		{Identity: models.Identity{LastName: "Mukendy", FirstName: "Jean"}},
		{Identity: models.Identity{LastName: "Zola", FirstName: "Maurice"}},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.CheckDuplicatesResponse](t, rec)
	require.Len(t, resp.Agents, 2)
	assert.True(t, resp.Agents[0].IsDuplicate)
	require.NotNil(t, resp.Agents[0].MatchedRecordID)
	assert.Equal(t, existing.ID, *resp.Agents[0].MatchedRecordID)
	assert.False(t, resp.Agents[1].IsDuplicate)
	assert.Nil(t, resp.Agents[1].MatchedRecordID)

	rec = api.request(http.MethodPost, "/api/v1/duplicates/check", models.CheckDuplicatesRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportsAPI(t *testing.T) {
	api := newTestAPI(t)
	existing := api.createAgent("Mukendi", "Jean", "jean.mukendi@rdc.cd")

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "agents.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("nom;prenom;telephone\nMukendy;Jean;0999123456\nNgalula;;\n"))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/imports", &body)
	req.Header.Set(echo.HeaderContentType, form.FormDataContentType())
	rec := api.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	review := decode[models.ImportResponse](t, rec)
	assert.Equal(t, "agents.csv", review.FileName)
	require.Len(t, review.Agents, 1)
	require.Len(t, review.Warnings, 1)
	require.NotNil(t, review.Agents[0].MatchedRecordID)

	rec = api.request(http.MethodPost, "/api/v1/imports/commit", models.CommitRequest{Decisions: []models.CommitDecision{
		{Action: models.CommitActionUpdate, Agent: review.Agents[0].Agent, MatchedRecordID: review.Agents[0].MatchedRecordID},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summary := decode[models.CommitSummary](t, rec)
	assert.Equal(t, []string{existing.ID}, summary.Updated)
	assert.Empty(t, summary.Created)

	rec = api.request(http.MethodGet, "/api/v1/agents/"+existing.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0999123456", decode[models.Agent](t, rec).Phone)

	t.Run("missing file", func(t *testing.T) {
		rec := api.request(http.MethodPost, "/api/v1/imports", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthAPI(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(http.MethodGet, "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[health.HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "healthy", status.Checks["database"].Status)

	assert.Equal(t, http.StatusOK, api.request(http.MethodGet, "/api/v1/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, api.request(http.MethodGet, "/api/v1/health/ready", nil).Code)

	api.ready = false
	assert.Equal(t, http.StatusServiceUnavailable, api.request(http.MethodGet, "/api/v1/health/ready", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.request(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "clover_matching_comparisons_total")
}
