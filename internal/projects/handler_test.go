package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
)

func newTestHandler(t *testing.T) (*Handler, *repoMock, *mux.Router) {
	t.Helper()

	repo := newRepoMock()
	handler := NewHandler(repo, metrics.NewTestManager())

	r := mux.NewRouter()
	handler.SetupRoutes(r.PathPrefix("/api").Subrouter())

	return handler, repo, r
}

func testProject(t *testing.T) *Project {
	t.Helper()
	return &Project{
		Title:        gofakeit.AppName(),
		Company:      gofakeit.Company(),
		Description:  gofakeit.Sentence(10),
		Color:        "#8B5CF6",
		Category:     "Commercial",
		Technologies: []string{"Go", "PostgreSQL"},
	}
}

type dataEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) dataEnvelope {
	t.Helper()
	var env dataEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func TestHandler_routes(t *testing.T) {
	_, _, r := newTestHandler(t)

	for caseName, route := range map[string]struct {
		name   string
		path   string
		method string
	}{
		"projects-list": {
			name:   "projects-list",
			path:   "/api/projects",
			method: "GET",
		},
		"project-new": {
			name:   "project-new",
			path:   "/api/projects",
			method: "POST",
		},
		"project-get": {
			name:   "project-get",
			path:   "/api/projects/1",
			method: "GET",
		},
		"project-update": {
			name:   "project-update",
			path:   "/api/projects/1",
			method: "PUT",
		},
		"project-delete": {
			name:   "project-delete",
			path:   "/api/projects/1",
			method: "DELETE",
		},
		"project-view": {
			name:   "project-view",
			path:   "/api/projects/1/view",
			method: "POST",
		},
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)

			routeMatch := &mux.RouteMatch{}
			muxRoute := r.Get(route.name)
			require.NotNil(t, muxRoute)
			assert.True(t, muxRoute.Match(req, routeMatch), caseName)
		})
	}
}

func TestHandler_handleList(t *testing.T) {
	_, repo, r := newTestHandler(t)

	featured := testProject(t)
	featured.Category = "Featured"
	require.NoError(t, repo.Add(context.Background(), featured))
	require.NoError(t, repo.Add(context.Background(), testProject(t)))
	require.NoError(t, repo.Add(context.Background(), testProject(t)))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)

	var listed []*Project
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 3)
}

func TestHandler_handleList_byCategory(t *testing.T) {
	_, repo, r := newTestHandler(t)

	featured := testProject(t)
	featured.Category = "Featured"
	require.NoError(t, repo.Add(context.Background(), featured))
	require.NoError(t, repo.Add(context.Background(), testProject(t)))

	req := httptest.NewRequest("GET", "/api/projects?category=Featured", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var listed []*Project
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, featured.Title, listed[0].Title)
}

func TestHandler_handleList_invalidCategory(t *testing.T) {
	_, _, r := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/projects?category=Bogus", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, decodeEnvelope(t, rr).Success)
}

func TestHandler_handleList_servedFromCache(t *testing.T) {
	_, repo, r := newTestHandler(t)
	require.NoError(t, repo.Add(context.Background(), testProject(t)))

	req := httptest.NewRequest("GET", "/api/projects", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	firstBody := rr.Body.String()

	// repo write without going through the handler, cache keeps the old list
	require.NoError(t, repo.Add(context.Background(), testProject(t)))

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/api/projects", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, firstBody, rr.Body.String())
}

func TestHandler_handleCreate(t *testing.T) {
	_, repo, r := newTestHandler(t)

	project := testProject(t)
	reqBody, err := json.Marshal(project)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/projects", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created Project
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, project.Title, created.Title)
	assert.Len(t, repo.Projects, 1)
}

func TestHandler_handleCreate_defaults(t *testing.T) {
	_, _, r := newTestHandler(t)

	reqBody := fmt.Sprintf(
		`{"title":%q,"company":%q,"description":"some project"}`,
		gofakeit.AppName(), gofakeit.Company(),
	)
	req := httptest.NewRequest("POST", "/api/projects", bytes.NewReader([]byte(reqBody)))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created Project
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &created))
	assert.Equal(t, DefaultColor, created.Color)
	assert.Equal(t, DefaultCategory, created.Category)
	assert.Equal(t, []string{}, created.Technologies)
}

func TestHandler_handleCreate_validation(t *testing.T) {
	_, repo, r := newTestHandler(t)

	for caseName, tc := range map[string]struct {
		mutate func(p *Project)
	}{
		"empty title": {
			mutate: func(p *Project) { p.Title = "" },
		},
		"empty company": {
			mutate: func(p *Project) { p.Company = "" },
		},
		"empty description": {
			mutate: func(p *Project) { p.Description = "" },
		},
		"bad color": {
			mutate: func(p *Project) { p.Color = "purple" },
		},
		"bad category": {
			mutate: func(p *Project) { p.Category = "Hobby" },
		},
	} {
		t.Run(caseName, func(t *testing.T) {
			project := testProject(t)
			tc.mutate(project)
			reqBody, err := json.Marshal(project)
			require.NoError(t, err)

			req := httptest.NewRequest("POST", "/api/projects", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, decodeEnvelope(t, rr).Success)
		})
	}

	assert.Empty(t, repo.Projects)
}

func TestHandler_handleGet(t *testing.T) {
	_, repo, r := newTestHandler(t)

	project := testProject(t)
	require.NoError(t, repo.Add(context.Background(), project))

	req := httptest.NewRequest("GET", fmt.Sprintf("/api/projects/%d", project.ID), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var fetched Project
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &fetched))
	assert.Equal(t, project.Title, fetched.Title)
}

func TestHandler_handleGet_notFound(t *testing.T) {
	_, _, r := newTestHandler(t)

	req := httptest.NewRequest("GET", "/api/projects/42", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Project not found", decodeEnvelope(t, rr).Error)
}

func TestHandler_handleUpdate(t *testing.T) {
	_, repo, r := newTestHandler(t)

	project := testProject(t)
	require.NoError(t, repo.Add(context.Background(), project))

	project.Title = "updated title"
	reqBody, err := json.Marshal(project)
	require.NoError(t, err)

	req := httptest.NewRequest("PUT", fmt.Sprintf("/api/projects/%d", project.ID), bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "updated title", repo.Projects[project.ID].Title)
}

func TestHandler_handleDelete(t *testing.T) {
	_, repo, r := newTestHandler(t)

	project := testProject(t)
	require.NoError(t, repo.Add(context.Background(), project))

	req := httptest.NewRequest("DELETE", fmt.Sprintf("/api/projects/%d", project.ID), nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, repo.Projects)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/api/projects/%d", project.ID), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_handleTrackView(t *testing.T) {
	_, repo, r := newTestHandler(t)

	project := testProject(t)
	require.NoError(t, repo.Add(context.Background(), project))

	for i := 1; i <= 3; i++ {
		req := httptest.NewRequest("POST", fmt.Sprintf("/api/projects/%d/view", project.ID), nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var viewResp map[string]int
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, rr).Data, &viewResp))
		assert.Equal(t, i, viewResp["viewCount"])
	}

	assert.Equal(t, 3, repo.Projects[project.ID].ViewCount)
}

func TestHandler_handleTrackView_notFound(t *testing.T) {
	_, _, r := newTestHandler(t)

	req := httptest.NewRequest("POST", "/api/projects/42/view", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
