package projects

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coocood/freecache"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"
)

const (
	projectsCacheExpireSeconds = 60
	projectsCacheSizeBytes     = 10 * 1024 * 1024
)

type projectsRepo interface {
	Add(ctx context.Context, project *Project) error
	Update(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id int) error
	IncrementViews(ctx context.Context, id int) (int, error)
	All(ctx context.Context) ([]*Project, error)
	AllByCategory(ctx context.Context, category string) ([]*Project, error)
	Get(ctx context.Context, id int) (*Project, error)
	MostViewed(ctx context.Context, limit int) ([]PopularProject, error)
}

type Handler struct {
	repo           projectsRepo
	cache          *freecache.Cache
	metricsManager *metrics.Manager
}

func NewHandler(repo projectsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		cache:          freecache.NewCache(projectsCacheSizeBytes),
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/projects", handler.handleList).Methods("GET", "OPTIONS").Name("projects-list")
	router.HandleFunc("/projects", handler.handleCreate).Methods("POST", "OPTIONS").Name("project-new")
	router.HandleFunc("/projects/{id}", handler.handleGet).Methods("GET").Name("project-get")
	router.HandleFunc("/projects/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("project-update")
	router.HandleFunc("/projects/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("project-delete")
	router.HandleFunc("/projects/{id}/view", handler.handleTrackView).Methods("POST", "OPTIONS").Name("project-view")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.list")
	defer span.End()

	category := r.URL.Query().Get("category")
	if category != "" && !validCategories[category] {
		pkg.WriteAPIError(w, "error, category must be Featured, Commercial or Other", http.StatusBadRequest)
		return
	}

	cacheKey := []byte(fmt.Sprintf("projects::%s", category))
	if cachedProjects, err := handler.cache.Get(cacheKey); err == nil {
		log.Tracef("projects list [%s] served from cache", category)
		pkg.WriteAPIDataBytes(w, cachedProjects, http.StatusOK)
		return
	}

	var allProjects []*Project
	var err error
	if category == "" {
		allProjects, err = handler.repo.All(ctx)
	} else {
		allProjects, err = handler.repo.AllByCategory(ctx, category)
	}
	if err != nil {
		log.Errorf("get projects: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch projects", http.StatusInternalServerError)
		return
	}

	if allProjects == nil {
		allProjects = []*Project{}
	}

	projectsJson, err := json.Marshal(allProjects)
	if err != nil {
		log.Errorf("marshal projects: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch projects", http.StatusInternalServerError)
		return
	}

	if err := handler.cache.Set(cacheKey, projectsJson, projectsCacheExpireSeconds); err != nil {
		log.Errorf("failed to cache projects list [%s]: %s", category, err)
	}

	pkg.WriteAPIDataBytes(w, projectsJson, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.Int("id", id))

	project, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrProjectNotFound) {
		pkg.WriteAPIError(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get project %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to fetch project", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, project, http.StatusOK)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.create")
	defer span.End()

	var project Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		log.Errorf("new project, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "add project failed", http.StatusBadRequest)
		return
	}

	if validationErr := project.validate(); validationErr != "" {
		pkg.WriteAPIError(w, validationErr, http.StatusBadRequest)
		return
	}
	if project.Technologies == nil {
		project.Technologies = []string{}
	}

	if err := handler.repo.Add(ctx, &project); err != nil {
		log.Errorf("add new project failed: %s", err)
		pkg.WriteAPIError(w, "add project failed", http.StatusInternalServerError)
		return
	}

	log.Tracef("new project %d: [%s] added", project.ID, project.Title)
	handler.invalidateListCache()

	pkg.WriteAPIData(w, project, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.update")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var project Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		log.Errorf("update project, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "update project failed", http.StatusBadRequest)
		return
	}
	project.ID = id

	if validationErr := project.validate(); validationErr != "" {
		pkg.WriteAPIError(w, validationErr, http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &project); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			pkg.WriteAPIError(w, "Project not found", http.StatusNotFound)
			return
		}
		log.Errorf("update project %d: %s", id, err)
		pkg.WriteAPIError(w, "update project failed", http.StatusInternalServerError)
		return
	}

	handler.invalidateListCache()

	pkg.WriteAPIData(w, project, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			pkg.WriteAPIError(w, "Project not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete project %d: %s", id, err)
		pkg.WriteAPIError(w, "delete project failed", http.StatusInternalServerError)
		return
	}

	handler.invalidateListCache()

	pkg.WriteAPIData(w, map[string]int{"deleted": id}, http.StatusOK)
}

func (handler *Handler) handleTrackView(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "projects.trackView")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	viewCount, err := handler.repo.IncrementViews(ctx, id)
	if errors.Is(err, ErrProjectNotFound) {
		pkg.WriteAPIError(w, "Project not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("track view for project %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to track view", http.StatusInternalServerError)
		return
	}

	handler.metricsManager.CounterProjectViews.Inc()

	pkg.WriteAPIData(w, map[string]int{"viewCount": viewCount}, http.StatusOK)
}

// invalidateListCache drops all cached project lists after a write.
func (handler *Handler) invalidateListCache() {
	handler.cache.Clear()
}
