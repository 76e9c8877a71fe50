package achievements

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"
)

type achievementsRepo interface {
	Add(ctx context.Context, achievement *Achievement) error
	Update(ctx context.Context, achievement *Achievement) error
	Delete(ctx context.Context, id int) error
	All(ctx context.Context) ([]*Achievement, error)
	Get(ctx context.Context, id int) (*Achievement, error)
}

type Handler struct {
	repo achievementsRepo
}

func NewHandler(repo achievementsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/achievements", handler.handleList).Methods("GET", "OPTIONS").Name("achievements-list")
	router.HandleFunc("/achievements", handler.handleCreate).Methods("POST", "OPTIONS").Name("achievement-new")
	router.HandleFunc("/achievements/{id}", handler.handleGet).Methods("GET").Name("achievement-get")
	router.HandleFunc("/achievements/{id}", handler.handleUpdate).Methods("PUT", "OPTIONS").Name("achievement-update")
	router.HandleFunc("/achievements/{id}", handler.handleDelete).Methods("DELETE", "OPTIONS").Name("achievement-delete")
}

func (handler *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "achievements.list")
	defer span.End()

	allAchievements, err := handler.repo.All(ctx)
	if err != nil {
		log.Errorf("get achievements: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch achievements", http.StatusInternalServerError)
		return
	}

	if allAchievements == nil {
		allAchievements = []*Achievement{}
	}

	pkg.WriteAPIData(w, allAchievements, http.StatusOK)
}

func (handler *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "achievements.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	achievement, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrAchievementNotFound) {
		pkg.WriteAPIError(w, "Achievement not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get achievement %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to fetch achievement", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, achievement, http.StatusOK)
}

func (handler *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "achievements.create")
	defer span.End()

	var achievement Achievement
	if err := json.NewDecoder(r.Body).Decode(&achievement); err != nil {
		log.Errorf("new achievement, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "add achievement failed", http.StatusBadRequest)
		return
	}

	if validationErr := achievement.validate(); validationErr != "" {
		pkg.WriteAPIError(w, validationErr, http.StatusBadRequest)
		return
	}

	if err := handler.repo.Add(ctx, &achievement); err != nil {
		log.Errorf("add new achievement failed: %s", err)
		pkg.WriteAPIError(w, "Failed to create achievement", http.StatusInternalServerError)
		return
	}

	log.Tracef("new achievement %d: [%s] added", achievement.ID, achievement.Title)

	pkg.WriteAPIData(w, achievement, http.StatusCreated)
}

func (handler *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "PUT, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "achievements.update")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	var achievement Achievement
	if err := json.NewDecoder(r.Body).Decode(&achievement); err != nil {
		log.Errorf("update achievement, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "update achievement failed", http.StatusBadRequest)
		return
	}
	achievement.ID = id

	if validationErr := achievement.validate(); validationErr != "" {
		pkg.WriteAPIError(w, validationErr, http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &achievement); err != nil {
		if errors.Is(err, ErrAchievementNotFound) {
			pkg.WriteAPIError(w, "Achievement not found", http.StatusNotFound)
			return
		}
		log.Errorf("update achievement %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to update achievement", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, achievement, http.StatusOK)
}

func (handler *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "DELETE, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "achievements.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		pkg.WriteAPIError(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrAchievementNotFound) {
			pkg.WriteAPIError(w, "Achievement not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete achievement %d: %s", id, err)
		pkg.WriteAPIError(w, "Failed to delete achievement", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, map[string]int{"deleted": id}, http.StatusOK)
}
