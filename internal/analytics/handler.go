package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/mkovacic/portfolio/internal/projects"
	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"
)

const statsCacheKey = "analytics::stats"

type analyticsRepo interface {
	AddPageView(ctx context.Context, pageView *PageView) error
	AddEvent(ctx context.Context, event *Event) error
	Stats(ctx context.Context) (*Stats, error)
	ViewsOverTime(ctx context.Context, days int) ([]ViewsPerDay, error)
}

type popularProjectsGetter interface {
	MostViewed(ctx context.Context, limit int) ([]projects.PopularProject, error)
}

type pageViewRequest struct {
	PageURL   string `json:"page_url"`
	VisitorID string `json:"visitor_id"`
	SessionID string `json:"session_id"`
}

type pageViewResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

type eventRequest struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
}

type Handler struct {
	repo             analyticsRepo
	projectsRepo     popularProjectsGetter
	redisClient      *redis.Client
	statsCacheTTL    time.Duration
	metricsManager   *metrics.Manager
	newSessionIDFunc func() string
}

func NewHandler(
	repo analyticsRepo,
	projectsRepo popularProjectsGetter,
	redisClient *redis.Client,
	statsCacheTTL time.Duration,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:           repo,
		projectsRepo:   projectsRepo,
		redisClient:    redisClient,
		statsCacheTTL:  statsCacheTTL,
		metricsManager: metricsManager,
		newSessionIDFunc: func() string {
			return uuid.NewString()
		},
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/analytics/page-view", handler.handlePageView).Methods("POST", "OPTIONS").Name("analytics-page-view")
	router.HandleFunc("/analytics/event", handler.handleEvent).Methods("POST", "OPTIONS").Name("analytics-event")
	router.HandleFunc("/analytics/stats", handler.handleStats).Methods("GET").Name("analytics-stats")
	router.HandleFunc("/analytics/views-over-time", handler.handleViewsOverTime).Methods("GET").Name("analytics-views-over-time")
	router.HandleFunc("/analytics/popular-projects", handler.handlePopularProjects).Methods("GET").Name("analytics-popular-projects")
}

func (handler *Handler) handlePageView(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analytics.pageView")
	defer span.End()

	var pageViewReq pageViewRequest
	if err := json.NewDecoder(r.Body).Decode(&pageViewReq); err != nil {
		log.Errorf("track page view, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "Failed to track page view", http.StatusBadRequest)
		return
	}

	if pageViewReq.PageURL == "" {
		pkg.WriteAPIError(w, "page_url is required", http.StatusBadRequest)
		return
	}
	if len(pageViewReq.PageURL) > maxPageURLLength {
		pkg.WriteAPIError(w, "page_url must be under 500 characters", http.StatusBadRequest)
		return
	}
	if len(pageViewReq.VisitorID) > maxVisitorIDLength {
		pkg.WriteAPIError(w, "visitor_id must be under 255 characters", http.StatusBadRequest)
		return
	}

	sessionID := pageViewReq.SessionID
	if sessionID == "" {
		sessionID = handler.newSessionIDFunc()
	}

	if err := handler.repo.AddPageView(ctx, &PageView{
		PageURL:   pageViewReq.PageURL,
		VisitorID: pageViewReq.VisitorID,
		SessionID: sessionID,
	}); err != nil {
		log.Errorf("save page view: %s", err)
		pkg.WriteAPIError(w, "Failed to track page view", http.StatusInternalServerError)
		return
	}

	ipAddress, _ := pkg.ReadUserIP(r)

	// every page view also lands in the events stream
	if err := handler.repo.AddEvent(ctx, &Event{
		EventType: EventTypePageView,
		EventData: map[string]any{"page_url": pageViewReq.PageURL},
		IPAddress: ipAddress,
		UserAgent: r.UserAgent(),
	}); err != nil {
		log.Errorf("save page view event: %s", err)
	}

	handler.metricsManager.CounterPageViews.Inc()

	pkg.WriteAPIJSON(w, pageViewResponse{
		Success:   true,
		SessionID: sessionID,
	}, http.StatusOK)
}

func (handler *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analytics.event")
	defer span.End()

	var eventReq eventRequest
	if err := json.NewDecoder(r.Body).Decode(&eventReq); err != nil {
		log.Errorf("track event, unmarshal json params: %s", err)
		pkg.WriteAPIError(w, "Failed to track event", http.StatusBadRequest)
		return
	}

	if eventReq.EventType == "" {
		pkg.WriteAPIError(w, "event_type is required", http.StatusBadRequest)
		return
	}
	if len(eventReq.EventType) > maxEventTypeLength {
		pkg.WriteAPIError(w, "event_type must be under 100 characters", http.StatusBadRequest)
		return
	}

	ipAddress, _ := pkg.ReadUserIP(r)

	if err := handler.repo.AddEvent(ctx, &Event{
		EventType: eventReq.EventType,
		EventData: eventReq.EventData,
		IPAddress: ipAddress,
		UserAgent: r.UserAgent(),
	}); err != nil {
		log.Errorf("save event [%s]: %s", eventReq.EventType, err)
		pkg.WriteAPIError(w, "Failed to track event", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (handler *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analytics.stats")
	defer span.End()

	cmd := handler.redisClient.Get(ctx, statsCacheKey)
	if cachedStats := cmd.Val(); cachedStats != "" {
		log.Tracef("analytics stats served from redis cache")
		pkg.WriteAPIDataBytes(w, []byte(cachedStats), http.StatusOK)
		return
	}

	stats, err := handler.repo.Stats(ctx)
	if err != nil {
		log.Errorf("get analytics stats: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch analytics", http.StatusInternalServerError)
		return
	}

	statsJson, err := json.Marshal(stats)
	if err != nil {
		log.Errorf("marshal analytics stats: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch analytics", http.StatusInternalServerError)
		return
	}

	if err := handler.redisClient.Set(ctx, statsCacheKey, statsJson, handler.statsCacheTTL).Err(); err != nil {
		log.Errorf("failed to cache analytics stats in redis: %s", err)
	}

	pkg.WriteAPIDataBytes(w, statsJson, http.StatusOK)
}

func (handler *Handler) handleViewsOverTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analytics.viewsOverTime")
	defer span.End()

	days := 30
	if daysParam := r.URL.Query().Get("days"); daysParam != "" {
		parsedDays, err := strconv.Atoi(daysParam)
		if err != nil || parsedDays < 1 || parsedDays > 365 {
			pkg.WriteAPIError(w, "days must be between 1 and 365", http.StatusBadRequest)
			return
		}
		days = parsedDays
	}

	views, err := handler.repo.ViewsOverTime(ctx, days)
	if err != nil {
		log.Errorf("get page views over time: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch page views", http.StatusInternalServerError)
		return
	}

	pkg.WriteAPIData(w, views, http.StatusOK)
}

func (handler *Handler) handlePopularProjects(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "analytics.popularProjects")
	defer span.End()

	limit := 5
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil || parsedLimit < 1 || parsedLimit > 50 {
			pkg.WriteAPIError(w, "limit must be between 1 and 50", http.StatusBadRequest)
			return
		}
		limit = parsedLimit
	}

	popularProjects, err := handler.projectsRepo.MostViewed(ctx, limit)
	if err != nil {
		log.Errorf("get popular projects: %s", err)
		pkg.WriteAPIError(w, "Failed to fetch popular projects", http.StatusInternalServerError)
		return
	}

	if popularProjects == nil {
		popularProjects = []projects.PopularProject{}
	}

	pkg.WriteAPIData(w, popularProjects, http.StatusOK)
}
