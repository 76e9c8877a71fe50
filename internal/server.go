package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/mkovacic/portfolio/internal/achievements"
	"github.com/mkovacic/portfolio/internal/analytics"
	"github.com/mkovacic/portfolio/internal/auth"
	"github.com/mkovacic/portfolio/internal/config"
	"github.com/mkovacic/portfolio/internal/contact"
	"github.com/mkovacic/portfolio/internal/db"
	"github.com/mkovacic/portfolio/internal/limiter"
	"github.com/mkovacic/portfolio/internal/middleware"
	"github.com/mkovacic/portfolio/internal/projects"
	"github.com/mkovacic/portfolio/internal/telemetry/metrics"
	"github.com/mkovacic/portfolio/internal/telemetry/tracing"
	"github.com/mkovacic/portfolio/pkg"
)

const limiterSweepInterval = 30 * time.Minute

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	redisClient *redis.Client
	verifier    *auth.Verifier
	tokenCodec  *auth.TokenCodec

	apiLimiter     *limiter.FixedWindow
	loginLimiter   *limiter.FixedWindow
	contactLimiter *limiter.FixedWindow

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	TokenSigningSecret      string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "portfolio", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	rdb.AddHook(redisotel.NewTracingHook())

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	if params.AdminUsername == "" || params.AdminPasswordHash == "" {
		log.Warn("admin credentials not set, login is disabled")
	}
	if params.TokenSigningSecret == "" {
		log.Warn("token signing secret not set, login is disabled")
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "portfolio-backend")
	if err != nil {
		return nil, err
	}

	cfg := params.Config
	s := &Server{
		config:      cfg,
		dbPool:      dbPool,
		versionInfo: params.VersionInfo,

		redisClient: rdb,
		verifier: auth.NewVerifier(auth.Admin{
			Username:     params.AdminUsername,
			PasswordHash: params.AdminPasswordHash,
		}),
		tokenCodec: auth.NewTokenCodec(params.TokenSigningSecret, auth.TokenTTL),

		apiLimiter: limiter.NewFixedWindow(
			time.Duration(cfg.APIRateLimitWindowMinutes)*time.Minute,
			cfg.APIRateLimitMax,
		),
		loginLimiter: limiter.NewFixedWindow(
			time.Duration(cfg.LoginRateLimitWindowMinutes)*time.Minute,
			cfg.LoginRateLimitMax,
		),
		contactLimiter: limiter.NewFixedWindow(
			time.Duration(cfg.ContactRateLimitWindowMinutes)*time.Minute,
			cfg.ContactRateLimitMax,
		),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	go s.sweepLimiters(ctx)

	return s, nil
}

// sweepLimiters drops expired rate limit windows so idle client
// records do not pile up.
func (s *Server) sweepLimiters(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			swept := s.apiLimiter.Sweep() + s.loginLimiter.Sweep() + s.contactLimiter.Sweep()
			if swept > 0 {
				log.Tracef("rate limiter sweep: %d expired records dropped", swept)
			}
		}
	}
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("portfolio-router"))

	r.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, fmt.Sprintf("Portfolio API, version: %s", s.versionInfo))
	}).Methods("GET").Name("root")

	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		if s.dbPool != nil {
			if err := s.dbPool.Ping(req.Context()); err != nil {
				log.Errorf("health check, db ping failed: %s", err)
				pkg.WriteResponse(w, pkg.ContentType.JSON, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		pkg.WriteJSONResponseOK(w, `{"status":"ok"}`)
	}).Methods("GET").Name("health")

	apiRouter := r.PathPrefix("/api").Subrouter()

	authHandler := auth.NewHandler(s.verifier, s.tokenCodec, s.metricsManager)
	authHandler.SetupRoutes(apiRouter, middleware.RateLimit(
		s.loginLimiter,
		"Too many login attempts, please try again later.",
		s.metricsManager,
	))

	projectsRepo := projects.NewRepo(s.dbPool)
	projectsHandler := projects.NewHandler(projectsRepo, s.metricsManager)
	projectsHandler.SetupRoutes(apiRouter)

	achievementsHandler := achievements.NewHandler(achievements.NewRepo(s.dbPool))
	achievementsHandler.SetupRoutes(apiRouter)

	contactHandler := contact.NewHandler(
		contact.NewRepo(s.dbPool),
		contact.LogNotifier{},
		s.metricsManager,
	)
	contactHandler.SetupRoutes(apiRouter, middleware.RateLimit(
		s.contactLimiter,
		"Too many contact form submissions, please try again later.",
		s.metricsManager,
	))

	analyticsHandler := analytics.NewHandler(
		analytics.NewRepo(s.dbPool),
		projectsRepo,
		s.redisClient,
		time.Duration(s.config.StatsCacheTTLSeconds)*time.Second,
		s.metricsManager,
	)
	analyticsHandler.SetupRoutes(apiRouter)

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokenCodec)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.FrontendURL))
	r.Use(middleware.DrainAndCloseRequest())

	// general admission first, then the admin gate
	apiRouter.Use(middleware.RateLimit(
		s.apiLimiter,
		"Too many requests from this IP, please try again later.",
		s.metricsManager,
	))
	apiRouter.Use(authMiddleware.AuthCheck())

	return r
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("portfolio service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown metrics http server")
	}
	log.Warnln("metrics server shut down")
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
