package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fittracker/internal/config"
	"github.com/2beens/fittracker/internal/db"
	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/fitness/repo"
	"github.com/2beens/fittracker/internal/middleware"
	"github.com/2beens/fittracker/internal/telemetry/metrics"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

const (
	serviceName       = "fittracker-backend"
	migrationsTimeout = 30 * time.Second
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config         *config.Config
	lazyPool       *db.LazyPool // nil with the memory store
	redisClient    *redis.Client
	fitnessHandler *fitness.Handler

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("fittracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName)
	if err != nil {
		return nil, fmt.Errorf("honeycomb setup: %w", err)
	}

	s := &Server{
		config:         cfg,
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		log.Warnln("using in-memory store, data will not survive a restart")
		s.fitnessHandler = fitness.NewHandler(repo.NewMemoryRepo(), metricsManager)
	default:
		s.lazyPool = db.NewLazyPool(db.NewPingingFactory(db.NewDBPoolParams{
			DatabaseURL:    cfg.DatabaseURL,
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			TracingEnabled: params.HoneycombTracingEnabled,
		}))
		s.lazyPool.OnReady(s.onDBPoolReady)
		s.fitnessHandler = fitness.NewHandler(repo.NewPostgresRepo(s.lazyPool), metricsManager)
	}

	if cfg.RateLimitEnabled() {
		s.redisClient = redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: params.RedisPassword,
			DB:       0, // use default DB
		})
		if params.HoneycombTracingEnabled {
			s.redisClient.AddHook(redisotel.NewTracingHook())
		}

		rdbStatus := s.redisClient.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			// the limiter lets requests through while redis is away
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
	}

	return s, nil
}

// onDBPoolReady runs once, right after the first successful connection.
func (s *Server) onDBPoolReady(pool *pgxpool.Pool) {
	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		pool,
		map[string]string{"db_name": s.config.PostgresDBName},
	)
	if err := s.promRegistry.Register(pgxpoolCollector); err != nil {
		log.Errorf("register db pool collector: %s", err)
	}

	if !s.config.RunMigrations {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), migrationsTimeout)
	defer cancel()
	if err := db.RunMigrations(ctx, pool); err != nil {
		log.Errorf("failed to run db migrations: %s", err)
		return
	}
	log.Infoln("db migrations done")
}

func (s *Server) routerSetup() http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fittracker-router"))
	r.Use(middleware.RouteName())

	apiRouter := r
	prefix := s.config.ApiPrefix
	if prefix != "" {
		// the bare prefix is the root route as well
		r.HandleFunc(prefix, s.fitnessHandler.HandleRoot).Methods(http.MethodGet).Name("root")
		apiRouter = r.PathPrefix(prefix).Subrouter()
	}

	var writeLimiter mux.MiddlewareFunc
	if s.redisClient != nil {
		writeLimiter = middleware.RateLimit(
			redis_rate.NewLimiter(s.redisClient),
			"fittracker-writes",
			s.config.WriteRateLimit,
			s.config.TrustProxyHeaders,
			s.metricsManager,
		)
	}
	s.fitnessHandler.SetupRoutes(apiRouter, writeLimiter)

	notFound := fitness.NotFoundHandler(prefix)
	for _, router := range []*mux.Router{r, apiRouter} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = notFound
	}

	// mux middlewares only run for matched routes, these have to see
	// 404s and pre-flight requests too
	var handler http.Handler = r
	handler = middleware.DrainAndCloseRequest()(handler)
	handler = middleware.PanicRecovery(s.metricsManager)(handler)
	handler = middleware.RequestMetrics(s.metricsManager)(handler)
	handler = middleware.LogRequest()(handler)
	handler = middleware.Cors(s.config.CorsOrigin)(handler)

	return handler
}

// Serve starts the API and metrics servers in the background.
func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
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

	maxWaitDuration := s.config.ShutdownTimeout.Duration
	if maxWaitDuration <= 0 {
		maxWaitDuration = 15 * time.Second
	}
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests first, then release what they use
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.lazyPool != nil {
		log.Debugln("closing db pool ...")
		s.lazyPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeOpenConnections.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeOpenConnections.Add(-1)
	default:
		// do nothing
	}
}
