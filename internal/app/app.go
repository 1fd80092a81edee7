package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/wagslane/go-rabbitmq"
	"go.uber.org/zap"

	"github.com/Nazarious-ucu/weather-ingestion/internal/config"
	http2 "github.com/Nazarious-ucu/weather-ingestion/internal/handlers/http"
	"github.com/Nazarious-ucu/weather-ingestion/internal/models"
	"github.com/Nazarious-ucu/weather-ingestion/internal/scheduler"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/breaker"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/cache"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/geocoding"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/geocoding/decorators"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/ingest"
	loggerT "github.com/Nazarious-ucu/weather-ingestion/internal/services/logger"
	metricsSvc "github.com/Nazarious-ucu/weather-ingestion/internal/services/metrics"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/pipeline"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/relay"
	"github.com/Nazarious-ucu/weather-ingestion/internal/services/weather"
	fLogger "github.com/Nazarious-ucu/weather-ingestion/pkg/logger"
)

const (
	shutdownTimeout  = 5 * time.Second
	metricsNamespace = "weather_ingestion"
)

var ErrUnknownTransport = errors.New("unknown relay transport")

type resolver interface {
	Resolve(ctx context.Context, name string) (models.GeocodedLocation, error)
}

// ServiceContainer holds initialized dependencies for the HTTP server.
type ServiceContainer struct {
	Ingest    *ingest.Service
	Pipeline  *pipeline.Pipeline
	Scheduler *scheduler.Scheduler

	Router     *gin.Engine
	Srv        *http.Server
	fileLogger *zap.Logger
	redis      *redis.Client
	rabbitConn *rabbitmq.Conn
	publisher  *rabbitmq.Publisher
}

// App ties together config, logger, and metrics for startup/shutdown.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics
}

func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics) *App {
	return &App{
		cfg: cfg,
		l:   logger,
		m:   met,
	}
}

// Start builds the service, serves HTTP and blocks until ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.Init()
	if err != nil {
		a.Stop(srvContainer)
		return err
	}

	if srvContainer.Scheduler != nil {
		if err := srvContainer.Scheduler.Start(ctx); err != nil {
			a.l.Error().Err(err).Msg("failed to start scheduler")
			a.Stop(srvContainer)
			return err
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		a.l.Info().Str("http_addr", a.cfg.ServerAddress()).Msg("HTTP server listening")
		if err := srvContainer.Srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		a.l.Info().Msg("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			a.Stop(srvContainer)
			return err
		}
	}

	a.Stop(srvContainer)
	return nil
}

// Stop releases everything Init created. Nil members are skipped.
func (a *App) Stop(srvContainer ServiceContainer) {
	a.l.Info().Msg("stopping application")

	if srvContainer.Scheduler != nil {
		srvContainer.Scheduler.Stop()
	}

	if srvContainer.Srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srvContainer.Srv.Shutdown(ctx); err != nil {
			a.l.Error().Err(err).Msg("HTTP shutdown error")
		}
	}

	if srvContainer.publisher != nil {
		srvContainer.publisher.Close()
	}
	if srvContainer.rabbitConn != nil {
		if err := srvContainer.rabbitConn.Close(); err != nil {
			a.l.Error().Err(err).Msg("RabbitMQ close error")
		}
	}
	if srvContainer.redis != nil {
		if err := srvContainer.redis.Close(); err != nil {
			a.l.Error().Err(err).Msg("redis close error")
		}
	}
	if srvContainer.fileLogger != nil {
		if err := srvContainer.fileLogger.Sync(); err != nil {
			a.l.Debug().Err(err).Msg("failed to sync file logger")
		}
	}

	a.l.Info().Msg("application shutdown complete")
}

// Init wires providers, decorators, relay and routes without starting anything.
func (a *App) Init() (ServiceContainer, error) {
	a.l.Info().
		Str("relay_transport", a.cfg.Relay.Transport).
		Bool("redis_enabled", a.cfg.Redis.Enabled).
		Bool("scheduler_enabled", a.cfg.Scheduler.Enabled).
		Msg("initializing weather ingestion service")

	var sc ServiceContainer

	fileLogger, err := fLogger.NewFileLogger(a.cfg.HTTPLogsPath)
	if err != nil {
		a.l.Error().Err(err).Msg("failed to create file logger, outbound calls will not be logged")
		fileLogger = zap.NewNop()
	}
	sc.fileLogger = fileLogger

	// one client for every provider call; per-call deadlines come from ctx
	httpLogClient := &http.Client{Transport: loggerT.NewRoundTripper(fileLogger, nil)}

	breakerCfg := breaker.Config{
		TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
		TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
		RepeatNumber: a.cfg.Breaker.RepeatNumber,
	}

	var geo resolver = geocoding.NewBreakerClient("OpenMeteoGeocoding", breakerCfg,
		geocoding.NewClientOpenMeteo(a.cfg.Geocoding.URL, geocoding.Options{
			Language:    a.cfg.Geocoding.Language,
			ResultCount: a.cfg.Geocoding.ResultCount,
			Timeout:     a.cfg.Geocoding.Timeout,
		}, httpLogClient, a.l),
	)
	if a.cfg.Redis.Enabled {
		sc.redis = redis.NewClient(&redis.Options{Addr: a.cfg.RedisAddress(), DB: a.cfg.Redis.DbType})
		cacheMetrics := cache.NewMetricsDecorator[models.GeocodedLocation](
			cache.NewRedisClient[models.GeocodedLocation](sc.redis, a.l,
				time.Duration(a.cfg.Redis.LiveTime)*time.Hour),
			metricsSvc.NewPromCollector(a.m.Registry(), metricsNamespace),
		)
		geo = decorators.NewCachedResolver(geo, cacheMetrics, a.l)
	}

	forecast := weather.NewBreakerClient("OpenMeteoForecast", breakerCfg,
		weather.NewClientOpenMeteo(a.cfg.Forecast.URL, a.cfg.Forecast.Timeout, httpLogClient, a.l),
	)

	sc.Ingest = ingest.NewService(geo, forecast, ingest.Options{
		Concurrency: a.cfg.Ingest.Concurrency,
		PastHours:   a.cfg.Ingest.PastHours,
		FutureHours: a.cfg.Ingest.FutureHours,
		Timeout:     a.cfg.Ingest.Timeout,
	}, a.l, a.m)

	sender, err := a.newSender(&sc, httpLogClient)
	if err != nil {
		return sc, err
	}
	sc.Pipeline = pipeline.New(sc.Ingest, relay.NewMetricsRelay(sender, a.m), a.m, a.l)

	if a.cfg.Scheduler.Enabled {
		sc.Scheduler = scheduler.New(sc.Pipeline, a.cfg.Scheduler.Spec, a.cfg.Scheduler.Locations,
			a.cfg.Scheduler.RunTimeout, a.m, a.l)
	}

	router := gin.New()
	router.Use(gin.Recovery(), a.m.HTTPMiddleware())

	h := http2.NewHandler(sc.Ingest, sc.Pipeline,
		time.Duration(a.cfg.Server.HandlerTimeout)*time.Second, a.l)
	router.GET("/health", h.Health)
	router.POST("/ingest", h.Ingest)
	router.POST("/ingest/relay", h.IngestRelay)
	router.POST("/enrich", h.Enrich)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.m.Registry(), promhttp.HandlerOpts{})))

	sc.Router = router
	sc.Srv = &http.Server{
		Addr:              a.cfg.ServerAddress(),
		Handler:           router,
		ReadHeaderTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return sc, nil
}

func (a *App) newSender(sc *ServiceContainer, client *http.Client) (relay.Sender, error) {
	switch a.cfg.Relay.Transport {
	case relay.TransportHTTP:
		return relay.NewHTTPRelay(a.cfg.Relay.URL, a.cfg.Relay.Timeout, client, a.l), nil
	case relay.TransportAMQP:
		conn, err := a.setupConn()
		if err != nil {
			return nil, fmt.Errorf("rabbitmq connection: %w", err)
		}
		sc.rabbitConn = conn

		publisher, err := a.setupPublisher(conn)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq publisher: %w", err)
		}
		sc.publisher = publisher

		return relay.NewRabbitRelay(publisher, a.cfg.Relay.Exchange, a.cfg.Relay.RoutingKey,
			a.cfg.Relay.Timeout, a.l), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTransport, a.cfg.Relay.Transport)
	}
}
