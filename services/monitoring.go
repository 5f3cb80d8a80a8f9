package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	DEFAULT_PROMETHEUS_PORT = 2112

	metricsNamespace = "wr_api"

	// How often limiter occupancy is sampled between admin stats calls.
	rateLimitSampleInterval = 15 * time.Second
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "API requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_in_flight",
			Help:      "API requests currently being served",
		},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		},
		[]string{"route", "method"},
	)
)

var (
	rateLimitDenialsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_denials_total",
			Help:      "Attempts rejected by the rate limiter",
		},
		[]string{"policy"},
	)

	rateLimitTrackedKeys = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rate_limit_tracked_keys",
			Help:      "Keys currently held by the rate limiter",
		},
	)
)

// MonitoringService exposes /metrics and /health on a separate port and
// samples the rate limiter in the background.
type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry
	server   *fiber.App

	rateLimitSvc *RateLimitService
	closed       chan struct{}
	done         chan struct{}
}

func (svc MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.register = newMetricsRegistry()
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)

	svc.closed = make(chan struct{})
	svc.done = make(chan struct{})
	go svc.sampleRateLimiter(rateLimitSampleInterval)

	svc.server = newMetricsApp(svc.register)
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		close(svc.closed)
		<-svc.done
		svc.closed = nil
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func newMetricsRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestsInFlight,
		httpRequestDurationSeconds,
		rateLimitDenialsTotal,
		rateLimitTrackedKeys,
	)
	return reg
}

func newMetricsApp(reg *prometheus.Registry) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	app.Use(recover.New())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   shared.AppName,
			"timestamp": time.Now().Unix(),
		})
	})
	return app
}

// sampleRateLimiter keeps the tracked-keys gauge current for the memory
// store, which has no sweep of its own that reports it.
func (svc *MonitoringService) sampleRateLimiter(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(svc.done)

	for {
		select {
		case <-ticker.C:
			svc.rateLimitSvc.sampleTrackedKeys()
		case <-svc.closed:
			return
		}
	}
}

// MonitoringMiddleware records request count, latency and in-flight
// requests. Routes are labelled by their pattern, so /posts/:id is one
// series however many posts exist.
func MonitoringMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		err := c.Next()

		// The error handler has not run yet, so derive the status the
		// client will see from the returned error.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if appErr, ok := shared.GetAppError(err); ok {
				status = appErr.StatusCode
			} else if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			}
		}

		route := c.Route().Path
		method := c.Method()
		httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		return err
	}
}
