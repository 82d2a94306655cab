package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	appointmentHandler "github.com/clinicbr/backoffice-api/internal/handler/appointment"
	authHandler "github.com/clinicbr/backoffice-api/internal/handler/auth"
	documentHandler "github.com/clinicbr/backoffice-api/internal/handler/document"
	invoiceHandler "github.com/clinicbr/backoffice-api/internal/handler/invoice"
	patientHandler "github.com/clinicbr/backoffice-api/internal/handler/patient"
	profileHandler "github.com/clinicbr/backoffice-api/internal/handler/profile"
	"github.com/clinicbr/backoffice-api/internal/middleware"
	"github.com/clinicbr/backoffice-api/internal/model"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *authHandler.Handler
	profileH     *profileHandler.Handler
	patientH     *patientHandler.Handler
	documentH    *documentHandler.Handler
	appointmentH *appointmentHandler.Handler
	invoiceH     *invoiceHandler.Handler
	metrics      *routerMetrics
	registry     *prometheus.Registry
}

type RouterConfig struct {
	RateLimit  float64
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH *authHandler.Handler,
	profileH *profileHandler.Handler,
	patientH *patientHandler.Handler,
	documentH *documentHandler.Handler,
	appointmentH *appointmentHandler.Handler,
	invoiceH *invoiceHandler.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	registry := prometheus.NewRegistry()

	r := &Router{
		engine:       engine,
		auth:         auth,
		authH:        authH,
		profileH:     profileH,
		patientH:     patientH,
		documentH:    documentH,
		appointmentH: appointmentH,
		invoiceH:     invoiceH,
		metrics:      initRouterMetrics(registry),
		registry:     registry,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		r.metricsMiddleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  rate.Limit(config.RateLimit),
		Burst: config.RateBurst,
	})
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})
	r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})))

	api := r.engine.Group("/api/v1")

	// Public routes
	r.authH.RegisterRoutes(api)

	// Protected routes
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.authH.RegisterProtectedRoutes(protected)

	// Clinical data requires an operational role; default accounts see
	// nothing past this point.
	staff := protected.Group("")
	staff.Use(r.auth.RequireRoles(model.RoleProfessional, model.RoleManagerial))

	r.patientH.RegisterRoutes(staff)
	r.documentH.RegisterRoutes(staff)
	r.appointmentH.RegisterRoutes(staff, r.auth.RequireRoles(model.RoleManagerial))

	// Profile management and billing are managerial concerns. The invoice
	// lifecycle transitions additionally re-check the role against the
	// database at call time.
	managerial := protected.Group("")
	managerial.Use(r.auth.RequireRoles(model.RoleManagerial))

	r.profileH.RegisterRoutes(managerial)
	r.invoiceH.RegisterRoutes(managerial, r.auth.RequireCurrentRoles(model.RoleManagerial))
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func initRouterMetrics(registry *prometheus.Registry) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	registry.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
