// Package httpapi wires the HTTP transport (Gin) to the employee service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, idempotency, and rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-employee-backend/docs"
	"github.com/tbourn/go-employee-backend/internal/config"
	"github.com/tbourn/go-employee-backend/internal/domain"
	"github.com/tbourn/go-employee-backend/internal/http/handlers"
	"github.com/tbourn/go-employee-backend/internal/http/middleware"
	"github.com/tbourn/go-employee-backend/internal/metrics"
	"github.com/tbourn/go-employee-backend/internal/repo"
	"github.com/tbourn/go-employee-backend/internal/services"
)

// employeeRepoShim adapts the repository free functions to the
// services.EmployeeRepo interface.
type employeeRepoShim struct{}

func (employeeRepoShim) Migrate(ctx context.Context, db *gorm.DB) error {
	return repo.Migrate(ctx, db)
}

func (employeeRepoShim) ListEmployees(ctx context.Context, db *gorm.DB) ([]domain.Employee, error) {
	return repo.ListEmployees(ctx, db)
}

func (employeeRepoShim) GetEmployee(ctx context.Context, db *gorm.DB, id int64) (*domain.Employee, error) {
	return repo.GetEmployee(ctx, db, id)
}

func (employeeRepoShim) FindEmployeeByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Employee, error) {
	return repo.FindEmployeeByEmail(ctx, db, email)
}

func (employeeRepoShim) CreateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error {
	return repo.CreateEmployee(ctx, db, e)
}

func (employeeRepoShim) UpdateEmployee(ctx context.Context, db *gorm.DB, e *domain.Employee) error {
	return repo.UpdateEmployee(ctx, db, e)
}

func (employeeRepoShim) DeleteEmployee(ctx context.Context, db *gorm.DB, id int64) error {
	return repo.DeleteEmployee(ctx, db, id)
}

func (employeeRepoShim) ClearEmployees(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.ClearEmployees(ctx, db)
}

func (employeeRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, scope, key, now)
}

func (employeeRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, scope, key string, employeeID int64, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, scope, key, employeeID, status, ttl)
}

func (employeeRepoShim) DeleteIdempotency(ctx context.Context, db *gorm.DB, scope, key string) error {
	return repo.DeleteIdempotency(ctx, db, scope, key)
}

// NewEmployeeService builds the EmployeeService over db with the process-wide
// store metrics and the configured idempotency window.
func NewEmployeeService(db *gorm.DB, cfg config.Config) *services.EmployeeService {
	svc := services.NewEmployeeService(db, employeeRepoShim{}, metrics.Default())
	if cfg.IdempotencyTTL > 0 {
		svc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	return svc
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the employee API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID + RequestLogger: correlation id and request-scoped logger
//  3. RedactingLogger: access logs with PII scrubbing
//  4. Recovery: capture panics after the logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. CORS and Security headers (also on idempotency and rate-limit rejections)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, svc *services.EmployeeService, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	// "/api/employees/" is an unknown endpoint, not a redirect.
	r.RedirectTrailingSlash = false

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	// 3) Access logs with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
		SkipPaths:   []string{"/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limit and response compression
	r.Use(limitBody(cfg.MaxBodyBytes))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (allow all if none configured)
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", middleware.HeaderIdempotencyReplayed},
		AllowCredentials: false, // must remain false with AllowAllOrigins
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Send ACAO: * even without an Origin header (simple clients, health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// 8) Security headers; employee records are personal data, so no caching.
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:    cfg.Security.EnableHSTS,
		HSTSMaxAge:    cfg.Security.HSTSMaxAge,
		NoStore:       true,
		EnablePolicy:  true,
		ExposeHeaders: []string{middleware.HeaderIdempotencyReplayed},
	}))

	// 9) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200, Scope: services.IdempotencyScope},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			_, err := repo.GetIdempotency(ctx, svc.DB, scope, key, now)
			switch {
			case err == nil:
				return true, nil
			case errors.Is(err, repo.ErrNotFound):
				return false, nil
			default:
				return false, err
			}
		},
	))

	// 10) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, handlers.MsgEndpointNotFound)
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, handlers.MsgMethodNotAllowed)
	})

	h := handlers.New(svc)

	// Liveness/health
	r.GET("/", h.Home)
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/employees", h.ListEmployees)
		api.POST("/employees", h.CreateEmployee)
		api.PUT("/employees/:id", h.UpdateEmployee)
		api.DELETE("/employees/:id", h.DeleteEmployee)
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. A value <= 0 disables the cap.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
