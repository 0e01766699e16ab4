// Package rpchttp exposes the service facade over HTTP (the other half of
// spec.md §6's Tool-RPC surface): one POST route per tool plus a health
// check and a source listing, following the teacher's gin router/handler
// split in internal/api/router.go and internal/api/handlers.
package rpchttp

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"research-master/internal/config"
	fedErrors "research-master/internal/errors"
	"research-master/internal/service"
)

// requestIDHeader is the header carrying the request id both inbound (a
// caller- or gateway-supplied id is honored) and outbound (echoed back).
const requestIDHeader = "X-Request-ID"

var startTime = time.Now()

// NewRouter builds the gin engine serving every HTTP route of the tool-RPC
// surface. corsEnabled toggles the permissive CORS middleware the teacher's
// DefaultCorsConfig applies.
func NewRouter(svc *service.Service, logger *slog.Logger, corsEnabled bool) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(securityHeaders())
	router.Use(requestID())
	router.Use(requestLogger(logger))
	if corsEnabled {
		router.Use(corsMiddleware())
	}

	h := &handler{svc: svc, logger: logger}

	router.GET("/health", h.health)
	router.GET("/v1/sources", h.sources)
	router.POST("/tools/:name", h.invokeTool)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return router
}

func corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if gin.Mode() == gin.DebugMode {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cors.New(cfg)
}

// requestID honors an inbound X-Request-ID (a caller or gateway's own
// correlation id), generating one otherwise, and stamps it onto the
// request's context as a config.RequestContext so downstream handlers and
// the orchestrator's fan-out log under the same id, per the teacher's
// RequestIDMiddleware/GetRequestID pattern.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqCtx := config.NewRequestContext(c.Request.URL.Path)
		if incoming := c.GetHeader(requestIDHeader); incoming != "" {
			reqCtx.RequestID = incoming
		}
		c.Request = c.Request.WithContext(config.WithRequestContext(c.Request.Context(), reqCtx))
		c.Header(requestIDHeader, reqCtx.RequestID)
		c.Next()
	}
}

// securityHeaders ports the teacher's middleware.SecurityHeaders verbatim:
// MIME-sniffing, clickjacking, and reflected-XSS hardening plus a
// same-origin CSP on every response.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("X-Frame-Options", "DENY")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		csp := strings.Join([]string{
			"default-src 'self'",
			"script-src 'self' 'unsafe-inline' 'unsafe-eval'",
			"style-src 'self' 'unsafe-inline'",
			"img-src 'self' data: https:",
			"font-src 'self'",
			"connect-src 'self'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		}, "; ")
		c.Header("Content-Security-Policy", csp)
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Server", "")
		c.Next()
	}
}

// requestLogger logs one line per request through config.LogWithContext,
// which (via requestID's stamped RequestContext) appends the request id and
// its own start-to-finish duration automatically.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		config.LogWithContext(c.Request.Context(), logger, slog.LevelInfo, "http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()))
	}
}

type handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// errorResponse matches spec.md §7's "User-visible failure" contract for
// the RPC layer: a bare { error: <message> } payload.
type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if fe, ok := err.(*fedErrors.FedError); ok {
		status = fe.HTTPStatus()
	}
	c.JSON(status, errorResponse{Error: err.Error()})
}

// health reports liveness plus the PDF extractor's availability, per
// spec.md §6's PDF extractor contract.
func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"uptime":        time.Since(startTime).String(),
		"pdf_available": h.svc.PDFAvailable(),
	})
}

func (h *handler) sources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.svc.Sources()})
}
