package handlers

import (
	"co2_ampel/internal/config"
	"co2_ampel/internal/logger"
	"co2_ampel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	cfg      config.HTTPConfig
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, cfg config.HTTPConfig) *Handler {
	return &Handler{services: services, log: log, cfg: cfg}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// live status stream on the same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/state", h.getState)
		api.GET("/events", h.eventCache(), h.getEvents)
		api.POST("/calibration", h.calibrationLimiter(), h.operatorMiddleware, h.requestCalibration)
	}
}

// eventCache caches journal listings for cfg.CacheTTL. A zero TTL disables it.
func (h *Handler) eventCache() gin.HandlerFunc {
	ttl := h.cfg.CacheTTL
	if ttl <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return Cache(cache.New(ttl, 2*ttl), ttl)
}

// calibrationLimiter throttles remote calibration per client IP.
func (h *Handler) calibrationLimiter() gin.HandlerFunc {
	if h.cfg.RateLimitPerSec <= 0 {
		return RateLimiter(rate.Inf, 0)
	}
	burst := h.cfg.RateLimitBurst
	if burst < 1 {
		burst = 1
	}
	return RateLimiter(rate.Limit(h.cfg.RateLimitPerSec), burst)
}

