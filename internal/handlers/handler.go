package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"thermal_telemetry/internal/logger"
	"thermal_telemetry/internal/metrics"
	"thermal_telemetry/internal/service"
)

const defaultStreamBuffer = 256

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services     *service.Service
	log          *logger.Logger
	metrics      *metrics.Metrics
	streamBuffer int
}

type Option func(*Handler)

// WithMetrics mounts /metrics and counts requests.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithStreamBuffer sets the per-connection notification queue for /ws.
func WithStreamBuffer(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.streamBuffer = n
		}
	}
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log, streamBuffer: defaultStreamBuffer}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if h.metrics != nil {
		router.Use(h.metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAPIRoutes(router)

	// notification stream, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerSensorRoutes(api)
		api.GET("/alerts", h.getAlerts)
		api.GET("/events", h.getEvents)
	}
}

func (h *Handler) registerSensorRoutes(api *gin.RouterGroup) {
	sensors := api.Group("/sensors")
	{
		sensors.GET("", h.getSensors)
		sensors.GET("/history", h.getHistory)
		sensors.GET("/state", h.getLastKnown)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

const (
	statusOK       = "ok"
	statusDegraded = "degraded"
)

// @Summary      Health check
// @Description  Always 200 while the process serves; "degraded" when sensor acquisition is failing.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, acquisition"
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	if h.services == nil || h.services.Monitoring == nil {
		c.JSON(http.StatusOK, gin.H{"status": statusOK})
		return
	}
	acq := h.services.Monitoring.Health()
	status := statusOK
	if !acq.Healthy {
		status = statusDegraded
	}
	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"acquisition": acq,
	})
}
