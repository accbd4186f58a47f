package handlers

import (
	"shopfloor_dashboard/internal/logger"
	"shopfloor_dashboard/internal/metrics"
	"shopfloor_dashboard/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// NewHandler constructs a new HTTP handler with dependencies. log and m may be nil.
func NewHandler(services *service.Service, log *logger.Logger, m *metrics.Metrics) *Handler {
	return &Handler{services: services, log: log, metrics: m}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// View push over WebSocket, same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		h.registerViewRoutes(api)
	}

	protected := api.Group("", h.operatorAuth)
	{
		protected.POST("/safety/:id/resolve", h.resolveSafety)
		protected.POST("/reload", h.reload)
		protected.GET("/actions", h.getActions)
	}
}

func (h *Handler) registerViewRoutes(api *gin.RouterGroup) {
	api.GET("/dashboard", h.getDashboard)
	api.GET("/machines", h.getMachines)
	api.GET("/orders", h.getOrders)
	api.GET("/safety", h.getSafety)
	api.GET("/workflows", h.getWorkflows)
	api.GET("/logs", h.getLogs)
	api.GET("/triage/summary", h.getTriageSummary)
}
