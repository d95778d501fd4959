package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"escalation-service/internal/config"
	"escalation-service/internal/engine"
	"escalation-service/internal/events"
)

func NewRouter(eng *engine.Engine, registry *engine.Registry, hub *events.Hub, logger *logrus.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(eng, registry, hub, logger)
	api := r.Group(cfg.API.BasePath)
	{
		// Escalations
		api.POST("/escalations", h.CreateEscalation)
		api.GET("/escalations", h.ListEscalations)
		api.GET("/escalations/:id", h.GetEscalation)
		api.POST("/escalations/:id/acknowledge", h.Acknowledge)
		api.POST("/escalations/:id/start", h.StartProgress)
		api.POST("/escalations/:id/reassign", h.Reassign)
		api.POST("/escalations/:id/resolve", h.Resolve)
		api.POST("/escalations/:id/close", h.Close)
		api.POST("/escalations/:id/escalate", h.EscalateFurther)
		api.POST("/escalations/:id/priority", h.OverridePriority)

		// Team workload
		api.GET("/team/workload", h.TeamWorkload)
		api.PUT("/team/:id/availability", h.SetAvailability)
	}

	r.GET("/ws", h.EventSocket)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}
