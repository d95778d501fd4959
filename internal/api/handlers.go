package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"escalation-service/internal/engine"
	"escalation-service/internal/events"
	"escalation-service/internal/models"
)

type Handler struct {
	engine   *engine.Engine
	registry *engine.Registry
	hub      *events.Hub
	logger   *logrus.Logger
}

func NewHandler(eng *engine.Engine, registry *engine.Registry, hub *events.Hub, logger *logrus.Logger) *Handler {
	return &Handler{engine: eng, registry: registry, hub: hub, logger: logger}
}

// statusFor maps engine errors onto HTTP status codes. Conflicts (illegal
// transition, lost version race, full target) are 409 so dashboards retry
// after a refetch; a fully saturated team is 503 because the client did
// nothing wrong.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrMissingResolution):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidTransition),
		errors.Is(err, engine.ErrStaleVersion),
		errors.Is(err, engine.ErrCapacityExceeded):
		return http.StatusConflict
	case errors.Is(err, engine.ErrNoCapacity):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type createRequest struct {
	ServiceRequestID string     `json:"service_request_id" binding:"required"`
	ClientID         string     `json:"client_id"`
	Type             string     `json:"escalation_type" binding:"required"`
	Reason           string     `json:"reason" binding:"required"`
	Actor            string     `json:"actor" binding:"required"`
	Priority         string     `json:"priority"`
	OriginalDueDate  *time.Time `json:"original_due_date"`
	CurrentDueDate   *time.Time `json:"current_due_date"`
}

func (h *Handler) CreateEscalation(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Invalid create request: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	esc, err := h.engine.Create(c.Request.Context(), engine.CreateRequest{
		ServiceRequestID: req.ServiceRequestID,
		ClientID:         req.ClientID,
		Type:             models.EscalationType(req.Type),
		Reason:           req.Reason,
		Actor:            req.Actor,
		Priority:         models.Priority(req.Priority),
		OriginalDueDate:  req.OriginalDueDate,
		CurrentDueDate:   req.CurrentDueDate,
	})
	if err != nil {
		h.logger.Errorf("Create escalation failed: %v", err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, esc)
}

type actionRequest struct {
	Actor string `json:"actor" binding:"required"`
	Notes string `json:"notes"`
}

func (h *Handler) Acknowledge(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.Acknowledge(c.Request.Context(), c.Param("id"), req.Actor, req.Notes)
	h.respond(c, esc, err, "Acknowledge")
}

func (h *Handler) StartProgress(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.StartProgress(c.Request.Context(), c.Param("id"), req.Actor, req.Notes)
	h.respond(c, esc, err, "Start progress")
}

func (h *Handler) Reassign(c *gin.Context) {
	var req struct {
		actionRequest
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.Reassign(c.Request.Context(), c.Param("id"), req.Actor, req.Target, req.Notes)
	h.respond(c, esc, err, "Reassign")
}

func (h *Handler) Resolve(c *gin.Context) {
	var req struct {
		actionRequest
		Resolution string `json:"resolution"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.Resolve(c.Request.Context(), c.Param("id"), req.Actor, req.Resolution, req.Notes)
	h.respond(c, esc, err, "Resolve")
}

func (h *Handler) Close(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.Close(c.Request.Context(), c.Param("id"), req.Actor, req.Notes)
	h.respond(c, esc, err, "Close")
}

func (h *Handler) EscalateFurther(c *gin.Context) {
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.EscalateFurther(c.Request.Context(), c.Param("id"), req.Actor, req.Notes)
	h.respond(c, esc, err, "Escalate")
}

func (h *Handler) OverridePriority(c *gin.Context) {
	var req struct {
		actionRequest
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	esc, err := h.engine.OverridePriority(c.Request.Context(), c.Param("id"), req.Actor, models.Priority(req.Priority), req.Notes)
	h.respond(c, esc, err, "Override priority")
}

func (h *Handler) respond(c *gin.Context, esc models.Escalation, err error, op string) {
	if err != nil {
		h.logger.Errorf("%s escalation %s failed: %v", op, c.Param("id"), err)
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, esc)
}

func (h *Handler) ListEscalations(c *gin.Context) {
	filter := engine.Filter{
		Status:   models.Status(c.Query("status")),
		Priority: models.Priority(c.Query("priority")),
		Type:     models.EscalationType(c.Query("type")),
	}
	escalations, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Errorf("List escalations failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, escalations)
}

func (h *Handler) GetEscalation(c *gin.Context) {
	id := c.Param("id")
	esc, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": "Escalation not found"})
		return
	}
	trail, err := h.engine.AuditTrail(c.Request.Context(), id)
	if err != nil {
		h.logger.Errorf("Get audit trail for %s failed: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"escalation": esc, "audit_trail": trail})
}

func (h *Handler) TeamWorkload(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.TeamSnapshot())
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var req struct {
		Unavailable bool `json:"unavailable"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if err := h.registry.SetUnavailable(c.Param("id"), req.Unavailable); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "unavailable": req.Unavailable})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// EventSocket upgrades a dashboard connection and streams engine events
// until the peer goes away.
func (h *Handler) EventSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	h.hub.Add(conn)
	go func() {
		defer func() {
			h.hub.Remove(conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
