package web

import (
	"context"
	"errors"
	"net/http"
	"passwordCrackerEngine/internal/core/domain"
	"passwordCrackerEngine/internal/port"
	"strconv"

	"github.com/gin-gonic/gin"
)

// SessionService is the part of the cracking service the status API reads.
type SessionService interface {
	ActiveSessions() []string
	Progress(id string) (domain.Progress, error)
	StopSession(id string) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, filter port.SessionFilter) ([]domain.Session, error)
}

type WebHandler struct {
	crackingService SessionService
}

func NewWebHandler(svc SessionService) *WebHandler {
	return &WebHandler{
		crackingService: svc,
	}
}

// ActiveSessions lists the ids of sessions running in this process.
func (h *WebHandler) ActiveSessions(c *gin.Context) {
	ids := h.crackingService.ActiveSessions()
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids})
}

// AllProgress returns a snapshot for every running session keyed by id.
func (h *WebHandler) AllProgress(c *gin.Context) {
	snapshots := make(map[string]domain.Progress)
	for _, id := range h.crackingService.ActiveSessions() {
		// A session can finish between listing and sampling.
		progress, err := h.crackingService.Progress(id)
		if err != nil {
			continue
		}
		snapshots[id] = progress
	}
	c.JSON(http.StatusOK, snapshots)
}

func (h *WebHandler) GetProgress(c *gin.Context) {
	sessionID := c.Param("sessionId")
	progress, err := h.crackingService.Progress(sessionID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, progress)
}

func (h *WebHandler) StopSession(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.crackingService.StopSession(sessionID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "stopping",
		"message":   "Session will be saved with its checkpoint",
		"sessionId": sessionID,
	})
}

func (h *WebHandler) GetSession(c *gin.Context) {
	session, err := h.crackingService.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, redact(*session))
}

// ListSessions reads stored sessions, optionally filtered by ?status= and
// paged with ?limit= and ?offset=.
func (h *WebHandler) ListSessions(c *gin.Context) {
	filter := port.SessionFilter{Status: domain.JobStatus(c.Query("status"))}
	var err error
	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessions, err := h.crackingService.ListSessions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, redact(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// redact keeps recovered passwords off the network.
func redact(s domain.Session) domain.Session {
	s.Password = nil
	return s
}

func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return n, nil
}

func statusFor(err error) int {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
