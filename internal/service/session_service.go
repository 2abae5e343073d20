package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/geoattend/attendance-api/internal/dto"
	"github.com/geoattend/attendance-api/internal/models"
	"github.com/geoattend/attendance-api/internal/realtime"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
)

type sessionRepository interface {
	Create(ctx context.Context, session *models.AttendanceSession) error
	End(ctx context.Context, sessionID, lecturerID string, endTime time.Time) (int64, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.AttendanceSession, error)
	ActiveByLecturer(ctx context.Context, lecturerID string) ([]models.AttendanceSession, error)
}

type sessionBroadcaster interface {
	BroadcastSessionStarted(p realtime.SessionStartedPayload)
	BroadcastSessionEnded(p realtime.SessionEndedPayload, room string)
}

type sessionCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SessionService coordinates attendance session lifecycle: atomic creation,
// conditional ending and room-scoped fan-out.
type SessionService struct {
	repo         sessionRepository
	hub          sessionBroadcaster
	cache        sessionCache
	validator    *validator.Validate
	logger       *zap.Logger
	qrTTL        time.Duration
	cacheTTL     time.Duration
	cacheEnabled bool
}

// NewSessionService constructs the session service.
func NewSessionService(repo sessionRepository, hub sessionBroadcaster, cache sessionCache, validate *validator.Validate, logger *zap.Logger, qrTTL, cacheTTL time.Duration, cacheEnabled bool) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if qrTTL <= 0 {
		qrTTL = 30 * time.Minute
	}
	svc := &SessionService{
		repo:         repo,
		hub:          hub,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		qrTTL:        qrTTL,
		cacheTTL:     cacheTTL,
		cacheEnabled: cacheEnabled && cache != nil,
	}
	svc.validator.RegisterValidation("attendance_method", func(fl validator.FieldLevel) bool {
		return models.AttendanceMethod(fl.Field().String()).Valid()
	})
	return svc
}

func activeSessionsCacheKey(lecturerID string) string {
	return fmt.Sprintf("sessions:active:%s", lecturerID)
}

// StartSession opens an attendance window. Conflicts with an existing
// active session for the same (courseCode, program, level) surface as a
// CONFLICT from the store's unique index; there is no pre-read, so
// concurrent starts cannot both win.
func (s *SessionService) StartSession(ctx context.Context, req dto.StartSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "missing required fields")
	}

	method := models.AttendanceMethod(req.AttendanceMethod)
	if req.AttendanceMethod == "" {
		method = models.MethodQR
	}

	now := time.Now()
	session := &models.AttendanceSession{
		SessionID:        models.NewSessionID(now),
		LecturerID:       req.LecturerID,
		LecturerName:     req.LecturerName,
		CourseCode:       req.CourseCode,
		CourseTitle:      req.CourseTitle,
		Program:          req.Program,
		Level:            req.Level,
		Venue:            req.Venue,
		AttendanceMethod: method,
		Status:           models.SessionStatusActive,
		QRCode:           models.NewQRCode(req.CourseCode, now),
		QRExpiresAt:      now.Add(s.qrTTL),
		StartTime:        now,
	}
	if req.Location != nil {
		session.Latitude = &req.Location.Latitude
		session.Longitude = &req.Location.Longitude
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}

	s.invalidateActive(ctx, req.LecturerID)

	if s.hub != nil {
		s.hub.BroadcastSessionStarted(realtime.SessionStartedPayload{
			SessionID:   session.SessionID,
			CourseCode:  session.CourseCode,
			CourseTitle: session.CourseTitle,
			Program:     session.Program,
			Level:       session.Level,
			QRCode:      session.QRCode,
			Venue:       session.Venue,
			Location:    session.Location(),
			StartTime:   session.StartTime,
		})
	}

	s.logger.Info("session started",
		zap.String("session_id", session.SessionID),
		zap.String("course_code", session.CourseCode),
		zap.String("room", session.Room()))

	return session, nil
}

// EndSession closes an attendance window with one conditional update
// matching session id, lecturer ownership and active status.
func (s *SessionService) EndSession(ctx context.Context, req dto.EndSessionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "session ID and lecturer ID are required")
	}

	endTime := time.Now()
	affected, err := s.repo.End(ctx, req.SessionID, req.LecturerID, endTime)
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErrors.ErrSessionNotFound
	}

	s.invalidateActive(ctx, req.LecturerID)

	// Re-fetch to recover program/level for room addressing.
	session, err := s.repo.GetBySessionID(ctx, req.SessionID)
	if err != nil {
		s.logger.Warn("ended session fetch failed, skipping broadcast",
			zap.String("session_id", req.SessionID), zap.Error(err))
		return nil
	}

	if s.hub != nil {
		s.hub.BroadcastSessionEnded(realtime.SessionEndedPayload{
			SessionID:  session.SessionID,
			CourseCode: session.CourseCode,
			Program:    session.Program,
			Level:      session.Level,
			EndTime:    endTime,
		}, session.Room())
	}

	s.logger.Info("session ended",
		zap.String("session_id", session.SessionID),
		zap.String("course_code", session.CourseCode))

	return nil
}

// ActiveSessions lists a lecturer's active sessions, served from cache when
// enabled.
func (s *SessionService) ActiveSessions(ctx context.Context, lecturerID string) ([]models.AttendanceSession, error) {
	if lecturerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "lecturer ID is required")
	}

	key := activeSessionsCacheKey(lecturerID)
	if s.cacheEnabled {
		var cached []models.AttendanceSession
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	sessions, err := s.repo.ActiveByLecturer(ctx, lecturerID)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled {
		if err := s.cache.Set(ctx, key, sessions, s.cacheTTL); err != nil {
			s.logger.Warn("session cache set failed", zap.String("lecturer_id", lecturerID), zap.Error(err))
		}
	}

	return sessions, nil
}

// GetSession fetches one session by its public identifier.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	if sessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "session ID is required")
	}
	session, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) invalidateActive(ctx context.Context, lecturerID string) {
	if !s.cacheEnabled {
		return
	}
	if err := s.cache.Delete(ctx, activeSessionsCacheKey(lecturerID)); err != nil {
		s.logger.Warn("session cache invalidation failed", zap.String("lecturer_id", lecturerID), zap.Error(err))
	}
}
