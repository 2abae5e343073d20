package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/geoattend/attendance-api/internal/models"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
)

// SessionRepository handles persistence for attendance sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const pqUniqueViolation = "23505"

// Create inserts a new session. Uniqueness of the active session per
// (course_code, program, level) is enforced by a partial unique index, so
// concurrent starts cannot both succeed; the loser gets a conflict.
func (r *SessionRepository) Create(ctx context.Context, session *models.AttendanceSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `INSERT INTO attendance_sessions
        (id, session_id, lecturer_id, lecturer_name, course_code, course_title,
         program, level, venue, latitude, longitude, attendance_method, status,
         qr_code, qr_expires_at, start_time, created_at, updated_at)
        VALUES (:id, :session_id, :lecturer_id, :lecturer_name, :course_code, :course_title,
         :program, :level, :venue, :latitude, :longitude, :attendance_method, :status,
         :qr_code, :qr_expires_at, :start_time, :created_at, :updated_at)`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return appErrors.ErrSessionActive
		}
		return fmt.Errorf("create attendance session: %w", err)
	}
	return nil
}

// End transitions an active session to ended, matching on session id,
// lecturer ownership and active status in one conditional update. It
// returns the number of rows affected; zero means already ended, wrong
// lecturer or unknown id.
func (r *SessionRepository) End(ctx context.Context, sessionID, lecturerID string, endTime time.Time) (int64, error) {
	query := `UPDATE attendance_sessions
        SET status = $1, end_time = $2, updated_at = $2
        WHERE session_id = $3 AND lecturer_id = $4 AND status = $5`

	result, err := r.db.ExecContext(ctx, query,
		models.SessionStatusEnded, endTime, sessionID, lecturerID, models.SessionStatusActive)
	if err != nil {
		return 0, fmt.Errorf("end attendance session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("end attendance session: %w", err)
	}
	return affected, nil
}

const sessionColumns = `id, session_id, lecturer_id, lecturer_name, course_code, course_title,
        program, level, venue, latitude, longitude, attendance_method, status,
        qr_code, qr_expires_at, start_time, end_time, created_at, updated_at`

// GetBySessionID fetches one session by its public identifier.
func (r *SessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_sessions WHERE session_id = $1`, sessionColumns)

	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, sessionID); err != nil {
		return nil, fmt.Errorf("get attendance session: %w", err)
	}
	return &session, nil
}

// ActiveByLecturer lists a lecturer's currently active sessions, newest
// first.
func (r *SessionRepository) ActiveByLecturer(ctx context.Context, lecturerID string) ([]models.AttendanceSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM attendance_sessions
        WHERE lecturer_id = $1 AND status = $2
        ORDER BY start_time DESC`, sessionColumns)

	sessions := []models.AttendanceSession{}
	if err := r.db.SelectContext(ctx, &sessions, query, lecturerID, models.SessionStatusActive); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}
