package models

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// SessionStatus enumerates attendance session lifecycle states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusEnded     SessionStatus = "ended"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionStatusActive, SessionStatusPaused, SessionStatusEnded, SessionStatusCancelled:
		return true
	}
	return false
}

// AttendanceMethod enumerates how students check in to a session.
type AttendanceMethod string

const (
	MethodGPS    AttendanceMethod = "gps"
	MethodQR     AttendanceMethod = "qr"
	MethodManual AttendanceMethod = "manual"
	MethodHybrid AttendanceMethod = "hybrid"
)

// Valid reports whether the method is one of the known methods.
func (m AttendanceMethod) Valid() bool {
	switch m {
	case MethodGPS, MethodQR, MethodManual, MethodHybrid:
		return true
	}
	return false
}

// GeoPoint is an optional lat/lon pair attached to a session.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// AttendanceSession is one attendance-taking window for a course offering.
type AttendanceSession struct {
	ID               string           `json:"-" db:"id"`
	SessionID        string           `json:"sessionId" db:"session_id"`
	LecturerID       string           `json:"lecturerId" db:"lecturer_id"`
	LecturerName     string           `json:"lecturerName,omitempty" db:"lecturer_name"`
	CourseCode       string           `json:"courseCode" db:"course_code"`
	CourseTitle      string           `json:"courseTitle,omitempty" db:"course_title"`
	Program          string           `json:"program" db:"program"`
	Level            string           `json:"level" db:"level"`
	Venue            string           `json:"venue,omitempty" db:"venue"`
	Latitude         *float64         `json:"-" db:"latitude"`
	Longitude        *float64         `json:"-" db:"longitude"`
	AttendanceMethod AttendanceMethod `json:"attendanceMethod" db:"attendance_method"`
	Status           SessionStatus    `json:"status" db:"status"`
	QRCode           string           `json:"qrCode" db:"qr_code"`
	QRExpiresAt      time.Time        `json:"qrExpiresAt" db:"qr_expires_at"`
	StartTime        time.Time        `json:"startTime" db:"start_time"`
	EndTime          *time.Time       `json:"endTime,omitempty" db:"end_time"`
	CreatedAt        time.Time        `json:"-" db:"created_at"`
	UpdatedAt        time.Time        `json:"-" db:"updated_at"`
}

// Location returns the optional session coordinates as a GeoPoint.
func (s *AttendanceSession) Location() *GeoPoint {
	if s.Latitude == nil || s.Longitude == nil {
		return nil
	}
	return &GeoPoint{Latitude: *s.Latitude, Longitude: *s.Longitude}
}

// Room returns the broadcast room for the session's program and level,
// spaces normalised to underscores.
func (s *AttendanceSession) Room() string {
	return RoomName(s.Program, s.Level)
}

// RoomName derives the broadcast-scope label for a program/level pair.
func RoomName(program, level string) string {
	normalize := func(in string) string {
		return strings.Join(strings.Fields(in), "_")
	}
	return normalize(program) + "_" + normalize(level)
}

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewSessionID builds an identifier in the form ATT_<epochMillis>_<random9>.
func NewSessionID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = base36[rand.Intn(len(base36))]
	}
	return fmt.Sprintf("ATT_%d_%s", now.UnixMilli(), suffix)
}

// NewQRCode builds the QR payload for a session: <courseCode>_<epochMillis>.
func NewQRCode(courseCode string, now time.Time) string {
	return fmt.Sprintf("%s_%d", courseCode, now.UnixMilli())
}
