package dto

import "github.com/geoattend/attendance-api/internal/models"

// StartSessionRequest opens an attendance window for a course offering.
type StartSessionRequest struct {
	LecturerID       string           `json:"lecturerId" validate:"required"`
	LecturerName     string           `json:"lecturerName"`
	CourseCode       string           `json:"courseCode" validate:"required"`
	CourseTitle      string           `json:"courseTitle"`
	Program          string           `json:"program" validate:"required"`
	Level            string           `json:"level" validate:"required"`
	Venue            string           `json:"venue"`
	Location         *models.GeoPoint `json:"location"`
	AttendanceMethod string           `json:"attendanceMethod" validate:"omitempty,attendance_method"`
}

// EndSessionRequest closes an attendance window.
type EndSessionRequest struct {
	SessionID  string `json:"sessionId" validate:"required"`
	LecturerID string `json:"lecturerId" validate:"required"`
}
