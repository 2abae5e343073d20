package realtime

import (
	"encoding/json"
	"time"

	"github.com/geoattend/attendance-api/internal/models"
)

// Wire event names, client->server and server->client.
const (
	EventRoleAssigned    = "roleAssigned"
	EventAdminLocation   = "adminLocation"
	EventAdminSettings   = "adminSettings"
	EventClearLocation   = "clearAdminLocation"
	EventLocationCleared = "adminLocationCleared"
	EventAdminGone       = "adminDisconnected"
	EventJoinRoom        = "joinRoom"
	EventLeaveRoom       = "leaveRoom"
	EventSessionStarted  = "sessionStarted"
	EventSessionEnded    = "sessionEnded"
	EventError           = "error"
)

// Envelope is the wire frame for every websocket message.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals a payload into a wire frame.
func NewEnvelope(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// RolePayload notifies a single connection of its assigned role. The admin
// token is only present on admin assignments and must be echoed back on
// gated operations by clients that want to survive transport reconnects.
type RolePayload struct {
	Role       string `json:"role"`
	SocketID   string `json:"socketId"`
	AdminToken string `json:"adminToken,omitempty"`
}

// LocationPayload is the broadcast form of the admin location.
type LocationPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// LocationUpdate is the inbound adminLocation payload. Range and venue
// piggyback on location updates when the marking UI submits them together.
type LocationUpdate struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Range     *int     `json:"range"`
	Venue     *string  `json:"venue"`
}

// SettingsPayload is the broadcast form of the admin settings.
type SettingsPayload struct {
	Range int    `json:"range"`
	Venue string `json:"venue"`
}

// SettingsUpdate is the inbound adminSettings payload.
type SettingsUpdate struct {
	Range *int    `json:"range"`
	Venue *string `json:"venue"`
	Token string  `json:"token,omitempty"`
}

// TokenPayload carries just the optional admin token for gated operations
// with no other inputs.
type TokenPayload struct {
	Token string `json:"token,omitempty"`
}

// ClearedPayload is broadcast when the admin stops marking.
type ClearedPayload struct {
	Timestamp int64 `json:"timestamp"`
}

// AdminGonePayload is broadcast when the admin connection drops.
type AdminGonePayload struct {
	AdminID string `json:"adminId"`
}

// RoomUpdate subscribes or unsubscribes a client from a program/level room.
type RoomUpdate struct {
	Program string `json:"program"`
	Level   string `json:"level"`
}

// SessionStartedPayload is broadcast to the session's room when an
// attendance window opens.
type SessionStartedPayload struct {
	SessionID   string           `json:"sessionId"`
	CourseCode  string           `json:"courseCode"`
	CourseTitle string           `json:"courseTitle,omitempty"`
	Program     string           `json:"program"`
	Level       string           `json:"level"`
	QRCode      string           `json:"qrCode"`
	Venue       string           `json:"venue,omitempty"`
	Location    *models.GeoPoint `json:"location,omitempty"`
	StartTime   time.Time        `json:"startTime"`
	Token       string           `json:"token,omitempty"`
}

// SessionEndedPayload is broadcast to the session's room when an attendance
// window closes.
type SessionEndedPayload struct {
	SessionID  string    `json:"sessionId"`
	CourseCode string    `json:"courseCode"`
	Program    string    `json:"program,omitempty"`
	Level      string    `json:"level,omitempty"`
	EndTime    time.Time `json:"endTime"`
	Token      string    `json:"token,omitempty"`
}

// ErrorPayload is delivered best-effort to the offending caller only.
type ErrorPayload struct {
	Message string `json:"message"`
}
