package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Roles a connection can hold. Admin is a transient connection-scoped
// designation, not a persisted account role.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Location is the singleton admin location. It exists only while the admin
// is actively marking.
type Location struct {
	Latitude  float64
	Longitude float64
	Timestamp int64
}

// Settings is the singleton admin session configuration, always present.
type Settings struct {
	Range int
	Venue string
}

// State owns the broadcast singletons: admin location, admin settings and
// the admin assignment. It is constructed once per process and injected into
// the hub and the HTTP handlers, never reached through package globals.
// All state is in-memory and lost on restart.
type State struct {
	mu         sync.Mutex
	location   *Location
	settings   Settings
	adminID    string
	adminToken string
	assigned   bool
}

// NewState builds a broadcast state with defaulted settings.
func NewState(defaultRange int) *State {
	if defaultRange <= 0 {
		defaultRange = 50
	}
	return &State{settings: Settings{Range: defaultRange}}
}

// Location returns a copy of the current admin location, if set.
func (s *State) Location() (Location, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return Location{}, false
	}
	return *s.location, true
}

// Settings returns the current admin settings.
func (s *State) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// SetLocation overwrites the admin location with a fresh timestamp. Each
// update is a total replace, not a merge.
func (s *State) SetLocation(latitude, longitude float64, now time.Time) Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := Location{Latitude: latitude, Longitude: longitude, Timestamp: now.UnixMilli()}
	s.location = &loc
	return loc
}

// MergeSettings overwrites only the settings fields present in the update.
// It reports whether anything was provided.
func (s *State) MergeSettings(rangeMeters *int, venue *string) (Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	if rangeMeters != nil {
		s.settings.Range = *rangeMeters
		changed = true
	}
	if venue != nil {
		s.settings.Venue = *venue
		changed = true
	}
	return s.settings, changed
}

// ClearLocation nulls the admin location.
func (s *State) ClearLocation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = nil
}

// Assign hands the admin role to the given connection, rotating the admin
// token. It returns the new token and the previous holder, if any.
func (s *State) Assign(connectionID string) (token string, previousAdminID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assigned {
		previousAdminID = s.adminID
	}
	s.adminID = connectionID
	s.adminToken = uuid.NewString()
	s.assigned = true
	return s.adminToken, previousAdminID
}

// Release frees the admin slot so the next eligible connection can claim it.
func (s *State) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adminID = ""
	s.adminToken = ""
	s.assigned = false
}

// Assigned reports whether an admin currently holds the slot.
func (s *State) Assigned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assigned
}

// AdminID returns the connection currently holding the admin role.
func (s *State) AdminID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adminID
}

// Authorize reports whether a gated operation may proceed. A matching admin
// token wins regardless of which connection presents it; otherwise the
// caller must be the connection holding the admin slot.
func (s *State) Authorize(connectionID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.assigned {
		return false
	}
	if token != "" && token == s.adminToken {
		return true
	}
	return connectionID == s.adminID
}
