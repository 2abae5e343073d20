package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/geoattend/attendance-api/internal/dto"
	"github.com/geoattend/attendance-api/internal/realtime"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
)

type locationBroadcaster interface {
	BroadcastLocation(loc realtime.Location)
}

// AdminService serves the HTTP mirror of the admin broadcast state for
// clients that cannot hold a live websocket.
type AdminService struct {
	state  *realtime.State
	hub    locationBroadcaster
	logger *zap.Logger
}

// NewAdminService constructs the admin service.
func NewAdminService(state *realtime.State, hub locationBroadcaster, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{state: state, hub: hub, logger: logger}
}

// UpdateLocation overwrites the admin location and ripples it to every
// connected websocket client. Like the socket path, the HTTP path does not
// gate on admin identity; it exists so the marking flow works from clients
// without a live channel.
func (s *AdminService) UpdateLocation(latitude, longitude float64) dto.LocationResponse {
	loc := s.state.SetLocation(latitude, longitude, time.Now())
	if s.hub != nil {
		s.hub.BroadcastLocation(loc)
	}
	s.logger.Info("location updated over http",
		zap.Float64("latitude", loc.Latitude), zap.Float64("longitude", loc.Longitude))
	return dto.LocationResponse{Latitude: loc.Latitude, Longitude: loc.Longitude, Timestamp: loc.Timestamp}
}

// Location returns the current admin location or NO_LOCATION when the admin
// is not marking.
func (s *AdminService) Location() (dto.LocationResponse, error) {
	loc, ok := s.state.Location()
	if !ok {
		return dto.LocationResponse{}, appErrors.ErrNoLocation
	}
	return dto.LocationResponse{Latitude: loc.Latitude, Longitude: loc.Longitude, Timestamp: loc.Timestamp}, nil
}

// Settings returns the current admin settings, always defaulted.
func (s *AdminService) Settings() dto.SettingsResponse {
	settings := s.state.Settings()
	return dto.SettingsResponse{Range: settings.Range, Venue: settings.Venue}
}

// Data combines location and settings; it fails with NO_LOCATION when the
// location is unset, matching the location endpoint.
func (s *AdminService) Data() (dto.AdminDataResponse, error) {
	loc, err := s.Location()
	if err != nil {
		return dto.AdminDataResponse{}, err
	}
	return dto.AdminDataResponse{Location: loc, Settings: s.Settings()}, nil
}
