package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/geoattend/attendance-api/internal/models"
)

// Metrics is the instrumentation surface the hub reports into.
type Metrics interface {
	WSConnected()
	WSDisconnected()
	WSEventBroadcast(event string)
}

// Options tunes hub and connection behaviour.
type Options struct {
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	WriteTimeout      time.Duration
	SendBufferSize    int
}

func (o Options) withDefaults() Options {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 25 * time.Second
	}
	if o.HeartbeatTimeout <= 0 {
		o.HeartbeatTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.SendBufferSize <= 0 {
		o.SendBufferSize = 32
	}
	return o
}

// Hub tracks every live connection, owns role election and fans events out.
// All registry mutations run synchronously under one mutex, so individual
// transitions are atomic with respect to each other.
type Hub struct {
	opts    Options
	state   *State
	logger  *zap.Logger
	metrics Metrics

	mu      sync.Mutex
	clients map[string]*Client
}

// NewHub constructs a hub around an injected broadcast state.
func NewHub(state *State, opts Options, logger *zap.Logger, metrics Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		opts:    opts.withDefaults(),
		state:   state,
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]*Client),
	}
}

// State exposes the broadcast state for the HTTP mirror handlers.
func (h *Hub) State() *State {
	return h.state
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Register admits a connection, assigns its role and replays current state
// so late joiners catch up without waiting for the next broadcast.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID] = c
	if h.metrics != nil {
		h.metrics.WSConnected()
	}

	if c.isWeb {
		// Newest web client always wins the admin slot; the previous
		// holder is demoted, not shared with.
		token, previous := h.state.Assign(c.ID)
		h.sendLocked(c, EventRoleAssigned, RolePayload{Role: RoleAdmin, SocketID: c.ID, AdminToken: token})
		if previous != "" && previous != c.ID {
			if prev, ok := h.clients[previous]; ok {
				h.sendLocked(prev, EventRoleAssigned, RolePayload{Role: RoleStudent, SocketID: prev.ID})
			}
			h.logger.Info("admin replaced",
				zap.String("new_admin", c.ID), zap.String("previous_admin", previous))
		} else {
			h.logger.Info("admin assigned", zap.String("client_id", c.ID))
		}
	} else {
		h.sendLocked(c, EventRoleAssigned, RolePayload{Role: RoleStudent, SocketID: c.ID})
	}

	if loc, ok := h.state.Location(); ok && h.state.AdminID() != c.ID {
		h.sendLocked(c, EventAdminLocation, LocationPayload{
			Latitude: loc.Latitude, Longitude: loc.Longitude, Timestamp: loc.Timestamp,
		})
	}

	settings := h.state.Settings()
	h.sendLocked(c, EventAdminSettings, SettingsPayload{Range: settings.Range, Venue: settings.Venue})
}

// Unregister removes a connection. Losing the admin clears the location,
// notifies everyone and hands the slot to the freshest surviving web client.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	close(c.send)
	if h.metrics != nil {
		h.metrics.WSDisconnected()
	}

	if h.state.AdminID() != c.ID {
		return
	}

	h.state.ClearLocation()
	h.broadcastLocked(EventAdminGone, AdminGonePayload{AdminID: c.ID})
	h.logger.Info("admin disconnected, location cleared", zap.String("client_id", c.ID))

	if next := h.freshestWebClientLocked(); next != nil {
		token, _ := h.state.Assign(next.ID)
		h.sendLocked(next, EventRoleAssigned, RolePayload{Role: RoleAdmin, SocketID: next.ID, AdminToken: token})
		h.logger.Info("admin re-elected", zap.String("client_id", next.ID))
	} else {
		h.state.Release()
	}
}

func (h *Hub) freshestWebClientLocked() *Client {
	var next *Client
	for _, candidate := range h.clients {
		if !candidate.isWeb {
			continue
		}
		if next == nil || candidate.connectedAt.After(next.connectedAt) {
			next = candidate
		}
	}
	return next
}

// Dispatch routes one inbound frame from a connection.
func (h *Hub) Dispatch(c *Client, env Envelope) {
	switch env.Event {
	case EventAdminLocation:
		h.handleLocation(c, env.Data)
	case EventAdminSettings:
		h.handleSettings(c, env.Data)
	case EventClearLocation:
		h.handleClearLocation(c, env.Data)
	case EventJoinRoom:
		h.handleRoom(c, env.Data, true)
	case EventLeaveRoom:
		h.handleRoom(c, env.Data, false)
	case EventSessionStarted:
		h.handleSessionStarted(c, env.Data)
	case EventSessionEnded:
		h.handleSessionEnded(c, env.Data)
	default:
		h.sendError(c, "unknown event: "+env.Event)
	}
}

// handleLocation accepts a location update from any connection, admin or
// not. Whoever presses START MARKING publishes; demoted admins keep working
// until their role notification lands. Each update is a total overwrite.
func (h *Hub) handleLocation(c *Client, data json.RawMessage) {
	var upd LocationUpdate
	if err := json.Unmarshal(data, &upd); err != nil || upd.Latitude == nil || upd.Longitude == nil {
		h.sendError(c, "latitude and longitude are required")
		return
	}

	loc := h.state.SetLocation(*upd.Latitude, *upd.Longitude, time.Now())
	settings, changed := h.state.MergeSettings(upd.Range, upd.Venue)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(EventAdminLocation, LocationPayload{
		Latitude: loc.Latitude, Longitude: loc.Longitude, Timestamp: loc.Timestamp,
	})
	if changed {
		h.broadcastLocked(EventAdminSettings, SettingsPayload{Range: settings.Range, Venue: settings.Venue})
	}
	h.logger.Debug("location set",
		zap.String("client_id", c.ID),
		zap.Float64("latitude", loc.Latitude),
		zap.Float64("longitude", loc.Longitude))
}

func (h *Hub) handleSettings(c *Client, data json.RawMessage) {
	var upd SettingsUpdate
	if err := json.Unmarshal(data, &upd); err != nil {
		h.sendError(c, "malformed settings payload")
		return
	}
	if !h.state.Authorize(c.ID, upd.Token) {
		h.logger.Warn("non-admin attempted to set settings", zap.String("client_id", c.ID))
		h.sendError(c, "Only admin can set settings")
		return
	}

	settings, _ := h.state.MergeSettings(upd.Range, upd.Venue)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(EventAdminSettings, SettingsPayload{Range: settings.Range, Venue: settings.Venue})
}

func (h *Hub) handleClearLocation(c *Client, data json.RawMessage) {
	var p TokenPayload
	if len(data) > 0 {
		_ = json.Unmarshal(data, &p)
	}
	if !h.state.Authorize(c.ID, p.Token) {
		h.logger.Warn("non-admin attempted to clear location", zap.String("client_id", c.ID))
		h.sendError(c, "Only admin can clear location")
		return
	}

	h.state.ClearLocation()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(EventLocationCleared, ClearedPayload{Timestamp: time.Now().UnixMilli()})
	h.logger.Info("admin cleared location", zap.String("client_id", c.ID))
}

func (h *Hub) handleRoom(c *Client, data json.RawMessage, join bool) {
	var upd RoomUpdate
	if err := json.Unmarshal(data, &upd); err != nil || upd.Program == "" || upd.Level == "" {
		h.sendError(c, "program and level are required")
		return
	}
	room := models.RoomName(upd.Program, upd.Level)

	h.mu.Lock()
	defer h.mu.Unlock()
	if join {
		c.rooms[room] = struct{}{}
	} else {
		delete(c.rooms, room)
	}
}

func (h *Hub) handleSessionStarted(c *Client, data json.RawMessage) {
	var p SessionStartedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(c, "malformed session payload")
		return
	}
	if !h.state.Authorize(c.ID, p.Token) {
		h.logger.Warn("non-admin attempted to start session", zap.String("client_id", c.ID))
		h.sendError(c, "Only admin can start sessions")
		return
	}
	p.Token = ""
	h.BroadcastSessionStarted(p)
	h.logger.Info("session broadcast", zap.String("session_id", p.SessionID), zap.String("client_id", c.ID))
}

func (h *Hub) handleSessionEnded(c *Client, data json.RawMessage) {
	var p SessionEndedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.sendError(c, "malformed session payload")
		return
	}
	if !h.state.Authorize(c.ID, p.Token) {
		h.logger.Warn("non-admin attempted to end session", zap.String("client_id", c.ID))
		h.sendError(c, "Only admin can end sessions")
		return
	}
	p.Token = ""
	h.BroadcastSessionEnded(p, models.RoomName(p.Program, p.Level))
}

// BroadcastSessionStarted fans the start event out to the session's
// program/level room only.
func (h *Hub) BroadcastSessionStarted(p SessionStartedPayload) {
	p.Token = ""
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastRoomLocked(models.RoomName(p.Program, p.Level), EventSessionStarted, p)
}

// BroadcastSessionEnded fans the end event out to the given room. An empty
// room falls back to a global broadcast for callers that cannot recover the
// program/level pair.
func (h *Hub) BroadcastSessionEnded(p SessionEndedPayload, room string) {
	p.Token = ""
	h.mu.Lock()
	defer h.mu.Unlock()
	if room == "" || room == "_" {
		h.broadcastLocked(EventSessionEnded, p)
		return
	}
	h.broadcastRoomLocked(room, EventSessionEnded, p)
}

// BroadcastLocation replays the current location to every client. Used by
// the HTTP mirror endpoint after it mutates state.
func (h *Hub) BroadcastLocation(loc Location) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(EventAdminLocation, LocationPayload{
		Latitude: loc.Latitude, Longitude: loc.Longitude, Timestamp: loc.Timestamp,
	})
}

func (h *Hub) broadcastLocked(event string, data interface{}) {
	msg, err := NewEnvelope(event, data)
	if err != nil {
		h.logger.Error("marshal broadcast failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.metrics != nil {
		h.metrics.WSEventBroadcast(event)
	}
	for _, c := range h.clients {
		if !c.queue(msg) {
			h.logger.Debug("dropped frame for slow client", zap.String("client_id", c.ID))
		}
	}
}

func (h *Hub) broadcastRoomLocked(room, event string, data interface{}) {
	msg, err := NewEnvelope(event, data)
	if err != nil {
		h.logger.Error("marshal broadcast failed", zap.String("event", event), zap.Error(err))
		return
	}
	if h.metrics != nil {
		h.metrics.WSEventBroadcast(event)
	}
	for _, c := range h.clients {
		if _, ok := c.rooms[room]; !ok {
			continue
		}
		if !c.queue(msg) {
			h.logger.Debug("dropped frame for slow client", zap.String("client_id", c.ID))
		}
	}
}

func (h *Hub) sendLocked(c *Client, event string, data interface{}) {
	msg, err := NewEnvelope(event, data)
	if err != nil {
		h.logger.Error("marshal send failed", zap.String("event", event), zap.Error(err))
		return
	}
	if !c.queue(msg) {
		h.logger.Debug("dropped frame for slow client", zap.String("client_id", c.ID))
	}
}

// sendError delivers a best-effort error event to the offending caller only.
func (h *Hub) sendError(c *Client, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sendLocked(c, EventError, ErrorPayload{Message: message})
}
