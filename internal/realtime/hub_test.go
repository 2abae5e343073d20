package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub() *Hub {
	return NewHub(NewState(50), Options{}, zap.NewNop(), nil)
}

var testClientSeq int

func connect(t *testing.T, h *Hub, web bool) *Client {
	t.Helper()
	testClientSeq++
	c := &Client{
		ID:          fmt.Sprintf("client-%d", testClientSeq),
		hub:         h,
		send:        make(chan []byte, 64),
		isWeb:       web,
		connectedAt: time.Now().Add(time.Duration(testClientSeq) * time.Millisecond),
		rooms:       make(map[string]struct{}),
	}
	h.Register(c)
	return c
}

func nextEvent(t *testing.T, c *Client) Envelope {
	t.Helper()
	select {
	case raw, ok := <-c.send:
		require.True(t, ok, "send channel closed")
		var env Envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		return env
	default:
		t.Fatalf("no queued event for client %s", c.ID)
		return Envelope{}
	}
}

func decodeData(t *testing.T, env Envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func dispatch(h *Hub, c *Client, event string, data interface{}) {
	raw, _ := json.Marshal(data)
	h.Dispatch(c, Envelope{Event: event, Data: raw})
}

func TestFirstWebConnectionBecomesAdmin(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	env := nextEvent(t, admin)
	require.Equal(t, EventRoleAssigned, env.Event)

	var role RolePayload
	decodeData(t, env, &role)
	assert.Equal(t, RoleAdmin, role.Role)
	assert.Equal(t, admin.ID, role.SocketID)
	assert.NotEmpty(t, role.AdminToken)

	// No location is set, so the only remaining replay is settings.
	env = nextEvent(t, admin)
	require.Equal(t, EventAdminSettings, env.Event)
	var settings SettingsPayload
	decodeData(t, env, &settings)
	assert.Equal(t, 50, settings.Range)
}

func TestMobileConnectionIsAlwaysStudent(t *testing.T) {
	h := newTestHub()

	student := connect(t, h, false)
	env := nextEvent(t, student)
	require.Equal(t, EventRoleAssigned, env.Event)

	var role RolePayload
	decodeData(t, env, &role)
	assert.Equal(t, RoleStudent, role.Role)
	assert.Empty(t, role.AdminToken)
	assert.False(t, h.State().Assigned())
}

func TestNewWebConnectionReplacesAdmin(t *testing.T) {
	h := newTestHub()

	first := connect(t, h, true)
	drain(first)

	second := connect(t, h, true)

	env := nextEvent(t, second)
	require.Equal(t, EventRoleAssigned, env.Event)
	var role RolePayload
	decodeData(t, env, &role)
	assert.Equal(t, RoleAdmin, role.Role)

	// Previous holder is demoted with a one-to-one notification.
	env = nextEvent(t, first)
	require.Equal(t, EventRoleAssigned, env.Event)
	decodeData(t, env, &role)
	assert.Equal(t, RoleStudent, role.Role)
	assert.Equal(t, first.ID, role.SocketID)

	assert.Equal(t, second.ID, h.State().AdminID())
}

func TestDemotedAdminGatedOperationsRejected(t *testing.T) {
	h := newTestHub()

	first := connect(t, h, true)
	second := connect(t, h, true)
	drain(first)
	drain(second)

	before := h.State().Settings()
	rangeMeters := 200
	dispatch(h, first, EventAdminSettings, SettingsUpdate{Range: &rangeMeters})

	env := nextEvent(t, first)
	require.Equal(t, EventError, env.Event)
	var errPayload ErrorPayload
	decodeData(t, env, &errPayload)
	assert.Equal(t, "Only admin can set settings", errPayload.Message)
	assert.Equal(t, before, h.State().Settings())

	dispatch(h, first, EventClearLocation, TokenPayload{})
	env = nextEvent(t, first)
	require.Equal(t, EventError, env.Event)
}

func TestAdminSettingsUpdateBroadcastsToAll(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	student := connect(t, h, false)
	drain(admin)
	drain(student)

	rangeMeters := 75
	venue := "Great Hall"
	dispatch(h, admin, EventAdminSettings, SettingsUpdate{Range: &rangeMeters, Venue: &venue})

	for _, c := range []*Client{admin, student} {
		env := nextEvent(t, c)
		require.Equal(t, EventAdminSettings, env.Event)
		var settings SettingsPayload
		decodeData(t, env, &settings)
		assert.Equal(t, 75, settings.Range)
		assert.Equal(t, "Great Hall", settings.Venue)
	}
}

func TestLocationUpdateAcceptedFromAnyConnection(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	student := connect(t, h, false)
	drain(admin)
	drain(student)

	lat, lon := 5.6037, -0.187
	dispatch(h, student, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})

	for _, c := range []*Client{admin, student} {
		env := nextEvent(t, c)
		require.Equal(t, EventAdminLocation, env.Event)
		var loc LocationPayload
		decodeData(t, env, &loc)
		assert.Equal(t, lat, loc.Latitude)
		assert.Equal(t, lon, loc.Longitude)
	}
}

func TestLocationUpdateMissingCoordinatesRejected(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	drain(admin)

	lat := 5.6037
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat})

	env := nextEvent(t, admin)
	require.Equal(t, EventError, env.Event)
	_, ok := h.State().Location()
	assert.False(t, ok)
}

func TestRepeatedLocationUpdatesAreSafe(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	drain(admin)

	lat, lon := 5.6037, -0.187
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})

	var first, second LocationPayload
	env := nextEvent(t, admin)
	require.Equal(t, EventAdminLocation, env.Event)
	decodeData(t, env, &first)
	env = nextEvent(t, admin)
	require.Equal(t, EventAdminLocation, env.Event)
	decodeData(t, env, &second)

	assert.Equal(t, first.Latitude, second.Latitude)
	assert.Equal(t, first.Longitude, second.Longitude)
}

func TestLocationUpdateWithSettingsBroadcastsBoth(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	drain(admin)

	lat, lon := 5.6037, -0.187
	rangeMeters := 30
	venue := "Lecture Theatre 1"
	dispatch(h, admin, EventAdminLocation, LocationUpdate{
		Latitude: &lat, Longitude: &lon, Range: &rangeMeters, Venue: &venue,
	})

	env := nextEvent(t, admin)
	assert.Equal(t, EventAdminLocation, env.Event)
	env = nextEvent(t, admin)
	require.Equal(t, EventAdminSettings, env.Event)
	var settings SettingsPayload
	decodeData(t, env, &settings)
	assert.Equal(t, 30, settings.Range)
	assert.Equal(t, "Lecture Theatre 1", settings.Venue)
}

func TestLateJoinerCatchesUpOnLocation(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	drain(admin)

	lat, lon := 5.6037, -0.187
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})

	late := connect(t, h, false)
	env := nextEvent(t, late) // roleAssigned
	require.Equal(t, EventRoleAssigned, env.Event)

	env = nextEvent(t, late)
	require.Equal(t, EventAdminLocation, env.Event)
	var loc LocationPayload
	decodeData(t, env, &loc)
	assert.Equal(t, lat, loc.Latitude)

	env = nextEvent(t, late)
	assert.Equal(t, EventAdminSettings, env.Event)
}

func TestClearLocationBroadcastsDistinctEvent(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	student := connect(t, h, false)
	drain(admin)
	drain(student)

	lat, lon := 5.6037, -0.187
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})
	drain(admin)
	drain(student)

	dispatch(h, admin, EventClearLocation, TokenPayload{})

	for _, c := range []*Client{admin, student} {
		env := nextEvent(t, c)
		require.Equal(t, EventLocationCleared, env.Event)
		var cleared ClearedPayload
		decodeData(t, env, &cleared)
		assert.NotZero(t, cleared.Timestamp)
	}
	_, ok := h.State().Location()
	assert.False(t, ok)
}

func TestAdminDisconnectClearsLocationAndNotifies(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	student := connect(t, h, false)
	drain(admin)
	drain(student)

	lat, lon := 5.6037, -0.187
	dispatch(h, admin, EventAdminLocation, LocationUpdate{Latitude: &lat, Longitude: &lon})
	drain(student)

	h.Unregister(admin)

	_, ok := h.State().Location()
	assert.False(t, ok)

	env := nextEvent(t, student)
	require.Equal(t, EventAdminGone, env.Event)
	var gone AdminGonePayload
	decodeData(t, env, &gone)
	assert.Equal(t, admin.ID, gone.AdminID)

	// No surviving web client, so the slot is released.
	assert.False(t, h.State().Assigned())
}

func TestAdminDisconnectReelectsFreshestWebClient(t *testing.T) {
	h := newTestHub()

	older := connect(t, h, true)
	admin := connect(t, h, true)
	drain(older)
	drain(admin)

	h.Unregister(admin)

	env := nextEvent(t, older) // adminDisconnected broadcast
	require.Equal(t, EventAdminGone, env.Event)

	env = nextEvent(t, older)
	require.Equal(t, EventRoleAssigned, env.Event)
	var role RolePayload
	decodeData(t, env, &role)
	assert.Equal(t, RoleAdmin, role.Role)
	assert.NotEmpty(t, role.AdminToken)
	assert.Equal(t, older.ID, h.State().AdminID())
}

func TestSingleAdminInvariant(t *testing.T) {
	h := newTestHub()

	clients := []*Client{
		connect(t, h, true),
		connect(t, h, false),
		connect(t, h, true),
		connect(t, h, false),
		connect(t, h, true),
	}

	adminID := h.State().AdminID()
	assert.Equal(t, clients[4].ID, adminID)

	admins := 0
	for _, c := range clients {
		if h.State().AdminID() == c.ID {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestSessionStartedTargetsRoomOnly(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	inRoom := connect(t, h, false)
	otherRoom := connect(t, h, false)
	drain(admin)
	drain(inRoom)
	drain(otherRoom)

	dispatch(h, inRoom, EventJoinRoom, RoomUpdate{Program: "BSc Computer Science", Level: "300"})
	dispatch(h, otherRoom, EventJoinRoom, RoomUpdate{Program: "BSc Nursing", Level: "100"})

	h.BroadcastSessionStarted(SessionStartedPayload{
		SessionID:  "ATT_1700000000000_abc123xyz",
		CourseCode: "CS301",
		Program:    "BSc Computer Science",
		Level:      "300",
		QRCode:     "CS301_1700000000000",
		StartTime:  time.Now(),
	})

	env := nextEvent(t, inRoom)
	require.Equal(t, EventSessionStarted, env.Event)
	var started SessionStartedPayload
	decodeData(t, env, &started)
	assert.Equal(t, "CS301", started.CourseCode)
	assert.Empty(t, started.Token)

	select {
	case raw := <-otherRoom.send:
		t.Fatalf("unexpected event for other room: %s", raw)
	default:
	}
}

func TestSessionStartedOverSocketGated(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	student := connect(t, h, false)
	drain(admin)
	drain(student)

	dispatch(h, student, EventSessionStarted, SessionStartedPayload{SessionID: "ATT_1_a"})
	env := nextEvent(t, student)
	require.Equal(t, EventError, env.Event)
	var errPayload ErrorPayload
	decodeData(t, env, &errPayload)
	assert.Equal(t, "Only admin can start sessions", errPayload.Message)
}

func TestAdminTokenAuthorizesGatedOperation(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	env := nextEvent(t, admin)
	var role RolePayload
	decodeData(t, env, &role)
	drain(admin)

	student := connect(t, h, false)
	drain(student)

	// A non-admin connection presenting the live admin token is honored,
	// which is what keeps gated calls working across transport reconnects.
	rangeMeters := 120
	dispatch(h, student, EventAdminSettings, SettingsUpdate{Range: &rangeMeters, Token: role.AdminToken})

	env = nextEvent(t, admin)
	require.Equal(t, EventAdminSettings, env.Event)
	var settings SettingsPayload
	decodeData(t, env, &settings)
	assert.Equal(t, 120, settings.Range)
}

func TestUnknownEventReturnsError(t *testing.T) {
	h := newTestHub()

	admin := connect(t, h, true)
	drain(admin)

	h.Dispatch(admin, Envelope{Event: "teleport"})
	env := nextEvent(t, admin)
	assert.Equal(t, EventError, env.Event)
}
