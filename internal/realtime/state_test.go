package realtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateDefaults(t *testing.T) {
	state := NewState(0)

	_, ok := state.Location()
	assert.False(t, ok)

	settings := state.Settings()
	assert.Equal(t, 50, settings.Range)
	assert.Equal(t, "", settings.Venue)
	assert.False(t, state.Assigned())
}

func TestStateSetLocationOverwrites(t *testing.T) {
	state := NewState(50)

	first := state.SetLocation(5.55, -0.19, time.UnixMilli(1000))
	second := state.SetLocation(6.66, -1.2, time.UnixMilli(2000))

	loc, ok := state.Location()
	require.True(t, ok)
	assert.Equal(t, second, loc)
	assert.NotEqual(t, first.Latitude, loc.Latitude)
	assert.Equal(t, int64(2000), loc.Timestamp)
}

func TestStateMergeSettingsPartial(t *testing.T) {
	state := NewState(50)

	venue := "Science Block B"
	settings, changed := state.MergeSettings(nil, &venue)
	assert.True(t, changed)
	assert.Equal(t, 50, settings.Range)
	assert.Equal(t, "Science Block B", settings.Venue)

	rangeMeters := 100
	settings, changed = state.MergeSettings(&rangeMeters, nil)
	assert.True(t, changed)
	assert.Equal(t, 100, settings.Range)
	assert.Equal(t, "Science Block B", settings.Venue)

	_, changed = state.MergeSettings(nil, nil)
	assert.False(t, changed)
}

func TestStateAssignRotatesToken(t *testing.T) {
	state := NewState(50)

	tokenA, previous := state.Assign("conn-a")
	require.Empty(t, previous)
	require.NotEmpty(t, tokenA)
	assert.Equal(t, "conn-a", state.AdminID())

	tokenB, previous := state.Assign("conn-b")
	assert.Equal(t, "conn-a", previous)
	assert.NotEqual(t, tokenA, tokenB)

	// Old token must die with the old assignment.
	assert.False(t, state.Authorize("conn-a", tokenA))
	assert.True(t, state.Authorize("conn-b", ""))
	assert.True(t, state.Authorize("other-conn", tokenB))
}

func TestStateAuthorizeUnassigned(t *testing.T) {
	state := NewState(50)
	assert.False(t, state.Authorize("anyone", ""))

	state.Assign("conn-a")
	state.Release()
	assert.False(t, state.Authorize("conn-a", ""))
}

func TestStateClearLocation(t *testing.T) {
	state := NewState(50)
	state.SetLocation(5.55, -0.19, time.Now())
	state.ClearLocation()

	_, ok := state.Location()
	assert.False(t, ok)
}
