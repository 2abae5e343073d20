package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoattend/attendance-api/internal/dto"
	appErrors "github.com/geoattend/attendance-api/pkg/errors"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

type fakeAdminSrv struct {
	location    dto.LocationResponse
	locationErr error
	settings    dto.SettingsResponse
	data        dto.AdminDataResponse
	dataErr     error
	updated     []dto.LocationResponse
}

func (f *fakeAdminSrv) UpdateLocation(latitude, longitude float64) dto.LocationResponse {
	loc := dto.LocationResponse{Latitude: latitude, Longitude: longitude, Timestamp: 1700000000000}
	f.updated = append(f.updated, loc)
	return loc
}

func (f *fakeAdminSrv) Location() (dto.LocationResponse, error) {
	return f.location, f.locationErr
}

func (f *fakeAdminSrv) Settings() dto.SettingsResponse {
	return f.settings
}

func (f *fakeAdminSrv) Data() (dto.AdminDataResponse, error) {
	return f.data, f.dataErr
}

func jsonRequest(method, target string, payload string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAdminHandlerUpdateLocation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminSrv{}
	handler := NewAdminHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/admin/location", `{"latitude":5.6037,"longitude":-0.187}`)

	handler.UpdateLocation(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.updated, 1)
	assert.Equal(t, 5.6037, srv.updated[0].Latitude)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Location updated", envelope.Data["status"])
}

func TestAdminHandlerUpdateLocationMissingCoordinates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAdminSrv{}
	handler := NewAdminHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/admin/location", `{"latitude":5.6037}`)

	handler.UpdateLocation(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.updated)
}

func TestAdminHandlerLocationNotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{locationErr: appErrors.ErrNoLocation})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/location", nil)

	handler.Location(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NO_LOCATION", envelope.Error.Code)
}

func TestAdminHandlerSettings(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{settings: dto.SettingsResponse{Range: 75, Venue: "Science Block B"}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/settings", nil)

	handler.Settings(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(75), envelope.Data["range"])
	assert.Equal(t, "Science Block B", envelope.Data["venue"])
}

func TestAdminHandlerDataRequiresLocation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAdminHandler(&fakeAdminSrv{dataErr: appErrors.ErrNoLocation})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/data", nil)

	handler.Data(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
