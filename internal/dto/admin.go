package dto

// UpdateLocationRequest mirrors the websocket adminLocation update for HTTP
// clients that cannot hold a live channel.
type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// LocationResponse is the admin location as served over HTTP.
type LocationResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

// SettingsResponse is the admin settings as served over HTTP.
type SettingsResponse struct {
	Range int    `json:"range"`
	Venue string `json:"venue"`
}

// AdminDataResponse combines location and settings for mobile clients.
type AdminDataResponse struct {
	Location LocationResponse `json:"location"`
	Settings SettingsResponse `json:"settings"`
}

// UpdateLocationResponse acknowledges an HTTP location update.
type UpdateLocationResponse struct {
	Status   string           `json:"status"`
	Location LocationResponse `json:"location"`
}
