// Package api provides the health and status HTTP server.
package api

import "github.com/stacklok/feedrelay/internal/status"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status"`
}

// VersionResponse represents the version information response
type VersionResponse struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// StatusResponse reports the stored checkpoint, the number of subscribed
// destinations and the outcome of the last cycle
type StatusResponse struct {
	Checkpoint    *uint32           `json:"checkpoint"`
	Subscriptions int               `json:"subscriptions"`
	Sync          status.SyncStatus `json:"sync"`
}
