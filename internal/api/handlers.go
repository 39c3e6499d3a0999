package api

import (
	"log/slog"
	"net/http"

	"github.com/stacklok/feedrelay/internal/api/common"
	"github.com/stacklok/feedrelay/internal/versions"
)

// healthHandler reports that the process is serving requests.
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler reports whether the storage backend answers.
func readinessHandler(svc StatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.CheckReadiness(r.Context()); err != nil {
			slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
			common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()
	common.WriteJSONResponse(w, VersionResponse{
		Version:   info.Version,
		Commit:    info.Commit,
		BuildDate: info.BuildDate,
		GoVersion: info.GoVersion,
		Platform:  info.Platform,
	}, http.StatusOK)
}

// statusHandler reports the checkpoint, the subscription count and the last
// sync outcome.
func statusHandler(svc StatusService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := svc.Status(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Failed to collect status", "error", err)
			common.WriteErrorResponse(w, "failed to collect status", http.StatusInternalServerError)
			return
		}
		common.WriteJSONResponse(w, resp, http.StatusOK)
	}
}
