package web

import (
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/feligres/feligres/app/health"
	"github.com/feligres/feligres/app/store"
)

// APIStatusResponse is the JSON response for /api/v1/status
type APIStatusResponse struct {
	Status    string        `json:"status"` // ok, degraded or error when the database is unreachable
	Version   string        `json:"version"`
	Hostname  string        `json:"hostname,omitempty"`
	Uptime    string        `json:"uptime"`
	Database  string        `json:"database"`
	Stats     store.Stats   `json:"stats"`
	Host      health.Report `json:"host"`
	Timestamp time.Time     `json:"timestamp"`
}

// handleAPIStatus returns book counters, database state and host metrics
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	checker := health.Checker{Thresholds: s.thresholds}
	resp := APIStatusResponse{
		Version:   s.version,
		Hostname:  s.hostname,
		Uptime:    health.Uptime(s.startTime, now),
		Database:  "ok",
		Host:      checker.Check(),
		Timestamp: now,
	}
	resp.Status = resp.Host.Status

	if err := s.store.Ping(ctx); err != nil {
		log.Printf("[WARN] database ping failed: %v", err)
		resp.Database, resp.Status = "error", "error"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		log.Printf("[ERROR] failed to load stats: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "Error al cargar estadísticas")
		return
	}
	resp.Stats = stats
	writeJSON(w, http.StatusOK, resp)
}
