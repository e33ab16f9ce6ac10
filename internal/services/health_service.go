package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"dtindex/internal/infrastructure"
	"dtindex/pkg/contracts"
)

// SessionCounter reports the number of open live sessions
type SessionCounter interface {
	ClientCount() int
}

// Health check states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// ComponentCheck is the readiness of one dependency
type ComponentCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ProcessInfo is attached to liveness answers
type ProcessInfo struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	GoVersion     string  `json:"go_version"`
	Goroutines    int     `json:"goroutines"`
}

// HealthStatus is the body of every health endpoint
type HealthStatus struct {
	Status     string                    `json:"status"`
	Timestamp  time.Time                 `json:"timestamp"`
	Version    string                    `json:"version"`
	Process    *ProcessInfo              `json:"process,omitempty"`
	Components map[string]ComponentCheck `json:"components,omitempty"`
}

// Ready reports whether the readiness check passed
func (s HealthStatus) Ready() bool { return s.Status == StatusReady }

// BuildInfo is the /api/version body
type BuildInfo struct {
	contracts.VersionInfo
	StartTime     time.Time `json:"start_time"`
	UptimeSeconds float64   `json:"uptime_seconds"`
}

// SystemStats is served by /metrics/stats
type SystemStats struct {
	UptimeSeconds  float64                     `json:"uptime_seconds"`
	DatasetRecords int                         `json:"dataset_records"`
	LiveSessions   int                         `json:"live_sessions"`
	Runtime        infrastructure.RuntimeStats `json:"runtime"`
}

// DetailedHealth bundles every health check with the system stats
type DetailedHealth struct {
	Health    HealthStatus `json:"health"`
	Readiness HealthStatus `json:"readiness"`
	Liveness  HealthStatus `json:"liveness"`
	Stats     SystemStats  `json:"stats"`
}

// HealthService answers the health endpoints. Readiness depends on the
// dataset loading; the process is live as long as it serves requests.
type HealthService struct {
	build    contracts.VersionInfo
	data     DatasetProvider
	sessions SessionCounter
	started  time.Time
	logger   *slog.Logger
}

// NewHealthService creates a health service; data and sessions may be nil
func NewHealthService(build contracts.VersionInfo, data DatasetProvider, sessions SessionCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("git_commit", build.GitCommit))

	return &HealthService{
		build:    build,
		data:     data,
		sessions: sessions,
		started:  time.Now(),
		logger:   logger,
	}
}

func (hs *HealthService) status(s string) HealthStatus {
	return HealthStatus{Status: s, Timestamp: time.Now(), Version: hs.build.Version}
}

func (hs *HealthService) uptime() float64 { return time.Since(hs.started).Seconds() }

// HealthCheck always answers ok
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return hs.status(StatusOK)
}

// ReadinessCheck is ready only when the dataset can be loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	s := hs.status(StatusReady)
	s.Components = map[string]ComponentCheck{
		"dataset":   hs.checkDataset(ctx),
		"websocket": hs.checkSessions(),
	}
	for name, c := range s.Components {
		if c.Status != StatusReady {
			hs.logger.DebugContext(ctx, "component not ready",
				slog.String("component", name),
				slog.String("message", c.Message))
			s.Status = StatusNotReady
		}
	}
	return s
}

// LivenessCheck reports uptime and scheduler load
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	s := hs.status(StatusAlive)
	s.Process = &ProcessInfo{
		UptimeSeconds: hs.uptime(),
		GoVersion:     runtime.Version(),
		Goroutines:    runtime.NumGoroutine(),
	}
	return s
}

// Version returns the build stamp
func (hs *HealthService) Version() BuildInfo {
	return BuildInfo{VersionInfo: hs.build, StartTime: hs.started, UptimeSeconds: hs.uptime()}
}

// SystemStats returns process and dataset statistics. A dataset that fails to
// load counts as zero records.
func (hs *HealthService) SystemStats(ctx context.Context) SystemStats {
	stats := SystemStats{
		UptimeSeconds: hs.uptime(),
		Runtime:       infrastructure.CollectRuntimeStats(hs.started),
	}
	if hs.data != nil {
		if ds, err := hs.data.Get(ctx); err == nil {
			stats.DatasetRecords = ds.Len()
		}
	}
	if hs.sessions != nil {
		stats.LiveSessions = hs.sessions.ClientCount()
	}
	return stats
}

// Detailed runs every health check
func (hs *HealthService) Detailed(ctx context.Context) DetailedHealth {
	return DetailedHealth{
		Health:    hs.HealthCheck(ctx),
		Readiness: hs.ReadinessCheck(ctx),
		Liveness:  hs.LivenessCheck(ctx),
		Stats:     hs.SystemStats(ctx),
	}
}

func (hs *HealthService) checkDataset(ctx context.Context) ComponentCheck {
	if hs.data == nil {
		return ComponentCheck{Status: StatusNotReady, Message: "no dataset source configured"}
	}
	ds, err := hs.data.Get(ctx)
	if err != nil {
		return ComponentCheck{Status: StatusNotReady, Message: err.Error()}
	}
	return ComponentCheck{
		Status:  StatusReady,
		Message: fmt.Sprintf("%d records loaded from %s", ds.Len(), ds.Source.Location),
	}
}

func (hs *HealthService) checkSessions() ComponentCheck {
	if hs.sessions == nil {
		return ComponentCheck{Status: StatusReady, Message: "live sessions disabled"}
	}
	return ComponentCheck{Status: StatusReady, Message: fmt.Sprintf("%d live sessions", hs.sessions.ClientCount())}
}
