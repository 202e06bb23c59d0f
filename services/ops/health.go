// Package ops carries operational plumbing: the health report and the
// activity-log maintenance job.
package ops

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"autoecole_go/config"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

const (
	statusOK       = "ok"
	statusDegraded = "degraded"

	dependencyUp       = "up"
	dependencyDown     = "down"
	dependencyDisabled = "disabled"

	serviceName  = "Driving School Platform API"
	version      = "1.0.0"
	probeTimeout = 1500 * time.Millisecond
)

// HealthService aggregates application health information for reporting endpoints.
type HealthService struct {
	db        *gorm.DB
	rc        *redis.Client
	cfg       *config.Config
	startTime time.Time
}

func NewHealthService(db *gorm.DB, rc *redis.Client, cfg *config.Config) *HealthService {
	return &HealthService{db: db, rc: rc, cfg: cfg, startTime: time.Now()}
}

// DependencyStatus captures the health of a single external dependency.
type DependencyStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthReport represents the JSON response for the health endpoint.
type HealthReport struct {
	Status        string             `json:"status"`
	Message       string             `json:"message"`
	Service       string             `json:"service"`
	Version       string             `json:"version"`
	Environment   string             `json:"environment"`
	Time          time.Time          `json:"time"`
	UptimeSeconds float64            `json:"uptime_seconds"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Goroutines    int                `json:"goroutines"`
}

// Report probes MySQL and Redis and assembles the health document.
func (hs *HealthService) Report() HealthReport {
	deps := []DependencyStatus{
		hs.probeDatabase(),
		hs.probeRedis(),
	}

	status := statusOK
	message := "Driving School Platform API is running"
	for _, d := range deps {
		if d.Status == dependencyDown {
			status = statusDegraded
			message = fmt.Sprintf("dependency %s is down", d.Name)
			break
		}
	}

	return HealthReport{
		Status:        status,
		Message:       message,
		Service:       serviceName,
		Version:       version,
		Environment:   hs.cfg.AppEnv,
		Time:          time.Now(),
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Dependencies:  deps,
		Goroutines:    runtime.NumGoroutine(),
	}
}

func (hs *HealthService) probeDatabase() DependencyStatus {
	start := time.Now()
	sqlDB, err := hs.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		return DependencyStatus{Name: "mysql", Status: dependencyDown, Error: err.Error()}
	}
	return DependencyStatus{Name: "mysql", Status: dependencyUp, Latency: time.Since(start).String()}
}

func (hs *HealthService) probeRedis() DependencyStatus {
	if hs.rc == nil {
		return DependencyStatus{Name: "redis", Status: dependencyDisabled}
	}
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := hs.rc.Ping(ctx).Err(); err != nil {
		return DependencyStatus{Name: "redis", Status: dependencyDown, Error: err.Error()}
	}
	return DependencyStatus{Name: "redis", Status: dependencyUp, Latency: time.Since(start).String()}
}
