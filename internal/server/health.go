package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"time"

	"cryo_booking_bot/pkg/metrics"
)

// Pinger проверяет доступность зависимости
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Checks    map[string]string `json:"checks"`
}

// HealthChecker проверяет состояние системы
type HealthChecker struct {
	deps      map[string]Pinger
	startTime time.Time
	version   string
}

// NewHealthChecker создает новый health checker. deps проверяются по имени.
func NewHealthChecker(deps map[string]Pinger, version string) *HealthChecker {
	return &HealthChecker{
		deps:      deps,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthHandler обрабатывает запросы health check
func (h *HealthChecker) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	overallStatus := "healthy"

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := h.deps[name].Ping(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			overallStatus = "unhealthy"
			continue
		}
		checks[name] = "healthy"
	}

	if memStatus := h.checkMemory(); memStatus != "healthy" {
		checks["memory"] = memStatus
		if overallStatus == "healthy" {
			overallStatus = "warning"
		}
	} else {
		checks["memory"] = "healthy"
	}

	if goroutineStatus := h.checkGoroutines(); goroutineStatus != "healthy" {
		checks["goroutines"] = goroutineStatus
		if overallStatus == "healthy" {
			overallStatus = "warning"
		}
	} else {
		checks["goroutines"] = "healthy"
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus == "unhealthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(response)
}

// checkMemory проверяет использование памяти
func (h *HealthChecker) checkMemory() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	metrics.MemoryUsage.Set(float64(m.Alloc))

	const warningLimit = 500 * 1024 * 1024
	const criticalLimit = 1024 * 1024 * 1024

	if m.Alloc > criticalLimit {
		return "critical: memory usage > 1GB"
	} else if m.Alloc > warningLimit {
		return "warning: memory usage > 500MB"
	}
	return "healthy"
}

// checkGoroutines проверяет количество горутин
func (h *HealthChecker) checkGoroutines() string {
	count := runtime.NumGoroutine()
	metrics.GoroutinesCount.Set(float64(count))

	const warningLimit = 100
	const criticalLimit = 1000

	if count > criticalLimit {
		return "critical: too many goroutines"
	} else if count > warningLimit {
		return "warning: high goroutine count"
	}
	return "healthy"
}
