package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bidr_backend/internal/payout"
	"bidr_backend/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler reports service health, including settlement-side state
// (payout queue depth, feed subscribers) that a plain DB ping misses.
type HealthHandler struct {
	db        *pgxpool.Pool
	queue     *payout.Queue
	hub       *ws.Hub
	startTime time.Time
	version   string
}

func NewHealthHandler(db *pgxpool.Pool, queue *payout.Queue, hub *ws.Hub, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		queue:     queue,
		hub:       hub,
		startTime: time.Now(),
		version:   version,
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Liveness answers the k8s liveness probe without touching dependencies.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness answers the k8s readiness probe: database reachability plus
// settlement state. A deep payout backlog is reported but does not flip the
// service unready; transfers drain independently of request serving.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	allHealthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	checks["payout_queue_depth"] = strconv.Itoa(h.queue.Len())
	checks["feed_clients"] = strconv.Itoa(h.hub.Count())

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// Health is the basic combined check: a quick DB ping and the version.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}
