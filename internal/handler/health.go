package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger checks one dependency's connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheckers holds the dependencies reported by the health endpoint.
// Nil entries are skipped.
type HealthCheckers struct {
	Postgres Pinger
	Redis    Pinger
	Minio    Pinger
	Events   interface{ Closed() bool }
}

// HealthCheck reports per-dependency status, returning 500 when any wired
// dependency is down.
func (h *Handler) HealthCheck(c *gin.Context) {
	ctx := c.Request.Context()
	status := gin.H{}
	up := true

	check := func(name string, p Pinger) {
		if p == nil {
			return
		}
		if err := p.Ping(ctx); err != nil {
			status[name] = "error: " + err.Error()
			up = false
		} else {
			status[name] = "connected"
		}
	}
	check("database", h.health.Postgres)
	check("cache", h.health.Redis)
	check("object_storage", h.health.Minio)

	if h.health.Events != nil {
		if h.health.Events.Closed() {
			status["events"] = "disconnected"
			up = false
		} else {
			status["events"] = "connected"
		}
	}

	if !up {
		status["status"] = "DOWN"
		c.JSON(http.StatusInternalServerError, status)
		return
	}
	status["status"] = "UP"
	c.JSON(http.StatusOK, status)
}
