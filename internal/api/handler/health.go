package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// DatabaseChecker reports database connectivity.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// ModelProber reports whether the recognizer holds at least one
// enrolled model and can therefore accept punches.
type ModelProber interface {
	Ready() bool
}

type HealthHandler struct {
	db     DatabaseChecker
	prober ModelProber
}

func NewHealthHandler(db DatabaseChecker, prober ModelProber) *HealthHandler {
	return &HealthHandler{
		db:     db,
		prober: prober,
	}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Model    string `json:"model"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

// Ready reports whether the service can accept punches: the database
// must answer and at least one identity must be enrolled.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	resp := ReadyResponse{
		Status:   "ready",
		Database: "ok",
		Model:    "ok",
	}

	if err := h.db.Ping(c.Context()); err != nil {
		resp.Status = "unavailable"
		resp.Database = "unreachable"
	}
	if !h.prober.Ready() {
		resp.Status = "unavailable"
		resp.Model = "no identities enrolled"
	}

	if resp.Status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
