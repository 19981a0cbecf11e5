package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// VersionChecker reports the database server version.
type VersionChecker interface {
	Version(ctx context.Context) (string, error)
}

type HealthController struct {
	DB      VersionChecker
	Project string
	Version string
	Log     zerolog.Logger
}

func NewHealthController(db VersionChecker, project, version string, log zerolog.Logger) *HealthController {
	return &HealthController{DB: db, Project: project, Version: version, Log: log}
}

func (hc *HealthController) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	body := fiber.Map{"status": "ok", "project": hc.Project, "version": hc.Version}
	dbVersion, err := hc.DB.Version(ctx)
	if err != nil {
		hc.Log.Warn().Err(err).Msg("health check: database unavailable")
		body["status"] = "unavailable"
		body["database"] = nil
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	body["database"] = dbVersion
	return c.JSON(body)
}
