// Package httpserver exposes the daemon's admin HTTP surface: liveness,
// Prometheus metrics, and a debug dump of the current registry contents.
// This is an operator sidecar, not a client-facing API — the actual
// query/acknowledge protocol runs over the mailbox transport
// (internal/mailbox).
package httpserver

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fty-ops/alert-registry/internal/domain/entity"
	"github.com/fty-ops/alert-registry/internal/infrastructure/config"
	"github.com/fty-ops/alert-registry/internal/domain/registry"
)

// Server wraps the admin Fiber app.
type Server struct {
	app *fiber.App
	cfg *config.ServerConfig
}

// New builds the admin server. store is read through Snapshot() only —
// the HTTP surface never takes the registry lock directly.
func New(cfg *config.Config, store *registry.Store, version string) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: true,
	})

	app.Use(requestLogger())
	app.Use(prometheusMiddleware())

	app.Get("/healthz", healthHandler(version))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/debug/registry", debugRegistryHandler(store))

	return &Server{app: app, cfg: &cfg.Server}
}

// Listen starts serving; it blocks until the app is shut down.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown stops serving, honoring an in-flight request drain.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func healthHandler(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "alive",
			"version": version,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	}
}

type debugAlert struct {
	Rule     string   `json:"rule"`
	Element  string   `json:"element"`
	State    string   `json:"state"`
	Severity string   `json:"severity"`
	TTL      int64    `json:"ttl"`
	CTime    int64    `json:"ctime"`
	LastSent int64    `json:"last_sent"`
	Actions  []string `json:"actions"`
}

func debugRegistryHandler(store *registry.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		alerts := store.Snapshot()
		out := make([]debugAlert, len(alerts))
		for i, a := range alerts {
			out[i] = toDebugAlert(a)
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"count":  len(out),
			"alerts": out,
		})
	}
}

func toDebugAlert(a *entity.Alert) debugAlert {
	return debugAlert{
		Rule:     a.Rule,
		Element:  a.Element,
		State:    string(a.State),
		Severity: a.Severity,
		TTL:      a.TTL,
		CTime:    a.CTime,
		LastSent: a.LastSent,
		Actions:  a.Actions,
	}
}
