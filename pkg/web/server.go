// Package web exposes the capture session over HTTP and websockets.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/metersnap/metersnap/internal/log"
	"github.com/metersnap/metersnap/pkg/capture"
	"github.com/metersnap/metersnap/pkg/device"
	"github.com/metersnap/metersnap/pkg/hub"
	"github.com/metersnap/metersnap/pkg/store"
)

// Config wires the server's collaborators. Session and Catalog are
// required; Store and the hubs are optional (readings and the websocket
// feeds 404 / idle without them).
type Config struct {
	Port    string
	Session *capture.Session
	Catalog device.Catalog
	Store   store.Store

	// PreviewHub fans out binary JPEG viewport frames; StatusHub fans
	// out JSON state and result updates. Pass the same hubs the session
	// broadcasts on.
	PreviewHub *hub.Hub
	StatusHub  *hub.Hub
}

// Server is the HTTP/websocket front for one capture session.
type Server struct {
	app *fiber.App
	cfg Config
}

// NewServer builds the fiber app and registers all routes.
func NewServer(cfg Config) *Server {
	s := &Server{cfg: cfg}

	app := fiber.New(fiber.Config{
		AppName:               "metersnap",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/devices", s.handleDevices)
	api.Get("/state", s.handleState)
	api.Get("/readings", s.handleReadings)
	api.Post("/trigger", s.handleTrigger)
	api.Post("/flip", s.handleFlip)
	api.Post("/select/:id", s.handleSelect)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/preview", websocket.New(s.handlePreviewWS))
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// Start runs the hubs and blocks serving HTTP.
func (s *Server) Start() error {
	if s.cfg.PreviewHub != nil {
		go s.cfg.PreviewHub.Run()
	}
	if s.cfg.StatusHub != nil {
		go s.cfg.StatusHub.Run()
	}

	log.Info("web: listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
