package web

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/metersnap/metersnap/pkg/capture"
	"github.com/metersnap/metersnap/pkg/hub"
	"github.com/metersnap/metersnap/pkg/stream"
)

// defaultReadingsLimit caps GET /api/readings responses.
const defaultReadingsLimit = 20

// handleDevices returns the current camera catalog snapshot and which
// device the session is on.
func (s *Server) handleDevices(c *fiber.Ctx) error {
	devices, err := s.cfg.Catalog.ListVideoDevices(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"devices": devices,
		"current": s.cfg.Session.State().DeviceID,
	})
}

// handleState returns the session's observable state.
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.cfg.Session.State())
}

// handleReadings returns the most recent persisted readings.
func (s *Server) handleReadings(c *fiber.Ctx) error {
	if s.cfg.Store == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "persistence not configured",
		})
	}

	limit := c.QueryInt("limit", defaultReadingsLimit)
	readings, err := s.cfg.Store.Recent(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(readings)
}

// handleTrigger fires the overloaded capture/resume command and returns
// the resulting state.
func (s *Server) handleTrigger(c *fiber.Ctx) error {
	if err := s.cfg.Session.Trigger(c.Context()); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(s.cfg.Session.State())
}

// handleFlip switches to the counterpart lens.
func (s *Server) handleFlip(c *fiber.Ctx) error {
	if err := s.cfg.Session.Flip(c.Context()); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(s.cfg.Session.State())
}

// handleSelect switches to an explicitly chosen device. Device IDs are
// filesystem paths (/dev/video0), so clients percent-encode them and the
// path parameter is unescaped here.
func (s *Server) handleSelect(c *fiber.Ctx) error {
	id, err := url.PathUnescape(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed device id: " + err.Error(),
		})
	}
	if err := s.cfg.Session.SelectDevice(c.Context(), id); err != nil {
		return sessionError(c, err)
	}
	return c.JSON(s.cfg.Session.State())
}

// sessionError maps session and stream failures to HTTP statuses.
func sessionError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, capture.ErrNotStarted):
		status = fiber.StatusConflict
	case errors.Is(err, capture.ErrNoFrame):
		status = fiber.StatusConflict
	case errors.Is(err, capture.ErrNoCamera), errors.Is(err, stream.ErrNoDevice):
		status = fiber.StatusNotFound
	case errors.Is(err, stream.ErrPermissionDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, stream.ErrDeviceBusy):
		status = fiber.StatusConflict
	case errors.Is(err, stream.ErrConstraintUnsatisfiable):
		status = fiber.StatusUnprocessableEntity
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// handlePreviewWS attaches a client to the binary viewport feed.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	if s.cfg.PreviewHub == nil {
		c.Close()
		return
	}
	client := hub.NewClient(s.cfg.PreviewHub, c)
	client.Run() // Blocks until connection closes
}

// handleStatusWS attaches a client to the JSON status feed, seeding it
// with the current state.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	if s.cfg.StatusHub == nil {
		c.Close()
		return
	}

	c.WriteJSON(fiber.Map{
		"type":  "state",
		"state": s.cfg.Session.State(),
	})

	client := hub.NewClient(s.cfg.StatusHub, c)
	client.Run()
}
