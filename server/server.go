// Package server exposes the viewer over a localhost HTTP API. A small
// embedded frontend plays the role of the desktop window; state changes are
// pushed to it over a websocket.
package server

import (
	"errors"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/wudi/pdfocr/app"
	"github.com/wudi/pdfocr/config"
	"github.com/wudi/pdfocr/observability"
	"github.com/wudi/pdfocr/ocr"
	"github.com/wudi/pdfocr/render"
	"github.com/wudi/pdfocr/selection"
	"github.com/wudi/pdfocr/session"
)

// Server wires the controller into a fiber application.
type Server struct {
	fiber      *fiber.App
	controller *app.Controller
	log        observability.Logger
}

func New(controller *app.Controller, cfg config.ServerConfig, logger observability.Logger) *Server {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	f := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
	})
	s := &Server{fiber: f, controller: controller, log: logger}
	s.routes()
	return s
}

// Listen serves until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", observability.String("addr", addr))
	return s.fiber.Listen(addr)
}

func (s *Server) Shutdown() error { return s.fiber.Shutdown() }

func (s *Server) routes() {
	s.fiber.Use(s.requestLogger())
	s.fiber.Get("/", s.handleIndex)

	api := s.fiber.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/open", s.handleOpen)
	api.Get("/page.png", s.handlePageImage)
	api.Get("/page/text", s.handlePageText)
	api.Post("/page", s.handleSetPage)
	api.Post("/page/next", s.handleNextPage)
	api.Post("/page/prev", s.handlePrevPage)
	api.Post("/zoom", s.handleSetZoom)
	api.Post("/zoom/in", s.handleZoomIn)
	api.Post("/zoom/out", s.handleZoomOut)
	api.Post("/selection", s.handleSetSelection)
	api.Delete("/selection", s.handleClearSelection)
	api.Post("/engine", s.handleSetEngine)
	api.Get("/engines", s.handleEngines)
	api.Post("/ocr/page", s.handleOCRPage)
	api.Post("/ocr/selection", s.handleOCRSelection)
	api.Post("/ocr/document", s.handleOCRDocument)
	api.Get("/log", s.handleLog)
	api.Delete("/log", s.handleClearLog)
	api.Post("/save", s.handleSave)

	s.fiber.Get("/ws", websocket.New(s.handleWebsocket))
}

// requestLogger tags each request with an id and logs it on completion.
func (s *Server) requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := uuid.NewString()
		c.Set("X-Request-ID", id)
		err := c.Next()
		s.log.Debug("request",
			observability.String("id", id),
			observability.String("method", c.Method()),
			observability.String("path", c.Path()),
			observability.Int("status", c.Response().StatusCode()))
		return err
	}
}

// jsonError maps domain errors onto HTTP status codes.
func jsonError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNoDocument),
		errors.Is(err, app.ErrNoSelection),
		errors.Is(err, app.ErrNoText):
		code = fiber.StatusConflict
	case errors.Is(err, selection.ErrInvalidSelection),
		errors.Is(err, ocr.ErrUnknownVariant):
		code = fiber.StatusBadRequest
	case errors.Is(err, render.ErrDocumentLoad),
		errors.Is(err, render.ErrPageOutOfRange):
		code = fiber.StatusUnprocessableEntity
	case errors.Is(err, app.ErrQueueFull):
		code = fiber.StatusTooManyRequests
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.controller.Snapshot())
}

func (s *Server) handleOpen(c *fiber.Ctx) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path required"})
	}
	snap, err := s.controller.OpenDocument(req.Path)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handlePageImage(c *fiber.Ctx) error {
	data, err := s.controller.RenderPage(c.Context())
	if err != nil {
		return jsonError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

// handlePageText serves the embedded text layer of the current page. It is
// informational; OCR never consults it.
func (s *Server) handlePageText(c *fiber.Ctx) error {
	text, err := s.controller.PageText()
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}

func (s *Server) handleSetPage(c *fiber.Ctx) error {
	var req struct {
		Page int `json:"page"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "page required"})
	}
	snap, err := s.controller.SetPage(req.Page)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handleNextPage(c *fiber.Ctx) error {
	snap, err := s.controller.NextPage()
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handlePrevPage(c *fiber.Ctx) error {
	snap, err := s.controller.PrevPage()
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handleSetZoom(c *fiber.Ctx) error {
	var req struct {
		Zoom float64 `json:"zoom"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "zoom required"})
	}
	return c.JSON(s.controller.SetZoom(req.Zoom))
}

func (s *Server) handleZoomIn(c *fiber.Ctx) error  { return c.JSON(s.controller.ZoomIn()) }
func (s *Server) handleZoomOut(c *fiber.Ctx) error { return c.JSON(s.controller.ZoomOut()) }

func (s *Server) handleSetSelection(c *fiber.Ctx) error {
	var req struct {
		selection.Rect
		OffsetX float64 `json:"offset_x"`
		OffsetY float64 `json:"offset_y"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "selection rect required"})
	}
	snap, err := s.controller.SetSelection(req.Rect, req.OffsetX, req.OffsetY)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handleClearSelection(c *fiber.Ctx) error {
	return c.JSON(s.controller.ClearSelection())
}

func (s *Server) handleSetEngine(c *fiber.Ctx) error {
	var req struct {
		Engine string `json:"engine"`
	}
	if err := c.BodyParser(&req); err != nil || req.Engine == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "engine required"})
	}
	snap, err := s.controller.SetEngine(req.Engine)
	if err != nil {
		return jsonError(c, err)
	}
	return c.JSON(snap)
}

func (s *Server) handleEngines(c *fiber.Ctx) error {
	type engineInfo struct {
		Variant     string `json:"variant"`
		Description string `json:"description"`
	}
	out := make([]engineInfo, 0, len(ocr.Variants()))
	for _, v := range ocr.Variants() {
		out = append(out, engineInfo{Variant: v.String(), Description: v.Description()})
	}
	return c.JSON(out)
}

func (s *Server) handleOCRPage(c *fiber.Ctx) error {
	id, err := s.controller.OCRPage()
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

func (s *Server) handleOCRSelection(c *fiber.Ctx) error {
	id, err := s.controller.OCRSelection()
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

func (s *Server) handleOCRDocument(c *fiber.Ctx) error {
	id, err := s.controller.OCRDocument()
	if err != nil {
		return jsonError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": id})
}

func (s *Server) handleLog(c *fiber.Ctx) error {
	after := c.QueryInt("after", -1)
	entries := s.controller.Log(after)
	if entries == nil {
		entries = []session.Entry{}
	}
	return c.JSON(entries)
}

func (s *Server) handleClearLog(c *fiber.Ctx) error {
	s.controller.ClearLog()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSave(c *fiber.Ctx) error {
	var req struct {
		Path string `json:"path"`
	}
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path required"})
	}
	if err := s.controller.SaveText(req.Path); err != nil {
		return jsonError(c, err)
	}
	return c.JSON(fiber.Map{"saved": req.Path})
}

// handleWebsocket streams controller events to the frontend until the client
// disconnects.
func (s *Server) handleWebsocket(conn *websocket.Conn) {
	events, cancel := s.controller.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
	}
}
