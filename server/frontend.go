package server

import (
	"embed"

	"github.com/gofiber/fiber/v2"
)

//go:embed static/index.html
var staticFS embed.FS

func (s *Server) handleIndex(c *fiber.Ctx) error {
	data, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(data)
}
