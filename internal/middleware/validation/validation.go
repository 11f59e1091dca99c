package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxHTMLSize         int
	MaxRecallLength     int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware enforces request shape on the session endpoints before they
// reach the handlers: page uploads must carry html within the size cap, and
// recall submissions must carry non-empty text.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxHTMLSize == 0 {
		cfg.MaxHTMLSize = 5 * 1024 * 1024
	}
	if cfg.MaxRecallLength == 0 {
		cfg.MaxRecallLength = 50000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.HasSuffix(path, "/start") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			html, ok := req["html"].(string)
			if !ok || html == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "html is required and must be a string",
				})
			}

			if len(html) > cfg.MaxHTMLSize {
				cfg.Logger.Warn("Oversized page upload rejected",
					zap.String("ip", c.IP()),
					zap.Int("size", len(html)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Page exceeds maximum size",
				})
			}
		}

		if strings.HasSuffix(path, "/recall") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			text, ok := req["text"].(string)
			if !ok || strings.TrimSpace(text) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "text is required and must be a string",
				})
			}

			if len(text) > cfg.MaxRecallLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Recall text exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}
