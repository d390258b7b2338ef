package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	xssPattern  = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
)

type Config struct {
	MaxSlugLength  int
	MaxStateLength int
	MaxLimit       int
	Logger         *zap.Logger
}

// Middleware rejects malformed navigation and query parameters before they
// reach the composer or the district store. Mount it on the route, not with
// app.Use, so the :page parameter is bound.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxSlugLength == 0 {
		cfg.MaxSlugLength = 64
	}
	if cfg.MaxStateLength == 0 {
		cfg.MaxStateLength = 100
	}
	if cfg.MaxLimit == 0 {
		cfg.MaxLimit = 1000
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead {
			return c.Next()
		}

		if page := c.Params("page"); page != "" && !validSlug(page, cfg.MaxSlugLength) {
			return badRequest(c, "Invalid page")
		}

		if tab := c.Query("tab"); tab != "" && !validSlug(tab, cfg.MaxSlugLength) {
			return badRequest(c, "Invalid tab")
		}

		if state := c.Query("state"); state != "" {
			if len(state) > cfg.MaxStateLength {
				return badRequest(c, "State exceeds maximum length")
			}
			if containsXSS(state) {
				cfg.Logger.Warn("Potential XSS attempt",
					zap.String("ip", c.IP()),
					zap.String("state", state),
				)
				return badRequest(c, "Invalid state")
			}
		}

		if limit := c.Query("limit"); limit != "" {
			n, err := strconv.Atoi(limit)
			if err != nil || n <= 0 || n > cfg.MaxLimit {
				return badRequest(c, "Limit must be between 1 and "+strconv.Itoa(cfg.MaxLimit))
			}
		}

		return c.Next()
	}
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func validSlug(s string, maxLen int) bool {
	return len(s) <= maxLen && slugPattern.MatchString(s)
}

func containsXSS(input string) bool {
	return xssPattern.MatchString(input)
}

// SanitizeString trims and strips NUL bytes from free-text parameters.
func SanitizeString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")
	return input
}
