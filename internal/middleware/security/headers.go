package security

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type HeadersConfig struct {
	AllowedOrigins []string
	IsDevelopment  bool
}

// HeadersMiddleware sets the response security headers. Embedded artifacts
// render in srcdoc frames, which inherit this policy, so scripts and styles
// from https CDNs stay allowed.
func HeadersMiddleware(cfg HeadersConfig) fiber.Handler {
	csp := buildCSP(cfg.AllowedOrigins)

	return func(c *fiber.Ctx) error {
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		if !cfg.IsDevelopment {
			c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Set("Content-Security-Policy", csp)

		return c.Next()
	}
}

func buildCSP(origins []string) string {
	return "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' https:; " +
		"style-src 'self' 'unsafe-inline' https:; " +
		"img-src 'self' data: blob: https:; " +
		"font-src 'self' data: https:; " +
		"connect-src " + buildConnectSrc(origins) + "; " +
		"frame-src 'self' about:; " +
		"frame-ancestors 'none'; " +
		"base-uri 'self'; " +
		"form-action 'self'"
}

func buildConnectSrc(origins []string) string {
	sources := append([]string{"'self'", "ws:", "wss:"}, origins...)
	return strings.Join(sources, " ")
}
